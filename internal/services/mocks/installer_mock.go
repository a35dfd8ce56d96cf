// filepath: internal/services/mocks/installer_mock.go
package mocks

import (
	"context"

	"sonerezh/internal/models"
	"sonerezh/internal/services"

	"github.com/stretchr/testify/mock"
)

// MockInstallerService is a mock implementation of services.InstallerService
type MockInstallerService struct {
	mock.Mock
}

// Compile-time check to ensure interface compliance
var _ services.InstallerService = (*MockInstallerService)(nil)

func (m *MockInstallerService) IsInstalled() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockInstallerService) LandingURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockInstallerService) PreparePage(ctx context.Context) models.InstallPage {
	args := m.Called(ctx)
	return args.Get(0).(models.InstallPage)
}

func (m *MockInstallerService) Requirements(ctx context.Context) models.RequirementReport {
	args := m.Called(ctx)
	return args.Get(0).(models.RequirementReport)
}

func (m *MockInstallerService) Install(ctx context.Context, req models.InstallRequest) models.InstallResult {
	args := m.Called(ctx, req)
	return args.Get(0).(models.InstallResult)
}
