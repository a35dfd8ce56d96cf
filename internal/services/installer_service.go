// filepath: internal/services/installer_service.go
package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"sonerezh/internal/config"
	"sonerezh/internal/logging"
	"sonerezh/internal/models"
	"sonerezh/internal/repository"
	"sonerezh/internal/security"
	"sonerezh/internal/shared"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure interface is implemented
var _ InstallerService = (*installerService)(nil)

// OpenFunc connects to a database. repository.Open in production.
type OpenFunc func(ctx context.Context, cfg config.DatabaseConfig, timeout time.Duration) (*repository.Repository, error)

// installerService runs the setup wizard.
type installerService struct {
	cfg     *config.Config
	prober  RequirementProber
	keys    *security.KeyRewriter
	auditor Auditor
	open    OpenFunc

	rotateMu sync.Mutex
}

// NewInstallerService creates a new InstallerService.
func NewInstallerService(cfg *config.Config, prober RequirementProber, keys *security.KeyRewriter, auditor Auditor) *installerService {
	return &installerService{
		cfg:     cfg,
		prober:  prober,
		keys:    keys,
		auditor: auditor,
		open:    repository.Open,
	}
}

// IsInstalled reports whether a database configuration has been committed.
func (s *installerService) IsInstalled() bool {
	return s.cfg.IsInstalled()
}

// LandingURL returns the post-install page of the application.
func (s *installerService) LandingURL() string {
	return s.cfg.Installer.LandingURL
}

// Requirements probes the server prerequisites.
func (s *installerService) Requirements(ctx context.Context) models.RequirementReport {
	return s.prober.Probe(ctx)
}

// PreparePage probes the requirements and, when the application configuration
// file is writable, regenerates the security keys.
func (s *installerService) PreparePage(ctx context.Context) models.InstallPage {
	page := models.InstallPage{Report: s.prober.Probe(ctx)}

	if core, ok := page.Report.Check("core"); ok && core.Status == models.StatusSuccess {
		page.KeysReset = s.rotateKeys(ctx)
	}
	return page
}

// rotateKeys regenerates the cipher seed and salt. Unless rotate_once is set
// this happens on every page load, which invalidates anything the application
// signed with the previous pair.
func (s *installerService) rotateKeys(ctx context.Context) bool {
	s.rotateMu.Lock()
	defer s.rotateMu.Unlock()

	if s.cfg.Security.RotateOnce {
		current, err := s.keys.Current()
		if err != nil {
			logging.Log.Errorf("Installer: failed to read security keys: %v", err)
			return false
		}
		if !current.Empty() {
			logging.Log.Debug("Installer: security keys already set, rotate_once is enabled")
			return false
		}
	}

	if _, err := s.keys.Rotate(); err != nil {
		logging.Log.Errorf("Installer: failed to rotate security keys: %v", err)
		return false
	}

	logging.Log.Warnf("Installer: security keys in %s regenerated, data signed with the previous keys is no longer valid", s.keys.Path())
	s.auditor.Log(ctx, "security.keys.rotate", "installer", s.keys.Path(), nil)
	return true
}

// Install runs a submission through every step. The database configuration is
// staged first and only committed once the user and settings are saved; any
// failure discards it so the installation can be retried.
func (s *installerService) Install(ctx context.Context, req models.InstallRequest) models.InstallResult {
	if !req.DB.Datasource.Valid() {
		logging.Log.Warnf("Installer: rejected datasource %q", req.DB.Datasource)
		return failure(shared.ErrInvalidInput, MsgWrongDatasource)
	}

	lock, err := acquireInstallLock(s.cfg.LockPath())
	if err != nil {
		logging.Log.Warnf("Installer: %v", err)
		if errors.Is(err, shared.ErrInstallLocked) {
			return failure(shared.ErrResourceUnavailable, MsgInstallInProgress)
		}
		return failure(shared.ErrResourceUnavailable, MsgWriteConfigFailed)
	}
	defer lock.Release()

	log := logging.Log.WithFields(logrus.Fields{
		"run_id":     lock.RunID,
		"datasource": req.DB.Datasource,
	})
	log.Info("Installer: installation started")

	if s.IsInstalled() {
		log.Warnf("Installer: %v, refusing to overwrite it", ErrAlreadyInstalled)
		return failure(shared.ErrInvalidInput, MsgAlreadyInstalled)
	}

	report := s.prober.Probe(ctx)
	if report.MissingRequirements {
		log.Warnf("Installer: %v", ErrMissingRequirements)
		return failure(shared.ErrResourceUnavailable, MsgMissingRequirements)
	}
	if !slices.Contains(report.AvailableDatasources, req.DB.Datasource) {
		log.Warnf("Installer: %v for %s", ErrDriverUnavailable, req.DB.Datasource.Driver())
		return failure(shared.ErrResourceUnavailable, MsgDriverUnavailable)
	}

	// Stage the database configuration.
	staged, err := config.StageDatabaseConfig(s.cfg, config.NewDatabaseConfig(req.DB))
	if err != nil {
		log.Errorf("Installer: failed to stage database configuration: %v", err)
		return failure(shared.ErrResourceUnavailable, MsgWriteConfigFailed)
	}
	defer staged.Discard()

	// Connect with what was written, not with what was submitted.
	dbCfg, err := staged.Load()
	if err != nil {
		log.Errorf("Installer: failed to read back staged configuration: %v", err)
		return failure(shared.ErrResourceUnavailable, MsgWriteConfigFailed)
	}
	repo, err := s.open(ctx, *dbCfg, s.cfg.ConnectTimeout)
	if err != nil {
		log.Errorf("Installer: %v", err)
		return failure(shared.ErrConnectionFailure, MsgConnectionFailed)
	}
	defer repo.Close()

	if err := repo.ApplySchema(ctx); err != nil {
		log.Errorf("Installer: %v", err)
		return failure(shared.ErrSchemaFailure, MsgSchemaFailed)
	}

	if result, ok := validateUser(req.User); !ok {
		log.Warn("Installer: administrator account rejected")
		return result
	}

	user, setting, err := repo.SeedInstallation(ctx,
		repository.UserCreateArgs{
			Username: strings.TrimSpace(req.User.Username),
			Email:    strings.TrimSpace(req.User.Email),
			Password: req.User.Password,
			Role:     models.RoleAdmin,
		},
		initialSetting(req.Setting, report.AutoConversion),
	)
	if err != nil {
		log.Errorf("Installer: %v", err)
		return failure(shared.ErrPersistenceFailure, MsgSaveFailed)
	}

	if err := staged.Commit(); err != nil {
		log.Errorf("Installer: %v", err)
		// Without the configuration the seeded rows would block every retry.
		if err := repo.UnseedInstallation(ctx, user.ID, setting.ID); err != nil {
			log.WithField("user", user.Username).Errorf("Installer: database holds an administrator but %s was not written, "+
				"remove the users and settings rows before retrying: %v", s.cfg.DatabaseConfigPath(), err)
		}
		return failure(shared.ErrResourceUnavailable, MsgWriteConfigFailed)
	}

	log.WithFields(logrus.Fields{
		"user_id":          user.ID,
		"enable_auto_conv": setting.EnableAutoConv,
	}).Info("Installer: installation successful")
	s.auditor.Log(ctx, "install.complete", user.Username, s.cfg.DatabaseConfigPath(), map[string]interface{}{
		"run_id":     lock.RunID,
		"datasource": string(req.DB.Datasource),
	})

	return models.InstallResult{
		Success:  true,
		Message:  MsgInstallSuccessful,
		Redirect: s.LandingURL(),
	}
}

// validateUser checks the administrator account before anything is saved.
func validateUser(u models.InstallUser) (models.InstallResult, bool) {
	result := failure(shared.ErrInvalidInput, MsgSaveFailed)
	if strings.TrimSpace(u.Username) == "" {
		result.AddFieldError("username", MsgUsernameRequired)
	}
	if u.Password == "" {
		result.AddFieldError("password", MsgPasswordRequired)
	}
	if u.Password != u.ConfirmPassword {
		logging.Log.Debugf("Installer: %v", ErrPasswordMismatch)
		result.AddFieldError("password", MsgPasswordMismatch)
	}
	return result, len(result.FieldErrors) == 0
}

// initialSetting fills the settings row, falling back to the defaults of a
// fresh installation. Auto-conversion follows the converter probe.
func initialSetting(in models.InstallSetting, autoConversion bool) models.Setting {
	st := models.Setting{
		EnableAutoConv: autoConversion,
		ConvertFrom:    strings.TrimSpace(in.ConvertFrom),
		ConvertTo:      strings.TrimSpace(in.ConvertTo),
		Quality:        in.Quality,
	}
	if st.ConvertFrom == "" {
		st.ConvertFrom = models.DefaultConvertFrom
	}
	if st.ConvertTo == "" {
		st.ConvertTo = models.DefaultConvertTo
	}
	if st.Quality <= 0 {
		st.Quality = models.DefaultQuality
	}
	return st
}

func failure(kind shared.Error, message string) models.InstallResult {
	return models.InstallResult{Success: false, Message: message, Kind: shared.ErrorKind(kind)}
}
