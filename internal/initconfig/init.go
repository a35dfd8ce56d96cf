// filepath: internal/initconfig/init.go
// Package initconfig runs an unattended installation from a TOML answer file.
package initconfig

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"sonerezh/internal/fsutil"
	"sonerezh/internal/logging"
	"sonerezh/internal/models"
	"sonerezh/internal/services"

	"github.com/BurntSushi/toml"
)

// Load reads an answer file.
func Load(path string) (*AnswerFile, error) {
	var answers AnswerFile
	if _, err := toml.DecodeFile(path, &answers); err != nil {
		return nil, fmt.Errorf("failed to parse answer file '%s': %w", path, err)
	}
	return &answers, nil
}

// Run executes the installation described by the answer file at path.
// The passwords are cleared from the file once the installation succeeded.
func Run(ctx context.Context, installer services.InstallerService, path string) (models.InstallResult, error) {
	logging.Log.Infof("Answer file found at: %s. Processing...", path)

	answers, err := Load(path)
	if err != nil {
		return models.InstallResult{}, err
	}

	if installer.IsInstalled() {
		logging.Log.Infof("Skipping answer file: %s", services.MsgAlreadyInstalled)
		return models.InstallResult{Success: true, Message: services.MsgAlreadyInstalled, Redirect: installer.LandingURL()}, nil
	}

	result := installer.Install(ctx, answers.Request())
	if !result.Success {
		logging.Log.Errorf("Unattended installation failed: %s", result.Message)
		return result, nil
	}

	clearPasswords(answers, path)
	return result, nil
}

// clearPasswords attempts to overwrite the answer file with passwords removed.
func clearPasswords(answers *AnswerFile, path string) {
	logging.Log.Info("Attempting to clear passwords from answer file...")

	answers.Database.Password = ""
	answers.Admin.Password = ""

	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(answers); err != nil {
		logging.Log.Warnf("Could not re-encode answer file to clear passwords: %v", err)
		logging.Log.Warnf("SECURITY: Please manually remove passwords from '%s'", path)
		return
	}

	perm := os.FileMode(0600)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), perm); err != nil {
		logging.Log.Warnf("Failed to write back to answer file to clear passwords: %v", err)
		logging.Log.Warnf("SECURITY: Please manually remove passwords from '%s'", path)
		return
	}

	logging.Log.Info("Successfully cleared passwords from answer file.")
}
