// filepath: internal/media/locator.go
package media

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"sonerezh/internal/logging"
)

// Locator finds executables on the host.
type Locator interface {
	// LocateExecutable returns the path of name and whether it was found.
	LocateExecutable(ctx context.Context, name string) (string, bool)
}

// ShellLocator asks the platform lookup command ("which" or "where").
// A non-zero exit status, empty output or an expired context all mean "absent".
type ShellLocator struct{}

// LocateExecutable implements Locator.
func (ShellLocator) LocateExecutable(ctx context.Context, name string) (string, bool) {
	cmd := exec.CommandContext(ctx, lookupCommand, name)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logging.Log.Debugf("%s %s failed: %v %s", lookupCommand, name, err, strings.TrimSpace(stderr.String()))
		return "", false
	}
	return firstLine(stdout.String())
}

// PathLocator resolves executables with exec.LookPath, without spawning a process.
type PathLocator struct{}

// LocateExecutable implements Locator.
func (PathLocator) LocateExecutable(ctx context.Context, name string) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return path, true
}

// firstLine returns the first non-empty line; "where" prints every match.
func firstLine(out string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line, true
		}
	}
	return "", false
}
