package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/atmena/internal/errors"
)

const defaultFile = "atmena.pid"

// DefaultPath is used when no PID file is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), defaultFile)
}

// Write writes the current process ID to path. It fails with
// ErrAlreadyRunning when the file names a live process.
func Write(path string) error {
	errFactory := errors.New()
	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		// PID file exists, check if the process is running
		bytes, err := os.ReadFile(path)
		if err != nil {
			return errFactory.Wrap(errors.ErrInternal, err)
		}

		pid, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
		if err == nil && pid != os.Getpid() {
			process, err := os.FindProcess(pid)
			if err != nil {
				return errFactory.Wrap(errors.ErrInternal, err)
			}
			// EPERM means the process exists but belongs to someone else.
			if err := process.Signal(syscall.Signal(0)); err == nil || errors.Is(err, syscall.EPERM) {
				return errFactory.WithData(errors.ErrAlreadyRunning, pid)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove(path string) error {
	errFactory := errors.New()
	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}
