// Package platform resolves OS-specific locations: the user's home, the
// recoverable trash destination, and where macsweep keeps its catalog,
// config and logs.
package platform

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// Info contains platform-specific information and paths
type Info struct {
	OS        Platform
	HomeDir   string
	Username  string
	TrashDir  string // recoverable trash destination
	DataDir   string // catalog database location
	ConfigDir string // config.yaml location
	LogDir    string
}

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// GetInfo returns platform-specific information
func GetInfo() (*Info, error) {
	platform := Detect()

	currentUser, err := user.Current()
	if err != nil {
		return nil, err
	}

	homeDir := currentUser.HomeDir
	username := currentUser.Username

	switch platform {
	case MacOS:
		return &Info{
			OS:        MacOS,
			HomeDir:   homeDir,
			Username:  username,
			TrashDir:  filepath.Join(homeDir, ".Trash"),
			DataDir:   filepath.Join(homeDir, "Library/Application Support/macsweep"),
			ConfigDir: filepath.Join(homeDir, ".config/macsweep"),
			LogDir:    filepath.Join(homeDir, "Library/Logs/macsweep"),
		}, nil
	case Linux:
		return &Info{
			OS:        Linux,
			HomeDir:   homeDir,
			Username:  username,
			TrashDir:  linuxTrashDir(homeDir),
			DataDir:   xdgDir("XDG_DATA_HOME", homeDir, ".local/share", "macsweep"),
			ConfigDir: xdgDir("XDG_CONFIG_HOME", homeDir, ".config", "macsweep"),
			LogDir:    xdgDir("XDG_STATE_HOME", homeDir, ".local/state", "macsweep"),
		}, nil
	default:
		return nil, ErrUnsupportedPlatform
	}
}

// linuxTrashDir follows the freedesktop trash layout.
func linuxTrashDir(homeDir string) string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "Trash", "files")
	}
	return filepath.Join(homeDir, ".local/share/Trash/files")
}

func xdgDir(envVar, homeDir, fallback, app string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, app)
	}
	return filepath.Join(homeDir, fallback, app)
}

// Errors
var (
	ErrUnsupportedPlatform = &PlatformError{"unsupported platform"}
)

// PlatformError represents a platform-related error
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}
