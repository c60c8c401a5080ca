// Package paths resolves configuration and data directory locations.
//
// Both directories default to CWD-relative locations so a project keeps its
// property declarations next to its code. The --global flag switches the
// defaults to the per-user platform directories instead.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".entityprop"
	DefaultDataDirName   = ".entityprop-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "ENTITYPROP_CONFIG_DIR"
	EnvDataDir   = "ENTITYPROP_DATA_DIR"
)

const appDirName = "entityprop"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the platform-specific configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/entityprop (fallback ~/.config/entityprop)
// macOS:   ~/Library/Application Support/entityprop
// Windows: %APPDATA%/entityprop
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName), nil
}

// DefaultDataDir returns the platform-specific data directory.
//
// Linux:   $XDG_DATA_HOME/entityprop (fallback ~/.local/share/entityprop)
// macOS and Windows: same as DefaultConfigDir.
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName), nil
}

func xdgDir(env, homeRel string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, appDirName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > ENTITYPROP_CONFIG_DIR > default. The default is
// $(CWD)/.entityprop, or DefaultConfigDir when global is set.
func ResolveConfigDir(flag string, global bool) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	if global {
		return DefaultConfigDir()
	}
	return cwdDir(DefaultConfigDirName)
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > ENTITYPROP_DATA_DIR > default. The default is
// $(CWD)/.entityprop-db, or DefaultDataDir when global is set.
func ResolveDataDir(flag, configYAMLValue string, global bool) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	if global {
		return DefaultDataDir()
	}
	return cwdDir(DefaultDataDirName)
}

func cwdDir(name string) (string, error) {
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, name), nil
}
