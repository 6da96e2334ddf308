// Package paths resolves the configuration directory and the cache root.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppName names the per-user configuration directory.
const AppName = "nrmirror"

// DefaultCacheDirName is the cache root under the home directory.
const DefaultCacheDirName = ".nr_data"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "NRMIRROR_CONFIG_DIR"
	EnvCacheDir  = "NRMIRROR_CACHE_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/nrmirror (fallback ~/.config/nrmirror)
// macOS:   ~/Library/Application Support/nrmirror
// Windows: %APPDATA%/nrmirror
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
}

// DefaultCacheDir returns ~/.nr_data on every platform.
func DefaultCacheDir() (string, error) {
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultCacheDirName), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p, nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, p[1:]), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > NRMIRROR_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveCacheDir returns the cache root following the precedence chain:
// flag > configValue > NRMIRROR_CACHE_DIR env > DefaultCacheDir(). A leading
// "~" is expanded and the result is absolute.
func ResolveCacheDir(flag, configValue string) (string, error) {
	for _, candidate := range []string{flag, configValue, os.Getenv(EnvCacheDir)} {
		if candidate == "" {
			continue
		}
		expanded, err := ExpandHome(candidate)
		if err != nil {
			return "", err
		}
		return filepath.Abs(expanded)
	}
	return DefaultCacheDir()
}
