// Package paths resolves the configuration directory and the template file
// used by the tnfpkg command.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appDir is the directory name under the platform configuration root.
const appDir = "tnfpkg"

// Environment variable overrides.
const (
	EnvConfigDir = "TNF_CONFIG_DIR"
	EnvTemplate  = "TNF_TEMPLATE"
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
// Linux:   $XDG_CONFIG_HOME/tnfpkg (fallback ~/.config/tnfpkg)
// macOS:   ~/Library/Application Support/tnfpkg
// Windows: %APPDATA%/tnfpkg
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appDir), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appDir), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > TNF_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveTemplate returns the template GeoPackage following the precedence
// chain: flag > config.yaml template > TNF_TEMPLATE env. An empty result
// means the built-in baseline is used. A relative config value is taken
// relative to configDir.
func ResolveTemplate(flag, configYAMLValue, configDir string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		if filepath.IsAbs(configYAMLValue) {
			return configYAMLValue, nil
		}
		return filepath.Join(configDir, configYAMLValue), nil
	}
	if env := os.Getenv(EnvTemplate); env != "" {
		return filepath.Abs(env)
	}
	return "", nil
}
