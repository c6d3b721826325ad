package config

import (
	"os"
	"path/filepath"
)

const appDirName = "petweights"

// ConfigDir returns the directory holding config.yaml and the Sheets OAuth
// files.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	dotConfig := filepath.Join(home, ".config")
	if _, err := os.Stat(dotConfig); err == nil {
		return filepath.Join(dotConfig, appDirName)
	}
	return filepath.Join(home, "."+appDirName)
}

// DataDir returns the directory for the run ledger and log files.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// fall back to the working directory
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
		return "."
	}
	localShare := filepath.Join(home, ".local", "share")
	if _, err := os.Stat(localShare); err == nil {
		return filepath.Join(localShare, appDirName)
	}
	return filepath.Join(home, "."+appDirName)
}

// DefaultPath is where the config file is looked up when --config is unset.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
