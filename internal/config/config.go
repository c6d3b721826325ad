// Package config loads config.yaml and resolves it against the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"petweights/internal/adapter/whisker"
	"petweights/internal/domain"
)

// Environment variables. They take precedence over the config file.
const (
	EnvUsername          = "PETWEIGHTS_USERNAME"
	EnvPassword          = "PETWEIGHTS_PASSWORD"
	EnvSpreadsheetID     = "PETWEIGHTS_SPREADSHEET_ID"
	EnvPet               = "PETWEIGHTS_PET"
	EnvSheetsCredentials = "PETWEIGHTS_SHEETS_CREDENTIALS"
	EnvSheetsToken       = "PETWEIGHTS_SHEETS_TOKEN"
	EnvLedgerDSN         = "PETWEIGHTS_LEDGER_DSN"
)

// AccountConfig holds the Whisker account login. The password is usually
// left to the environment or the prompt.
type AccountConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SheetsConfig locates the weight log spreadsheet and the OAuth files used
// to reach it.
type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	// Credentials is the OAuth client secret JSON from the Cloud console.
	Credentials string `yaml:"credentials"`
	Token       string `yaml:"token"`
}

// LedgerConfig configures the optional sync run ledger.
type LedgerConfig struct {
	// DSN is a postgres:// URL or a SQLite file path. Empty disables the
	// ledger.
	DSN string `yaml:"dsn"`
}

// LogConfig enables a rotated log file next to stderr output.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SyncConfig holds defaults for sync --watch.
type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// File is the on-disk config.yaml.
type File struct {
	Account AccountConfig  `yaml:"account"`
	Pet     string         `yaml:"pet"`
	Sheets  SheetsConfig   `yaml:"sheets"`
	Whisker whisker.Config `yaml:"whisker"`
	Ledger  LedgerConfig   `yaml:"ledger"`
	Log     LogConfig      `yaml:"log"`
	Sync    SyncConfig     `yaml:"sync"`
}

// Default returns the settings used for anything config.yaml leaves out.
func Default() *File {
	dir := ConfigDir()
	return &File{
		Sheets: SheetsConfig{
			Credentials: filepath.Join(dir, "credentials.json"),
			Token:       filepath.Join(dir, "token.json"),
		},
		Whisker: whisker.DefaultConfig(),
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Sync: SyncConfig{Interval: time.Hour},
	}
}

// Load reads path over the defaults. A missing file yields the defaults
// unless required is set.
func Load(path string, required bool) (*File, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolvedCredentials are the device-account credentials after env
// overrides.
type ResolvedCredentials struct {
	Username string
	Password string
}

// Account converts c into the credentials passed to a device source.
func (c ResolvedCredentials) Account() domain.AccountCredentials {
	return domain.AccountCredentials{Username: c.Username, Password: c.Password}
}

// Resolved is the effective configuration of one process.
type Resolved struct {
	Credentials       ResolvedCredentials
	SpreadsheetID     string
	Pet               string
	SheetsCredentials string
	SheetsToken       string
	LedgerDSN         string
	Whisker           whisker.Config
	Log               LogConfig
	Interval          time.Duration
}

// Resolve applies environment overrides to file. getenv is os.Getenv outside
// tests.
func Resolve(file *File, getenv func(string) string) Resolved {
	pick := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}
	return Resolved{
		Credentials: ResolvedCredentials{
			Username: pick(EnvUsername, file.Account.Username),
			Password: pick(EnvPassword, file.Account.Password),
		},
		SpreadsheetID:     pick(EnvSpreadsheetID, file.Sheets.SpreadsheetID),
		Pet:               pick(EnvPet, file.Pet),
		SheetsCredentials: pick(EnvSheetsCredentials, file.Sheets.Credentials),
		SheetsToken:       pick(EnvSheetsToken, file.Sheets.Token),
		LedgerDSN:         pick(EnvLedgerDSN, file.Ledger.DSN),
		Whisker:           file.Whisker,
		Log:               file.Log,
		Interval:          file.Sync.Interval,
	}
}

// ValidateAccount checks what every command talking to the device account
// needs. The password may still be prompted for.
func (r Resolved) ValidateAccount() error {
	if r.Credentials.Username == "" {
		return fmt.Errorf("missing account username (set account.username or %s)", EnvUsername)
	}
	return nil
}

// ValidateSync checks what a sync run needs beyond the account.
func (r Resolved) ValidateSync() error {
	if err := r.ValidateAccount(); err != nil {
		return err
	}
	if r.SpreadsheetID == "" {
		return fmt.Errorf("missing spreadsheet id (set sheets.spreadsheet_id or %s)", EnvSpreadsheetID)
	}
	if r.Pet == "" {
		return fmt.Errorf("missing pet name (pass it as an argument, set pet or %s)", EnvPet)
	}
	return nil
}
