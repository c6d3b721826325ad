package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	sheetsapi "google.golang.org/api/sheets/v4"

	"petweights/internal/adapter/postgres"
	"petweights/internal/adapter/sheets"
	"petweights/internal/adapter/sqlite"
	"petweights/internal/adapter/whisker"
	"petweights/internal/config"
	"petweights/internal/domain"
)

// cli carries the flags, resolved settings and adapter constructors shared by
// all commands. Tests replace the constructors with in-memory adapters.
type cli struct {
	configPath string
	verbose    bool
	logFile    string

	settings config.Resolved
	logger   *slog.Logger
	closers  []io.Closer

	getenv       func(string) string
	readPassword func(prompt string, w io.Writer) (string, error)
	deviceSource func(cfg whisker.Config, logger *slog.Logger) domain.DeviceSource
	sheetsSvc    func(ctx context.Context, s config.Resolved) (*sheetsapi.Service, error)
	weightLog    func(ctx context.Context, s config.Resolved) (domain.WeightLog, error)
	openLedger   func(dsn string) (ledger, error)
}

type ledger interface {
	domain.RunRepository
	io.Closer
}

func newCLI() *cli {
	c := &cli{
		getenv:       os.Getenv,
		readPassword: readPasswordFromTerminal,
		deviceSource: func(cfg whisker.Config, logger *slog.Logger) domain.DeviceSource {
			return whisker.NewClient(cfg, nil, logger)
		},
		sheetsSvc:  openSheetsService,
		openLedger: openLedger,
	}
	c.weightLog = func(ctx context.Context, s config.Resolved) (domain.WeightLog, error) {
		svc, err := c.sheetsSvc(ctx, s)
		if err != nil {
			return nil, err
		}
		return sheets.NewLog(svc, s.SpreadsheetID), nil
	}
	return c
}

func openSheetsService(ctx context.Context, s config.Resolved) (*sheetsapi.Service, error) {
	oauthCfg, err := sheets.LoadConfig(s.SheetsCredentials)
	if err != nil {
		return nil, err
	}
	ts, err := sheets.TokenSource(ctx, oauthCfg, s.SheetsToken)
	if err != nil {
		return nil, err
	}
	return sheets.NewService(ctx, ts)
}

// openLedger picks the run ledger backend from the DSN: postgres URLs go to
// Postgres, anything else is a SQLite file path.
func openLedger(dsn string) (ledger, error) {
	switch {
	case dsn == "":
		return nil, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err := postgres.Open(dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		db, err := sqlite.Open(dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}

// runLedger opens the configured run ledger, if any, and closes it on teardown.
func (c *cli) runLedger() (domain.RunRepository, error) {
	l, err := c.openLedger(c.settings.LedgerDSN)
	if err != nil {
		return nil, fmt.Errorf("open run ledger: %w", err)
	}
	if l == nil {
		return nil, nil
	}
	c.closers = append(c.closers, l)
	return l, nil
}

// credentials returns the device-account credentials, prompting for the
// password when it is not configured.
func (c *cli) credentials(w io.Writer) (domain.AccountCredentials, error) {
	if err := c.settings.ValidateAccount(); err != nil {
		return domain.AccountCredentials{}, err
	}
	if c.settings.Credentials.Password == "" {
		pw, err := c.readPassword(fmt.Sprintf("Password for %s: ", c.settings.Credentials.Username), w)
		if err != nil {
			return domain.AccountCredentials{}, err
		}
		c.settings.Credentials.Password = pw
	}
	return c.settings.Credentials.Account(), nil
}

func (c *cli) source() domain.DeviceSource {
	return c.deviceSource(c.settings.Whisker, c.logger)
}

func readPasswordFromTerminal(prompt string, w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("missing account password (set account.password or " + config.EnvPassword + ")")
	}
	_, _ = fmt.Fprint(w, prompt)
	pw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
