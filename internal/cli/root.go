// Package cli implements the allowance command line.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/dukerupert/allowance/internal/config"
	"github.com/dukerupert/allowance/internal/database"
	"github.com/dukerupert/allowance/internal/ledger"
	"github.com/dukerupert/allowance/internal/logging"
	"github.com/dukerupert/allowance/internal/money"
)

// Exit codes.
const (
	ExitOK           = 0
	ExitError        = 1
	ExitInconsistent = 2
)

// RootOptions holds global flags and the state PersistentPreRunE loads.
type RootOptions struct {
	Format string // "json" | "text"

	cfg    *config.Config
	logger *slog.Logger
	flush  func()
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the allowance CLI.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "allowance",
		Short:         "Household chores, allowance balances and streaks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts.cfg = cfg
			opts.logger, opts.flush = logging.Setup(logging.Options{
				Level:       cfg.LogLevel,
				JSON:        cfg.IsProduction(),
				SentryDSN:   cfg.SentryDSN,
				Environment: cfg.AppEnv,
				Output:      cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewPayoutCommand(opts))
	cmd.AddCommand(NewAdjustCommand(opts))
	cmd.AddCommand(NewStreaksCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute() int {
	opts := &RootOptions{}
	cmd := NewRootCommand(opts)
	err := cmd.Execute()
	if opts.flush != nil {
		opts.flush()
	}
	if err == nil {
		return ExitOK
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	if errors.Is(err, ledger.ErrConsistency) {
		return ExitInconsistent
	}
	return ExitError
}

func (o *RootOptions) openDB() (*sqlx.DB, error) {
	return database.Open(o.cfg.DBDriver, o.cfg.DBConnection)
}

func (o *RootOptions) service(db *sqlx.DB) *ledger.Service {
	return ledger.New(db, ledger.Options{
		Location: o.cfg.Location(),
		Logger:   o.logger,
	})
}

func (o *RootOptions) formatter() *money.Formatter {
	return money.NewFormatter(o.cfg.Currency)
}
