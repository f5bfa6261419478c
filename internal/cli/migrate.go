package cli

import (
	"github.com/spf13/cobra"

	"github.com/dukerupert/allowance/internal/database"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or list schema migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			cfg := rootOpts.cfg
			db, err := database.Connect(cfg.DBDriver, cfg.DBConnection)
			if err != nil {
				return err
			}
			defer db.Close()
			return database.Migrate(db, direction)
		},
	}
}
