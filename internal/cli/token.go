package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/allowance/internal/auth"
	"github.com/dukerupert/allowance/internal/store"
)

// NewTokenCommand creates the token command, which mints a bearer token for
// a member signed with JWT_SECRET.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		memberID int64
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token --member N",
		Short: "Issue an API token for a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rootOpts.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			m, err := store.NewMemberStore(db).GetByID(cmd.Context(), memberID)
			if err != nil {
				return err
			}
			if m == nil {
				return fmt.Errorf("member %d not found", memberID)
			}
			token, err := auth.IssueToken(rootOpts.cfg.JWTSecret, auth.AuthContext{
				MemberID:    m.ID,
				HouseholdID: m.HouseholdID,
				Role:        m.Role,
			}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().Int64Var(&memberID, "member", 0, "member id")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.MarkFlagRequired("member")
	return cmd
}
