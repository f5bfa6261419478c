package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dukerupert/allowance/internal/ledger"
	"github.com/dukerupert/allowance/internal/model"
	"github.com/dukerupert/allowance/internal/money"
)

// memberOptions are the flags shared by the per-member commands.
type memberOptions struct {
	MemberID    int64
	Amount      string
	Description string
}

func addMemberFlag(cmd *cobra.Command, o *memberOptions) {
	cmd.Flags().Int64Var(&o.MemberID, "member", 0, "member id")
	cmd.MarkFlagRequired("member")
}

func addAmountFlags(cmd *cobra.Command, o *memberOptions) {
	cmd.Flags().StringVar(&o.Amount, "amount", "", "amount, e.g. 2.50")
	cmd.Flags().StringVar(&o.Description, "description", "", "transaction description")
	cmd.MarkFlagRequired("amount")
}

// withService opens the database, runs fn and closes it again.
func withService(ctx context.Context, opts *RootOptions, fn func(context.Context, *ledger.Service) error) error {
	db, err := opts.openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, opts.service(db))
}

type balanceOutput struct {
	MemberID  int64           `json:"member_id"`
	Balance   decimal.Decimal `json:"balance"`
	Formatted string          `json:"formatted"`
}

func writeOutput(w io.Writer, format string, v any, text string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	o := &memberOptions{}
	cmd := &cobra.Command{
		Use:   "balance --member N",
		Short: "Show a member's balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), rootOpts, func(ctx context.Context, svc *ledger.Service) error {
				b, err := svc.Balances.GetBalance(ctx, o.MemberID)
				if err != nil {
					return err
				}
				out := balanceOutput{MemberID: o.MemberID, Balance: b, Formatted: rootOpts.formatter().Format(b)}
				return writeOutput(cmd.OutOrStdout(), rootOpts.Format, out,
					fmt.Sprintf("member %d: %s", o.MemberID, out.Formatted))
			})
		},
	}
	addMemberFlag(cmd, o)
	return cmd
}

// NewReconcileCommand creates the reconcile command. A balance that no
// longer matches its transactions fails with a ledger.ErrConsistency error.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	o := &memberOptions{}
	cmd := &cobra.Command{
		Use:   "reconcile --member N",
		Short: "Check a member's balance against the transaction log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), rootOpts, func(ctx context.Context, svc *ledger.Service) error {
				b, err := svc.Balances.Reconcile(ctx, o.MemberID)
				if err != nil {
					return err
				}
				out := balanceOutput{MemberID: o.MemberID, Balance: b, Formatted: rootOpts.formatter().Format(b)}
				return writeOutput(cmd.OutOrStdout(), rootOpts.Format, out,
					fmt.Sprintf("member %d: ok (%s)", o.MemberID, out.Formatted))
			})
		},
	}
	addMemberFlag(cmd, o)
	return cmd
}

type moneyFunc func(ctx context.Context, svc *ledger.Service, memberID int64, amount decimal.Decimal, description string) (*model.BalanceTransaction, error)

func newMoneyCommand(rootOpts *RootOptions, use, short string, apply moneyFunc) *cobra.Command {
	o := &memberOptions{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := money.Parse(o.Amount)
			if err != nil {
				return err
			}
			return withService(cmd.Context(), rootOpts, func(ctx context.Context, svc *ledger.Service) error {
				tx, err := apply(ctx, svc, o.MemberID, amount, o.Description)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), rootOpts.Format, tx,
					fmt.Sprintf("member %d: %s %s (%s)", o.MemberID, tx.Type, rootOpts.formatter().Format(tx.Amount), tx.Description))
			})
		},
	}
	addMemberFlag(cmd, o)
	addAmountFlags(cmd, o)
	return cmd
}

// NewPayoutCommand creates the payout command.
func NewPayoutCommand(rootOpts *RootOptions) *cobra.Command {
	return newMoneyCommand(rootOpts, "payout --member N --amount 5.00", "Pay money out of a member's balance",
		func(ctx context.Context, svc *ledger.Service, memberID int64, amount decimal.Decimal, description string) (*model.BalanceTransaction, error) {
			return svc.Balances.Payout(ctx, memberID, amount, description)
		})
}

// NewAdjustCommand creates the adjust command.
func NewAdjustCommand(rootOpts *RootOptions) *cobra.Command {
	return newMoneyCommand(rootOpts, "adjust --member N --amount -1.50 --description TEXT", "Record a manual balance correction",
		func(ctx context.Context, svc *ledger.Service, memberID int64, amount decimal.Decimal, description string) (*model.BalanceTransaction, error) {
			return svc.Balances.Adjust(ctx, memberID, amount, description)
		})
}

type streaksOutput struct {
	MemberID int64          `json:"member_id"`
	Streaks  []model.Streak `json:"streaks"`
	Total    int            `json:"total"`
}

// NewStreaksCommand creates the streaks command.
func NewStreaksCommand(rootOpts *RootOptions) *cobra.Command {
	o := &memberOptions{}
	cmd := &cobra.Command{
		Use:   "streaks --member N",
		Short: "List a member's routine streaks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), rootOpts, func(ctx context.Context, svc *ledger.Service) error {
				streaks, err := svc.Streaks.List(ctx, o.MemberID)
				if err != nil {
					return err
				}
				total, err := svc.Streaks.GetTotalStreak(ctx, o.MemberID)
				if err != nil {
					return err
				}
				if rootOpts.Format == "json" {
					return writeOutput(cmd.OutOrStdout(), "json", streaksOutput{MemberID: o.MemberID, Streaks: streaks, Total: total}, "")
				}
				w := cmd.OutOrStdout()
				for _, s := range streaks {
					fmt.Fprintf(w, "routine %d: current %d, best %d, last %s\n", s.RoutineID, s.CurrentCount, s.BestCount, s.LastCompletionDate)
				}
				_, err = fmt.Fprintf(w, "total: %d\n", total)
				return err
			})
		},
	}
	addMemberFlag(cmd, o)
	return cmd
}
