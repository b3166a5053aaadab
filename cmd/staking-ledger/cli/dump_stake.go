package cli

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/liquidstaking/staking-ledger/internal/observability/tracing"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/spf13/cobra"
)

func DumpStakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-stake [account]",
		Short: "Prints the stake, its vesting projection, history and events of an account",
		Args:  cobra.ExactArgs(1),
		RunE:  dumpStake,
	}

	cmd.Flags().Int64("events", 20, "Number of most recent events to print")

	return cmd
}

func dumpStake(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	eventsLimit, err := cmd.Flags().GetInt64("events")
	if err != nil {
		return err
	}

	service, closeFn, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	out := cmd.OutOrStdout()

	overview, svcErr := service.GetStakeOverview(ctx, args[0])
	switch {
	case svcErr == nil:
		cfg.Fdump(out, overview)
	case svcErr.ErrorCode == types.NoStakeFound:
		cfg.Fprintln(out, "no current stake")
	default:
		return svcErr
	}

	history, svcErr := service.GetStakeHistory(ctx, args[0])
	if svcErr != nil {
		return svcErr
	}
	cfg.Fdump(out, history)

	events, svcErr := service.GetStakeEvents(ctx, args[0], eventsLimit)
	if svcErr != nil {
		return svcErr
	}
	cfg.Fdump(out, events)
	return nil
}
