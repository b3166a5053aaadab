package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/liquidstaking/staking-ledger/internal/observability/tracing"
	"github.com/spf13/cobra"
)

func ListReconciliationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-reconciliations",
		Short: "Lists transfers whose ledger update has to be settled by an operator",
		Args:  cobra.ExactArgs(0),
		RunE:  listReconciliations,
	}

	cmd.Flags().Int64("limit", 100, "Maximum number of records to list")

	return cmd
}

func listReconciliations(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	limit, err := cmd.Flags().GetInt64("limit")
	if err != nil {
		return err
	}

	service, closeFn, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	docs, svcErr := service.ListPendingReconciliations(ctx, limit)
	if svcErr != nil {
		return svcErr
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tOPERATION\tACCOUNT\tTOKEN\tAMOUNT\tTRANSFER REF\tCAUSE")
	for _, doc := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			doc.ID,
			time.Unix(doc.CreatedAt, 0).UTC().Format(time.RFC3339),
			doc.Operation,
			doc.Account,
			doc.Token,
			doc.Amount,
			doc.TransferRef,
			doc.Cause,
		)
	}
	return w.Flush()
}

func ResolveReconciliationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve-reconciliation [id]",
		Short: "Marks a pending reconciliation as settled",
		Args:  cobra.ExactArgs(1),
		RunE:  resolveReconciliation,
	}

	cmd.Flags().String("note", "", "How the transfer was settled")
	_ = cmd.MarkFlagRequired("note")

	return cmd
}

func resolveReconciliation(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	note, err := cmd.Flags().GetString("note")
	if err != nil {
		return err
	}

	service, closeFn, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if svcErr := service.ResolveReconciliation(ctx, args[0], note); svcErr != nil {
		return svcErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "reconciliation %s resolved\n", args[0])
	return nil
}
