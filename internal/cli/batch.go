package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/argintel/internal/worker"
)

var pendingBills bool

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [bills-file]",
	Short: "Analyze many bills concurrently",
	Long: `Batch processes several bills at once:
- Read bill identifiers from a file (one per line, # comments allowed),
  or take every bill with unprocessed comments in the store (--pending)
- Process up to concurrency.bills bills in parallel
- Write one brief per bill to the output directory

Example:
  argintel batch bills.txt
  argintel batch --pending --output-dir ./briefs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().BoolVar(&pendingBills, "pending", false, "process every bill with unprocessed comments in the store")
	addRunFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !pendingBills {
		return fmt.Errorf("provide a bills file or --pending")
	}

	r, err := newRunner()
	if err != nil {
		return err
	}
	defer r.Close()

	var bills []string
	if len(args) == 1 {
		bills, err = worker.ReadLines(args[0])
	} else {
		bills, err = r.store.PendingBills(r.ctx)
	}
	if err != nil {
		return fmt.Errorf("load bills: %w", err)
	}
	if len(bills) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No bills to process")
		return nil
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Bills:        %d\n", len(bills))
	fmt.Fprintf(stderr, "  Concurrency:  %d bills, %d workers each\n", r.cfg.Concurrency.Bills, r.cfg.Concurrency.Workers)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	outcomes, err := r.pipeline.ProcessBills(r.ctx, bills)
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}

	success, failure := 0, 0
	for _, o := range outcomes {
		if o.Err != nil {
			failure++
			fmt.Fprintf(stderr, "✗ %s: %v\n", o.BillID, o.Err)
			continue
		}
		if _, err := r.pipeline.WriteOutputs(o.Result, outputDir); err != nil {
			failure++
			fmt.Fprintf(stderr, "✗ %s: %v\n", o.BillID, err)
			continue
		}
		success++
		b := o.Result.Brief
		fmt.Fprintf(stderr, "✓ %s (%d arguments, %d issues, %d coalitions)\n",
			o.BillID, b.Summary.TotalArguments, len(b.Clusters), len(b.Coalitions))
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d bills\n", len(outcomes))
	fmt.Fprintf(stderr, "  Success:   %d\n", success)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failure)
	fmt.Fprintf(stderr, "\n")

	if success == 0 {
		return fmt.Errorf("all %d bills failed", failure)
	}
	return nil
}
