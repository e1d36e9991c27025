package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	singleFigure bool
	tableID      string
)

var runCmd = &cobra.Command{
	Use:   "run <document>",
	Short: "Process a document's figures into posts",
	Long: `Processes every figure of the document that has not been handled on
a previous run. Each figure is analysed, turned into post candidates,
deduplicated against recent output, and the results stored. Figures
are marked in the local ledger so reruns pick up where they left off.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&singleFigure, "one", false, "process only the first unprocessed figure")
	runCmd.Flags().StringVar(&tableID, "table", "", "override the record store table ID")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if pipeline == nil {
		return errors.New("pipeline not configured")
	}
	defer closeLedger()

	summary, err := pipeline.Run(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	cmd.Printf("Document:  %s\n", summary.DocumentID)
	cmd.Printf("Figures:   %d total, %d processed, %d skipped\n",
		summary.TotalFigures, summary.ProcessedFigures, summary.SkippedFigures)
	cmd.Printf("Posts:     %d stored, %d written to fallback\n",
		summary.CommittedPosts, summary.FallbackPosts)

	if summary.SkippedFigures > 0 {
		cmd.Println("Skipped figures will be retried on the next run.")
	}
	return nil
}

func closeLedger() {
	if ledger != nil {
		_ = ledger.Close()
	}
}
