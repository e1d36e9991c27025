package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <document>",
	Short: "Show processing progress for a document",
	RunE:  runStatus,
	Args:  cobra.ExactArgs(1),
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if pipeline == nil {
		return errors.New("pipeline not configured")
	}
	defer closeLedger()

	status, err := pipeline.Status(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	cmd.Printf("Document:  %s\n", status.DocumentID)
	cmd.Printf("Figures:   %d total, %d processed, %d remaining\n",
		status.TotalFigures, status.ProcessedFigures,
		status.TotalFigures-status.ProcessedFigures)
	return nil
}
