package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sajulotto/service/internal/pipeline"
)

var recentCount int

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the knowledge store",
	Long: `Summary reports what the store has learned: record count, average
confidence, the distribution across sentence types, the most frequent
dictionary terms and the number of distinct sources.

Example:
  sajulotto summary
  sajulotto summary --recent 5`,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().IntVar(&recentCount, "recent", 0, "also list this many most recent records")
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := st.Summary(ctx)
	if err != nil {
		return fmt.Errorf("summary failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.ScoreRows)
	renderer.RenderSummary(os.Stdout, summary)

	if recentCount > 0 {
		records, err := st.Recent(ctx, recentCount)
		if err != nil {
			return fmt.Errorf("recent failed: %w", err)
		}
		fmt.Println()
		renderer.RenderRecords(os.Stdout, records)
	}

	return nil
}
