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

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved predictions",
	Long: `History lists predictions persisted with predict --save, newest
first.

Example:
  sajulotto history
  sajulotto history --limit 5`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum predictions to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
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

	predictions, err := st.Predictions(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.ScoreRows)
	renderer.RenderPredictions(os.Stdout, predictions)

	return nil
}
