package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sajulotto/service/internal/store"
)

var (
	purgeBelow float64
	purgeDry   bool
)

// purgeCmd represents the purge command
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete low-confidence knowledge records",
	Long: `Purge deletes every record with confidence strictly below the
threshold. Use --dry-run to count what would go without deleting.

Example:
  sajulotto purge --below 0.3 --dry-run
  sajulotto purge --below 0.3`,
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)

	purgeCmd.Flags().Float64Var(&purgeBelow, "below", 0, "confidence threshold (required)")
	purgeCmd.Flags().BoolVar(&purgeDry, "dry-run", false, "count matching records without deleting")
	_ = purgeCmd.MarkFlagRequired("below")
}

func runPurge(cmd *cobra.Command, args []string) error {
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

	if purgeDry {
		records, err := st.Recent(ctx, 0)
		if err != nil {
			return fmt.Errorf("purge failed: %w", err)
		}
		count := 0
		for _, rec := range records {
			if rec.Confidence < purgeBelow {
				count++
			}
		}
		fmt.Printf("신뢰도 %.2f 미만 지식 %d건 삭제 예정 (dry run)\n", purgeBelow, count)
		return nil
	}

	removed, err := st.PurgeBelow(ctx, purgeBelow)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	if cached, ok := st.(*store.Cached); ok {
		_ = cached.InvalidateReads()
	}
	fmt.Printf("신뢰도 %.2f 미만 지식 %d건 삭제됨\n", purgeBelow, removed)

	return nil
}
