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

// enhanceCmd represents the enhance command
var enhanceCmd = &cobra.Command{
	Use:   "enhance",
	Short: "Show the knowledge aggregation for a birth profile",
	Long: `Enhance resolves the element profile for a birth date and reports
what the stored knowledge contributes to a prediction: the relevant
records, the confidence boost and the per-element adjustments.

Useful for checking what ingestion has taught the store before
predicting with it.

Example:
  sajulotto enhance --birth 1984-02-02
  sajulotto enhance --birth 1990-05-15 --hour 10`,
	RunE: runEnhance,
}

func init() {
	rootCmd.AddCommand(enhanceCmd)

	// birthDate and birthHour are defined in predict.go and shared here
	enhanceCmd.Flags().StringVar(&birthDate, "birth", "", "birth date as YYYY-MM-DD (required)")
	enhanceCmd.Flags().IntVar(&birthHour, "hour", -1, "birth hour 0-23 (-1 = unknown, hour pillar omitted)")
	_ = enhanceCmd.MarkFlagRequired("birth")
}

func runEnhance(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	year, month, day, err := parseBirthDate(birthDate)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := pipeline.NewPipeline(cfg, st)
	profile, enh, err := p.Enhance(ctx, year, month, day, birthHour)
	if err != nil {
		return fmt.Errorf("enhance failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.ScoreRows)
	renderer.RenderProfile(os.Stdout, profile)
	fmt.Println()
	renderer.RenderEnhancement(os.Stdout, &enh)

	return nil
}
