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

var (
	birthDate      string
	birthHour      int
	drawsPath      string
	predictCount   int
	noEnhance      bool
	uniform        bool
	savePrediction bool
	outJSON        string
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict lotto numbers weighted by a birth profile",
	Long: `Predict runs the full read path:
- Resolve the four-pillar element profile from the birth date
- Build a frequency table from historical draws (CSV)
- Aggregate stored knowledge into confidence and element adjustments
- Score all 45 numbers and select the top N

Without --draws the engine refuses to guess; pass --uniform to score
against a flat table instead of history.

Example:
  sajulotto predict --birth 1984-02-02 --draws draws.csv
  sajulotto predict --birth 1990-05-15 --hour 10 --draws draws.csv --save
  sajulotto predict --birth 1984-02-02 --uniform --no-enhance --json out.json`,
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)

	// Birth flags
	predictCmd.Flags().StringVar(&birthDate, "birth", "", "birth date as YYYY-MM-DD (required)")
	predictCmd.Flags().IntVar(&birthHour, "hour", -1, "birth hour 0-23 (-1 = unknown, hour pillar omitted)")
	_ = predictCmd.MarkFlagRequired("birth")

	// Scoring flags
	predictCmd.Flags().StringVar(&drawsPath, "draws", "", "CSV file with historical draws")
	predictCmd.Flags().IntVarP(&predictCount, "count", "n", 0, "numbers to select (0 = config value)")
	predictCmd.Flags().BoolVar(&noEnhance, "no-enhance", false, "skip knowledge aggregation")
	predictCmd.Flags().BoolVar(&uniform, "uniform", false, "score against a uniform table when no draws are given")

	// Output flags
	predictCmd.Flags().BoolVar(&savePrediction, "save", false, "persist the prediction in the store")
	predictCmd.Flags().StringVar(&outJSON, "json", "", "also write the full result as JSON to this path")
}

func runPredict(cmd *cobra.Command, args []string) error {
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

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Birth: %s (hour %d)\n", birthDate, birthHour)
		fmt.Fprintf(os.Stderr, "Draws: %s\n", drawsPath)
		fmt.Fprintf(os.Stderr, "Enhance: %v\n", !noEnhance && cfg.Enhance.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := pipeline.NewPipeline(cfg, st)
	result, err := p.Forecast(ctx, pipeline.ForecastRequest{
		Year:      year,
		Month:     month,
		Day:       day,
		Hour:      birthHour,
		DrawsPath: drawsPath,
		Count:     predictCount,
		NoEnhance: noEnhance,
		Uniform:   uniform,
		Save:      savePrediction,
	})
	if err != nil {
		return fmt.Errorf("predict failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.ScoreRows)
	renderer.RenderForecast(os.Stdout, result)

	if outJSON != "" {
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	return nil
}
