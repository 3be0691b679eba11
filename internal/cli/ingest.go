package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sajulotto/service/internal/pipeline"
	"github.com/sajulotto/service/internal/store"
)

var (
	ingestTag     string
	minConfidence float64
	concurrency   int
	hostRate      float64
	ingestTimeout time.Duration
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file|dir|url>...",
	Short: "Ingest fortune-telling texts into the knowledge store",
	Long: `Ingest classifies texts into knowledge records and persists them:
- Load sources from local files, directories or URLs
- Split text into sentences and match them against the saju dictionary
- Score each sentence by term density and discard low-confidence noise
- Process sources in parallel with configurable worker count

Example:
  sajulotto ingest transcript.txt
  sajulotto ingest ./texts https://ko.wikipedia.org/wiki/사주 --tag wiki
  sajulotto ingest feed.txt --min-confidence 0.3 --concurrency 8`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	// Classification flags
	ingestCmd.Flags().StringVar(&ingestTag, "tag", "", "source tag recorded on every ingested record (default: by source kind)")
	ingestCmd.Flags().Float64Var(&minConfidence, "min-confidence", -1, "discard records at or below this confidence (negative = config value)")

	// Concurrency flags
	ingestCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (0 = config value)")
	ingestCmd.Flags().Float64Var(&hostRate, "rate", 0, "per-host fetch requests per second (0 = config value)")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 10*time.Minute, "total timeout for batch ingestion")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, ingestTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if minConfidence >= 0 {
		cfg.Ingest.MinConfidence = minConfidence
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if hostRate > 0 {
		cfg.RateLimit.RequestsPerSecond = hostRate
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Sajulotto Batch Ingestion\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Arguments:  %d\n", len(args))
	fmt.Fprintf(os.Stderr, "  Workers:    %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Floor:      %.2f\n", cfg.Ingest.MinConfidence)
	fmt.Fprintf(os.Stderr, "  Timeout:    %v\n", ingestTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// The bar is created once the source count is known; the hook only
	// fires during IngestBatch, after the assignment below.
	var bar *progressbar.ProgressBar
	p := pipeline.NewPipeline(cfg, st, pipeline.WithProgress(func(pipeline.SourceOutcome) {
		if bar != nil {
			_ = bar.Add(1)
		}
	}))

	fmt.Fprintf(os.Stderr, "⚙️  Loading sources...\n")
	loader := p.Loader()
	var sources []pipeline.Source
	for _, arg := range args {
		loaded, err := loader.Load(ctx, arg, ingestTag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", arg, err)
			continue
		}
		sources = append(sources, loaded...)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources loaded from %d argument(s)", len(args))
	}

	fmt.Fprintf(os.Stderr, "✓ Loaded %d sources\n", len(sources))
	fmt.Fprintf(os.Stderr, "\n")

	bar = progressbar.Default(int64(len(sources)), "ingesting")
	outcomes := p.IngestBatch(ctx, sources)
	fmt.Fprintf(os.Stderr, "\n")

	// Make this run's records visible to the next search immediately
	if cached, ok := st.(*store.Cached); ok {
		_ = cached.InvalidateReads()
	}

	renderer := pipeline.NewRenderer(cfg.Output.ScoreRows)
	renderer.RenderOutcomes(os.Stdout, outcomes)

	return ctx.Err()
}
