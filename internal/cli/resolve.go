package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sajulotto/service/internal/model"
	"github.com/sajulotto/service/internal/pipeline"
	"github.com/sajulotto/service/internal/saju"
	"github.com/sajulotto/service/internal/score"
)

var luckyCount int

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the four-pillar element profile for a birth date",
	Long: `Resolve computes the saju pillars and five-element histogram for a
birth date without touching the store. Purely deterministic: the same
date always yields the same profile.

Example:
  sajulotto resolve --birth 1984-02-02
  sajulotto resolve --birth 1990-05-15 --hour 10 --lucky 6`,
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	// birthDate and birthHour are defined in predict.go and shared here
	resolveCmd.Flags().StringVar(&birthDate, "birth", "", "birth date as YYYY-MM-DD (required)")
	resolveCmd.Flags().IntVar(&birthHour, "hour", -1, "birth hour 0-23 (-1 = unknown, hour pillar omitted)")
	resolveCmd.Flags().IntVar(&luckyCount, "lucky", 0, "also derive this many lucky numbers from the profile")
	_ = resolveCmd.MarkFlagRequired("birth")
}

func runResolve(cmd *cobra.Command, args []string) error {
	year, month, day, err := parseBirthDate(birthDate)
	if err != nil {
		return err
	}

	profile, err := resolveBirthProfile(year, month, day, birthHour)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	renderer := pipeline.NewRenderer(0)
	renderer.RenderProfile(os.Stdout, profile)

	if luckyCount > 0 {
		fmt.Println()
		renderer.RenderLuckyNumbers(os.Stdout, score.LuckyNumbers(profile, luckyCount))
	}

	return nil
}

func resolveBirthProfile(year, month, day, hour int) (*model.ElementProfile, error) {
	if hour < 0 {
		return saju.Resolve(year, month, day)
	}
	return saju.ResolveWithHour(year, month, day, hour)
}
