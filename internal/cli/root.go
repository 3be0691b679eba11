// Package cli implements the sajulotto command tree. Commands are thin:
// they bind configuration, open the store and delegate to the pipeline.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sajulotto/service/internal/cache"
	"github.com/sajulotto/service/internal/model"
	"github.com/sajulotto/service/internal/store"
)

const version = "sajulotto v0.3.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sajulotto",
	Short: "Sajulotto - saju-weighted lotto number prediction",
	Long: `Sajulotto derives a five-element profile from a birth date, learns
fortune-telling knowledge from ingested texts and weights historical
draw frequencies with both to select lotto numbers.

It is a toy for exploring traditional symbolism, not a way to win:
every number has the same odds regardless of what the stars say.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number for sajulotto.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.sajulotto/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads the .env file, the config file and SAJULOTTO_* env vars
func initConfig() {
	// A local .env is optional and never an error
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".sajulotto"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match SAJULOTTO_*
	viper.SetEnvPrefix("SAJULOTTO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file and env vars over the defaults and
// resolves the home-relative paths.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	if cfg.Store.Path == "" || cfg.Cache.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}
		if cfg.Store.Path == "" {
			cfg.Store.Path = filepath.Join(home, ".sajulotto", "knowledge.db")
		}
		if cfg.Cache.Dir == "" {
			cfg.Cache.Dir = filepath.Join(home, ".sajulotto", "cache")
		}
	}
	return cfg, nil
}

// openStore opens the configured knowledge store. The SQLite store is
// wrapped with the read-through cache when caching is enabled; the
// in-memory store is already as fast as any cache in front of it.
func openStore(cfg *model.Config) (store.Store, error) {
	if cfg.Store.InMemory {
		return store.NewMemory(), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	sqlite, err := store.OpenSQLite(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if cfg.Cache.Enabled {
		reads := cache.NewLayeredCache(cfg.Cache.MemoryTTL, filepath.Join(cfg.Cache.Dir, "reads"), cfg.Cache.DiskTTL)
		return store.NewCached(sqlite, reads, cfg.Cache.MemoryTTL), nil
	}
	return sqlite, nil
}

// parseBirthDate splits a YYYY-MM-DD argument. Calendar validity is the
// resolver's concern; this only checks the shape.
func parseBirthDate(s string) (year, month, day int, err error) {
	if _, err := fmt.Sscanf(s, "%d-%d-%d", &year, &month, &day); err != nil {
		return 0, 0, 0, fmt.Errorf("birth date %q is not YYYY-MM-DD: %w", s, err)
	}
	return year, month, day, nil
}
