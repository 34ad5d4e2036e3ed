package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/practiz/internal/config"
	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/abhisek/practiz/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "practiz",
	Short:        "Adaptive practice for curriculum topics",
	Long:         "Practiz is a terminal practice engine that picks questions from a curriculum to match what each learner is ready for.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("env-file", "", "Load settings from this .env file (default ./.env)")
	pf.String("db", "", "Path to SQLite database file (overrides PRACTIZ_DB env var)")
	pf.String("content", "", "Content pack file or directory (overrides PRACTIZ_CONTENT)")
	pf.String("user", "", "Learner id (overrides PRACTIZ_USER)")
	pf.String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads env files and the environment, then applies flag
// overrides, which take the highest priority.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var files []string
	if f, _ := cmd.Flags().GetString("env-file"); f != "" {
		files = append(files, f)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return config.Config{}, err
	}

	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if err := store.EnsureDir(p); err != nil {
			return config.Config{}, fmt.Errorf("prepare database dir: %w", err)
		}
		cfg.DBPath = p
	}
	if c, _ := cmd.Flags().GetString("content"); c != "" {
		cfg.ContentPath = c
	}
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		cfg.UserID = u
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		lvl, err := config.ParseLogLevel(l)
		if err != nil {
			return config.Config{}, err
		}
		cfg.LogLevel = lvl
	}
	return cfg, cfg.Validate()
}

// openStore opens the configured backend. Caller closes it.
func openStore(cmd *cobra.Command, cfg config.Config) (store.Backend, error) {
	st, err := store.Open(cmd.Context(), cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func openLibrary(cfg config.Config) (*curriculum.Library, error) {
	lib, err := curriculum.LoadLibrary(cfg.ContentPath)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	return lib, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	return cfg.NewLogger(os.Stderr)
}
