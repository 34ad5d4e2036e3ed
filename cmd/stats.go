package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/practiz/internal/proficiency"
	"github.com/abhisek/practiz/internal/ui/render"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		backend, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer backend.Close()

		ctx := cmd.Context()
		st, err := backend.Stats(ctx, cfg.UserID)
		if err != nil {
			return fmt.Errorf("load stats: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, render.Stats(st))

		// Per-topic bands need the content; stats alone still print without it.
		lib, err := openLibrary(cfg)
		if err != nil {
			newLogger(cfg).Warn("skipping topic breakdown", "err", err)
			return nil
		}
		progress, err := backend.LoadProgress(ctx, cfg.UserID)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		for _, t := range lib.CAM().Topics() {
			tp := proficiency.NewTopicProgress(&t, progress.Concepts)
			if tp.ConceptsStarted == 0 {
				continue
			}
			fmt.Fprintln(out, render.TopicLine(&t, tp))
		}
		return nil
	},
}
