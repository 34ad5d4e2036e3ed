package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/practiz/internal/proficiency"
	"github.com/abhisek/practiz/internal/ui/render"
	"github.com/abhisek/practiz/internal/ui/theme"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List topics with your proficiency in each",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		lib, err := openLibrary(cfg)
		if err != nil {
			return err
		}
		backend, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer backend.Close()

		progress, err := backend.LoadProgress(cmd.Context(), cfg.UserID)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, th := range lib.CAM().Themes {
			fmt.Fprintln(out, theme.Title.Render(th.Name))
			for i := range th.Topics {
				t := &th.Topics[i]
				tp := proficiency.NewTopicProgress(t, progress.Concepts)
				fmt.Fprintf(out, "%s  %s\n", render.TopicLine(t, tp), theme.Hint.Render(t.ID))
			}
		}
		return nil
	},
}
