package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/practiz/internal/ui/render"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		topic, _ := cmd.Flags().GetString("topic")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		backend, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer backend.Close()

		sessions, err := backend.LoadSessionHistory(cmd.Context(), cfg.UserID)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}

		out := cmd.OutOrStdout()
		shown := 0
		for _, sum := range sessions {
			if topic != "" && sum.TopicID != topic {
				continue
			}
			if limit > 0 && shown == limit {
				break
			}
			fmt.Fprintln(out, render.HistoryLine(sum))
			shown++
		}
		if shown == 0 {
			fmt.Fprintln(out, "No sessions yet.")
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum sessions to show (0 for all)")
	historyCmd.Flags().String("topic", "", "Only show sessions for this topic")
}
