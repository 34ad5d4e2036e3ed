package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/abhisek/practiz/internal/curriculum"
	"github.com/abhisek/practiz/internal/ui/theme"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check content packs against the schema and the CAM",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path = cfg.ContentPath
		}

		lib, err := curriculum.LoadLibrary(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		findings := lib.Findings()
		if len(findings) == 0 {
			fmt.Fprintf(out, "%s %d topics OK\n", theme.Correct.Render("✓"), len(lib.CAM().Topics()))
			return nil
		}

		topics := make([]string, 0, len(findings))
		for id := range findings {
			topics = append(topics, id)
		}
		sort.Strings(topics)
		total := 0
		for _, id := range topics {
			fmt.Fprintln(out, theme.Title.Render(id))
			for _, f := range findings[id] {
				fmt.Fprintf(out, "  %s %s\n", theme.Incorrect.Render("✗"), f)
				total++
			}
		}
		return fmt.Errorf("%d problems found", total)
	},
}
