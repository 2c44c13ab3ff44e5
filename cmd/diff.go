package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/diff"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/entities"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/utils"
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD.json NEW.json",
		Short: "Show what changed between two exported moodboards",
		Args:  cobra.ExactArgs(2),
		// no backend needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			oldDoc, err := utils.Load[entities.Moodboard](args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			newDoc, err := utils.Load[entities.Moodboard](args[1])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[1], err)
			}
			d := diff.Moodboards(oldDoc.ToMoodboard(), newDoc.ToMoodboard())
			if d.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "no changes")
				return nil
			}
			d.Print(cmd.OutOrStdout())
			return nil
		},
	}
}
