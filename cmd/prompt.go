package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessondiag/internal/checks"
	"github.com/abhisek/lessondiag/internal/rubric"
)

var promptCmd = &cobra.Command{
	Use:       "prompt <completeness|time-allocation|literacy> <file|->",
	Short:     "Print the prompt a check would send, without calling a model",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{checks.StageCompleteness, checks.StageTimeAllocation, checks.StageLiteracy},
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadRubric(cmd)
		if err != nil {
			return err
		}
		text, err := readPlanArg(cmd, args[1])
		if err != nil {
			return err
		}

		prompt, err := renderPrompt(cmd, r, args[0], text)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), prompt)
		return nil
	},
}

func renderPrompt(cmd *cobra.Command, r *rubric.Rubric, stage, text string) (string, error) {
	switch stage {
	case checks.StageCompleteness:
		return checks.CompletenessPrompt(r, text)
	case checks.StageTimeAllocation:
		present, _ := cmd.Flags().GetStringSlice("present")
		if !cmd.Flags().Changed("present") {
			present = r.SectionIDs()
		}
		return checks.TimeAllocationPrompt(r, text, present)
	case checks.StageLiteracy:
		return checks.LiteracyPrompt(r, text)
	default:
		return "", fmt.Errorf("unknown stage %q", stage)
	}
}

func init() {
	promptCmd.Flags().StringSlice("present", nil, "Sections confirmed present, for the time-allocation prompt (default: all)")
}
