package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/abhisek/lessondiag/internal/lessonplan"
	"github.com/abhisek/lessondiag/internal/report"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <file|->",
	Short: "Diagnose a lesson plan file (use - for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		noSuggest, _ := cmd.Flags().GetBool("no-suggest")
		sequential, _ := cmd.Flags().GetBool("sequential")

		text, err := readPlanArg(cmd, args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, !noSuggest, !sequential)
		if err != nil {
			return err
		}

		if !asJSON {
			fmt.Fprintln(cmd.ErrOrStderr(), "Analyzing lesson plan (three model calls, usually 15-60 seconds)...")
		}
		rep, err := a.Run(cmd.Context(), text)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return report.JSON(out, rep)
		}
		return report.Text(out, rep, report.TextOptions{Plain: !isTerminal(out)})
	},
}

func readPlanArg(cmd *cobra.Command, arg string) (string, error) {
	var r io.Reader
	if arg == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(arg)
		if err != nil {
			return "", fmt.Errorf("open lesson plan: %w", err)
		}
		defer f.Close()
		r = f
	}
	return lessonplan.Read(r)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func init() {
	diagnoseCmd.Flags().Bool("json", false, "Print the full report as JSON")
	diagnoseCmd.Flags().Bool("no-suggest", false, "Skip the improvement suggestions call")
	diagnoseCmd.Flags().Bool("sequential", false, "Run the literacy check after the other two instead of alongside them")
}
