package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/lessondiag/internal/invoke"
	"github.com/abhisek/lessondiag/internal/llm"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the configured LLM provider",
}

var llmCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Send a tiny request to verify the provider works",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, cfg, err := newProvider(cmd)
		if err != nil {
			return err
		}

		tally := &llm.Tally{}
		ctx := llm.WithTally(cmd.Context(), tally)
		iv := invoke.New(provider, cfg.Timeout).UseStructuredOutput(cfg.Structured)

		start := time.Now()
		res := iv.Invoke(ctx, `Reply with exactly this JSON and nothing else: {"ok": true}`,
			invoke.Params{MaxTokens: 20, Temperature: 0, Purpose: "check", Schema: checkSchema})
		latency := time.Since(start)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Provider:  %s\n", cfg.Provider)
		fmt.Fprintf(out, "Model:     %s\n", provider.ModelID())
		fmt.Fprintf(out, "Schemas:   %t\n", cfg.Structured)
		fmt.Fprintf(out, "Latency:   %dms\n", latency.Milliseconds())
		u := tally.Usage()
		fmt.Fprintf(out, "Tokens:    %d in / %d out\n", u.InputTokens, u.OutputTokens)
		if res.IsError() {
			fmt.Fprintf(out, "Result:    ✗ %s\n", res.ErrorMessage())
			return fmt.Errorf("provider check failed")
		}
		fmt.Fprintln(out, "Result:    ✓ parsed JSON reply")
		return nil
	},
}

var checkSchema = &llm.Schema{
	Name: "provider-check",
	Definition: map[string]any{
		"type":       "object",
		"properties": map[string]any{"ok": map[string]any{"type": "boolean"}},
		"required":   []any{"ok"},
	},
}

var llmPricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Show models with known pricing",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-32s  %10s  %10s\n", "Model", "In $/MTok", "Out $/MTok")
		fmt.Fprintln(out, strings.Repeat("─", 56))
		for _, m := range llm.PricedModels() {
			c := llm.LookupCost(m)
			fmt.Fprintf(out, "%-32s  %10.3f  %10.3f\n", m, c.InputPerMTok, c.OutputPerMTok)
		}
	},
}

func init() {
	llmCmd.AddCommand(llmCheckCmd)
	llmCmd.AddCommand(llmPricingCmd)
}
