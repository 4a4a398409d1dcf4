package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/abhisek/lessondiag/internal/app"
	"github.com/abhisek/lessondiag/internal/diagnosis"
	"github.com/abhisek/lessondiag/internal/llm"
	"github.com/abhisek/lessondiag/internal/rubric"
)

var rootCmd = &cobra.Command{
	Use:   "lessondiag",
	Short: "Diagnose lesson plans with an LLM",
	Long: `lessondiag checks a lesson plan for section completeness, time allocation
and core-literacy match, combines them into a weighted score and suggests
improvements.

The model provider is read from LESSONDIAG_* variables (or a .env file), or
discovered from ZHIPUAI_API_KEY, GEMINI_API_KEY, OPENAI_API_KEY,
ANTHROPIC_API_KEY and OPENROUTER_API_KEY in that order.`,
	SilenceUsage: true,
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer klog.Flush()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	rootCmd.PersistentFlags().String("provider", "", "LLM provider: zhipu, openai, anthropic, gemini, openrouter or mock (overrides LESSONDIAG_LLM_PROVIDER)")
	rootCmd.PersistentFlags().String("model", "", "Model name or alias for the selected provider")
	rootCmd.PersistentFlags().String("rubric", "", "Path to a YAML rubric replacing the built-in one")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Timeout per model call (overrides LESSONDIAG_LLM_TIMEOUT)")
	rootCmd.PersistentFlags().Bool("structured", false, "Request native structured output validated against the verdict schemas (overrides LESSONDIAG_LLM_STRUCTURED)")

	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveLLMConfig merges environment configuration with the --provider,
// --model, --timeout and --structured flags.
func resolveLLMConfig(cmd *cobra.Command) (llm.Config, error) {
	providerFlag, _ := cmd.Flags().GetString("provider")

	var cfg llm.Config
	if providerFlag == "" {
		var err error
		if cfg, err = llm.ResolveConfig(); err != nil {
			return llm.Config{}, err
		}
	} else {
		cfg = llm.ConfigFromEnv()
		cfg.Provider = providerFlag
		if cfg.Validate() != nil {
			cfg.AdoptStandardKey(providerFlag)
		}
	}

	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.SetModel(model)
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}
	if cmd.Flags().Changed("structured") {
		cfg.Structured, _ = cmd.Flags().GetBool("structured")
	}
	if err := cfg.Validate(); err != nil {
		return llm.Config{}, err
	}
	return cfg, nil
}

func newProvider(cmd *cobra.Command) (llm.Provider, llm.Config, error) {
	cfg, err := resolveLLMConfig(cmd)
	if err != nil {
		return nil, llm.Config{}, fmt.Errorf("LLM provider not configured: %w", err)
	}
	p, err := llm.NewProvider(cmd.Context(), cfg)
	if err != nil {
		return nil, llm.Config{}, err
	}
	klog.V(1).InfoS("Using LLM provider", "provider", cfg.Provider, "model", p.ModelID(),
		"timeout", cfg.Timeout, "structured", cfg.Structured)
	return p, cfg, nil
}

func loadRubric(cmd *cobra.Command) (*rubric.Rubric, error) {
	path, _ := cmd.Flags().GetString("rubric")
	if path == "" {
		return rubric.Default(), nil
	}
	return rubric.Load(path)
}

// newApp builds an App from the command's flags.
func newApp(cmd *cobra.Command, suggest, parallel bool) (*app.App, error) {
	r, err := loadRubric(cmd)
	if err != nil {
		return nil, err
	}
	provider, cfg, err := newProvider(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(provider, app.Options{
		Suggest:    suggest,
		Diagnosis:  diagnosis.Config{Parallel: parallel},
		Rubric:     r,
		Timeout:    cfg.Timeout,
		Structured: cfg.Structured,
	}), nil
}
