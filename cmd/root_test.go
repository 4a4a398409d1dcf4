package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lessondiag/internal/llm"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LESSONDIAG_LLM_PROVIDER", "LESSONDIAG_ZHIPU_API_KEY", "LESSONDIAG_LLM_TIMEOUT",
		"LESSONDIAG_LLM_MAX_ATTEMPTS", "LESSONDIAG_LLM_STRUCTURED", "LESSONDIAG_ZHIPU_MODEL",
		"ZHIPUAI_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func testCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	c.Flags().String("provider", "", "")
	c.Flags().String("model", "", "")
	c.Flags().Duration("timeout", 0, "")
	c.Flags().Bool("structured", false, "")
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestResolveLLMConfig_ProviderFlag(t *testing.T) {
	clearLLMEnv(t)

	cfg, err := resolveLLMConfig(testCommand(t, "--provider", "mock", "--timeout", "5s"))
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderMock, cfg.Provider)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestResolveLLMConfig_DiscoversKeyForFlaggedProvider(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("ZHIPUAI_API_KEY", "zk")

	cfg, err := resolveLLMConfig(testCommand(t, "--provider", "zhipu", "--model", "glm-flash"))
	require.NoError(t, err)
	assert.Equal(t, "zk", cfg.Zhipu.APIKey)
	assert.Equal(t, "glm-flash", cfg.Zhipu.Model)
}

func TestResolveLLMConfig_DiscoveredKeyKeepsEnvSettings(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("ZHIPUAI_API_KEY", "zk")
	t.Setenv("LESSONDIAG_LLM_MAX_ATTEMPTS", "3")
	t.Setenv("LESSONDIAG_ZHIPU_MODEL", "glm-4-plus")

	for _, args := range [][]string{nil, {"--provider", "zhipu"}} {
		cfg, err := resolveLLMConfig(testCommand(t, args...))
		require.NoError(t, err)
		assert.Equal(t, "zk", cfg.Zhipu.APIKey)
		assert.Equal(t, 3, cfg.Retry.MaxAttempts)
		assert.Equal(t, "glm-4-plus", cfg.Zhipu.Model)
	}
}

func TestResolveLLMConfig_StructuredFlag(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("LESSONDIAG_LLM_STRUCTURED", "true")

	cfg, err := resolveLLMConfig(testCommand(t, "--provider", "mock"))
	require.NoError(t, err)
	assert.True(t, cfg.Structured)

	cfg, err = resolveLLMConfig(testCommand(t, "--provider", "mock", "--structured=false"))
	require.NoError(t, err)
	assert.False(t, cfg.Structured)
}

func TestResolveLLMConfig_MissingKey(t *testing.T) {
	clearLLMEnv(t)

	_, err := resolveLLMConfig(testCommand(t))
	assert.Error(t, err)

	_, err = resolveLLMConfig(testCommand(t, "--provider", "openai"))
	assert.Error(t, err)
}

func TestPromptCommand(t *testing.T) {
	plan := strings.Repeat("一、导入：播放短视频。二、新授：讲解流程图。三、练习：分组绘制。", 10)
	path := filepath.Join(t.TempDir(), "plan.txt")
	require.NoError(t, os.WriteFile(path, []byte(plan), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"prompt", "time-allocation", path, "--present", "introduction,summary"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Confirmed present sections: introduction, summary\n")
	assert.Contains(t, out.String(), plan)
}
