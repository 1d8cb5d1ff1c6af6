package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsApplyWhenYAMLOmitsThem(t *testing.T) {
	cfg, err := Load([]byte(`llm:
  api_key: sk-test
`))
	require.NoError(t, err)

	assert.Equal(t, "openai-compatible", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.Agent.MaxPlanningAttempts)
	assert.Equal(t, 0.7, cfg.Agent.ConfidenceThreshold)
	assert.Equal(t, 0.6, cfg.Coordination.ComplexityThreshold)
	assert.Equal(t, float64(5_000_000), cfg.Coordination.AutoApprovalCostLimit)
}

func TestLoad_RejectsUnknownLLMProvider(t *testing.T) {
	_, err := Load([]byte(`llm:
  provider: anthropic-direct
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed set")
}

func TestLoad_RejectsOutOfRangeThresholds(t *testing.T) {
	_, err := Load([]byte(`agent:
  confidence_threshold: 1.5
`))
	require.Error(t, err)
}

func TestPriorityRank_OrdersAsSpecified(t *testing.T) {
	cfg := Default()
	routine, err := cfg.PriorityRank("routine")
	require.NoError(t, err)
	emergency, err := cfg.PriorityRank("emergency")
	require.NoError(t, err)

	assert.Less(t, routine, emergency)
}

func TestPriorityRank_UnknownPriorityErrors(t *testing.T) {
	cfg := Default()
	_, err := cfg.PriorityRank("nonexistent")
	require.Error(t, err)
}

func TestIsMonsoonMonth(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.IsMonsoonMonth(7))
	assert.False(t, cfg.IsMonsoonMonth(1))
}

func TestLoadDotEnv_MissingFileLeavesConfigUntouched(t *testing.T) {
	cfg := Default()
	LoadDotEnv(cfg, "does-not-exist.env")
	assert.Empty(t, cfg.DB.URL)
	assert.Empty(t, cfg.LLM.APIKey)
}

func TestLoadDotEnv_EnvVarsOverlayWhenUnset(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/cityops")
	t.Setenv("LLM_API_KEY", "sk-overlay")

	cfg := Default()
	LoadDotEnv(cfg, "does-not-exist.env")

	assert.Equal(t, "postgres://localhost/cityops", cfg.DB.URL)
	assert.Equal(t, "sk-overlay", cfg.LLM.APIKey)
}

func TestLoadDotEnv_DoesNotOverwriteExplicitValues(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/cityops")

	cfg := Default()
	cfg.DB.URL = "postgres://configured/cityops"
	LoadDotEnv(cfg, "does-not-exist.env")

	assert.Equal(t, "postgres://configured/cityops", cfg.DB.URL)
}
