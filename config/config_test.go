package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TAVILY_API_KEY", "tvly-test")
}

func TestLoad_Defaults(t *testing.T) {
	validEnv(t)

	cfg := Load()
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, BackendRedis, cfg.CheckpointBackend)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 4, cfg.TopK)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 30*time.Second, cfg.SearchTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EmbeddingBaseURLFollowsOpenAIBaseURL(t *testing.T) {
	validEnv(t)
	t.Setenv("OPENAI_BASE_URL", "https://llm.internal/v1")

	cfg := Load()
	assert.Equal(t, "https://llm.internal/v1", cfg.EmbeddingBaseURL)

	t.Setenv("EMBEDDING_BASE_URL", "https://embed.internal/v1")
	cfg = Load()
	assert.Equal(t, "https://embed.internal/v1", cfg.EmbeddingBaseURL)
}

func TestLoad_Timeouts(t *testing.T) {
	validEnv(t)
	t.Setenv("LLM_TIMEOUT", "2m")
	t.Setenv("SEARCH_TIMEOUT", "10s")

	cfg := Load()
	assert.Equal(t, 2*time.Minute, cfg.LLMTimeout)
	assert.Equal(t, 10*time.Second, cfg.SearchTimeout)
	require.NoError(t, cfg.Validate())

	t.Setenv("LLM_TIMEOUT", "not-a-duration")
	cfg = Load()
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	validEnv(t)
	t.Setenv("CHECKPOINT_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/cp.db")
	t.Setenv("TOP_K", "8")

	cfg := Load()
	assert.Equal(t, BackendSQLite, cfg.CheckpointBackend)
	assert.Equal(t, "/tmp/cp.db", cfg.SQLitePath)
	assert.Equal(t, 8, cfg.TopK)
	require.NoError(t, cfg.Validate())
}

func TestValidate_MissingKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("TAVILY_API_KEY", "")

	cfg := Load()
	assert.Error(t, cfg.Validate())

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg = Load()
	assert.Error(t, cfg.Validate())
}

func TestValidate_Backends(t *testing.T) {
	validEnv(t)

	t.Setenv("CHECKPOINT_BACKEND", "postgres")
	cfg := Load()
	assert.Error(t, cfg.Validate())

	t.Setenv("POSTGRES_URL", "postgres://localhost/adaptiverag")
	cfg = Load()
	assert.NoError(t, cfg.Validate())

	t.Setenv("CHECKPOINT_BACKEND", "etcd")
	cfg = Load()
	assert.Error(t, cfg.Validate())
}

func TestValidate_MaxRetriesRange(t *testing.T) {
	validEnv(t)
	t.Setenv("MAX_RETRIES", "9")

	cfg := Load()
	assert.Error(t, cfg.Validate())
}

func TestGetEnvInt_MalformedFallsBack(t *testing.T) {
	t.Setenv("TOP_K", "not-a-number")
	assert.Equal(t, 4, getEnvInt("TOP_K", 4))
}
