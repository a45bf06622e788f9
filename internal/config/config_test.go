package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	err := os.WriteFile(configPath, []byte(content), 0644)
	require.NoError(t, err, "无法写入临时配置文件")
	return configPath
}

// TestLoadConfigParsesFullFile 验证完整配置文件能被正确加载
func TestLoadConfigParsesFullFile(t *testing.T) {
	yamlContent := `
aliyun:
  api_key: "sk-test"
  model: "qwen-plus"
  embedding:
    model: "text-embedding-v3"
    dimensions: 512
server:
  address: ":9090"
  api_keys:
    - "key-a"
    - "key-b"
redis:
  address: "localhost:6379"
  pool_size: 20
fetcher:
  timeout_seconds: 5
  user_agent: "custom-agent/2.0"
reranker:
  enabled: true
  model_name: "qwen-max"
  judge_timeout: "30s"
`
	configPath := writeTempConfig(t, yamlContent)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "sk-test", cfg.Aliyun.APIKey)
	assert.Equal(t, "qwen-plus", cfg.Aliyun.Model)
	assert.Equal(t, 512, cfg.Aliyun.Embedding.Dimensions)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.Server.APIKeys)
	assert.Equal(t, 20, cfg.Redis.PoolSize)
	assert.Equal(t, 5, cfg.Fetcher.TimeoutSeconds)
	assert.Equal(t, "custom-agent/2.0", cfg.Fetcher.UserAgent)
	assert.True(t, cfg.Reranker.Enabled)
	assert.Equal(t, "qwen-max", cfg.Reranker.ModelName)
	assert.Equal(t, "30s", cfg.Reranker.JudgeTimeout)
}

// TestLoadConfigAppliesDefaults 验证缺省字段被补默认值
func TestLoadConfigAppliesDefaults(t *testing.T) {
	configPath := writeTempConfig(t, `
aliyun:
  api_key: "sk-test"
`)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "text-embedding-v3", cfg.Aliyun.Embedding.Model)
	assert.Equal(t, 1024, cfg.Aliyun.Embedding.Dimensions)
	assert.NotEmpty(t, cfg.Aliyun.Embedding.BaseURL)
	assert.Equal(t, 10, cfg.Fetcher.TimeoutSeconds)
	assert.NotEmpty(t, cfg.Fetcher.UserAgent)
	assert.Equal(t, "20s", cfg.Reranker.JudgeTimeout)
	// 未配置API Key列表时不启用认证
	assert.Empty(t, cfg.Server.APIKeys)
}

// TestLoadConfigEnvOverride 验证环境变量覆盖文件中的值
func TestLoadConfigEnvOverride(t *testing.T) {
	configPath := writeTempConfig(t, `
aliyun:
  api_key: "file-key"
  model: "qwen-turbo"
`)

	t.Setenv("ALIYUN_API_KEY", "env-key")
	t.Setenv("ALIYUN_MODEL", "qwen-max")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Aliyun.APIKey)
	assert.Equal(t, "qwen-max", cfg.Aliyun.Model)
}

// TestLoadConfigMissingFileInTestEnv 验证测试环境下找不到文件时回退到默认配置
func TestLoadConfigMissingFileInTestEnv(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.NotEmpty(t, cfg.Aliyun.Model)
}

func TestLoadConfigFromFileOnlyRequiresPath(t *testing.T) {
	_, err := LoadConfigFromFileOnly("")
	assert.Error(t, err)

	_, err = LoadConfigFromFileOnly(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, GetDuration("30s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("not-a-duration", time.Minute))
}
