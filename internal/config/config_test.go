package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets keys for the duration of the test.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, "ENV", "PORT", "REPLY_PREFIX", "GRAPH_API_URL", "GRAPH_API_VERSION", "GRAPH_API_TIMEOUT", "GRAPH_ASYNC", "MONGO_ENABLED")
	t.Setenv("WEBHOOK_VERIFY_TOKEN", "verify-me")
	t.Setenv("GRAPH_API_TOKEN", "graph-token")

	conf, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "local", conf.Env)
	assert.Equal(t, "8000", conf.Listen.Port)
	assert.Equal(t, "verify-me", conf.WhatsApp.VerifyToken)
	assert.Equal(t, "graph-token", conf.Graph.Token)
	assert.Equal(t, "Juan", conf.WhatsApp.ReplyPrefix)
	assert.Equal(t, "https://graph.facebook.com", conf.Graph.BaseURL)
	assert.Equal(t, "v18.0", conf.Graph.Version)
	assert.Equal(t, 10*time.Second, conf.Graph.Timeout)
	assert.False(t, conf.Graph.Async)
	assert.False(t, conf.Mongo.Enabled)
}

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("GRAPH_API_TOKEN", "from-env")

	conf, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", conf.Graph.Token)
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `
env: prod
listen:
  port: "9100"
whatsapp:
  verify_token: from-file
  reply_prefix: Bot
graph:
  token: file-token
  async: true
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	clearEnv(t, "ENV", "PORT", "WEBHOOK_VERIFY_TOKEN", "REPLY_PREFIX", "GRAPH_ASYNC", "GRAPH_WORKERS")
	t.Setenv("GRAPH_API_TOKEN", "env-token")

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", conf.Env)
	assert.Equal(t, "9100", conf.Listen.Port)
	assert.Equal(t, "from-file", conf.WhatsApp.VerifyToken)
	assert.Equal(t, "Bot", conf.WhatsApp.ReplyPrefix)
	assert.Equal(t, "env-token", conf.Graph.Token)
	assert.True(t, conf.Graph.Async)
	assert.Equal(t, 2, conf.Graph.Workers)
}
