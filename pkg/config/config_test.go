package config

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test-config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath
}

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		configContent := `
server:
  listen: ":9090"
  timeout: 45s
  session_ttl: 2h

source:
  type: newsdata
  endpoint: https://example.com/api/news
  api_key: key-123
  language: de
  query: golang
  retries: 3

auth:
  username: admin
  password: secret
`
		cfg, err := Load(writeConfig(t, configContent))
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ":9090", cfg.Server.Listen)
		assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
		assert.Equal(t, 2*time.Hour, cfg.Server.SessionTTL)

		assert.Equal(t, SourceNewsdata, cfg.Source.Type)
		assert.Equal(t, "https://example.com/api/news", cfg.Source.Endpoint)
		assert.Equal(t, "key-123", cfg.Source.APIKey)
		assert.Equal(t, "de", cfg.Source.Language)
		assert.Equal(t, "golang", cfg.Source.Query)
		assert.Equal(t, 3, cfg.Source.Retries)

		assert.Equal(t, "admin", cfg.Auth.Username)
		assert.Equal(t, "secret", cfg.Auth.Password)
	})

	t.Run("defaults", func(t *testing.T) {
		configContent := `
source:
  api_key: key
`
		cfg, err := Load(writeConfig(t, configContent))
		require.NoError(t, err)

		// check server defaults
		assert.Equal(t, ":8080", cfg.Server.Listen)
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, 24*time.Hour, cfg.Server.SessionTTL)

		// check source defaults
		assert.Equal(t, SourceNewsdata, cfg.Source.Type)
		assert.Equal(t, "https://newsdata.io/api/1/news", cfg.Source.Endpoint)
		assert.Equal(t, "en", cfg.Source.Language)
		assert.Equal(t, 10, cfg.Source.PageSize)
		assert.Equal(t, 30*time.Second, cfg.Source.Timeout)
		assert.Equal(t, 1, cfg.Source.Retries)
		assert.Equal(t, "Scrollfeed/1.0", cfg.Source.UserAgent)
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("TEST_NEWSDATA_KEY", "from-env")
		cfg, err := Load(writeConfig(t, "source:\n  api_key: ${TEST_NEWSDATA_KEY}\n"))
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Source.APIKey)
	})

	t.Run("rss source", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "source:\n  type: rss\n  rss_url: https://example.com/feed.xml\n  page_size: 5\n"))
		require.NoError(t, err)
		assert.Equal(t, SourceRSS, cfg.Source.Type)
		assert.Equal(t, "https://example.com/feed.xml", cfg.Source.RSSURL)
		assert.Equal(t, 5, cfg.Source.PageSize)
	})

	t.Run("file not found", func(t *testing.T) {
		cfg, err := Load("/non/existent/file.yml")
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configContent := `
invalid yaml content
  with bad indentation
    and no structure
`
		cfg, err := Load(writeConfig(t, configContent))
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "parse config")
	})
}

func TestLoad_Validation(t *testing.T) {
	tbl := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"missing api key", "source:\n  type: newsdata\n", "source.api_key is required"},
		{"missing rss url", "source:\n  type: rss\n", "source.rss_url is required"},
		{"unknown type", "source:\n  type: kafka\n", `unknown source.type "kafka"`},
		{"too many retries", "source:\n  api_key: k\n  retries: 11\n", "source.retries must be between 1 and 10"},
		{"negative page size", "source:\n  api_key: k\n  page_size: -1\n", "source.page_size must be at least 1"},
		{"short source timeout", "source:\n  api_key: k\n  timeout: 10ms\n", "source timeout must be at least 1 second"},
		{"short server timeout", "server:\n  timeout: 100ms\nsource:\n  api_key: k\n", "server timeout must be at least 1 second"},
		{"short session ttl", "server:\n  session_ttl: 5s\nsource:\n  api_key: k\n", "session_ttl must be at least 1 minute"},
		{"username without password", "source:\n  api_key: k\nauth:\n  username: admin\n", "auth.password is required"},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "validate config")
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, SourceNewsdata, cfg.Source.Type)
	assert.Equal(t, 1, cfg.Source.Retries)
}

func TestConfig_GetServerConfig(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Listen: ":9090", Timeout: 45 * time.Second},
		Source: SourceConfig{Type: SourceRSS, RSSURL: "https://example.com/rss"},
	}

	listen, timeout := cfg.GetServerConfig()
	assert.Equal(t, ":9090", listen)
	assert.Equal(t, 45*time.Second, timeout)
}

func TestVerifySchema(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	cfg := Default()
	cfg.Source.APIKey = "key"
	verifySchema(cfg)
	assert.Empty(t, buf.String())

	cfg.Source.Type = "kafka"
	verifySchema(cfg)
	assert.Contains(t, buf.String(), "[WARN] schema validation failed")
	assert.Contains(t, buf.String(), `source.type value "kafka"`)
}
