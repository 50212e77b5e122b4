package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/retailsql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retailsql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"OnlineRetail.csv"}, cfg.Dataset.Paths)
	assert.Equal(t, "iso-8859-1", cfg.Dataset.Encoding)
	assert.Equal(t, 50, cfg.Recommend.MinFrequency)
	assert.Equal(t, 8501, cfg.Server.Port)
	assert.Empty(t, cfg.Catalog.Path)

	app, err := cfg.AppConfig()
	require.NoError(t, err)
	assert.Equal(t, retailsql.EncodingISO88591, app.Encoding)
	assert.Equal(t, 50, app.MinFrequency)
}

// Load reads process environment, so the tests below do not run in parallel.

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
dataset:
  paths:
    - data/OnlineRetail.xlsx
  encoding: utf-8
catalog:
  path: sql/queries.sql
recommend:
  min_frequency: 10
server:
  port: 9000
  shutdown_timeout: 3s
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"data/OnlineRetail.xlsx"}, cfg.Dataset.Paths)
	assert.Equal(t, "utf-8", cfg.Dataset.Encoding)
	assert.Equal(t, "sql/queries.sql", cfg.Catalog.Path)
	assert.Equal(t, 10, cfg.Recommend.MinFrequency)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, time.Minute, cfg.Server.RateLimitWindow, "unset keys keep their defaults")
	assert.Equal(t, "console", cfg.Logging.Format)

	app, err := cfg.AppConfig()
	require.NoError(t, err)
	assert.Equal(t, retailsql.EncodingUTF8, app.Encoding)
	assert.Equal(t, "sql/queries.sql", app.CatalogPath)
}

func TestLoad_Environment(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("RETAILSQL_PORT", "9100")
	t.Setenv("RETAILSQL_MIN_FREQUENCY", "5")
	t.Setenv("RETAILSQL_DATASET_PATHS", "a.csv, b.csv.gz")
	t.Setenv("RETAILSQL_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("RETAILSQL_LOG_LEVEL", "warn")
	t.Setenv("RETAILSQL_UNKNOWN", "ignored")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Recommend.MinFrequency)
	assert.Equal(t, []string{"a.csv", "b.csv.gz"}, cfg.Dataset.Paths)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_ConfigPathFromEnvironment(t *testing.T) {
	path := writeConfig(t, "recommend:\n  min_frequency: 7\n")
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Recommend.MinFrequency)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("named file missing", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [port"))
		require.Error(t, err)
	})

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "port", body: "server:\n  port: 70000\n", want: "Server.Port must be at most 65535"},
		{name: "threshold", body: "recommend:\n  min_frequency: 0\n", want: "Recommend.MinFrequency must be at least 1"},
		{name: "encoding", body: "dataset:\n  encoding: ebcdic\n", want: "Dataset.Encoding must be one of"},
		{name: "log format", body: "logging:\n  format: xml\n", want: "Logging.Format must be one of"},
		{name: "no dataset", body: "dataset:\n  paths: []\n", want: "Dataset.Paths"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "logging.level", envTransformFunc("RETAILSQL_LOG_LEVEL"))
	assert.Equal(t, "server.port", envTransformFunc("RETAILSQL_SERVER_PORT"))
	assert.Equal(t, "catalog.path", envTransformFunc("RETAILSQL_QUERIES"))
	assert.Empty(t, envTransformFunc("RETAILSQL_CONFIG"))
}
