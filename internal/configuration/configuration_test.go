package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"quizrec/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `logger:
  level: debug
server:
  address: ":8080"
  static: /var/www
  session_cookie: sid
  read_timeout: 2s
quiz:
  preset: paddle
  catalog: /data/paddles.json
  catalog_format: paddles
  default_limit: 8
  workers: 4
sessions:
  length: 3
  ttl: 1h
events:
  file: /var/log/quizrec/events.jsonl
  size: 10
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, fullConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Logger.Level)
	assert.Equal(t, ":8080", config.Server.Address)
	assert.Equal(t, "sid", config.Server.SessionCookie)
	assert.Equal(t, 2*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, 5*time.Second, config.Server.WriteTimeout)
	assert.Equal(t, "paddle", config.Quiz.Preset)
	assert.Equal(t, catalog.FormatPaddles, config.Quiz.CatalogFormat)
	assert.Equal(t, 8, config.Quiz.DefaultLimit)
	assert.Equal(t, 4, config.Quiz.Workers)
	assert.Equal(t, 3, config.Sessions.Length)
	assert.Equal(t, time.Hour, config.Sessions.TTL)
	assert.Equal(t, time.Minute, config.Sessions.CleanInterval)
	assert.Equal(t, 10, config.Events.Size)
	assert.Equal(t, 20, config.Events.Amount)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("QUIZREC_SERVER_ADDRESS", ":9090")

	config, err := LoadConfig(writeConfig(t, fullConfig))
	require.NoError(t, err)

	assert.Equal(t, ":9090", config.Server.Address)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "error reading config file")
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "logger:\n  level: loud\nserver:\n  address: \":1\"\n"))
	assert.ErrorContains(t, err, "logger.level: unsupported level 'loud'")
}

func TestQuizConfig_Validate(t *testing.T) {
	q := QuizConfig{Rules: "/etc/quizrec/kayak.yaml", Catalog: "kayaks.json"}
	require.NoError(t, q.Validate())
	assert.Equal(t, catalog.FormatProducts, q.CatalogFormat)

	assert.ErrorContains(t, (&QuizConfig{Catalog: "x.json"}).Validate(), "preset or rules")
	assert.ErrorContains(t, (&QuizConfig{Preset: "paddle"}).Validate(), "quiz.catalog")
	assert.ErrorContains(t, (&QuizConfig{Preset: "paddle", Catalog: "x", CatalogFormat: "csv"}).Validate(), "catalog_format")
	assert.ErrorContains(t, (&QuizConfig{Preset: "paddle", Catalog: "x", Workers: -1}).Validate(), "quiz.workers")
}

func TestSessionsConfig_Defaults(t *testing.T) {
	s := SessionsConfig{}
	require.NoError(t, s.Validate())

	assert.Equal(t, 10, s.Length)
	assert.Equal(t, 30*time.Minute, s.TTL)
	assert.Equal(t, time.Minute, s.CleanInterval)

	assert.Error(t, (&SessionsConfig{Length: -1}).Validate())
}

func TestServerConfig_Validate(t *testing.T) {
	assert.ErrorContains(t, (&ServerConfig{}).Validate(), "server.address")

	s := ServerConfig{Address: ":80"}
	require.NoError(t, s.Validate())
	assert.Equal(t, "quiz_session", s.SessionCookie)
}
