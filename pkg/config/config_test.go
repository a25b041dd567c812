package config

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	Load()
	conf := Get()

	assert.True(t, conf.Loaded)
	assert.Equal(t, ":8000", conf.Server.Addr)
	assert.Equal(t, "/metrics", conf.Metrics.Path)
	assert.Equal(t, 9000, conf.Metrics.Port)
	assert.Equal(t, DefaultChunkSize, conf.Uploads.ChunkSize)
	assert.Equal(t, DefaultMaxRetries, conf.Uploads.MaxRetries)
	assert.Equal(t, DefaultSessionMaxAge, conf.Uploads.SessionMaxAge)
	assert.Equal(t, DefaultSweepInterval, conf.Uploads.SweepInterval)
	assert.NotEmpty(t, conf.Uploads.StoragePath)
	assert.NotEmpty(t, conf.Uploads.StagingPath)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("UPLOADS_CHUNK_SIZE", "8MB")
	t.Setenv("UPLOADS_SESSION_MAX_AGE", "1h")
	Load()
	defer Load() // restore for other tests

	conf := Get()
	assert.Equal(t, "8MB", conf.Uploads.ChunkSize)
	assert.Equal(t, time.Hour, conf.Uploads.SessionMaxAge)
}

func TestChunkSizeBytes(t *testing.T) {
	assert.Equal(t, int64(5*1024*1024), Uploads{ChunkSize: "5MB"}.ChunkSizeBytes())
	assert.Equal(t, int64(1024), Uploads{ChunkSize: "1KB"}.ChunkSizeBytes())

	// invalid and non-positive sizes fall back to the default
	fallback := Uploads{ChunkSize: DefaultChunkSize}.ChunkSizeBytes()
	assert.Equal(t, fallback, Uploads{ChunkSize: "bogus"}.ChunkSizeBytes())
	assert.Equal(t, fallback, Uploads{ChunkSize: ""}.ChunkSizeBytes())
}

func TestRedisUrl(t *testing.T) {
	Load()
	LoadedConfig.Clients.Redis.Host = "localhost"
	LoadedConfig.Clients.Redis.Port = 6379
	defer Load()

	assert.Equal(t, "localhost:6379", RedisUrl())
}

func TestSkipLogging(t *testing.T) {
	Load()
	e := echo.New()

	for path, skipped := range map[string]bool{
		"/ping":                      true,
		"/ping/":                     true,
		"/metrics":                   true,
		Get().Metrics.Path + "/sub":  true,
		"/api/file-drop/v1.0/files/": false,
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Equal(t, skipped, SkipLogging(c), "path %s", path)
	}
}
