package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaultsWhenMissing(t *testing.T) {
	c := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Equal(t, "http://localhost:9000", c.Storage.Endpoint)
	assert.Equal(t, "journals", c.Storage.Bucket)
	assert.Equal(t, "8080", c.API.Port)
	assert.Equal(t, 50, c.Upload.MaxMb)
	assert.Equal(t, 60*time.Second, c.SignedURLTTL())
}

func TestLoadFileParsesYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  endpoint: https://store.example.com
  access_key: abc
  secret_key: def
  bucket: papers
  database: ./papers.db
api:
  port: "9090"
upload:
  max_mb: 25
download:
  signed_url_ttl_seconds: 120
  dir: /tmp/dl
`), 0644))

	c := LoadFile(path)
	assert.Equal(t, "https://store.example.com", c.Storage.Endpoint)
	assert.Equal(t, "papers", c.Storage.Bucket)
	assert.Equal(t, "9090", c.API.Port)
	assert.Equal(t, 25, c.Upload.MaxMb)
	assert.Equal(t, 120*time.Second, c.SignedURLTTL())
	assert.Equal(t, "/tmp/dl", c.Download.Dir)
}

func TestEnvOverridesCredentials(t *testing.T) {
	t.Setenv("JV_ACCESS_KEY", "env-access")
	t.Setenv("JV_SECRET_KEY", "env-secret")

	c := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, "env-access", c.Storage.AccessKey)
	assert.Equal(t, "env-secret", c.Storage.SecretKey)
}
