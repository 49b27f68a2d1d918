package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"address": "0.0.0.0:9000",
		"database_dsn": "postgres://file",
		"codec_format": "legacy",
		"verify_max_attempts": 5,
		"trash_retention": "48h",
		"token_ttl": 3600
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("CONFIG", path)
	t.Setenv("DATABASE_DSN", "postgres://env")

	opts := Parse()

	assert.Equal(t, "0.0.0.0:9000", opts.Port)
	assert.Equal(t, "postgres://env", opts.DatabaseDSN)
	assert.Equal(t, "legacy", opts.CodecFormat)
	assert.Equal(t, 5, opts.VerifyMaxAttempts)
	assert.Equal(t, 48*time.Hour, opts.TrashRetention.Duration)
	assert.Equal(t, time.Hour, opts.TokenTTL.Duration)
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	var v struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1m30s","b":2}`), &v))
	assert.Equal(t, 90*time.Second, v.A.Duration)
	assert.Equal(t, 2*time.Second, v.B.Duration)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"soon"}`), &v))
}
