package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "setting.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
host = "127.0.0.1"
port = 6055
auth_token = "secret"
media_dir = "/srv/media"
proxy = "http://127.0.0.1:7890"
api_timeout = 30
debug_frames = true

[log]
level = "debug"
development = true

[redis]
host = "redis"
port = 6380
password = "hunter2"
db = 3

[plugins.repeater]
enabled = true
groups = [111, 222]
`)

	s, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6055", s.ListenAddr())
	assert.Equal(t, "secret", s.AuthToken)
	assert.Equal(t, "/srv/media", s.MediaDir)
	assert.Equal(t, "http://127.0.0.1:7890", s.Proxy)
	assert.Equal(t, 30*time.Second, s.CallTimeout())
	assert.True(t, s.DebugFrames)
	assert.Equal(t, "debug", s.Log.Level)
	assert.True(t, s.Log.Development)
	assert.Equal(t, "redis:6380", s.Redis.Addr())
	assert.Equal(t, "hunter2", s.Redis.Password)
	assert.Equal(t, 3, s.Redis.DB)
	assert.True(t, s.Plugins.Repeater.Enabled)
	assert.Equal(t, []int64{111, 222}, s.Plugins.Repeater.Groups)
}

func TestLoadFileDefaults(t *testing.T) {
	path := writeConfig(t, `auth_token = "secret"`)

	s, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:6055", s.ListenAddr())
	assert.Equal(t, "media", s.MediaDir)
	assert.Equal(t, 20*time.Second, s.CallTimeout())
	assert.Equal(t, 1, s.JournalConsumers)
	assert.Equal(t, 256, s.JournalQueueSize)
	assert.False(t, s.DebugFrames)
	assert.Equal(t, "info", s.Log.Level)
	assert.False(t, s.Log.Development)
	assert.Equal(t, "localhost:6379", s.Redis.Addr())
	assert.False(t, s.Plugins.Repeater.Enabled)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing token", `port = 6055`, "auth_token"},
		{"bad port", "auth_token = \"x\"\nport = 70000", "port"},
		{"bad timeout", "auth_token = \"x\"\napi_timeout = 0", "api_timeout"},
		{"bad consumers", "auth_token = \"x\"\njournal_consumers = 0", "journal_consumers"},
		{"bad queue", "auth_token = \"x\"\njournal_queue_size = 0", "journal_queue_size"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
