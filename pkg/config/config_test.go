package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	conf, err := Load("")
	require.NoError(t, err)
	require.False(t, conf.HDROverride)
	require.Equal(t, "info", conf.Log.Level)
	require.Equal(t, uint64(1048576), conf.Log.MaxSize)
	require.Equal(t, uint64(7), conf.Log.MaxFiles)
	require.Equal(t, 64, conf.Diagnostics.BufferSize)
}

// TestPrecedence env > file > default
func TestPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
hdroverride: true
log:
  level: debug
  maxfiles: 3
diagnostics:
  buffersize: 16
streams:
  - name: movie
    init: init.mp4
    segments: [seg-*.m4s]
    hdroverride: true
`), 0o644))

	conf, err := Load(path)
	require.NoError(t, err)
	require.True(t, conf.HDROverride)
	require.Equal(t, "debug", conf.Log.Level)
	require.Equal(t, uint64(3), conf.Log.MaxFiles)
	require.Equal(t, uint64(1048576), conf.Log.MaxSize)
	require.Equal(t, 16, conf.Diagnostics.BufferSize)
	require.Len(t, conf.Streams, 1)
	require.Equal(t, []string{"seg-*.m4s"}, conf.Streams[0].Segments)
	require.True(t, conf.Streams[0].HDROverride)

	t.Setenv("PLAYER_LOG_LEVEL", "trace")
	t.Setenv("PLAYER_HDROVERRIDE", "false")
	t.Setenv("PLAYER_DIAGNOSTICS_BUFFERSIZE", "128")
	conf, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, "trace", conf.Log.Level)
	require.False(t, conf.HDROverride)
	require.Equal(t, 128, conf.Diagnostics.BufferSize)
}

func TestParseEnvInvalid(t *testing.T) {
	t.Setenv("PLAYER_DIAGNOSTICS_BUFFERSIZE", "many")
	var conf Demux
	require.Error(t, ParseEnv(&conf, EnvPrefix))
	require.Error(t, ParseEnv(conf, EnvPrefix))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
