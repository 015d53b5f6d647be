package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func lookupOf(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	c, err := fromLookup(lookupOf(nil))
	require.NoError(t, err)
	require.Equal(t, New(), c)
	require.Equal(t, 4096, c.StorageConfig.PageSize)
	require.Equal(t, 0.75, c.StorageConfig.FillFactor)
	require.Equal(t, "info", c.LogConfig.Level)
}

func TestEnvOverrides(t *testing.T) {
	c, err := fromLookup(lookupOf(map[string]string{
		EnvDir:        "/tmp/tables",
		EnvPageSize:   "512",
		EnvFillFactor: "0.5",
		EnvMmap:       "true",
		EnvLogLevel:   "debug",
	}))
	require.NoError(t, err)
	require.Equal(t, &StorageConfig{Dir: "/tmp/tables", PageSize: 512, FillFactor: 0.5, Mmap: true}, c.StorageConfig)
	require.Equal(t, "debug", c.LogConfig.Level)

	opts := c.StorageConfig.TableOptions()
	require.Equal(t, 512, opts.PageSize)
	require.Equal(t, 0.5, opts.FillFactor)
}

func TestEnvInvalid(t *testing.T) {
	for _, key := range []string{EnvPageSize, EnvFillFactor, EnvMmap} {
		_, err := fromLookup(lookupOf(map[string]string{key: "nope"}))
		require.Error(t, err, key)
	}
}
