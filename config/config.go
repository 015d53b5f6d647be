package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
)

const (
	EnvDir        = "PAGEDB_DIR"
	EnvPageSize   = "PAGEDB_PAGE_SIZE"
	EnvFillFactor = "PAGEDB_FILL_FACTOR"
	EnvMmap       = "PAGEDB_MMAP"
	EnvLogLevel   = "PAGEDB_LOG_LEVEL"
)

type AppConfig struct {
	StorageConfig *StorageConfig
	LogConfig     *LogConfig
}

func New() *AppConfig {
	return &AppConfig{
		StorageConfig: NewStorageConfig(),
		LogConfig:     NewLogConfig(),
	}
}

// FromEnv returns the defaults overridden by any PAGEDB_* variables set in
// the environment.
func FromEnv() (*AppConfig, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (*AppConfig, error) {
	c := New()

	if v, ok := lookup(EnvDir); ok {
		c.StorageConfig.Dir = v
	}
	if v, ok := lookup(EnvPageSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", EnvPageSize)
		}
		c.StorageConfig.PageSize = n
	}
	if v, ok := lookup(EnvFillFactor); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", EnvFillFactor)
		}
		c.StorageConfig.FillFactor = f
	}
	if v, ok := lookup(EnvMmap); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", EnvMmap)
		}
		c.StorageConfig.Mmap = b
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogConfig.Level = v
	}
	return c, nil
}
