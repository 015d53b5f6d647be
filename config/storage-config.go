package config

import "go-pagedb/pkg/table"

type StorageConfig struct {
	Dir        string
	PageSize   int
	FillFactor float64
	Mmap       bool
}

func NewStorageConfig() *StorageConfig {
	return &StorageConfig{
		Dir:        "data",
		PageSize:   table.DefaultOptions.PageSize,
		FillFactor: table.DefaultOptions.FillFactor,
		Mmap:       false,
	}
}

func (c *StorageConfig) TableOptions() *table.Options {
	return &table.Options{
		PageSize:   c.PageSize,
		FillFactor: c.FillFactor,
	}
}
