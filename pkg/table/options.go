package table

import "go-pagedb/pkg/bptree"

// Options represents the configuration of a table.
type Options struct {
	// PageSize is fixed when the table is created and read back from the
	// header afterwards. Must be a power of two.
	PageSize int `json:"page_size"`

	// FillFactor controls how full a node may get before it is split.
	// See bptree.Options.
	FillFactor float64 `json:"fill_factor"`
}

var DefaultOptions = Options{
	PageSize:   4096,
	FillFactor: bptree.DefaultOptions.FillFactor,
}

func (o *Options) orDefault() *Options {
	if o == nil {
		return &DefaultOptions
	}
	return o
}

func (o *Options) treeOptions() *bptree.Options {
	return &bptree.Options{FillFactor: o.FillFactor}
}
