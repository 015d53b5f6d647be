package bptree

// Options represents the configuration options for the B+ tree.
type Options struct {
	// FillFactor is the fraction of a page's usable space a node may fill
	// before it is split. Splitting early leaves slack for later inserts.
	// 1 splits only when an insert would overflow the page.
	FillFactor float64 `json:"fill_factor"`
}

var DefaultOptions = Options{
	FillFactor: 0.75,
}

func (o *Options) fillFactor() float64 {
	if o == nil || o.FillFactor <= 0 || o.FillFactor > 1 {
		return DefaultOptions.FillFactor
	}
	return o.FillFactor
}
