package dedupe

// Option applies a configuration option to the memory deduper.
type Option func(*memoryDeduper)

// WithMaxSize caps the number of ids kept before FIFO eviction kicks in.
func WithMaxSize(maxSize int) Option {
	return func(d *memoryDeduper) {
		if maxSize > 0 {
			d.maxSize = maxSize
		}
	}
}
