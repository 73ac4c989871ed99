package indexer

// Progress is one coarse milestone event emitted during a build.
// Percent is in [0, 1].
type Progress struct {
	Message string
	Percent float64
}

// report delivers a progress event without blocking: if the consumer
// lags behind, intermediate events are dropped. Progress is advisory
// and never affects build correctness.
func (b *Builder) report(message string, percent float64) {
	if b.progress == nil {
		return
	}
	select {
	case b.progress <- Progress{Message: message, Percent: percent}:
	default:
	}
}
