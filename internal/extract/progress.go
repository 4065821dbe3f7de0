package extract

// Progress is a (processed, total) tuple published per key-node (spec
// §4.6 "The extractor optionally publishes (processed, total) progress
// tuples per key-node").
type Progress struct {
	Processed int
	Total     int
}

// ProgressSink receives Progress updates. Publish must not block the
// extractor for long; a bounded channel with a non-blocking send is the
// expected implementation (spec §5 "progress publication is push-based
// through a bounded queue supplied by the caller").
type ProgressSink interface {
	Publish(Progress)
}

// ChannelProgressSink adapts a bounded channel to ProgressSink, dropping
// an update rather than blocking the extractor when the channel is full.
type ChannelProgressSink chan Progress

// Publish sends p on the channel, dropping it if the channel is full.
func (c ChannelProgressSink) Publish(p Progress) {
	select {
	case c <- p:
	default:
	}
}
