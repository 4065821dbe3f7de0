package warn

import (
	"io"
	"log/slog"
)

// NewSlogSink returns a Sink that writes every Warning through h as a
// structured log record, the category/caller-id/severity fields mapped to
// slog attributes (spec §6 warning shape). Grounded on the teacher's
// CreateHandler, which builds a [slog.Handler] from a plain io.Writer plus
// level/format; here the handler is supplied directly so callers keep
// using whichever of CreateHandler's JSON/logfmt variants they already
// configured for the rest of the engine's logging.
func NewSlogSink(h slog.Handler) Sink {
	logger := slog.New(h)
	return WriterSink{Log: func(w Warning) {
		logger.Warn(w.Message,
			slog.String("category", w.Category.String()),
			slog.String("caller_id", w.CallerID),
			slog.Int("severity", int(w.Severity)),
		)
	}}
}

// NewWriterHandler builds a slog.Handler over w the same way the teacher's
// CreateHandler does, defaulting to logfmt when format is unrecognized.
func NewWriterHandler(w io.Writer, level slog.Level, jsonFormat bool) slog.Handler {
	opts := &slog.HandlerOptions{AddSource: true, Level: level}
	if jsonFormat {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
