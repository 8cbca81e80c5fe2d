package serialcache

// Fields carries structured context for a log record.
type Fields map[string]any

// Logger receives the cache's own log records: one Debug per operation,
// Warn on store errors, Error on codec and shutdown failures.
// Adapters live in log/logrus, log/zap and log/slog.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

// NopLogger discards everything. Used when Options.Logger is nil.
type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}
