package watermillx

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// SlogAdapter routes watermill logs into slog. Watermill is chatty at info,
// so records below minLevel are dropped even if the handler would take them.
type SlogAdapter struct {
	logger   *slog.Logger
	minLevel slog.Level
}

func NewSlogAdapter(logger *slog.Logger, minLevel slog.Level) watermill.LoggerAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{
		logger:   logger.With(slog.String("component", "watermill")),
		minLevel: minLevel,
	}
}

func (l *SlogAdapter) enabled(level slog.Level) bool {
	return level >= l.minLevel && l.logger.Enabled(context.Background(), level)
}

func (l *SlogAdapter) log(level slog.Level, msg string, fields watermill.LogFields, extra ...slog.Attr) {
	if !l.enabled(level) {
		return
	}
	attrs := make([]slog.Attr, 0, len(fields)+len(extra))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	attrs = append(attrs, extra...)
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func (l *SlogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.log(slog.LevelError, msg, fields, slog.Any("error", err))
}

func (l *SlogAdapter) Info(msg string, fields watermill.LogFields) {
	l.log(slog.LevelInfo, msg, fields)
}

func (l *SlogAdapter) Debug(msg string, fields watermill.LogFields) {
	l.log(slog.LevelDebug, msg, fields)
}

func (l *SlogAdapter) Trace(msg string, fields watermill.LogFields) {
	l.log(slog.LevelDebug-4, msg, fields)
}

func (l *SlogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	args := make([]any, 0, len(fields))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return &SlogAdapter{
		logger:   l.logger.With(args...),
		minLevel: l.minLevel,
	}
}
