package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"gitlab.com/ucmsv2/accounts/pkg/env"
)

const scope = "gitlab.com/ucmsv2/accounts"

// Setup builds the process logger: human readable text outside prod, JSON in prod,
// with every record also forwarded to the global OTel logger provider.
func Setup(mode env.Mode) (*slog.Logger, func()) {
	return setup(mode, os.Stdout)
}

func setup(mode env.Mode, w io.Writer) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: mode.SlogLevel()}

	var local slog.Handler
	if mode == env.Prod {
		local = slog.NewJSONHandler(w, opts)
	} else {
		local = slog.NewTextHandler(w, opts)
	}

	handler := fanout{local, otelslog.NewHandler(scope)}
	cleanup := func() {
		if f, ok := w.(*os.File); ok {
			_ = f.Sync()
		}
	}

	return slog.New(handler), cleanup
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}
