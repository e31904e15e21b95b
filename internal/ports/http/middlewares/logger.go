package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}

		t1 := time.Now()
		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			// query strings may carry verification codes
			url := fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.Path)
			logstr := fmt.Sprintf("HTTP Request Completed %s %s %s - %d %dB in %s",
				r.Method,
				url,
				r.Proto,
				status,
				ww.BytesWritten(),
				time.Since(t1),
			)
			l := logger.With(
				slog.String("method", r.Method),
				slog.String("url", url),
				slog.String("proto", r.Proto),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(t1)),
			)

			switch {
			case status >= 500:
				l.ErrorContext(r.Context(), logstr)
			case status >= 400:
				l.WarnContext(r.Context(), logstr)
			default:
				l.InfoContext(r.Context(), logstr)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}
