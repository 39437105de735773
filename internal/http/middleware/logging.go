package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const requestInfoKey contextKey = "request_info"

// requestInfo is filled by inner middleware and read by RequestLogger after
// the handler returns.
type requestInfo struct {
	operator string
}

func setRequestOperator(ctx context.Context, login string) {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.operator = login
	}
}

var redactedParams = []string{"apikey", "api_key", "token", "password"}

// redactQuery masks credential parameters in a raw query string.
func redactQuery(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "<unparsable>"
	}
	changed := false
	for key := range values {
		for _, name := range redactedParams {
			if strings.EqualFold(key, name) {
				values[key] = []string{"REDACTED"}
				changed = true
			}
		}
	}
	if !changed {
		return raw
	}
	return values.Encode()
}

func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &requestInfo{}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestInfoKey, info)))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "query", redactQuery(r.URL.RawQuery))
			}
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				attrs = append(attrs, "request_id", reqID)
			}
			if info.operator != "" {
				attrs = append(attrs, "operator", info.operator)
			}
			if ip := r.RemoteAddr; ip != "" {
				attrs = append(attrs, "ip", ip)
			}

			switch {
			case ww.Status() >= 500:
				logger.Error("http_request", attrs...)
			case ww.Status() >= 400:
				logger.Warn("http_request", attrs...)
			default:
				logger.Info("http_request", attrs...)
			}
		})
	}
}
