package http

import (
	"net/http"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type payloadContextKey struct{}

var redactedHeaders = []string{"Authorization", "Cookie", "X-Api-Key"}

type logTransport struct {
	transport  http.RoundTripper
	logPayload bool
}

func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Any("headers", redact(req.Header)),
	}

	if payload, ok := ctx.Value(payloadContextKey{}).([]byte); ok && len(payload) > 0 {
		if t.logPayload {
			fields = append(fields, zap.ByteString("payload", payload))
		} else {
			fields = append(fields, zap.Int("payload_bytes", len(payload)))
		}
	}

	ctxzap.Debug(ctx, "HTTP outbound request", fields...)

	start := time.Now()
	resp, err := t.transport.RoundTrip(req)
	if err != nil {
		ctxzap.Debug(ctx, "HTTP outbound request failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	ctxzap.Debug(ctx, "HTTP outbound response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return resp, nil
}

func redact(h http.Header) http.Header {
	clone := h.Clone()
	for _, name := range redactedHeaders {
		if clone.Get(name) != "" {
			clone.Set(name, "[REDACTED]")
		}
	}
	return clone
}

// WithRequestLogging wraps the HTTP transport with debug logging of method,
// URL and headers. Credentials are redacted; request bodies are logged only
// when logPayload is set because prompts can be large.
func WithRequestLogging(logPayload bool) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &logTransport{
			transport:  rt,
			logPayload: logPayload,
		}
	})
}
