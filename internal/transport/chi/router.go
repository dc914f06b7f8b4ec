package chi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/scopeq/internal/logger"
	"github.com/kailas-cloud/scopeq/internal/metrics"
)

const spanName = "scopeq.http"

// NewRouter wires the middleware chain and the API routes of s.
// Order matters: recovery wraps everything, request ids precede the
// access log, and authentication runs inside the metrics middleware so
// rejected requests are still counted.
func NewRouter(s *Server, auth *Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(recoverJSON(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(accessLog(s.logger))
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(auth))
	s.Routes(r)

	return otelhttp.NewHandler(r, spanName,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				return r.Method + " " + rc.RoutePattern()
			}
			return r.Method
		}),
	)
}

// recoverJSON turns a handler panic into a 500 JSON error body.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func recoverJSON(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}
				logger.Error("handler panicked",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rvr),
					zap.Stack("stacktrace"),
				)
				writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error", "")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes one structured line per request and echoes the request id.
// Handlers reach the request-scoped logger through logger.FromContext.
func accessLog(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := chiMiddleware.GetReqID(r.Context())
			if id != "" {
				w.Header().Set("X-Request-ID", id)
			}
			reqLogger := logger.With(zap.String("request_id", id))

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(logpkg.WithLogger(r.Context(), reqLogger)))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.Int("response_bytes", ww.BytesWritten()),
				zap.String("remote", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			}
			if rc := chi.RouteContext(r.Context()); rc != nil {
				fields = append(fields,
					zap.String("route", rc.RoutePattern()),
					zap.String("resource", rc.URLParam("resource")),
				)
			}

			switch {
			case ww.Status() >= http.StatusInternalServerError:
				reqLogger.Error("http_request", fields...)
			case ww.Status() >= http.StatusBadRequest:
				reqLogger.Warn("http_request", fields...)
			default:
				reqLogger.Info("http_request", fields...)
			}
		})
	}
}
