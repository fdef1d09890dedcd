package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/undantag/internal/metrics"
)

const RequestIDHeader = "X-Request-ID"

type requestIDContextKey struct{}

type adminContextKey struct{}

// RequestID reuses the client's X-Request-ID or generates a new one, and
// echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDContextKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey{}).(string); ok {
		return id
	}
	return ""
}

// adminFrom returns the authenticated admin, empty when auth is disabled.
func adminFrom(ctx context.Context) string {
	if admin, ok := ctx.Value(adminContextKey{}).(string); ok {
		return admin
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument observes request duration labelled by route pattern, so path
// parameters do not blow up the label cardinality.
func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		metrics.APIRequestDuration.WithLabelValues(
			route,
			r.Method,
			strconv.Itoa(rec.status),
		).Observe(time.Since(start).Seconds())
	}
}

// guard checks the required headers and the admin token before the handler runs.
func (h *ExceptionHandler) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.service.ValidateHeaders(r.Header) {
			writeError(w, r, http.StatusForbidden, codeForbidden, "these are not the droids you are looking for")
			return
		}

		admin, err := h.service.Authenticate(r)
		if err != nil {
			logf(r, "Auth failed: %v", err)
			writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), adminContextKey{}, admin)
		next(w, r.WithContext(ctx))
	}
}

func logf(r *http.Request, format string, args ...interface{}) {
	logger.Error.Printf("[req=%s] "+format, append([]interface{}{GetRequestID(r.Context())}, args...)...)
}
