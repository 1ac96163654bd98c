package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestRequestID_RejectsMalformedInbound(t *testing.T) {
	for _, inbound := range []string{"has space", "line\nbreak", strings.Repeat("a", maxRequestIDLen+1)} {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, inbound)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.NotEqual(t, inbound, seen)
		assert.NotEmpty(t, seen)
	}
}

func TestSentryMiddleware_HubOnContext(t *testing.T) {
	for _, path := range []string{StreamPath, "/api"} {
		var hub *sentry.Hub
		handler := SentryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hub = sentry.GetHubFromContext(r.Context())
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		assert.NotNil(t, hub, path)
	}
}

func TestAccessLog_Fields(t *testing.T) {
	logger, hook := test.NewNullLogger()
	handler := RequestID(AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/messages?sessionId=abc", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, http.StatusAccepted, entry.Data["status"])
	assert.Equal(t, 2, entry.Data["bytes"])
	assert.Equal(t, "/messages", entry.Data["path"])
	assert.Equal(t, "abc", entry.Data["session_id"])
	assert.Equal(t, "203.0.113.7", entry.Data["remote_addr"])
	assert.NotEmpty(t, entry.Data["request_id"])
}

func TestAccessLog_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  logrus.Level
	}{
		{http.StatusOK, logrus.InfoLevel},
		{http.StatusNotFound, logrus.WarnLevel},
		{http.StatusGatewayTimeout, logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			logger, hook := test.NewNullLogger()
			handler := AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, tt.level, hook.LastEntry().Level)
		})
	}
}

func TestRecorders_PassThroughFlush(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var flushed bool
	handler := SentryMiddleware(AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		require.True(t, ok)
		f.Flush()
		flushed = true
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse", nil))

	assert.True(t, flushed)
	assert.True(t, w.Flushed)
}

func TestMaxBodyBytes(t *testing.T) {
	handler := MaxBodyBytes(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "exceeds 8 bytes")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api", strings.NewReader("{}")))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	MaxBodyBytes(0)(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHTTPStatusToSpanStatus(t *testing.T) {
	assert.Equal(t, sentry.SpanStatusOK, httpStatusToSpanStatus(http.StatusAccepted))
	assert.Equal(t, sentry.SpanStatusDeadlineExceeded, httpStatusToSpanStatus(http.StatusGatewayTimeout))
	assert.Equal(t, sentry.SpanStatusUnavailable, httpStatusToSpanStatus(http.StatusServiceUnavailable))
	assert.Equal(t, sentry.SpanStatusInternalError, httpStatusToSpanStatus(http.StatusBadGateway))
	assert.Equal(t, sentry.SpanStatusResourceExhausted, httpStatusToSpanStatus(http.StatusRequestEntityTooLarge))
	assert.Equal(t, sentry.SpanStatusInvalidArgument, httpStatusToSpanStatus(http.StatusUnprocessableEntity))
}
