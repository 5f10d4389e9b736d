package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/milepost/milepost/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestNewRequestLoggerMiddleware(t *testing.T) {
	t.Parallel()

	makeRequest := func(uuid, userAgent string) *http.Request {
		req := httptest.NewRequest("POST", "/v1/counters/"+uuid+"/taps", nil)
		req.SetPathValue("uuid", uuid)
		if userAgent != "" {
			req.Header.Set("User-Agent", userAgent)
		}
		return req
	}

	logLine := func(t *testing.T, buf *bytes.Buffer) map[string]any {
		t.Helper()
		var result map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
		return result
	}

	t.Run("request meta attached to logger", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		handler := logging.NewRequestLoggerMiddleware(logger)(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Info("handled")
		})

		handler(httptest.NewRecorder(), makeRequest("01234567-89ab-cdef-0123-456789abcdef", "tap-client/1.0"))

		line := logLine(t, &buf)
		require.Equal(t, "handled", line["msg"])
		require.Equal(t, "01234567-89ab-cdef-0123-456789abcdef", line["uuid"])
		require.Equal(t, "tap-client/1.0", line["userAgent"])
	})

	t.Run("missing meta marked as missing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		handler := logging.NewRequestLoggerMiddleware(logger)(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Info("handled")
		})

		req := httptest.NewRequest("GET", "/v1/counters", nil)
		handler(httptest.NewRecorder(), req)

		line := logLine(t, &buf)
		require.Equal(t, "<missing>", line["uuid"])
		require.Equal(t, "<missing>", line["userAgent"])
	})
}

func TestFromContextFallback(t *testing.T) {
	t.Parallel()

	logger := logging.FromContext(t.Context())
	require.NotNil(t, logger)
}
