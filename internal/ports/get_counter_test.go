package ports_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/milepost/milepost/internal/app"
	"github.com/milepost/milepost/internal/domain"
	"github.com/milepost/milepost/internal/ports"
	"github.com/stretchr/testify/require"
)

func TestMakeGetCounterHandler(t *testing.T) {
	t.Parallel()

	uuid := "01234567-89ab-cdef-0123-456789abcdef"
	now := time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)

	makeGetCounter := func(t *testing.T, expectedUUID string, counter domain.Counter, achievements []string, err error) (app.GetCounter, *bool) {
		called := false
		return func(ctx context.Context, playerUUID string) (domain.Counter, []string, error) {
			t.Helper()
			require.Equal(t, expectedUUID, playerUUID)

			called = true

			return counter, achievements, err
		}, &called
	}

	makeRequest := func(uuid string) *http.Request {
		req := httptest.NewRequest("GET", "/v1/counters/"+uuid, nil)
		req.SetPathValue("uuid", uuid)
		return req
	}

	t.Run("counter with session achievements", func(t *testing.T) {
		t.Parallel()

		counter := domain.Counter{PlayerUUID: uuid, Count: 42, FirstTapAt: now, UpdatedAt: now}
		getCounter, called := makeGetCounter(t, uuid, counter, []string{"first_tap", "ten_taps"}, nil)
		handler := ports.MakeGetCounterHandler(getCounter, testLogger, noopMiddleware)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, makeRequest(uuid))

		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, *called)
		require.Equal(t, "application/json", w.Result().Header.Get("Content-Type"))

		var response struct {
			UUID         string    `json:"uuid"`
			Count        int64     `json:"count"`
			FirstTapAt   time.Time `json:"firstTapAt"`
			UpdatedAt    time.Time `json:"updatedAt"`
			Achievements []string  `json:"achievements"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Equal(t, uuid, response.UUID)
		require.Equal(t, int64(42), response.Count)
		require.True(t, now.Equal(response.FirstTapAt))
		require.Equal(t, []string{"first_tap", "ten_taps"}, response.Achievements)
	})

	t.Run("counter without a session", func(t *testing.T) {
		t.Parallel()

		counter := domain.Counter{PlayerUUID: uuid, Count: 3, FirstTapAt: now, UpdatedAt: now}
		getCounter, called := makeGetCounter(t, uuid, counter, nil, nil)
		handler := ports.MakeGetCounterHandler(getCounter, testLogger, noopMiddleware)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, makeRequest(uuid))

		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, *called)
		require.Contains(t, w.Body.String(), `"achievements":[]`)
	})

	t.Run("counter not found", func(t *testing.T) {
		t.Parallel()

		getCounter, called := makeGetCounter(t, uuid, domain.Counter{}, nil, fmt.Errorf("failed to get counter: %w", domain.ErrCounterNotFound))
		handler := ports.MakeGetCounterHandler(getCounter, testLogger, noopMiddleware)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, makeRequest(uuid))

		require.Equal(t, http.StatusNotFound, w.Code)
		require.True(t, *called)
	})

	t.Run("invalid uuid", func(t *testing.T) {
		t.Parallel()

		getCounter, called := makeGetCounter(t, uuid, domain.Counter{}, nil, nil)
		handler := ports.MakeGetCounterHandler(getCounter, testLogger, noopMiddleware)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, makeRequest("zzz"))

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.False(t, *called)
	})

	t.Run("internal error", func(t *testing.T) {
		t.Parallel()

		getCounter, called := makeGetCounter(t, uuid, domain.Counter{}, nil, fmt.Errorf("boom"))
		handler := ports.MakeGetCounterHandler(getCounter, testLogger, noopMiddleware)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, makeRequest(uuid))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.True(t, *called)
	})
}
