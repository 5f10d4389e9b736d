package ports

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/milepost/milepost/internal/app"
	"github.com/milepost/milepost/internal/domain"
	"github.com/milepost/milepost/internal/logging"
	"github.com/milepost/milepost/internal/ratelimiting"
	"github.com/milepost/milepost/internal/reporting"
	"github.com/milepost/milepost/internal/strutils"
)

type counterResponse struct {
	UUID         string    `json:"uuid"`
	Count        int64     `json:"count"`
	FirstTapAt   time.Time `json:"firstTapAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Achievements []string  `json:"achievements"`
}

func MakeGetCounterHandler(
	getCounter app.GetCounter,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(8),
		ratelimiting.BurstSize(480),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("counter"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("counter"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rawUUID := r.PathValue("uuid")

		ctx = logging.AddMetaToContext(ctx, slog.String("rawUUID", rawUUID))
		ctx = reporting.AddExtrasToContext(ctx,
			map[string]string{
				"rawUUID": rawUUID,
			},
		)

		uuid, err := strutils.NormalizeUUID(rawUUID)
		if err != nil {
			statusCode := http.StatusBadRequest
			logging.FromContext(ctx).Info("Invalid uuid. Returning error", "statusCode", statusCode, "reason", "invalid uuid")
			http.Error(w, "Invalid uuid", statusCode)
			return
		}

		ctx = reporting.SetPlayerIDInContext(ctx, uuid)
		ctx = logging.AddMetaToContext(ctx, slog.String("uuid", uuid))

		counter, achievements, err := getCounter(ctx, uuid)
		if errors.Is(err, domain.ErrCounterNotFound) {
			logging.FromContext(ctx).Info("Counter not found", "statusCode", http.StatusNotFound)
			http.Error(w, "Counter not found", http.StatusNotFound)
			return
		} else if err != nil {
			logging.FromContext(ctx).Error("Error getting counter", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if achievements == nil {
			achievements = []string{}
		}

		responseData, err := json.Marshal(counterResponse{
			UUID:         uuid,
			Count:        counter.Count,
			FirstTapAt:   counter.FirstTapAt,
			UpdatedAt:    counter.UpdatedAt,
			Achievements: achievements,
		})
		if err != nil {
			logging.FromContext(ctx).Error("Failed to marshal counter response", "error", err)
			reporting.Report(ctx, fmt.Errorf("failed to marshal counter response: %w", err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err = w.Write(responseData); err != nil {
			logging.FromContext(ctx).Error("Failed to write response", "error", err)
			reporting.Report(ctx, fmt.Errorf("failed to write counter response: %w", err))
			return
		}
	}

	return middleware(handler)
}
