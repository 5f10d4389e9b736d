package ports

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/milepost/milepost/internal/app"
	"github.com/milepost/milepost/internal/logging"
	"github.com/milepost/milepost/internal/ratelimiting"
	"github.com/milepost/milepost/internal/reporting"
	"github.com/milepost/milepost/internal/strutils"
)

type resetResponse struct {
	UUID  string `json:"uuid"`
	Count int64  `json:"count"`
}

func MakeResetCounterHandler(
	resetCounter app.ResetCounter,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(2),
		ratelimiting.BurstSize(120),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("reset"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("reset"),
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

		counter, err := resetCounter(ctx, uuid)
		if err != nil {
			logging.FromContext(ctx).Error("Error resetting counter", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		responseData, err := json.Marshal(resetResponse{
			UUID:  uuid,
			Count: counter.Count,
		})
		if err != nil {
			logging.FromContext(ctx).Error("Failed to marshal reset response", "error", err)
			reporting.Report(ctx, fmt.Errorf("failed to marshal reset response: %w", err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err = w.Write(responseData); err != nil {
			logging.FromContext(ctx).Error("Failed to write response", "error", err)
			reporting.Report(ctx, fmt.Errorf("failed to write reset response: %w", err))
			return
		}
	}

	return middleware(handler)
}
