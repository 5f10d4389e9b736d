package ports

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/milepost/milepost/internal/app"
	"github.com/milepost/milepost/internal/domain"
	"github.com/milepost/milepost/internal/logging"
	"github.com/milepost/milepost/internal/ratelimiting"
	"github.com/milepost/milepost/internal/reporting"
	"github.com/milepost/milepost/internal/strutils"
)

type tapResponse struct {
	UUID     string   `json:"uuid"`
	Count    int64    `json:"count"`
	Unlocked []string `json:"unlocked"`
}

func makeOnLimitExceeded(rateLimiter ratelimiting.RequestRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		statusCode := http.StatusTooManyRequests

		logging.FromContext(ctx).Info("Rate limit exceeded", "statusCode", statusCode, "reason", "ratelimit exceeded", "key", rateLimiter.KeyFor(r))

		http.Error(w, "Rate limit exceeded", statusCode)
	}
}

func MakeRegisterTapHandler(
	registerTap app.RegisterTap,
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
	playerLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(4),
		ratelimiting.BurstSize(240),
	)
	playerRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		// NOTE: Rate limiting based on user controlled value
		playerLimiter,
		ratelimiting.PlayerKeyFunc,
	)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("tap"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("tap"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
		NewRateLimitMiddleware(playerRateLimiter, makeOnLimitExceeded(playerRateLimiter)),
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

		counter, unlocked, err := registerTap(ctx, uuid)
		if errors.Is(err, domain.ErrTemporarilyUnavailable) {
			logging.FromContext(ctx).Error("Tap registration temporarily unavailable", "error", err)
			http.Error(w, "Temporarily unavailable", http.StatusServiceUnavailable)
			return
		} else if err != nil {
			logging.FromContext(ctx).Error("Error registering tap", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if unlocked == nil {
			unlocked = []string{}
		}

		responseData, err := json.Marshal(tapResponse{
			UUID:     uuid,
			Count:    counter.Count,
			Unlocked: unlocked,
		})
		if err != nil {
			logging.FromContext(ctx).Error("Failed to marshal tap response", "error", err)
			reporting.Report(ctx, fmt.Errorf("failed to marshal tap response: %w", err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err = w.Write(responseData); err != nil {
			logging.FromContext(ctx).Error("Failed to write response", "error", err)
			reporting.Report(ctx, fmt.Errorf("failed to write tap response: %w", err))
			return
		}
	}

	return middleware(handler)
}
