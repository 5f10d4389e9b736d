package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/milepost/milepost/internal/constants"
	"github.com/milepost/milepost/internal/domain"
	"github.com/milepost/milepost/internal/logging"
	"github.com/milepost/milepost/internal/ratelimiting"
	"github.com/milepost/milepost/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const notifyMinOperationTime = 150 * time.Millisecond

type RequestLimiter interface {
	Limit(ctx context.Context, minOperationTime time.Duration, operation func(ctx context.Context)) bool
}

type gameServicesMetricsCollection struct {
	requestCount metric.Int64Counter
	errorCount   metric.Int64Counter
}

func setupGameServicesMetrics(meter metric.Meter) (gameServicesMetricsCollection, error) {
	requestCount, err := meter.Int64Counter("notifier/gameservices/request_count")
	if err != nil {
		return gameServicesMetricsCollection{}, fmt.Errorf("failed to create request count metric: %w", err)
	}

	errorCount, err := meter.Int64Counter("notifier/gameservices/error_count")
	if err != nil {
		return gameServicesMetricsCollection{}, fmt.Errorf("failed to create error count metric: %w", err)
	}

	return gameServicesMetricsCollection{
		requestCount: requestCount,
		errorCount:   errorCount,
	}, nil
}

type gameServicesAPI struct {
	httpClient HttpClient
	limiter    RequestLimiter
	baseURL    string
	apiKey     string

	metrics gameServicesMetricsCollection
	tracer  trace.Tracer
}

func NewGameServicesAPI(
	httpClient HttpClient,
	baseURL string,
	apiKey string,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) (*gameServicesAPI, error) {
	const name = "milepost/notifier/gameservices"

	meter := otel.Meter(name)
	tracer := otel.Tracer(name)

	metrics, err := setupGameServicesMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	// Documented limit for the achievements API
	limiter := ratelimiting.NewWindowLimitRequestLimiter(600, 5*time.Minute, nowFunc, afterFunc)

	return &gameServicesAPI{
		httpClient: httpClient,
		limiter:    limiter,
		baseURL:    baseURL,
		apiKey:     apiKey,

		metrics: metrics,
		tracer:  tracer,
	}, nil
}

type achievementRequest struct {
	PlayerUUID    string `json:"player_uuid"`
	AchievementID string `json:"achievement_id"`
}

type scoreRequest struct {
	PlayerUUID string `json:"player_uuid"`
	Score      int64  `json:"score"`
}

func (g *gameServicesAPI) NotifyAchievement(ctx context.Context, playerUUID string, achievementID string) error {
	ctx, span := g.tracer.Start(ctx, "GameServices.NotifyAchievement")
	defer span.End()

	body, err := json.Marshal(achievementRequest{
		PlayerUUID:    playerUUID,
		AchievementID: achievementID,
	})
	if err != nil {
		err := fmt.Errorf("failed to marshal achievement request: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"achievementId": achievementID,
		})
		return err
	}

	return g.post(ctx, "NotifyAchievement", fmt.Sprintf("%s/v1/achievements", g.baseURL), body, map[string]string{
		"achievementId": achievementID,
	})
}

func (g *gameServicesAPI) SubmitScore(ctx context.Context, playerUUID string, score int64) error {
	ctx, span := g.tracer.Start(ctx, "GameServices.SubmitScore")
	defer span.End()

	body, err := json.Marshal(scoreRequest{
		PlayerUUID: playerUUID,
		Score:      score,
	})
	if err != nil {
		err := fmt.Errorf("failed to marshal score request: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"score": strconv.FormatInt(score, 10),
		})
		return err
	}

	return g.post(ctx, "SubmitScore", fmt.Sprintf("%s/v1/scores", g.baseURL), body, map[string]string{
		"score": strconv.FormatInt(score, 10),
	})
}

func (g *gameServicesAPI) post(ctx context.Context, operation string, url string, body []byte, extras map[string]string) error {
	attributesOption := metric.WithAttributes(attribute.String("operation", operation))
	g.metrics.requestCount.Add(ctx, 1, attributesOption)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err, extras)
		g.metrics.errorCount.Add(ctx, 1, attributesOption)
		return err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Key", g.apiKey)

	var resp *http.Response
	start := time.Now()
	ran := g.limiter.Limit(ctx, notifyMinOperationTime, func(ctx context.Context) {
		ctx, span := g.tracer.Start(ctx, "GameServices.httppost")
		defer span.End()

		resp, err = g.httpClient.Do(req)
		if err != nil {
			err = fmt.Errorf("failed to send request: %w", err)
			reporting.Report(ctx, err, extras)
			return
		}

		defer resp.Body.Close()
		// Drain the body so the connection can be reused
		_, copyErr := io.Copy(io.Discard, resp.Body)
		if copyErr != nil {
			logging.FromContext(ctx).WarnContext(ctx, "Failed to drain response body", "error", copyErr.Error())
		}
	})
	if !ran {
		g.metrics.errorCount.Add(ctx, 1, attributesOption)
		err := fmt.Errorf("%w: too many requests to game services API", domain.ErrTemporarilyUnavailable)
		reporting.Report(ctx, err, extras)
		return err
	}

	if err != nil {
		g.metrics.errorCount.Add(ctx, 1, attributesOption)
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.metrics.errorCount.Add(ctx, 1, attributesOption)
		err := fmt.Errorf("game services API returned status %d", resp.StatusCode)
		reporting.Report(ctx, err, extras)
		return err
	}

	logging.FromContext(ctx).InfoContext(
		ctx,
		"game services request completed",
		"operation", operation,
		"status", resp.StatusCode,
		"duration", time.Since(start).String(),
	)

	return nil
}
