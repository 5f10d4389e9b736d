package notifier

import (
	"context"
	"net/http"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// GameServicesAPI reports achievements and scores to the external game
// services backend. Delivery is best-effort: callers must not retry.
type GameServicesAPI interface {
	NotifyAchievement(ctx context.Context, playerUUID string, achievementID string) error
	SubmitScore(ctx context.Context, playerUUID string, score int64) error
}
