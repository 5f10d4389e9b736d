package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/milepost/milepost/internal/config"
	"github.com/milepost/milepost/internal/logging"
)

type mockedGameServicesAPI struct{}

func (api *mockedGameServicesAPI) NotifyAchievement(ctx context.Context, playerUUID string, achievementID string) error {
	logging.FromContext(ctx).InfoContext(ctx, "Mocked achievement notification", "uuid", playerUUID, "achievementId", achievementID)
	return nil
}

func (api *mockedGameServicesAPI) SubmitScore(ctx context.Context, playerUUID string, score int64) error {
	logging.FromContext(ctx).InfoContext(ctx, "Mocked score submission", "uuid", playerUUID, "score", score)
	return nil
}

func NewGameServicesAPIOrMock(config config.Config, httpClient HttpClient) (GameServicesAPI, error) {
	if config.GameServicesURL() != "" {
		return NewGameServicesAPI(
			httpClient,
			config.GameServicesURL(),
			config.GameServicesAPIKey(),
			time.Now,
			time.After,
		)
	}
	if config.IsDevelopment() {
		return &mockedGameServicesAPI{}, nil
	}
	return nil, fmt.Errorf("Missing game services URL in non-development environment")
}
