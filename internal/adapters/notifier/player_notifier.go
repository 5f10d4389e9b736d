package notifier

import (
	"context"

	"github.com/milepost/milepost/internal/evaluator"
	"github.com/milepost/milepost/internal/logging"
)

type playerNotifier struct {
	api        GameServicesAPI
	playerUUID string
}

// NewPlayerNotifier binds a player to the game services API, adapting it
// to the evaluator's fire-and-forget Notifier. Delivery failures are
// logged, never retried: the achievement stays dispatched either way.
func NewPlayerNotifier(api GameServicesAPI, playerUUID string) evaluator.Notifier {
	return &playerNotifier{
		api:        api,
		playerUUID: playerUUID,
	}
}

func (n *playerNotifier) NotifyAchievement(ctx context.Context, achievementID string) {
	err := n.api.NotifyAchievement(ctx, n.playerUUID, achievementID)
	if err != nil {
		// NOTE: GameServicesAPI implementations handle their own error reporting
		logging.FromContext(ctx).ErrorContext(
			ctx,
			"failed to notify achievement",
			"achievementId", achievementID,
			"error", err.Error(),
		)
	}
}
