package app

import (
	"context"
	"fmt"
	"time"

	"github.com/milepost/milepost/internal/domain"
	"github.com/milepost/milepost/internal/evaluator"
	"github.com/milepost/milepost/internal/logging"
	"github.com/milepost/milepost/internal/reporting"
	"github.com/milepost/milepost/internal/strutils"
)

type tapCounterRepository interface {
	Increment(ctx context.Context, playerUUID string) (domain.Counter, error)
}

type sessionStore interface {
	WithSession(playerUUID string, fn func(eval *evaluator.Evaluator))
}

type scoreSubmitter interface {
	SubmitScore(ctx context.Context, playerUUID string, score int64) error
}

type RegisterTap func(ctx context.Context, playerUUID string) (domain.Counter, []string, error)

func BuildRegisterTap(
	repo tapCounterRepository,
	sessions sessionStore,
	submitter scoreSubmitter,
) RegisterTap {
	return func(ctx context.Context, playerUUID string) (domain.Counter, []string, error) {
		if !strutils.UUIDIsNormalized(playerUUID) {
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err, map[string]string{
				"uuid": playerUUID,
			})
			return domain.Counter{}, nil, err
		}

		counter, err := repo.Increment(ctx, playerUUID)
		if err != nil {
			// NOTE: CounterRepository implementations handle their own error reporting
			return domain.Counter{}, nil, fmt.Errorf("failed to increment counter: %w", err)
		}

		var unlocked []string
		sessions.WithSession(playerUUID, func(eval *evaluator.Evaluator) {
			unlocked = eval.Evaluate(ctx, counter.Count)
		})

		go func() {
			// NOTE: Since we're doing this in a goroutine, we want a context that won't get cancelled when the request ends
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 1*time.Second)
			defer cancel()

			err := submitter.SubmitScore(ctx, playerUUID, counter.Count)
			if err != nil {
				// NOTE: GameServicesAPI implementations handle their own error reporting
				logging.FromContext(ctx).ErrorContext(ctx, "failed to submit score", "error", err.Error())
			}
		}()

		return counter, unlocked, nil
	}
}
