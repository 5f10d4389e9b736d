package app

import (
	"context"
	"fmt"

	"github.com/milepost/milepost/internal/domain"
	"github.com/milepost/milepost/internal/reporting"
	"github.com/milepost/milepost/internal/strutils"
)

type counterResetter interface {
	Reset(ctx context.Context, playerUUID string) (domain.Counter, error)
}

type sessionResetter interface {
	Reset(playerUUID string)
}

type ResetCounter func(ctx context.Context, playerUUID string) (domain.Counter, error)

// BuildResetCounter starts a new game for the player: the persisted count
// goes back to zero and the session forgets which achievements it has
// dispatched, so they can all unlock again.
func BuildResetCounter(repo counterResetter, sessions sessionResetter) ResetCounter {
	return func(ctx context.Context, playerUUID string) (domain.Counter, error) {
		if !strutils.UUIDIsNormalized(playerUUID) {
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err, map[string]string{
				"uuid": playerUUID,
			})
			return domain.Counter{}, err
		}

		counter, err := repo.Reset(ctx, playerUUID)
		if err != nil {
			// NOTE: CounterRepository implementations handle their own error reporting
			return domain.Counter{}, fmt.Errorf("failed to reset counter: %w", err)
		}

		sessions.Reset(playerUUID)

		return counter, nil
	}
}
