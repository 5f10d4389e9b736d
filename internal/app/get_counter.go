package app

import (
	"context"
	"fmt"

	"github.com/milepost/milepost/internal/domain"
	"github.com/milepost/milepost/internal/reporting"
	"github.com/milepost/milepost/internal/strutils"
)

type counterReader interface {
	Get(ctx context.Context, playerUUID string) (domain.Counter, error)
}

type dispatchedReader interface {
	Dispatched(playerUUID string) []string
}

type GetCounter func(ctx context.Context, playerUUID string) (domain.Counter, []string, error)

func BuildGetCounter(repo counterReader, sessions dispatchedReader) GetCounter {
	return func(ctx context.Context, playerUUID string) (domain.Counter, []string, error) {
		if !strutils.UUIDIsNormalized(playerUUID) {
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err, map[string]string{
				"uuid": playerUUID,
			})
			return domain.Counter{}, nil, err
		}

		counter, err := repo.Get(ctx, playerUUID)
		if err != nil {
			// NOTE: CounterRepository implementations handle their own error reporting
			return domain.Counter{}, nil, fmt.Errorf("failed to get counter: %w", err)
		}

		return counter, sessions.Dispatched(playerUUID), nil
	}
}
