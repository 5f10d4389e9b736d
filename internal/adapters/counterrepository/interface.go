package counterrepository

import (
	"context"

	"github.com/milepost/milepost/internal/domain"
)

type CounterRepository interface {
	Increment(ctx context.Context, playerUUID string) (domain.Counter, error)
	Get(ctx context.Context, playerUUID string) (domain.Counter, error)
	Reset(ctx context.Context, playerUUID string) (domain.Counter, error)
}
