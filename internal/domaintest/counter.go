package domaintest

import (
	"testing"
	"time"

	"github.com/milepost/milepost/internal/domain"
	"github.com/stretchr/testify/require"
)

type counterBuilder struct {
	counter *domain.Counter
}

func (cb *counterBuilder) WithCount(count int64) *counterBuilder {
	cb.counter.Count = count
	return cb
}

func (cb *counterBuilder) WithUpdatedAt(updatedAt time.Time) *counterBuilder {
	cb.counter.UpdatedAt = updatedAt
	return cb
}

func (cb *counterBuilder) Build() domain.Counter {
	return *cb.counter
}

func NewCounterBuilder(playerUUID string, firstTapAt time.Time) *counterBuilder {
	counter := &domain.Counter{
		PlayerUUID: playerUUID,
		Count:      0,
		FirstTapAt: firstTapAt,
		UpdatedAt:  firstTapAt,
	}
	return &counterBuilder{
		counter: counter,
	}
}

func NewThresholds(t *testing.T, thresholds ...domain.Threshold) domain.Thresholds {
	table, err := domain.NewThresholds(thresholds...)
	require.NoError(t, err)
	return table
}
