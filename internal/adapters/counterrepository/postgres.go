package counterrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/milepost/milepost/internal/domain"
	"github.com/milepost/milepost/internal/reporting"
	"github.com/milepost/milepost/internal/strutils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Postgres struct {
	db      *sqlx.DB
	schema  string
	tracer  trace.Tracer
	nowFunc func() time.Time
}

func NewPostgres(db *sqlx.DB, schema string, nowFunc func() time.Time) *Postgres {
	tracer := otel.Tracer("milepost/counterrepository/postgres")
	return &Postgres{
		db:      db,
		schema:  schema,
		tracer:  tracer,
		nowFunc: nowFunc,
	}
}

type dbCounter struct {
	PlayerUUID string    `db:"player_uuid"`
	Count      int64     `db:"count"`
	FirstTapAt time.Time `db:"first_tap_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (c dbCounter) toDomain() domain.Counter {
	return domain.Counter{
		PlayerUUID: c.PlayerUUID,
		Count:      c.Count,
		FirstTapAt: c.FirstTapAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func (p *Postgres) Increment(ctx context.Context, playerUUID string) (domain.Counter, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.Increment")
	defer span.End()

	if !strutils.UUIDIsNormalized(playerUUID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return domain.Counter{}, err
	}

	now := p.nowFunc()

	var counter dbCounter
	err := p.db.QueryRowxContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.counters
		(player_uuid, count, first_tap_at, updated_at)
		VALUES ($1, 1, $2, $2)
		ON CONFLICT (player_uuid)
		DO UPDATE SET
			count = counters.count + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING player_uuid, count, first_tap_at, updated_at`,
			pq.QuoteIdentifier(p.schema)),
		playerUUID,
		now,
	).StructScan(&counter)
	if err != nil {
		err := fmt.Errorf("failed to insert or update counter: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return domain.Counter{}, err
	}

	return counter.toDomain(), nil
}

func (p *Postgres) Get(ctx context.Context, playerUUID string) (domain.Counter, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.Get")
	defer span.End()

	if !strutils.UUIDIsNormalized(playerUUID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return domain.Counter{}, err
	}

	var counter dbCounter
	err := p.db.QueryRowxContext(
		ctx,
		fmt.Sprintf(
			"SELECT player_uuid, count, first_tap_at, updated_at FROM %s.counters WHERE player_uuid = $1",
			pq.QuoteIdentifier(p.schema),
		),
		playerUUID,
	).StructScan(&counter)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Counter{}, fmt.Errorf("%w: %s", domain.ErrCounterNotFound, playerUUID)
	}
	if err != nil {
		err := fmt.Errorf("failed to get counter: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return domain.Counter{}, err
	}

	return counter.toDomain(), nil
}

func (p *Postgres) Reset(ctx context.Context, playerUUID string) (domain.Counter, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.Reset")
	defer span.End()

	if !strutils.UUIDIsNormalized(playerUUID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return domain.Counter{}, err
	}

	now := p.nowFunc()

	var counter dbCounter
	err := p.db.QueryRowxContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.counters
		(player_uuid, count, first_tap_at, updated_at)
		VALUES ($1, 0, $2, $2)
		ON CONFLICT (player_uuid)
		DO UPDATE SET
			count = 0,
			updated_at = EXCLUDED.updated_at
		RETURNING player_uuid, count, first_tap_at, updated_at`,
			pq.QuoteIdentifier(p.schema)),
		playerUUID,
		now,
	).StructScan(&counter)
	if err != nil {
		err := fmt.Errorf("failed to reset counter: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"uuid": playerUUID,
		})
		return domain.Counter{}, err
	}

	return counter.toDomain(), nil
}
