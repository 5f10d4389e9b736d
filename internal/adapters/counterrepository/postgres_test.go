package counterrepository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/milepost/milepost/internal/adapters/database"
	"github.com/milepost/milepost/internal/domain"
	"github.com/milepost/milepost/internal/domaintest"
)

func newPostgres(t *testing.T, db *sqlx.DB, schemaSuffix string, nowFunc func() time.Time) (*Postgres, string) {
	require.NotEmpty(t, schemaSuffix, "schemaSuffix must not be empty")
	schema := fmt.Sprintf("counters_repo_test_%s", schemaSuffix)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db.MustExec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pq.QuoteIdentifier(schema)))

	migrator := database.NewDatabaseMigrator(db, logger)

	err := migrator.Migrate(t.Context(), schema)
	require.NoError(t, err)

	return NewPostgres(db, schema, nowFunc), schema
}

func TestPostgresCounterRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping db tests in short mode.")
	}
	t.Parallel()

	getStoredCounter := func(t *testing.T, db *sqlx.DB, schema string, playerUUID string) *dbCounter {
		t.Helper()

		ctx := t.Context()

		var counter dbCounter
		err := db.QueryRowxContext(
			ctx,
			fmt.Sprintf(
				"SELECT player_uuid, count, first_tap_at, updated_at FROM %s.counters WHERE player_uuid = $1",
				pq.QuoteIdentifier(schema),
			),
			playerUUID,
		).StructScan(&counter)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		require.NoError(t, err)

		return &counter
	}

	requireEqualCounters := func(t *testing.T, expected, actual domain.Counter) {
		t.Helper()
		require.Equal(t, expected.PlayerUUID, actual.PlayerUUID)
		require.Equal(t, expected.Count, actual.Count)

		// Time can get truncated when round-tripping to the database
		require.WithinDuration(t, expected.FirstTapAt, actual.FirstTapAt, time.Millisecond)
		require.WithinDuration(t, expected.UpdatedAt, actual.UpdatedAt, time.Millisecond)
	}

	t.Run("first tap creates the counter", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
		require.NoError(t, err)
		defer db.Close()

		currentTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		nowFunc := func() time.Time {
			return currentTime
		}

		p, schema := newPostgres(t, db, "first_tap", nowFunc)
		playerUUID := domaintest.NewUUID(t)

		counter, err := p.Increment(ctx, playerUUID)
		require.NoError(t, err)

		requireEqualCounters(t, domain.Counter{
			PlayerUUID: playerUUID,
			Count:      1,
			FirstTapAt: currentTime,
			UpdatedAt:  currentTime,
		}, counter)

		stored := getStoredCounter(t, db, schema, playerUUID)
		require.NotNil(t, stored)
		requireEqualCounters(t, counter, stored.toDomain())
	})

	t.Run("repeated taps increment and keep first tap time", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
		require.NoError(t, err)
		defer db.Close()

		firstTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		currentTime := firstTime
		nowFunc := func() time.Time {
			return currentTime
		}

		p, _ := newPostgres(t, db, "repeated_taps", nowFunc)
		playerUUID := domaintest.NewUUID(t)

		_, err = p.Increment(ctx, playerUUID)
		require.NoError(t, err)

		currentTime = firstTime.Add(time.Hour)

		counter, err := p.Increment(ctx, playerUUID)
		require.NoError(t, err)

		requireEqualCounters(t, domain.Counter{
			PlayerUUID: playerUUID,
			Count:      2,
			FirstTapAt: firstTime,
			UpdatedAt:  currentTime,
		}, counter)
	})

	t.Run("counters are isolated per player", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
		require.NoError(t, err)
		defer db.Close()

		p, _ := newPostgres(t, db, "isolated", time.Now)
		player1 := domaintest.NewUUID(t)
		player2 := domaintest.NewUUID(t)

		_, err = p.Increment(ctx, player1)
		require.NoError(t, err)
		_, err = p.Increment(ctx, player1)
		require.NoError(t, err)

		counter2, err := p.Increment(ctx, player2)
		require.NoError(t, err)
		require.Equal(t, int64(1), counter2.Count)

		counter1, err := p.Get(ctx, player1)
		require.NoError(t, err)
		require.Equal(t, int64(2), counter1.Count)
	})

	t.Run("get missing counter", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
		require.NoError(t, err)
		defer db.Close()

		p, _ := newPostgres(t, db, "get_missing", time.Now)

		_, err = p.Get(ctx, domaintest.NewUUID(t))
		require.ErrorIs(t, err, domain.ErrCounterNotFound)
	})

	t.Run("reset zeroes an existing counter", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
		require.NoError(t, err)
		defer db.Close()

		p, _ := newPostgres(t, db, "reset_existing", time.Now)
		playerUUID := domaintest.NewUUID(t)

		for i := 0; i < 5; i++ {
			_, err = p.Increment(ctx, playerUUID)
			require.NoError(t, err)
		}

		counter, err := p.Reset(ctx, playerUUID)
		require.NoError(t, err)
		require.Equal(t, int64(0), counter.Count)

		counter, err = p.Get(ctx, playerUUID)
		require.NoError(t, err)
		require.Equal(t, int64(0), counter.Count)
	})

	t.Run("reset creates a zeroed counter when missing", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
		require.NoError(t, err)
		defer db.Close()

		p, _ := newPostgres(t, db, "reset_missing", time.Now)
		playerUUID := domaintest.NewUUID(t)

		counter, err := p.Reset(ctx, playerUUID)
		require.NoError(t, err)
		require.Equal(t, int64(0), counter.Count)
	})

	t.Run("invalid uuid is rejected", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
		require.NoError(t, err)
		defer db.Close()

		p, _ := newPostgres(t, db, "invalid_uuid", time.Now)

		_, err = p.Increment(ctx, "not-a-uuid")
		require.Error(t, err)
		_, err = p.Get(ctx, "not-a-uuid")
		require.Error(t, err)
		_, err = p.Reset(ctx, "not-a-uuid")
		require.Error(t, err)
	})
}
