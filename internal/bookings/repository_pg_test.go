package bookings

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appmigrations "github.com/ilgner17/reservo-scheduler/migrations"
)

// Admission boundaries live in the SQL predicate and the
// bookings_no_overlap exclusion constraint, so they are checked against
// a real database. Opt in with TEST_DATABASE_URL.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer db.Close()

	src, err := iofs.New(appmigrations.FS, ".")
	require.NoError(t, err)
	drv, err := migratepg.WithInstance(db, &migratepg.Config{})
	require.NoError(t, err)
	m, err := migrate.NewWithInstance("iofs", src, "postgres", drv)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("migrate up: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func seedProfessional(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	profID := uuid.New()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO profiles (id, user_id, email, name, slug)
		VALUES ($1, $2, $3, 'Dr. Teste', $4)
	`, uuid.New(), profID, profID.String()+"@example.com", "dr-"+profID.String())
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM bookings WHERE professional_id = $1`, profID)
		_, _ = pool.Exec(context.Background(), `DELETE FROM profiles WHERE user_id = $1`, profID)
	})
	return profID
}

func window(profID uuid.UUID, start, end time.Time) *Booking {
	return &Booking{
		ID:             uuid.New(),
		ProfessionalID: profID,
		ClientName:     "Maria Souza",
		StartAt:        start,
		EndAt:          end,
		Status:         StatusConfirmed,
	}
}

func TestAdmissionHalfOpenBoundariesPostgres(t *testing.T) {
	pool := newTestPool(t)
	repo := NewRepository(pool)
	profID := seedProfessional(t, pool)
	ctx := context.Background()

	at := func(h, m int) time.Time {
		return time.Date(2026, 9, 3, h, m, 0, 0, time.UTC)
	}

	// Occupy 09:00-10:00.
	require.NoError(t, repo.Create(ctx, window(profID, at(9, 0), at(10, 0)), nil, nil))

	// Mid-window overlap is rejected.
	err := repo.Create(ctx, window(profID, at(9, 30), at(10, 30)), nil, nil)
	assert.ErrorIs(t, err, ErrSlotConflict)

	// Identical window is rejected.
	err = repo.Create(ctx, window(profID, at(9, 0), at(10, 0)), nil, nil)
	assert.ErrorIs(t, err, ErrSlotConflict)

	// Shared boundaries are admitted: end == existing start and
	// start == existing end do not conflict under [start, end).
	require.NoError(t, repo.Create(ctx, window(profID, at(8, 0), at(9, 0)), nil, nil))
	require.NoError(t, repo.Create(ctx, window(profID, at(10, 0), at(11, 0)), nil, nil))

	// SlotFree agrees with admission.
	free, err := repo.SlotFree(ctx, profID, at(9, 15), at(9, 45))
	require.NoError(t, err)
	assert.False(t, free)

	free, err = repo.SlotFree(ctx, profID, at(11, 0), at(12, 0))
	require.NoError(t, err)
	assert.True(t, free)
}

func TestExclusionConstraintGuardsRawInsertsPostgres(t *testing.T) {
	pool := newTestPool(t)
	repo := NewRepository(pool)
	profID := seedProfessional(t, pool)
	ctx := context.Background()

	start := time.Date(2026, 9, 4, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, window(profID, start, start.Add(time.Hour)), nil, nil))

	// Insert bypassing the application-level check: the constraint is
	// the authoritative guard.
	_, err := pool.Exec(ctx, `
		INSERT INTO bookings (id, professional_id, client_name, start_at, end_at, status)
		VALUES ($1, $2, 'Maria Souza', $3, $4, 'confirmed')
	`, uuid.New(), profID, start.Add(30*time.Minute), start.Add(90*time.Minute))

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23P01", pgErr.Code)
	assert.Equal(t, "bookings_no_overlap", pgErr.ConstraintName)

	// Cancelled rows are excluded from the guard, so the same window
	// can be rebooked after a cancellation.
	_, err = pool.Exec(ctx, `UPDATE bookings SET status = 'cancelled' WHERE professional_id = $1`, profID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, window(profID, start, start.Add(time.Hour)), nil, nil))
}
