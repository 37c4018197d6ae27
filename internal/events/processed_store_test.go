package events

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeen(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewProcessedStoreWithDB(mock)

	mock.ExpectQuery(`SELECT 1 FROM processed_events`).
		WithArgs("billing", "evt_1").
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))

	seen, err := store.Seen(context.Background(), "billing", "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	mock.ExpectQuery(`SELECT 1 FROM processed_events`).
		WithArgs("billing", "evt_2").
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}))

	seen, err = store.Seen(context.Background(), "billing", "evt_2")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMark(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewProcessedStoreWithDB(mock)

	mock.ExpectExec(`INSERT INTO processed_events`).
		WithArgs("billing", "evt_1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	fresh, err := store.Mark(context.Background(), "billing", "evt_1")
	require.NoError(t, err)
	assert.True(t, fresh)

	// redelivery hits the conflict path
	mock.ExpectExec(`INSERT INTO processed_events`).
		WithArgs("billing", "evt_1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	fresh, err = store.Mark(context.Background(), "billing", "evt_1")
	require.NoError(t, err)
	assert.False(t, fresh)

	require.NoError(t, mock.ExpectationsWereMet())
}
