//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sintudecorators/contact-backend/db"
	"github.com/sintudecorators/contact-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupIntegrationStore(t *testing.T) *SubmissionStore {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("contacts"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewSubmissionStore(pool)
}

func TestSubmissionStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	store := setupIntegrationStore(t)
	ctx := context.Background()

	dataType, err := store.GuestCountColumnType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "text", dataType)
	require.NoError(t, store.KeepAlive(ctx))

	eventDate := time.Date(2026, 12, 12, 0, 0, 0, 0, time.UTC)
	first := &types.Submission{
		FullName:   "Priya Sharma",
		Email:      "priya@example.com",
		EventType:  types.EventTypeWedding,
		EventDate:  &eventDate,
		GuestCount: strPtr("150-200"),
	}
	second := &types.Submission{
		FullName:  "Rahul Verma",
		Email:     "rahul@example.com",
		EventType: types.EventTypeCorporate,
		Message:   strPtr("Annual offsite"),
	}
	require.NoError(t, store.Insert(ctx, first))
	require.NoError(t, store.Insert(ctx, second))
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	subs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, second.ID, subs[0].ID)
	require.NotNil(t, subs[1].GuestCount)
	assert.Equal(t, "150-200", *subs[1].GuestCount)
	require.NotNil(t, subs[1].EventDate)
	assert.True(t, eventDate.Equal(*subs[1].EventDate))

	deleted, err := store.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
