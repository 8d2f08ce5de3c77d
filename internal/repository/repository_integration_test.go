package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"lms-backend/internal/database"
	"lms-backend/internal/models"
)

func startPostgres(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skip integration in -short mode")
	}

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "lms",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
			return fmt.Sprintf("postgres://postgres:postgres@%s:%s/lms?sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("skip integration: cannot start postgres container: %v", err)
	}
	t.Cleanup(func() {
		termCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(termCtx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := database.NewPostgresPool(fmt.Sprintf("postgres://postgres:postgres@%s:%s/lms?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.RunMigrations(pool))
	return pool
}

func day(s string) time.Time {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRepositories_Postgres(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(ctx, t)

	stats := NewLearningStatRepo(pool)
	sessions := NewUserSessionRepo(pool)
	users := NewUserRepo(pool)

	t.Run("concurrent AddSeconds never loses an increment", func(t *testing.T) {
		userID := uuid.New()
		date := day("2025-07-01")

		var wg sync.WaitGroup
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, stats.AddSeconds(ctx, userID, date, 30))
			}()
		}
		wg.Wait()

		got, err := stats.Get(ctx, userID, date)
		require.NoError(t, err)
		assert.Equal(t, 1200, got.TotalSeconds)
		assert.Equal(t, 40, got.SessionCount)
	})

	t.Run("daily total grows past the 32-bit range", func(t *testing.T) {
		userID := uuid.New()
		date := day("2025-07-03")
		require.NoError(t, stats.AddSeconds(ctx, userID, date, math.MaxInt32))
		require.NoError(t, stats.AddSeconds(ctx, userID, date, 10))

		got, err := stats.Get(ctx, userID, date)
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt32+10, got.TotalSeconds)
	})

	t.Run("ListRange is inclusive and scoped to the user", func(t *testing.T) {
		userID := uuid.New()
		other := uuid.New()
		for _, d := range []string{"2025-06-22", "2025-06-23", "2025-07-01", "2025-07-06", "2025-07-07"} {
			require.NoError(t, stats.AddSeconds(ctx, userID, day(d), 60))
		}
		require.NoError(t, stats.AddSeconds(ctx, other, day("2025-07-01"), 999))

		rows, err := stats.ListRange(ctx, userID, day("2025-06-23"), day("2025-07-06"))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "2025-06-23", rows[0].Date.Format(dateLayout))
		assert.Equal(t, "2025-07-06", rows[2].Date.Format(dateLayout))
		for _, row := range rows {
			assert.Equal(t, userID, row.UserID)
		}
	})

	t.Run("DeleteBefore keeps the cutoff day", func(t *testing.T) {
		userID := uuid.New()
		require.NoError(t, stats.AddSeconds(ctx, userID, day("2025-06-30"), 60))
		require.NoError(t, stats.AddSeconds(ctx, userID, day("2025-07-01"), 60))

		_, err := stats.DeleteBefore(ctx, day("2025-07-01"))
		require.NoError(t, err)

		_, err = stats.Get(ctx, userID, day("2025-06-30"))
		assert.True(t, errors.Is(err, pgx.ErrNoRows))
		kept, err := stats.Get(ctx, userID, day("2025-07-01"))
		require.NoError(t, err)
		assert.Equal(t, 60, kept.TotalSeconds)
	})

	t.Run("sessions start and end once", func(t *testing.T) {
		user := &models.User{
			ID:           uuid.New(),
			Email:        uuid.NewString() + "@example.com",
			PasswordHash: "x",
			FullName:     "Student",
			Role:         models.RoleStudent,
			IsActive:     true,
		}
		require.NoError(t, users.Create(ctx, user))

		s := &models.UserSession{UserID: user.ID}
		require.NoError(t, sessions.Start(ctx, s))
		require.NotEqual(t, uuid.Nil, s.ID)

		ended, err := sessions.End(ctx, s.ID, user.ID)
		require.NoError(t, err)
		require.NotNil(t, ended.EndedAt)

		again, err := sessions.End(ctx, s.ID, user.ID)
		require.NoError(t, err)
		assert.True(t, ended.EndedAt.Equal(*again.EndedAt))

		_, err = sessions.End(ctx, s.ID, uuid.New())
		assert.True(t, errors.Is(err, pgx.ErrNoRows))
	})
}
