package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"gamepass/internal/escrow"
	"gamepass/internal/model"
	"gamepass/internal/pkg/db"
)

// checkDockerAvailable checks if Docker is available and running.
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	return cmd.Run() == nil
}

// setupTestDB creates a PostgreSQL container and returns a migrated
// connection pool. Skips the test if Docker is not available.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return pool, cleanup
}

func TestAccountRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewAccountRepository(pool)

	t.Run("create and get", func(t *testing.T) {
		created, err := repo.Create(ctx, pool, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(100), created.ID)
		assert.Equal(t, int64(0), created.Balance)

		got, err := repo.GetByID(ctx, pool, 100)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("get missing account", func(t *testing.T) {
		_, err := repo.GetByID(ctx, pool, 404)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("get or create is idempotent", func(t *testing.T) {
		first, err := repo.GetOrCreate(ctx, pool, 101)
		require.NoError(t, err)

		_, err = repo.Credit(ctx, pool, 101, 50)
		require.NoError(t, err)

		again, err := repo.GetOrCreate(ctx, pool, 101)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, int64(50), again.Balance)
	})

	t.Run("credit and debit", func(t *testing.T) {
		_, err := repo.Create(ctx, pool, 102)
		require.NoError(t, err)

		a, err := repo.Credit(ctx, pool, 102, 200)
		require.NoError(t, err)
		assert.Equal(t, int64(200), a.Balance)

		a, err = repo.Debit(ctx, pool, 102, 150)
		require.NoError(t, err)
		assert.Equal(t, int64(50), a.Balance)
	})

	t.Run("debit beyond balance", func(t *testing.T) {
		_, err := repo.Create(ctx, pool, 103)
		require.NoError(t, err)
		_, err = repo.Credit(ctx, pool, 103, 10)
		require.NoError(t, err)

		_, err = repo.Debit(ctx, pool, 103, 11)
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		a, err := repo.GetByID(ctx, pool, 103)
		require.NoError(t, err)
		assert.Equal(t, int64(10), a.Balance)
	})

	t.Run("debit missing account", func(t *testing.T) {
		_, err := repo.Debit(ctx, pool, 404, 1)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := repo.Exists(ctx, pool, 100)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, pool, 404)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRegistryRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewRegistryRepository(pool)

	t.Run("get before bootstrap", func(t *testing.T) {
		_, err := repo.Get(ctx, pool)
		assert.ErrorIs(t, err, ErrRegistryNotFound)
	})

	t.Run("bootstrap", func(t *testing.T) {
		reg, err := repo.Bootstrap(ctx, 7, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(7), reg.Owner)
		assert.Equal(t, int64(10), reg.PlatformFeePercentage)
		assert.Equal(t, int64(0), reg.GameIDCounter)
	})

	t.Run("counter advances by one per allocation", func(t *testing.T) {
		for want := int64(0); want < 3; want++ {
			id, err := repo.NextGameID(ctx, pool)
			require.NoError(t, err)
			assert.Equal(t, want, id)
		}

		reg, err := repo.Get(ctx, pool)
		require.NoError(t, err)
		assert.Equal(t, int64(3), reg.GameIDCounter)
	})
}

func TestGameRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewGameRepository(pool)

	accounts := NewAccountRepository(pool)
	for _, id := range []int64{100, 200, 300} {
		_, err := accounts.Create(ctx, pool, id)
		require.NoError(t, err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	g := &model.Game{
		ID:         1,
		Creator:    7,
		MinPlayers: 2,
		MaxPlayers: 5,
		EntryFee:   10,
		Status:     model.StatusSale,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	t.Run("insert and get", func(t *testing.T) {
		require.NoError(t, repo.Insert(ctx, pool, g))

		got, err := repo.GetByID(ctx, pool, 1)
		require.NoError(t, err)
		assert.Equal(t, g.Creator, got.Creator)
		assert.Equal(t, g.MinPlayers, got.MinPlayers)
		assert.Equal(t, g.MaxPlayers, got.MaxPlayers)
		assert.Equal(t, g.EntryFee, got.EntryFee)
		assert.Equal(t, model.StatusSale, got.Status)
		assert.True(t, got.ResultHash.IsZero())
		assert.Empty(t, got.Players)
	})

	t.Run("get missing game", func(t *testing.T) {
		_, err := repo.GetByID(ctx, pool, 999)
		assert.ErrorIs(t, err, escrow.ErrGameNotFound)
	})

	t.Run("players load in join order", func(t *testing.T) {
		require.NoError(t, repo.AddPlayer(ctx, pool, 1, 300, 0))
		require.NoError(t, repo.AddPlayer(ctx, pool, 1, 200, 1))
		require.NoError(t, repo.AddPlayer(ctx, pool, 1, 100, 2))

		got, err := repo.GetByID(ctx, pool, 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{300, 200, 100}, got.Players)
	})

	t.Run("update persists mutable fields", func(t *testing.T) {
		got, err := repo.GetByID(ctx, pool, 1)
		require.NoError(t, err)

		got.Pool = 30
		got.PlayerCount = 3
		got.Status = model.StatusFinished
		got.Winner = 200
		got.ResultHash = model.ResultHash{0xFF}
		got.CollectedFee = 3
		require.NoError(t, repo.Update(ctx, pool, got))

		reread, err := repo.GetByID(ctx, pool, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(30), reread.Pool)
		assert.Equal(t, uint32(3), reread.PlayerCount)
		assert.Equal(t, model.StatusFinished, reread.Status)
		assert.Equal(t, int64(200), reread.Winner)
		assert.Equal(t, model.ResultHash{0xFF}, reread.ResultHash)
		assert.Equal(t, int64(3), reread.CollectedFee)
	})

	t.Run("update missing game", func(t *testing.T) {
		err := repo.Update(ctx, pool, &model.Game{ID: 999})
		assert.ErrorIs(t, err, escrow.ErrGameNotFound)
	})

	t.Run("get by status", func(t *testing.T) {
		g2 := &model.Game{ID: 2, Creator: 7, MinPlayers: 1, MaxPlayers: 2,
			EntryFee: 5, Status: model.StatusSale, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, repo.Insert(ctx, pool, g2))

		open, err := repo.GetByStatus(ctx, model.StatusSale, 10)
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, int64(2), open[0].ID)
	})
}

func TestLedgerRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewLedgerRepository(pool)

	accounts := NewAccountRepository(pool)
	_, err := accounts.Create(ctx, pool, 100)
	require.NoError(t, err)

	games := NewGameRepository(pool)
	now := time.Now().UTC()
	require.NoError(t, games.Insert(ctx, pool, &model.Game{
		ID: 5, Creator: 7, MinPlayers: 1, MaxPlayers: 2, EntryFee: 10,
		Status: model.StatusSale, CreatedAt: now, UpdatedAt: now,
	}))
	gameID := int64(5)

	t.Run("record with and without game", func(t *testing.T) {
		e, err := repo.Record(ctx, pool, 100, -10, model.EntryJoin, &gameID)
		require.NoError(t, err)
		assert.Equal(t, int64(-10), e.Amount)
		require.NotNil(t, e.GameID)
		assert.Equal(t, gameID, *e.GameID)

		e, err = repo.Record(ctx, pool, 100, 500, model.EntryFund, nil)
		require.NoError(t, err)
		assert.Nil(t, e.GameID)
	})

	t.Run("by account newest first", func(t *testing.T) {
		entries, err := repo.GetByAccount(ctx, 100, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, model.EntryFund, entries[0].Kind)
		assert.Equal(t, model.EntryJoin, entries[1].Kind)
	})

	t.Run("by game in insertion order", func(t *testing.T) {
		_, err := repo.Record(ctx, pool, 100, 10, model.EntryRefund, &gameID)
		require.NoError(t, err)

		entries, err := repo.GetByGame(ctx, gameID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, model.EntryJoin, entries[0].Kind)
		assert.Equal(t, model.EntryRefund, entries[1].Kind)
	})
}

func TestTicketRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewTicketRepository(pool)

	accounts := NewAccountRepository(pool)
	for _, id := range []int64{100, 200} {
		_, err := accounts.Create(ctx, pool, id)
		require.NoError(t, err)
	}

	catalog := []model.TicketClass{
		{Name: "Ticket Novato", Price: 100, Color: "#3498DB"},
		{Name: "Ticket Novato II", Price: 500, Color: "#2ECC71"},
	}

	t.Run("seed is idempotent and append only", func(t *testing.T) {
		require.NoError(t, repo.SeedClasses(ctx, catalog))

		// Reseeding with a changed price must not overwrite.
		changed := []model.TicketClass{{Name: "Ticket Novato", Price: 999, Color: "#000000"}}
		require.NoError(t, repo.SeedClasses(ctx, changed))

		classes, err := repo.GetClasses(ctx)
		require.NoError(t, err)
		require.Len(t, classes, 2)
		assert.Equal(t, int64(100), classes[0].Price)
	})

	t.Run("sell lock and refund", func(t *testing.T) {
		classes, err := repo.GetClasses(ctx)
		require.NoError(t, err)

		ticket, err := repo.Insert(ctx, pool, classes[0].ID, 100)
		require.NoError(t, err)
		assert.False(t, ticket.Refunded)

		locked, err := repo.GetForUpdate(ctx, pool, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, ticket.ID, locked.ID)

		require.NoError(t, repo.MarkRefunded(ctx, pool, ticket.ID))
		refunded, err := repo.GetForUpdate(ctx, pool, ticket.ID)
		require.NoError(t, err)
		assert.True(t, refunded.Refunded)
	})

	t.Run("unknown ids", func(t *testing.T) {
		_, err := repo.GetClassByID(ctx, pool, 999)
		assert.ErrorIs(t, err, ErrTicketClassNotFound)
		_, err = repo.GetForUpdate(ctx, pool, 999)
		assert.ErrorIs(t, err, ErrTicketNotFound)
		assert.ErrorIs(t, repo.MarkRefunded(ctx, pool, 999), ErrTicketNotFound)
	})

	t.Run("by owner newest first", func(t *testing.T) {
		classes, err := repo.GetClasses(ctx)
		require.NoError(t, err)

		first, err := repo.Insert(ctx, pool, classes[0].ID, 200)
		require.NoError(t, err)
		second, err := repo.Insert(ctx, pool, classes[1].ID, 200)
		require.NoError(t, err)

		owned, err := repo.GetByOwner(ctx, 200)
		require.NoError(t, err)
		require.Len(t, owned, 2)
		assert.Equal(t, second.ID, owned[0].ID)
		assert.Equal(t, first.ID, owned[1].ID)
	})
}
