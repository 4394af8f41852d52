package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tablesync/internal/dependencies/mocks"
	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/storage"
	"github.com/mcoot/tablesync/internal/storage/storagetest"
)

func openTestStore(t *testing.T, path string, clk *mocks.MockClock) *Store {
	t.Helper()
	store, err := Open(context.Background(), path, clk)
	require.NoError(t, err)
	return store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStore: func(clk *mocks.MockClock) storage.Store {
			return openTestStore(t, filepath.Join(t.TempDir(), "dnd.db"), clk)
		},
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ", mocks.NewMockClock(storagetest.StartTime))
	assert.Error(t, err)
}

func TestDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dnd.db")
	clk := mocks.NewMockClock(storagetest.StartTime)
	ctx := context.Background()

	store := openTestStore(t, path, clk)
	p, err := store.CreatePlayer(ctx, storagetest.NewPlayer("Aria"))
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, model.NewMessage{PlayerID: p.ID, Sender: model.SenderHost, Content: "welcome"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening applies the schema again without disturbing existing rows
	store = openTestStore(t, path, clk)
	defer store.Close()

	got, err := store.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aria", got.PlayerName)

	msgs, err := store.ListMessagesForPlayer(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "welcome", msgs[0].Content)
}

func TestForeignKeysEnforced(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "dnd.db"), mocks.NewMockClock(storagetest.StartTime))
	defer store.Close()

	_, err := store.sqlDB.ExecContext(context.Background(),
		`INSERT INTO messages (player_id, sender, content, mode, created_at) VALUES (99, 'host', 'x', 'RP', 0)`)
	assert.Error(t, err)
}
