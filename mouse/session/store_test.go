package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/micromouse/mouse/engine"
	"github.com/wricardo/micromouse/mouse/maze"
)

// stores returns a fresh store of every kind
func stores(t *testing.T) map[string]Store {
	t.Helper()

	files, err := NewFileStore(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)

	db, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Store{"file": files, "badger": db}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s, _ := NewManager().Create("round-trip", engine.DefaultMazeConfig())
			_, err := s.Engine.Run(context.Background(), 4)
			require.NoError(t, err)

			require.NoError(t, store.Put(s))
			assert.True(t, store.Has("round-trip"))

			loaded, err := store.Fetch("round-trip")
			require.NoError(t, err)
			assert.Equal(t, s.ID, loaded.ID)
			assert.Equal(t, s.Config.Name, loaded.Config.Name)

			state := loaded.Engine.GetState()
			assert.Equal(t, 4, state.Steps)
			assert.Equal(t, maze.Position{X: 4, Y: 0}, state.Head)

			// the restored run keeps going from where it stopped
			result, err := loaded.Engine.Step()
			require.NoError(t, err)
			assert.Equal(t, maze.Position{X: 4, Y: 0}, result.From)
		})
	}
}

func TestStore_IDsAndRemove(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			manager := NewManager()
			for _, id := range []string{"a", "b", "c"} {
				s, _ := manager.Create(id, engine.DefaultMazeConfig())
				require.NoError(t, store.Put(s))
			}

			ids, err := store.IDs()
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)

			require.NoError(t, store.Remove("b"))
			assert.False(t, store.Has("b"))
			assert.ErrorIs(t, store.Remove("b"), ErrSessionNotFound)
			_, err = store.Fetch("b")
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestStore_RejectsBadIDs(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Fetch("../escape")
			assert.ErrorIs(t, err, ErrInvalidSessionID)
			assert.False(t, store.Has(""))
		})
	}
}

func TestFileStore_CorruptDocument(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	_, err = store.Fetch("broken")
	assert.Error(t, err)

	ids, err := store.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"broken"}, ids)

	// Restore skips documents it cannot decode
	manager := NewManagerWithStore(store)
	assert.NoError(t, manager.Restore())
	assert.Zero(t, manager.Count())
}

func TestBadgerStore_InMemory(t *testing.T) {
	store, err := NewBadgerStore("")
	require.NoError(t, err)
	defer store.Close()

	manager := NewManagerWithStore(store)
	_, err = manager.Create("mem", engine.DefaultMazeConfig())
	require.NoError(t, err)
	assert.True(t, store.Has("mem"), "Create writes through")
}

func TestManagerWithStore(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			manager := NewManagerWithStore(store)
			s, err := manager.Create("durable", engine.DefaultMazeConfig())
			require.NoError(t, err)
			require.True(t, store.Has("durable"))

			s.Engine.Run(context.Background(), 3)
			require.NoError(t, manager.Save("durable"))

			// a second manager on the same store sees the run
			restarted := NewManagerWithStore(store)
			require.NoError(t, restarted.Restore())
			require.Equal(t, 1, restarted.Count())
			resumed, err := restarted.Get("durable")
			require.NoError(t, err)
			assert.Equal(t, 3, resumed.Engine.GetState().Steps)

			lazy := NewManagerWithStore(store)
			_, err = lazy.Get("durable")
			assert.NoError(t, err, "Get falls back to the store")
			_, err = lazy.Get("../nope")
			assert.ErrorIs(t, err, ErrSessionNotFound)

			require.NoError(t, restarted.Evict("durable"))
			assert.True(t, store.Has("durable"), "Evict keeps the stored copy")

			require.NoError(t, manager.Delete("durable"))
			assert.False(t, store.Has("durable"))
			assert.ErrorIs(t, manager.Delete("durable"), ErrSessionNotFound)

			manager.Create("flushed", engine.DefaultMazeConfig())
			require.NoError(t, store.Remove("flushed"))
			require.NoError(t, manager.Flush())
			assert.True(t, store.Has("flushed"))
		})
	}
}
