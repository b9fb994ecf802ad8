package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/klondike/game/engine"
)

func createTestConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "Test Config",
		Description: "Test configuration",
		DrawCount:   3,
	}
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", config, 0)
		require.NoError(t, err)
		assert.Equal(t, "test-session", session.ID)
		assert.NotNil(t, session.Engine)
		assert.Same(t, config, session.Config)
		assert.False(t, session.CreatedAt.IsZero())
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", config, 0)
		require.NoError(t, err)
		assert.Len(t, session.ID, IDLength)
		assert.Regexp(t, "^[0-9a-f]+$", session.ID)
	})

	t.Run("IDs are stored in lower case", func(t *testing.T) {
		session, err := manager.Create("MiXeD", config, 0)
		require.NoError(t, err)
		assert.Equal(t, "mixed", session.ID)
	})

	t.Run("duplicate session ID", func(t *testing.T) {
		_, err := manager.Create("test-session", config, 0)
		assert.ErrorIs(t, err, ErrSessionAlreadyExists)
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", config, 0)
		assert.ErrorIs(t, err, ErrSessionAlreadyExists)
	})

	t.Run("invalid ID", func(t *testing.T) {
		_, err := manager.Create("no spaces/allowed", config, 0)
		assert.ErrorIs(t, err, ErrInvalidSessionID)
	})

	t.Run("invalid config", func(t *testing.T) {
		invalidConfig := createTestConfig()
		invalidConfig.DrawCount = 0
		_, err := manager.Create("invalid-test", invalidConfig, 0)
		assert.Error(t, err)
		_, err = manager.Get("invalid-test")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("nil config uses the built-in rules", func(t *testing.T) {
		session, err := manager.Create("nil-config", nil, 0)
		require.NoError(t, err)
		assert.Equal(t, "classic", session.Config.Name)
	})
}

func TestManager_CreateWithSeed(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	a, err := manager.Create("seed-a", config, 1234)
	require.NoError(t, err)
	b, err := manager.Create("seed-b", config, 1234)
	require.NoError(t, err)

	assert.Equal(t, int64(1234), a.Engine.DealSeed())
	assert.Equal(t, a.Engine.GetState().Piles, b.Engine.GetState().Piles)
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, err := manager.Create("get-test", createTestConfig(), 0)
	require.NoError(t, err)

	t.Run("get existing session", func(t *testing.T) {
		session, err := manager.Get("get-test")
		require.NoError(t, err)
		assert.Same(t, created, session)
	})

	t.Run("case-insensitive get", func(t *testing.T) {
		session, err := manager.Get("GET-TEST")
		require.NoError(t, err)
		assert.Same(t, created, session)
	})

	t.Run("get non-existent session", func(t *testing.T) {
		_, err := manager.Get("non-existent")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	first, err := manager.GetOrCreate("new-session", config)
	require.NoError(t, err)
	assert.Equal(t, "new-session", first.ID)

	second, err := manager.GetOrCreate("NEW-SESSION", config)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, manager.Count())
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	_, err := manager.Create("delete-test", config, 0)
	require.NoError(t, err)

	t.Run("delete existing session", func(t *testing.T) {
		require.NoError(t, manager.Delete("delete-test"))
		_, err := manager.Get("delete-test")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("delete non-existent session", func(t *testing.T) {
		assert.ErrorIs(t, manager.Delete("non-existent"), ErrSessionNotFound)
	})

	t.Run("case-insensitive delete", func(t *testing.T) {
		_, err := manager.Create("case-test", config, 0)
		require.NoError(t, err)
		require.NoError(t, manager.Delete("CASE-TEST"))
		_, err = manager.Get("case-test")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	want := map[string]bool{}
	for i := 1; i <= 3; i++ {
		s, err := manager.Create(fmt.Sprintf("list-%d", i), config, 0)
		require.NoError(t, err)
		want[s.ID] = true
	}

	got := map[string]bool{}
	for _, s := range manager.List() {
		got[s.ID] = true
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 3, manager.Count())
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	active, err := manager.Create("active", config, 0)
	require.NoError(t, err)
	expired, err := manager.Create("expired", config, 0)
	require.NoError(t, err)

	expired.LastAccessedAt = time.Now().Add(-2 * time.Hour)
	active.LastAccessedAt = time.Now()

	assert.Equal(t, 1, manager.CleanupExpiredSessions(time.Hour))

	_, err = manager.Get("expired")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = manager.Get("active")
	assert.NoError(t, err)
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()

	session, err := manager.Create("access-test", createTestConfig(), 0)
	require.NoError(t, err)
	originalTime := session.LastAccessedAt

	time.Sleep(10 * time.Millisecond)

	require.NoError(t, manager.UpdateLastAccessed("ACCESS-TEST"))
	updated, err := manager.Get("access-test")
	require.NoError(t, err)
	assert.True(t, updated.LastAccessedAt.After(originalTime))

	assert.ErrorIs(t, manager.UpdateLastAccessed("missing"), ErrSessionNotFound)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("shared-%d", i%10)
			if _, err := manager.GetOrCreate(id, config); err != nil {
				errs <- err
				return
			}
			if err := manager.UpdateLastAccessed(id); err != nil {
				errs <- err
			}
			_ = manager.List()
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error during concurrent access: %v", err)
	}
	assert.Equal(t, 10, manager.Count())
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	session1, err := manager.Create("iso-1", config, 5)
	require.NoError(t, err)
	session2, err := manager.Create("iso-2", config, 5)
	require.NoError(t, err)

	session1.Engine.StockClicked()

	assert.Equal(t, 21, session1.Engine.StockCount())
	assert.Equal(t, 24, session2.Engine.StockCount())
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	generatedIDs := make(map[string]bool)
	for i := 0; i < 50; i++ {
		session, err := manager.Create("", config, 0)
		require.NoError(t, err)
		assert.False(t, generatedIDs[session.ID], "duplicate session ID %s", session.ID)
		generatedIDs[session.ID] = true
		assert.Len(t, session.ID, IDLength)
	}
}
