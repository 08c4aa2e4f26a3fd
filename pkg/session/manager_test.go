package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/omnibot/pkg/adapters/memory"
	"github.com/aretw0/omnibot/pkg/adapters/redis"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/aretw0/omnibot/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
	loads atomic.Int32
}

func (s *SlowStore) Load(ctx context.Context, conversationID string) (*domain.FlowExecution, error) {
	time.Sleep(10 * time.Millisecond)
	s.loads.Add(1)
	return s.Store.Load(ctx, conversationID)
}

func (s *SlowStore) Save(ctx context.Context, conversationID string, exec *domain.FlowExecution) error {
	time.Sleep(10 * time.Millisecond)
	return s.Store.Save(ctx, conversationID, exec)
}

func TestManager_ReadModifyWriteIsSerialized(t *testing.T) {
	store := &SlowStore{Store: memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, store.Save(ctx, id, domain.NewExecution(id, "flow", "start")))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, id, func(ctx context.Context) error {
				exec, err := store.Load(ctx, id)
				if err != nil {
					return err
				}
				exec.Turn++
				return store.Save(ctx, id, exec)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	exec, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, exec.Turn, "no increment may be lost")
}

func TestManager_DistributedLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	locker := redis.NewLocker(client, "omnibot:")
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(2*time.Second))
	ctx := context.Background()

	err := manager.WithLock(ctx, "conv-1", func(ctx context.Context) error {
		assert.True(t, mr.Exists("omnibot:lock:conv-1"), "distributed lock should be held during fn")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("omnibot:lock:conv-1"), "distributed lock should be released after fn")
}
