package ids

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenIsRandomUUID(t *testing.T) {
	token := NewToken()

	parsed, err := uuid.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
	assert.Equal(t, uuid.RFC4122, parsed.Variant())
	assert.NotEqual(t, token, NewToken())
}

func TestAllocatorSeedsFromNewToken(t *testing.T) {
	a := NewAllocator(pendingSet{})

	id, err := a.Allocate("")
	require.NoError(t, err)

	parsed, err := uuid.Parse(id)
	require.NoError(t, err, "default correlation id %q is not a uuid", id)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestCreateULIDMessageIDs(t *testing.T) {
	const workers, perWorker = 8, 50

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		all = make(map[string]struct{}, workers*perWorker)
	)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			prev := ""
			for i := 0; i < perWorker; i++ {
				id := CreateULID()
				if _, err := ulid.ParseStrict(id); err != nil {
					t.Errorf("message id %q is not a ULID: %v", id, err)
					return
				}
				if id <= prev {
					t.Errorf("message ids went backwards: %s after %s", id, prev)
				}
				prev = id

				mu.Lock()
				all[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(all) != workers*perWorker {
		t.Fatalf("got %d distinct message ids, want %d", len(all), workers*perWorker)
	}
}
