package notice

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBoard_ExpiresAfterTTL(t *testing.T) {
	b := NewBoard()
	defer b.Close()

	b.Post("s1", ItemAdded("Runner Pro"), 20*time.Millisecond)
	require.Len(t, b.Pending("s1"), 1)

	assert.Eventually(t, func() bool {
		return len(b.Pending("s1")) == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, b.Len())
}

func TestBoard_CancelBeforeExpiry(t *testing.T) {
	b := NewBoard()
	defer b.Close()

	h := b.Post("s1", ItemAdded("Runner Pro"), time.Hour)
	assert.NotEmpty(t, h.ID())

	assert.True(t, h.Cancel())
	assert.False(t, h.Cancel(), "second cancel is a no-op")
	assert.Empty(t, b.Pending("s1"))
}

func TestBoard_PendingIsOrdered(t *testing.T) {
	b := NewBoard()
	defer b.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	b.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	b.Post("s1", Notice{Message: "first"}, time.Hour)
	b.Post("s1", Notice{Message: "second"}, time.Hour)
	b.Post("s1", Notice{Message: "third"}, 0)

	pending := b.Pending("s1")
	require.Len(t, pending, 3)
	assert.Equal(t, "first", pending[0].Message)
	assert.Equal(t, "second", pending[1].Message)
	assert.Equal(t, "third", pending[2].Message)
	assert.Equal(t, time.Hour, pending[0].TTL)
}

func TestBoard_SessionsAreIsolated(t *testing.T) {
	b := NewBoard()
	defer b.Close()

	b.Post("a", Notice{Message: "for a"}, time.Hour)
	b.Post("b", Notice{Message: "for b"}, time.Hour)

	assert.Equal(t, 1, b.CancelAll("a"))
	assert.Empty(t, b.Pending("a"))
	assert.Len(t, b.Pending("b"), 1)
}

func TestBoard_DrainRendersOnce(t *testing.T) {
	b := NewBoard()
	defer b.Close()

	b.Post("s1", PurchaseSucceeded("TS-0123456789"), time.Hour)

	first := b.Drain("s1")
	require.Len(t, first, 1)
	assert.Equal(t, "¡Compra exitosa!", first[0].Title)
	assert.Contains(t, first[0].Message, "TS-0123456789")

	assert.Empty(t, b.Drain("s1"))
}

func TestBoard_RepostSameID(t *testing.T) {
	b := NewBoard()
	defer b.Close()

	b.Post("s1", Notice{ID: "n1", Message: "old"}, 10*time.Millisecond)
	b.Post("s1", Notice{ID: "n1", Message: "new"}, time.Hour)

	time.Sleep(30 * time.Millisecond)
	pending := b.Pending("s1")
	require.Len(t, pending, 1)
	assert.Equal(t, "new", pending[0].Message)
}

func TestBoard_Close(t *testing.T) {
	b := NewBoard()

	for i := 0; i < 10; i++ {
		b.Post("s1", Notice{Message: "x"}, time.Hour)
	}
	b.Close()
	b.Close()

	assert.Equal(t, 0, b.Len())

	h := b.Post("s1", Notice{Message: "late"}, time.Millisecond)
	assert.False(t, h.Cancel())
	assert.Equal(t, 0, b.Len())
}

func TestBoard_ConcurrentUse(t *testing.T) {
	b := NewBoard()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := b.Post("s1", Notice{Message: "x"}, time.Millisecond*time.Duration(1+i%3))
			if i%2 == 0 {
				h.Cancel()
			}
			_ = b.Pending("s1")
		}(i)
	}
	wg.Wait()
	b.Close()

	assert.Equal(t, 0, b.Len())
}
