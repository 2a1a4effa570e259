package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEpochInsertAndSnapshot(t *testing.T) {
	epoch := NewEpoch(0)

	assert.True(t, epoch.Insert(note("a", 10)))
	assert.True(t, epoch.Insert(note("b", 20)))
	assert.False(t, epoch.Insert(note("a", 10)))

	assert.Equal(t, []string{"b", "a"}, ids(epoch.Snapshot()))
	assert.Equal(t, 2, epoch.Len())
}

func TestEpochResetDiscardsPriorNotes(t *testing.T) {
	epoch := NewEpoch(0)
	epoch.Insert(note("a", 10))
	epoch.Insert(note("b", 20))
	epoch.Close()

	fresh := NewEpoch(0)
	fresh.Insert(note("c", 5))

	assert.Equal(t, []string{"c"}, ids(fresh.Snapshot()))
}

func TestEpochCloseIsIdempotentAndDropsLateArrivals(t *testing.T) {
	epoch := NewEpoch(0)
	epoch.Insert(note("a", 10))

	epoch.Close()
	epoch.Close()

	assert.False(t, epoch.Insert(note("b", 20)))
	assert.Equal(t, []string{"a"}, ids(epoch.Snapshot()))
}

func TestEpochEnforcesBound(t *testing.T) {
	epoch := NewEpoch(2)
	epoch.Insert(note("a", 30))
	epoch.Insert(note("b", 20))
	epoch.Insert(note("c", 10))

	assert.Equal(t, []string{"a", "b"}, ids(epoch.Snapshot()))

	// a newer note still enters at the head and evicts the tail
	epoch.Insert(note("d", 40))
	assert.Equal(t, []string{"d", "a"}, ids(epoch.Snapshot()))
}

func TestEpochSnapshotIsACopy(t *testing.T) {
	epoch := NewEpoch(0)
	epoch.Insert(note("a", 10))

	snap := epoch.Snapshot()
	snap[0].ID = "mutated"

	assert.Equal(t, []string{"a"}, ids(epoch.Snapshot()))
}

func TestEpochConcurrentInsertsStaySorted(t *testing.T) {
	epoch := NewEpoch(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				epoch.Insert(note(string(rune('a'+base))+"-"+string(rune('0'+j%10)), int64(base*100+j)))
			}
		}(i)
	}
	wg.Wait()

	assertSorted(t, epoch.Snapshot())
}

func TestDebouncerCoalescesBursts(t *testing.T) {
	var mu sync.Mutex
	emits := 0
	d := NewDebouncer(50*time.Millisecond, func() {
		mu.Lock()
		emits++
		mu.Unlock()
	})

	for i := 0; i < 20; i++ {
		d.Notify()
	}

	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, emits)
	mu.Unlock()

	d.Close()
}

func TestDebouncerFlushesOnClose(t *testing.T) {
	var mu sync.Mutex
	emits := 0
	d := NewDebouncer(time.Hour, func() {
		mu.Lock()
		emits++
		mu.Unlock()
	})

	d.Notify()
	d.Close()

	mu.Lock()
	assert.Equal(t, 1, emits)
	mu.Unlock()
}

func TestDebouncerCloseIsIdempotent(t *testing.T) {
	d := NewDebouncer(time.Millisecond, func() {})
	d.Close()
	d.Close()
}
