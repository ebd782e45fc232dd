package stylist

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskGuard(t *testing.T) {
	var g TaskGuard
	assert.Equal(t, Idle, g.State())
	assert.Equal(t, "idle", g.State().String())

	assert.True(t, g.TryAcquire())
	assert.True(t, g.Busy())
	assert.Equal(t, "in_flight", g.State().String())
	assert.False(t, g.TryAcquire(), "second acquire is rejected")

	g.Release()
	assert.False(t, g.Busy())
	g.Release()
	assert.Equal(t, Idle, g.State())
	assert.True(t, g.TryAcquire())
}

func TestTaskGuardSingleWinner(t *testing.T) {
	var (
		g    TaskGuard
		wins atomic.Int32
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
