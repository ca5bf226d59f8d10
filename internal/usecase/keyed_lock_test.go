package usecase

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedTryLock_SecondAcquireFails(t *testing.T) {
	l := newKeyedTryLock()

	assert.True(t, l.TryLock("a"))
	assert.False(t, l.TryLock("a"))

	l.Unlock("a")
	assert.True(t, l.TryLock("a"))
}

func TestKeyedTryLock_KeysAreIndependent(t *testing.T) {
	l := newKeyedTryLock()

	assert.True(t, l.TryLock("a"))
	assert.True(t, l.TryLock("b"))
}

func TestKeyedTryLock_OneWinnerPerKey(t *testing.T) {
	l := newKeyedTryLock()

	const n = 64
	var wg sync.WaitGroup
	var wins int32
	var mu sync.Mutex
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryLock("a") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins)
}
