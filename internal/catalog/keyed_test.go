package catalog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	k := keyedMutex{locks: make(map[string]*keyedLock)}

	var wg sync.WaitGroup
	inside, maxInside := 0, 0
	var mu sync.Mutex
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("favorite:alice/v01")
			defer unlock()

			mu.Lock()
			inside++
			maxInside = max(maxInside, inside)
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside)
	assert.Empty(t, k.locks, "released keys are forgotten")
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	k := keyedMutex{locks: make(map[string]*keyedLock)}

	unlockA := k.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := k.Lock("b")
		unlockB()
		close(done)
	}()

	<-done
	assert.Len(t, k.locks, 1)
	unlockA()
	assert.Empty(t, k.locks)
}
