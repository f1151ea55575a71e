package pathlock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLock_MutualExclusion(t *testing.T) {
	m := New()

	const goroutines = 32
	const iterations = 100

	counter := 0
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				unlock := m.Lock("dir/save.hlx")
				counter++
				unlock()
			}
		}()
	}

	wg.Wait()
	require.Equal(t, goroutines*iterations, counter)
}

func TestLock_DistinctPathsDoNotBlock(t *testing.T) {
	m := New()

	unlockA := m.Lock("a.hlx")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := m.Lock("b.hlx")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lock on a distinct path blocked")
	}
}

func TestLock_CleanedSpellingsShareALock(t *testing.T) {
	m := New()

	unlock := m.Lock("dir//save.hlx")

	acquired := make(chan struct{})
	go func() {
		u := m.Lock("dir/save.hlx")
		u()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("alternate spelling acquired a held lock")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("lock never released to the waiter")
	}
}

func TestLock_EvictsIdleEntries(t *testing.T) {
	m := New()

	unlock1 := m.Lock("one.hlx")
	unlock2 := m.Lock("two.hlx")
	require.Equal(t, 2, m.Len())

	unlock1()
	require.Equal(t, 1, m.Len())

	unlock2()
	require.Equal(t, 0, m.Len())
}

func TestLock_EntrySurvivesWhileContended(t *testing.T) {
	m := New()

	unlock := m.Lock("contended.hlx")

	started := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		close(started)
		u := m.Lock("contended.hlx")
		u()
		close(finished)
	}()

	<-started
	// Give the waiter time to register its reference before we release.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 1, m.Len())

	unlock()
	<-finished
	require.Equal(t, 0, m.Len())
}
