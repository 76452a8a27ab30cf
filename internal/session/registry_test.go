package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/skybingo/bingobot/internal/session"
)

type fakeState struct {
	counter int
}

func TestRegistryInsertGetRemove(t *testing.T) {
	reg := session.NewRegistry[fakeState]()

	id := session.NewID()
	reg.Insert(id, fakeState{counter: 7})

	h, ok := reg.Get(id)
	if !ok {
		t.Fatal("inserted session should be found")
	}
	if s := h.Acquire(); s.counter != 7 {
		t.Errorf("state counter = %d, want 7", s.counter)
	}
	h.Release()

	if _, ok := reg.Remove(id); !ok {
		t.Fatal("remove should return the live handle")
	}
	if _, ok := reg.Get(id); ok {
		t.Error("removed session should not be found")
	}
	if _, ok := reg.Remove(id); ok {
		t.Error("second remove should report the session gone")
	}
}

func TestHandleMutualExclusion(t *testing.T) {
	reg := session.NewRegistry[fakeState]()
	id := session.NewID()
	h := reg.Insert(id, fakeState{})

	// Two concurrent "interactions": the second must not observe the first's
	// critical section half done.
	var wg sync.WaitGroup
	var order []int
	var orderMu sync.Mutex

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := h.Acquire()
			defer h.Release()

			before := s.counter
			time.Sleep(20 * time.Millisecond) // widen the race window
			s.counter = before + 1

			orderMu.Lock()
			order = append(order, s.counter)
			orderMu.Unlock()
		}()
	}
	wg.Wait()

	s := h.Acquire()
	defer h.Release()
	if s.counter != 2 {
		t.Errorf("counter = %d, want 2 (handlers were not serialized)", s.counter)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("observed order %v, want [1 2]", order)
	}
}

func TestNewIDFitsSignedColumn(t *testing.T) {
	for i := 0; i < 1000; i++ {
		if id := session.NewID(); id > 1<<63-1 {
			t.Fatalf("ID %d exceeds MaxInt64", id)
		}
	}
}
