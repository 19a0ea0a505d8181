package cart

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLockerSerializesSameSession(t *testing.T) {
	l := NewLocker()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("s1")
			defer unlock()
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	if maxInside.Load() != 1 {
		t.Fatalf("expected exclusive access, saw %d concurrent holders", maxInside.Load())
	}
	if l.size() != 0 {
		t.Fatalf("expected idle locks to be released, %d remain", l.size())
	}
}

func TestLockerDoesNotBlockOtherSessions(t *testing.T) {
	l := NewLocker()
	unlockA := l.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on session b blocked behind session a")
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	l := NewLocker()
	unlock := l.Lock("s")
	unlock()
	unlock()

	relock := l.Lock("s")
	relock()
}

func TestTotal(t *testing.T) {
	lines := []Line{{Price: 799, Quantity: 2}, {Price: 1199, Quantity: 1}}
	if got := Total(lines); got != 2797 {
		t.Fatalf("expected 2797, got %d", got)
	}
	if Total(nil) != 0 {
		t.Fatal("expected zero total for empty cart")
	}
}
