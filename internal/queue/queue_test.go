package queue

import (
	"sync"
	"testing"
)

func TestUnbounded_FIFO(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) rejected on open queue", i)
		}
	}

	select {
	case <-q.Ready():
	default:
		t.Fatal("Ready did not fire after Push")
	}

	got := q.Drain()
	if len(got) != 5 {
		t.Fatalf("Drain() len = %d, want 5", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("Drain()[%d] = %d, want %d", i, v, i)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() after Drain = %d, want 0", q.Len())
	}
}

func TestUnbounded_CloseDropsPending(t *testing.T) {
	q := New[string]()
	q.Push("a")
	q.Push("b")

	if dropped := q.Close(); dropped != 2 {
		t.Errorf("Close() dropped = %d, want 2", dropped)
	}
	if q.Push("c") {
		t.Error("Push after Close should be rejected")
	}
	if dropped := q.Close(); dropped != 0 {
		t.Errorf("second Close() dropped = %d, want 0", dropped)
	}
	if !q.Closed() {
		t.Error("Closed() = false after Close")
	}
}

func TestUnbounded_ConcurrentPush(t *testing.T) {
	q := New[int]()
	const producers, perProducer = 8, 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()

	if got := len(q.Drain()); got != producers*perProducer {
		t.Errorf("Drain() len = %d, want %d", got, producers*perProducer)
	}
}
