package snowflake

import (
	"sync"
	"testing"
	"time"
)

func TestNewGenerator(t *testing.T) {
	g, err := NewGenerator(1)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	if g == nil {
		t.Fatal("NewGenerator returned nil")
	}
}

func TestNewGenerator_InvalidWorkerID(t *testing.T) {
	if _, err := NewGenerator(-1); err != ErrInvalidWorkerID {
		t.Errorf("expected ErrInvalidWorkerID for -1, got %v", err)
	}
	if _, err := NewGenerator(1024); err != ErrInvalidWorkerID {
		t.Errorf("expected ErrInvalidWorkerID for 1024, got %v", err)
	}
	if _, err := NewGenerator(1023); err != nil {
		t.Errorf("worker ID 1023 should be valid, got %v", err)
	}
}

func TestNextID_Monotonic(t *testing.T) {
	g, err := NewGenerator(5)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	var prev int64
	for i := 0; i < 10000; i++ {
		id, err := g.NextID()
		if err != nil {
			t.Fatalf("NextID failed at iteration %d: %v", i, err)
		}
		if id <= prev {
			t.Fatalf("IDs not strictly increasing: %d after %d", id, prev)
		}
		prev = id
	}
}

func TestNextID_ConcurrentUnique(t *testing.T) {
	g, err := NewGenerator(7)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	ids := make(chan int64, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id, err := g.NextID()
				if err != nil {
					t.Errorf("NextID failed: %v", err)
					return
				}
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, goroutines*perGoroutine)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate ID generated: %d", id)
		}
		seen[id] = true
	}
}

func TestParse_RoundTrip(t *testing.T) {
	g, err := NewGenerator(42)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	before := time.Now().UnixMilli()
	id, err := g.NextID()
	if err != nil {
		t.Fatalf("NextID failed: %v", err)
	}
	after := time.Now().UnixMilli()

	ts, workerID, seq := Parse(id)
	if workerID != 42 {
		t.Errorf("expected worker ID 42, got %d", workerID)
	}
	if ts < before || ts > after {
		t.Errorf("embedded timestamp %d outside [%d, %d]", ts, before, after)
	}
	if seq < 0 || seq > sequenceMask {
		t.Errorf("sequence %d out of range", seq)
	}

	embedded := Timestamp(id).UnixMilli()
	if embedded != ts {
		t.Errorf("Timestamp() = %d, Parse timestamp = %d", embedded, ts)
	}
}
