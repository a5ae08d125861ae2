package snowflake

import (
	"testing"

	"pgregory.net/rapid"
)

// TestProperty_ParseInvertsGeneration checks that component extraction
// recovers the worker ID for any valid worker, across many generated IDs.
func TestProperty_ParseInvertsGeneration(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		workerID := rapid.Int64Range(0, 1023).Draw(t, "workerID")
		count := rapid.IntRange(1, 50).Draw(t, "count")

		g, err := NewGenerator(workerID)
		if err != nil {
			t.Fatalf("NewGenerator(%d) failed: %v", workerID, err)
		}

		var prev int64
		for i := 0; i < count; i++ {
			id, err := g.NextID()
			if err != nil {
				t.Fatalf("NextID failed: %v", err)
			}
			if id <= prev {
				t.Fatalf("IDs not strictly increasing: %d after %d", id, prev)
			}
			prev = id

			_, gotWorker, _ := Parse(id)
			if gotWorker != workerID {
				t.Fatalf("Parse recovered worker %d, want %d", gotWorker, workerID)
			}
		}
	})
}
