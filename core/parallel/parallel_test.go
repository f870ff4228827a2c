package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestParallelize_CoversAllItems(t *testing.T) {
	tests := []struct {
		name  string
		items int
	}{
		{"zero items", 0},
		{"single item", 1},
		{"fewer items than cores", 3},
		{"many items", 1000},
		{"odd count", 977},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make([]int32, tt.items)
			Parallelize(tt.items, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&seen[i], 1)
				}
			})

			for i, count := range seen {
				if count != 1 {
					t.Fatalf("item %d visited %d times, want exactly once", i, count)
				}
			}
		})
	}
}

func TestParallelize_RangesAreDisjoint(t *testing.T) {
	const items = 500

	var mu sync.Mutex
	var ranges [][2]int

	Parallelize(items, func(start, end int) {
		mu.Lock()
		ranges = append(ranges, [2]int{start, end})
		mu.Unlock()
	})

	covered := make([]bool, items)
	for _, r := range ranges {
		if r[0] >= r[1] {
			t.Errorf("empty range [%d, %d)", r[0], r[1])
		}
		for i := r[0]; i < r[1]; i++ {
			if covered[i] {
				t.Fatalf("index %d covered by more than one range", i)
			}
			covered[i] = true
		}
	}

	for i, ok := range covered {
		if !ok {
			t.Fatalf("index %d not covered by any range", i)
		}
	}
}

func TestParallelizeWithThreshold(t *testing.T) {
	t.Run("below threshold runs sequentially", func(t *testing.T) {
		calls := 0
		ParallelizeWithThreshold(10, 100, func(start, end int) {
			calls++
			if start != 0 || end != 10 {
				t.Errorf("sequential call got range [%d, %d), want [0, 10)", start, end)
			}
		})
		if calls != 1 {
			t.Errorf("expected a single sequential call, got %d", calls)
		}
	})

	t.Run("above threshold covers all items", func(t *testing.T) {
		const items = 1000
		var total int64
		ParallelizeWithThreshold(items, 100, func(start, end int) {
			atomic.AddInt64(&total, int64(end-start))
		})
		if total != items {
			t.Errorf("covered %d items, want %d", total, items)
		}
	})
}
