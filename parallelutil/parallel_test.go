package parallelutil

import (
	"sync/atomic"
	"testing"
)

func TestForProcessesEveryIndex(t *testing.T) {
	n := 1000
	var count int64
	For(n, func(i int) {
		atomic.AddInt64(&count, 1)
	})
	if count != int64(n) {
		t.Errorf("For processed %d items, want %d", count, n)
	}
}

func TestForSmallRunsSequentially(t *testing.T) {
	n := 4
	results := make([]int, n)
	For(n, func(i int) {
		results[i] = i * 2
	})
	for i := 0; i < n; i++ {
		if results[i] != i*2 {
			t.Errorf("results[%d] = %d, want %d", i, results[i], i*2)
		}
	}
}

func TestForWithErrorPropagates(t *testing.T) {
	n := 100
	if err := ForWithError(n, func(i int) error { return nil }); err != nil {
		t.Errorf("ForWithError returned error: %v", err)
	}

	sentinel := errTest{}
	err := ForWithError(n, func(i int) error {
		if i == 50 {
			return sentinel
		}
		return nil
	})
	if err != sentinel {
		t.Errorf("ForWithError returned %v, want %v", err, sentinel)
	}
}

type errTest struct{}

func (errTest) Error() string { return "test error" }

func TestForVisitsEveryIndexOnce(t *testing.T) {
	n := 97
	seen := make([]int32, n)
	For(n, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})
	for i, v := range seen {
		if v != 1 {
			t.Errorf("index %d visited %d times, want 1", i, v)
		}
	}
}

func TestConfigRoundTrip(t *testing.T) {
	original := GetConfig()
	defer SetConfig(original)

	SetConfig(Config{NumWorkers: 8, GrainSize: 16})
	got := GetConfig()
	if got.NumWorkers != 8 || got.GrainSize != 16 {
		t.Errorf("GetConfig() = %+v, want {8 16}", got)
	}
}
