package observability

import (
	"sync"
	"testing"
	"time"
)

// TestRecordResolvedConcurrent tests concurrent RecordResolved calls for race conditions.
func TestRecordResolvedConcurrent(t *testing.T) {
	ts := NewTranslationStats(1 * time.Hour)
	var wg sync.WaitGroup
	numGoroutines := 10
	recordsPerGoroutine := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < recordsPerGoroutine; j++ {
				ts.RecordResolved("beneficiary_code", "bcode")
				ts.RecordResolved("visit.date", "k2")
			}
		}()
	}
	wg.Wait()

	top := ts.TopResolved(10)
	if len(top) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(top))
	}
	expected := int64(numGoroutines * recordsPerGoroutine)
	for _, st := range top {
		if st.Frequency != expected {
			t.Errorf("expected frequency %d for %s, got %d", expected, st.Path, st.Frequency)
		}
	}
	if top[0].Path != "beneficiary_code" || top[0].Keys["bcode"] != int(expected) {
		t.Errorf("unexpected first entry %+v", top[0])
	}
}

func TestTopOrderingAndCopy(t *testing.T) {
	ts := NewTranslationStats(time.Hour)
	for i := 0; i < 3; i++ {
		ts.RecordUnresolved("rare")
	}
	for i := 0; i < 7; i++ {
		ts.RecordUnresolved("common")
	}

	top := ts.TopUnresolved(1)
	if len(top) != 1 || top[0].Path != "common" {
		t.Fatalf("expected common first, got %+v", top)
	}

	top[0].Keys["mutated"] = 1
	again := ts.TopUnresolved(1)
	if _, ok := again[0].Keys["mutated"]; ok {
		t.Error("TopUnresolved should return copies")
	}

	if len(ts.TopResolved(5)) != 0 {
		t.Error("no resolved paths were recorded")
	}
	if len(ts.TopUnresolved(0)) != 0 {
		t.Error("n <= 0 should return empty")
	}
}

func TestPrune(t *testing.T) {
	ts := NewTranslationStats(time.Millisecond)
	ts.RecordResolved("old", "k")
	time.Sleep(5 * time.Millisecond)
	ts.RecordResolved("fresh", "k")
	ts.Prune()

	top := ts.TopResolved(10)
	if len(top) != 1 || top[0].Path != "fresh" {
		t.Errorf("expected only fresh to survive, got %+v", top)
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "WARN", "error"} {
		logger, err := NewLogger(level)
		if err != nil {
			t.Fatalf("level %q: %v", level, err)
		}
		logger.Sync()
	}
	if _, err := NewLogger("chatty"); err == nil {
		t.Error("expected error for invalid level")
	}
}
