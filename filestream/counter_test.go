package filestream

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestCounterStartsAtZero(t *testing.T) {
	c := counterFile{path: filepath.Join(t.TempDir(), "counter.nfo")}

	value, err := c.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if value != 0 {
		t.Errorf("fresh counter = %d, want 0", value)
	}

	next, err := c.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != 1 {
		t.Errorf("first Next = %d, want 1", next)
	}
}

func TestCounterEmptyFileReadsAsZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.nfo")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	c := counterFile{path: path}
	next, err := c.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != 1 {
		t.Errorf("Next over empty file = %d, want 1", next)
	}
}

func TestCounterRaise(t *testing.T) {
	c := counterFile{path: filepath.Join(t.TempDir(), "counter.nfo")}

	if err := c.Raise(100); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	next, err := c.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != 101 {
		t.Errorf("Next after Raise(100) = %d, want 101", next)
	}

	// Raising below the current value is a no-op.
	if err := c.Raise(5); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	next, err = c.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != 102 {
		t.Errorf("Next after no-op Raise = %d, want 102", next)
	}
}

func TestCounterConcurrentNext(t *testing.T) {
	c := counterFile{path: filepath.Join(t.TempDir(), "counter.nfo")}

	const goroutines = 20
	values := make(chan int64, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Next()
			if err != nil {
				t.Errorf("Next: %v", err)
				return
			}
			values <- v
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int64]bool)
	for v := range values {
		if seen[v] {
			t.Errorf("value %d issued twice", v)
		}
		seen[v] = true
	}
	if len(seen) != goroutines {
		t.Errorf("issued %d distinct values, want %d", len(seen), goroutines)
	}
}

func TestUniqueLongFileAppendsEvents(t *testing.T) {
	u := uniqueLongFile{path: filepath.Join(t.TempDir(), "unique.nfo")}
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	v1, err := u.Next("first", "evt-1", ts)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	v2, err := u.Next("second", "evt-2", ts)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if v1 != 1 || v2 != 2 {
		t.Errorf("values = %d, %d, want 1, 2", v1, v2)
	}

	events, err := u.Events()
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Details != "first" || events[1].EventID != "evt-2" {
		t.Errorf("unexpected events: %+v", events)
	}
	if !events[0].TimestampUTC.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", events[0].TimestampUTC, ts)
	}
}
