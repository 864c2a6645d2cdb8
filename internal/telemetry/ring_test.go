package telemetry

import (
	"sync"
	"testing"
)

func TestRingCapacityBounds(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantErr  bool
	}{
		{"too small", 10, true},
		{"minimum", 50, false},
		{"typical", 500, false},
		{"maximum", 2000, false},
		{"too large", 5000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRing(tt.capacity)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRing(%d) err = %v, wantErr %v", tt.capacity, err, tt.wantErr)
			}
		})
	}
}

func TestRingOverwriteKeepsNewest(t *testing.T) {
	r, err := NewRing(50)
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}

	// Append well past capacity; the window must hold exactly the last 50
	// values in append order.
	for i := 0; i < 173; i++ {
		r.Append(Sample{Time: float64(i), Sensor1: i % 1024})
	}

	w := r.Window(ChanTime, 50)
	if len(w) != 50 {
		t.Fatalf("window length = %d, want 50", len(w))
	}
	for i, v := range w {
		want := float64(173 - 50 + i)
		if v != want {
			t.Errorf("window[%d] = %v, want %v", i, v, want)
		}
	}

	if r.Len() != 50 {
		t.Errorf("Len = %d, want 50", r.Len())
	}
	if r.Total() != 173 {
		t.Errorf("Total = %d, want 173", r.Total())
	}
}

func TestRingWindowClamped(t *testing.T) {
	r, _ := NewRing(100)
	for i := 0; i < 7; i++ {
		r.Append(Sample{Time: float64(i)})
	}

	w := r.Window(ChanTime, 100)
	if len(w) != 7 {
		t.Errorf("window length = %d, want 7", len(w))
	}
}

func TestRingClear(t *testing.T) {
	r, _ := NewRing(50)
	for i := 0; i < 30; i++ {
		r.Append(Sample{Time: float64(i)})
	}
	foot := r.MemoryFootprint()

	r.Clear()
	if r.Len() != 0 {
		t.Fatalf("Len after clear = %d, want 0", r.Len())
	}

	r.Append(Sample{Time: 1.5, PowerA: 100})
	if r.Len() != 1 {
		t.Errorf("Len after clear+append = %d, want 1", r.Len())
	}
	if got := r.Window(ChanPowerA, 10); len(got) != 1 || got[0] != 100 {
		t.Errorf("window after clear+append = %v, want [100]", got)
	}
	if r.MemoryFootprint() != foot {
		t.Errorf("footprint changed across clear: %d != %d", r.MemoryFootprint(), foot)
	}
}

func TestRingSnapshot(t *testing.T) {
	r, _ := NewRing(50)
	for i := 0; i < 60; i++ {
		r.Append(Sample{Time: float64(i), PowerA: i % 255, Sensor1: i})
	}

	snap := r.Snapshot(3)
	if len(snap) != 3 {
		t.Fatalf("snapshot length = %d, want 3", len(snap))
	}
	if snap[2].Time != 59 || snap[0].Time != 57 {
		t.Errorf("snapshot times = %v..%v, want 57..59", snap[0].Time, snap[2].Time)
	}
}

func TestRingMemoryFootprint(t *testing.T) {
	r, _ := NewRing(200)
	if got := r.MemoryFootprint(); got != 200*NumChannels*8 {
		t.Errorf("footprint = %d, want %d", got, 200*NumChannels*8)
	}
}

func TestRingWindowDetachedFromAppends(t *testing.T) {
	r, _ := NewRing(50)
	for i := 0; i < 50; i++ {
		r.Append(Sample{Time: float64(i)})
	}

	w := r.Window(ChanTime, 50)
	want := make([]float64, len(w))
	copy(want, w)

	// Wrap the cursor several times; a window taken earlier must not move.
	for i := 50; i < 200; i++ {
		r.Append(Sample{Time: float64(i)})
	}

	for i, v := range w {
		if v != want[i] {
			t.Fatalf("window[%d] changed from %v to %v after later appends", i, want[i], v)
		}
	}
}

func TestRingConcurrentReaders(t *testing.T) {
	r, _ := NewRing(100)

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			r.Append(Sample{Time: float64(i), Sensor1: i % 1024})
		}
		close(done)
	}()

	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				w := r.Window(ChanTime, 100)
				for i := 1; i < len(w); i++ {
					if w[i] < w[i-1] {
						t.Errorf("window out of order: %v before %v", w[i-1], w[i])
						return
					}
				}
			}
		}()
	}

	wg.Wait()
}
