package telemetry

import (
	"fmt"
	"sync"
)

const (
	MinCapacity = 50
	MaxCapacity = 2000
)

// Ring is a fixed-capacity multi-channel circular store. Storage is allocated
// once; appends overwrite the oldest slot when full. One writer (the
// acquisition path) and any number of snapshot readers share it; a lock keeps
// readers from ever observing a half-written sample.
type Ring struct {
	mu       sync.RWMutex
	chans    [NumChannels][]float64
	capacity int
	cursor   int // next write slot
	count    int // samples currently held, <= capacity
	total    uint64
}

func NewRing(capacity int) (*Ring, error) {
	if capacity < MinCapacity || capacity > MaxCapacity {
		return nil, fmt.Errorf("ring capacity %d outside [%d, %d]", capacity, MinCapacity, MaxCapacity)
	}
	r := &Ring{capacity: capacity}
	for i := range r.chans {
		r.chans[i] = make([]float64, capacity)
	}
	return r, nil
}

// Append writes the sample into the next cursor slot in O(1). Overwriting the
// oldest entry once full is the eviction policy, not an error.
func (r *Ring) Append(s Sample) {
	r.mu.Lock()
	for c := range r.chans {
		r.chans[c][r.cursor] = s.channel(Channel(c))
	}
	r.cursor = (r.cursor + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	}
	r.total++
	r.mu.Unlock()
}

// Window returns the most recent count values of one channel, oldest to
// newest, copied out of the arena. count is clamped to the number of samples
// held. The copy is what makes the result safe to read after the lock is
// released; returning a view of live storage would let a concurrent append
// rewrite it under the caller.
func (r *Ring) Window(ch Channel, count int) []float64 {
	if ch < 0 || int(ch) >= NumChannels {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := count
	if n > r.count {
		n = r.count
	}
	if n <= 0 {
		return nil
	}
	start := (r.cursor - n + r.capacity) % r.capacity
	out := make([]float64, 0, n)
	if start+n <= r.capacity {
		return append(out, r.chans[ch][start:start+n]...)
	}
	out = append(out, r.chans[ch][start:]...)
	out = append(out, r.chans[ch][:n-(r.capacity-start)]...)
	return out
}

// Snapshot copies the most recent count samples out of the ring, oldest to
// newest, safe to hold across later appends.
func (r *Ring) Snapshot(count int) []Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := count
	if n > r.count {
		n = r.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]Sample, n)
	for i := 0; i < n; i++ {
		idx := (r.cursor - n + i + r.capacity) % r.capacity
		out[i] = Sample{
			Time:    r.chans[ChanTime][idx],
			PowerA:  int(r.chans[ChanPowerA][idx]),
			PowerB:  int(r.chans[ChanPowerB][idx]),
			Sensor1: int(r.chans[ChanSensor1][idx]),
			Sensor2: int(r.chans[ChanSensor2][idx]),
		}
	}
	return out
}

// Len reports the number of samples currently held.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

func (r *Ring) Capacity() int { return r.capacity }

// Total reports lifetime appends, including overwritten ones.
func (r *Ring) Total() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// MemoryFootprint reports bytes committed to channel storage, for diagnostics.
func (r *Ring) MemoryFootprint() int {
	return r.capacity * NumChannels * 8
}

// Clear resets cursor and count without reallocating storage.
func (r *Ring) Clear() {
	r.mu.Lock()
	r.cursor = 0
	r.count = 0
	r.total = 0
	r.mu.Unlock()
}
