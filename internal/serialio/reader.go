package serialio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/emtz/motorlab/internal/logger"
	"github.com/emtz/motorlab/internal/telemetry"
)

// dropReportEvery throttles malformed-frame logging so a noisy line cannot
// flood the console.
const dropReportEvery = 100

// Reader pumps newline-delimited frames from a serial stream into a ring
// buffer. Malformed frames are counted and discarded; the stream keeps
// going.
type Reader struct {
	src  io.Reader
	ring *telemetry.Ring

	accepted atomic.Uint64
	dropped  atomic.Uint64
}

func NewReader(src io.Reader, ring *telemetry.Ring) *Reader {
	return &Reader{src: src, ring: ring}
}

// Accepted reports how many frames reached the ring.
func (r *Reader) Accepted() uint64 { return r.accepted.Load() }

// Dropped reports how many frames were discarded as malformed.
func (r *Reader) Dropped() uint64 { return r.dropped.Load() }

// Run reads frames until the stream ends or the context is cancelled.
// Timestamps are seconds since the first accepted frame, so a recording
// always starts at t=0 regardless of when the firmware booted.
func (r *Reader) Run(ctx context.Context) error {
	sc := bufio.NewScanner(r.src)
	var start time.Time

	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		now := time.Now()
		if start.IsZero() {
			start = now
		}
		at := now.Sub(start).Seconds()

		s, err := telemetry.ParseFrame(sc.Text(), at)
		if err != nil {
			if !errors.Is(err, telemetry.ErrMalformedFrame) {
				return err
			}
			n := r.dropped.Add(1)
			if n == 1 || n%dropReportEvery == 0 {
				logger.Info("dropped %d malformed frames (last: %v)", n, err)
			}
			continue
		}
		r.ring.Append(s)
		r.accepted.Add(1)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("serial read: %w", err)
	}
	return nil
}
