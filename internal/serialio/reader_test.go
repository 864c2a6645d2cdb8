package serialio

import (
	"context"
	"strings"
	"testing"

	"github.com/emtz/motorlab/internal/telemetry"
)

func TestReaderAcceptsWellFormedStream(t *testing.T) {
	ring, err := telemetry.NewRing(100)
	if err != nil {
		t.Fatal(err)
	}
	src := strings.NewReader("100,0,512,480\r\n-50,0,510,482\n0,0,508,484\n")

	r := NewReader(src, ring)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := r.Accepted(); got != 3 {
		t.Errorf("accepted = %d, want 3", got)
	}
	if got := r.Dropped(); got != 0 {
		t.Errorf("dropped = %d, want 0", got)
	}
	if ring.Len() != 3 {
		t.Errorf("ring len = %d, want 3", ring.Len())
	}
}

func TestReaderDropsMalformedAndContinues(t *testing.T) {
	ring, err := telemetry.NewRing(100)
	if err != nil {
		t.Fatal(err)
	}
	src := strings.NewReader("100,0,512,480\ngarbage\n300,0,2000,480\n-100,0,500,500\n")

	r := NewReader(src, ring)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := r.Accepted(); got != 2 {
		t.Errorf("accepted = %d, want 2", got)
	}
	if got := r.Dropped(); got != 2 {
		t.Errorf("dropped = %d, want 2", got)
	}
}

func TestReaderHonorsCancellation(t *testing.T) {
	ring, err := telemetry.NewRing(100)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReader(strings.NewReader("100,0,512,480\n"), ring)
	if err := r.Run(ctx); err != context.Canceled {
		t.Errorf("run err = %v, want context.Canceled", err)
	}
}

func TestReaderTimestampsStartAtZero(t *testing.T) {
	ring, err := telemetry.NewRing(100)
	if err != nil {
		t.Fatal(err)
	}
	r := NewReader(strings.NewReader("10,0,500,500\n20,0,501,501\n"), ring)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	snap := ring.Snapshot(ring.Len())
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d", len(snap))
	}
	if snap[0].Time != 0 {
		t.Errorf("first timestamp = %v, want 0", snap[0].Time)
	}
	if snap[1].Time < snap[0].Time {
		t.Errorf("timestamps not monotonic: %v then %v", snap[0].Time, snap[1].Time)
	}
}
