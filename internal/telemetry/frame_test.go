package telemetry

import (
	"errors"
	"testing"
)

func TestParseFrame(t *testing.T) {
	s, err := ParseFrame("100,-50,520,475\n", 1.25)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if s.PowerA != 100 || s.PowerB != -50 || s.Sensor1 != 520 || s.Sensor2 != 475 {
		t.Errorf("sample = %+v", s)
	}
	if s.Time != 1.25 {
		t.Errorf("time = %v, want 1.25", s.Time)
	}
}

func TestParseFrameMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not a number", "abc,1,2,3"},
		{"sensor out of range", "100,50,2000,3"},
		{"sensor negative", "100,50,-1,3"},
		{"power out of range", "300,0,10,10"},
		{"power below range", "-300,0,10,10"},
		{"too few fields", "1,2,3"},
		{"too many fields", "1,2,3,4,5"},
		{"empty", ""},
		{"float field", "1.5,2,3,4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFrame(tt.line, 0)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrMalformedFrame) {
				t.Errorf("error %v does not wrap ErrMalformedFrame", err)
			}
		})
	}
}

func TestParseFrameEdgeValues(t *testing.T) {
	tests := []string{"255,-255,0,1023", "-255,255,1023,0", "0,0,0,0"}
	for _, line := range tests {
		if _, err := ParseFrame(line, 0); err != nil {
			t.Errorf("ParseFrame(%q) = %v, want nil", line, err)
		}
	}
}
