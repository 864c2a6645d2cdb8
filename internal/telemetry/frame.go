package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedFrame marks a serial frame that failed to parse. The acquisition
// path discards such frames and keeps running.
var ErrMalformedFrame = errors.New("malformed frame")

const (
	PowerMin  = -255
	PowerMax  = 255
	SensorMin = 0
	SensorMax = 1023
)

// ParseFrame translates one newline-delimited frame of the form
// POWER_A,POWER_B,SENSOR_1,SENSOR_2 into a Sample stamped with the receipt
// time. It is stateless and transport-agnostic.
func ParseFrame(line string, at float64) (Sample, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, ",")
	if len(fields) != 4 {
		return Sample{}, fmt.Errorf("%w: %d fields, want 4", ErrMalformedFrame, len(fields))
	}

	vals := make([]int, 4)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Sample{}, fmt.Errorf("%w: field %d %q not an integer", ErrMalformedFrame, i, f)
		}
		vals[i] = v
	}

	for i := 0; i < 2; i++ {
		if vals[i] < PowerMin || vals[i] > PowerMax {
			return Sample{}, fmt.Errorf("%w: power %d out of [%d, %d]", ErrMalformedFrame, vals[i], PowerMin, PowerMax)
		}
	}
	for i := 2; i < 4; i++ {
		if vals[i] < SensorMin || vals[i] > SensorMax {
			return Sample{}, fmt.Errorf("%w: sensor %d out of [%d, %d]", ErrMalformedFrame, vals[i], SensorMin, SensorMax)
		}
	}

	return Sample{
		Time:    at,
		PowerA:  vals[0],
		PowerB:  vals[1],
		Sensor1: vals[2],
		Sensor2: vals[3],
	}, nil
}
