// Package telemetry holds the rig's multi-channel sample store and the serial
// line protocol that produces samples.
package telemetry

// Channel identifies one column of the multi-channel store.
type Channel int

const (
	ChanTime Channel = iota
	ChanPowerA
	ChanPowerB
	ChanSensor1
	ChanSensor2

	NumChannels = 5
)

var channelNames = [NumChannels]string{"tiempo", "power_a", "power_b", "sensor_1", "sensor_2"}

func (c Channel) String() string {
	if c < 0 || int(c) >= NumChannels {
		return "unknown"
	}
	return channelNames[c]
}

// ChannelByName resolves a CSV column name to a channel index.
func ChannelByName(name string) (Channel, bool) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), true
		}
	}
	return 0, false
}

// Sample is one telemetry tuple from the driver board. Time is seconds since
// acquisition start. Immutable once constructed.
type Sample struct {
	Time    float64
	PowerA  int
	PowerB  int
	Sensor1 int
	Sensor2 int
}

func (s Sample) channel(c Channel) float64 {
	switch c {
	case ChanTime:
		return s.Time
	case ChanPowerA:
		return float64(s.PowerA)
	case ChanPowerB:
		return float64(s.PowerB)
	case ChanSensor1:
		return float64(s.Sensor1)
	case ChanSensor2:
		return float64(s.Sensor2)
	}
	return 0
}
