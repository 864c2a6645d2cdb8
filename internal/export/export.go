// Package export turns a finished design into artifacts the firmware side
// consumes: discrete PI coefficients, a C snippet for the microcontroller
// loop, and a JSON document for record keeping.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DiscretePI is the velocity-form recurrence
//
//	u[k] = u[k-1] + Kp*(e[k] - e[k-1]) + Ki*Ts*e[k]
//
// evaluated at a fixed sample period. Velocity form carries no explicit
// integrator state, so output clamping gives anti-windup for free.
type DiscretePI struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Ts float64 `json:"ts"`

	// Precomputed recurrence coefficients: u[k] = u[k-1] + B0*e[k] + B1*e[k-1].
	B0 float64 `json:"b0"`
	B1 float64 `json:"b1"`
}

// Discretize fixes the sample period and precomputes the recurrence.
func Discretize(kp, ki, ts float64) (DiscretePI, error) {
	if ts <= 0 {
		return DiscretePI{}, fmt.Errorf("sample period %g must be > 0", ts)
	}
	return DiscretePI{
		Kp: kp, Ki: ki, Ts: ts,
		B0: kp + ki*ts,
		B1: -kp,
	}, nil
}

// Step advances the recurrence by one sample. Callers keep uPrev and ePrev
// between calls and clamp the returned drive to their actuator range.
func (d DiscretePI) Step(uPrev, e, ePrev float64) float64 {
	return uPrev + d.B0*e + d.B1*ePrev
}

// CSnippet renders the controller as a drop-in C fragment for the firmware's
// fixed-rate loop.
func CSnippet(d DiscretePI, umin, umax float64) string {
	var sb strings.Builder

	sb.WriteString("/* PI controller, velocity form. Call at a fixed period. */\n")
	fmt.Fprintf(&sb, "#define PI_TS   %gf  /* sample period, s */\n", d.Ts)
	fmt.Fprintf(&sb, "#define PI_B0   %.9gf /* Kp + Ki*Ts */\n", d.B0)
	fmt.Fprintf(&sb, "#define PI_B1   %.9gf /* -Kp */\n", d.B1)
	fmt.Fprintf(&sb, "#define PI_UMIN %gf\n", umin)
	fmt.Fprintf(&sb, "#define PI_UMAX %gf\n", umax)
	sb.WriteString(`
static float pi_u = 0.0f;
static float pi_e_prev = 0.0f;

float pi_update(float setpoint, float measurement)
{
    float e = setpoint - measurement;
    float u = pi_u + PI_B0 * e + PI_B1 * pi_e_prev;

    if (u > PI_UMAX) u = PI_UMAX;
    if (u < PI_UMIN) u = PI_UMIN;

    pi_u = u;
    pi_e_prev = e;
    return u;
}
`)
	return sb.String()
}

// Document is the JSON export: continuous gains, the discretized recurrence,
// and the figures of merit that justified shipping this design.
type Document struct {
	Design        string     `json:"design"`
	Kp            float64    `json:"kp"`
	Ki            float64    `json:"ki"`
	Discrete      DiscretePI `json:"discrete"`
	GammaVerified float64    `json:"gamma_verified"`
	Firmware      string     `json:"firmware"`
}

// WriteJSON writes the document to path, or to stdout when path is "-".
func WriteJSON(path string, doc Document) error {
	out := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
