package sim

import (
	"fmt"

	"github.com/emtz/motorlab/internal/ident"
)

// plantState integrates the identified model with RK4 under a zero-order-hold
// drive. First order holds one state, second order a cascade of two lags.
type plantState struct {
	model ident.Model
	x     []float64
	k1    []float64
	k2    []float64
	k3    []float64
	k4    []float64
	tmp   []float64
}

func newPlantState(m ident.Model) (*plantState, error) {
	var n int
	switch m.Order {
	case 1:
		if m.Tau <= 0 {
			return nil, fmt.Errorf("model time constant must be positive, got %g", m.Tau)
		}
		n = 1
	case 2:
		if m.Tau1 <= 0 || m.Tau2 <= 0 {
			return nil, fmt.Errorf("model time constants must be positive, got %g, %g", m.Tau1, m.Tau2)
		}
		n = 2
	default:
		return nil, fmt.Errorf("unsupported model order %d", m.Order)
	}
	return &plantState{
		model: m,
		x:     make([]float64, n),
		k1:    make([]float64, n),
		k2:    make([]float64, n),
		k3:    make([]float64, n),
		k4:    make([]float64, n),
		tmp:   make([]float64, n),
	}, nil
}

func (p *plantState) output() float64 {
	return p.x[len(p.x)-1]
}

// derive writes dx/dt for drive u into dst.
func (p *plantState) derive(x []float64, u float64, dst []float64) {
	m := p.model
	if m.Order == 1 {
		dst[0] = (m.K*u - x[0]) / m.Tau
		return
	}
	// K/((t1 s + 1)(t2 s + 1)) as two first-order stages in series.
	dst[0] = (m.K*u - x[0]) / m.Tau1
	dst[1] = (x[0] - x[1]) / m.Tau2
}

// step advances one RK4 step with u held constant.
func (p *plantState) step(u, dt float64) {
	n := len(p.x)

	p.derive(p.x, u, p.k1)
	for i := 0; i < n; i++ {
		p.tmp[i] = p.x[i] + 0.5*dt*p.k1[i]
	}
	p.derive(p.tmp, u, p.k2)
	for i := 0; i < n; i++ {
		p.tmp[i] = p.x[i] + 0.5*dt*p.k2[i]
	}
	p.derive(p.tmp, u, p.k3)
	for i := 0; i < n; i++ {
		p.tmp[i] = p.x[i] + dt*p.k3[i]
	}
	p.derive(p.tmp, u, p.k4)

	for i := 0; i < n; i++ {
		p.x[i] += dt * (p.k1[i] + 2*p.k2[i] + 2*p.k3[i] + p.k4[i]) / 6
	}
}
