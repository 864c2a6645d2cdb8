package hinf

import (
	"context"
	"fmt"

	"github.com/emtz/motorlab/internal/ident"
	"github.com/emtz/motorlab/internal/sim"
)

// SessionState tracks a controller design session through its strictly
// sequential phases. Partial results (an infeasible design, a reduction that
// fails in simulation) are representable without sentinel values.
type SessionState int

const (
	StateDesigning SessionState = iota
	StateVerifying
	StateReduced
	StateSimulated
	StateFailed
)

var sessionStateNames = [...]string{"designing", "verifying", "reduced", "simulated", "failed"}

func (s SessionState) String() string {
	if s < 0 || int(s) >= len(sessionStateNames) {
		return "unknown"
	}
	return sessionStateNames[s]
}

// Session walks one design through design -> verify -> reduce -> simulate.
// The synthesis call itself is atomic: there is no cancellation mid-solve,
// only a context check between phases.
type Session struct {
	state SessionState

	Model   ident.Model
	Weights Weights
	Method  Method

	Controller *Controller
	Reduced    *sim.Result
	FullOrder  *sim.Result
	Err        error
}

func NewSession(model ident.Model, w Weights, method Method) *Session {
	return &Session{state: StateDesigning, Model: model, Weights: w, Method: method}
}

func (s *Session) State() SessionState { return s.state }

func (s *Session) fail(err error) error {
	s.state = StateFailed
	s.Err = err
	return err
}

// Design synthesizes and verifies the full-order controller. On success the
// session holds a Controller with authoritative gamma and margins and moves
// to Verifying.
func (s *Session) Design() error {
	if s.state != StateDesigning {
		return fmt.Errorf("design called in state %s", s.state)
	}
	ctl, err := Synthesize(s.Model, s.Weights, s.Method)
	if err != nil {
		return s.fail(err)
	}
	s.Controller = ctl
	s.state = StateVerifying
	return nil
}

// Reduce accepts the PI reduction after a stability gate on the reduced
// gains.
func (s *Session) Reduce() error {
	if s.state != StateVerifying {
		return fmt.Errorf("reduce called in state %s", s.state)
	}
	if !PIStabilizes(s.Model, s.Controller.Kp, s.Controller.Ki) {
		return s.fail(fmt.Errorf("reduced PI (Kp=%.4g, Ki=%.4g) does not stabilize the model",
			s.Controller.Kp, s.Controller.Ki))
	}
	s.state = StateReduced
	return nil
}

// Simulate runs the closed loop with both the reduced PI and the full-order
// controller on the same reference so the lossy reduction can be judged.
func (s *Session) Simulate(ctx context.Context, ref sim.Schedule, cfg sim.Config) error {
	if s.state != StateReduced {
		return fmt.Errorf("simulate called in state %s", s.state)
	}
	reduced, err := sim.RunPI(ctx, s.Model, s.Controller.Kp, s.Controller.Ki, ref, cfg)
	if err != nil {
		return s.fail(fmt.Errorf("reduced-controller simulation: %w", err))
	}
	full, err := sim.RunFull(ctx, s.Model, s.Controller.K, ref, cfg)
	if err != nil {
		return s.fail(fmt.Errorf("full-order simulation: %w", err))
	}
	s.Reduced = reduced
	s.FullOrder = full
	s.state = StateSimulated
	return nil
}

// SettlingGap compares settling times of the reduced and full-order runs;
// the reduction is lossy by design, so callers check this against their own
// tolerance rather than expecting equality.
func (s *Session) SettlingGap(band float64) (reduced, full float64, err error) {
	if s.state != StateSimulated {
		return 0, 0, fmt.Errorf("settling gap requested in state %s", s.state)
	}
	return sim.SettlingTime(s.Reduced, band), sim.SettlingTime(s.FullOrder, band), nil
}
