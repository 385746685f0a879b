// Package control implements the generic single-loop PID controller used by
// the plant engine: MAN/AUTO/CASCADE modes, conditional-integration
// anti-windup, derivative filtering, output and setpoint rate limiting, and
// bumpless MAN→AUTO transfer. All transitions are pure functions
// (State, inputs) → State so loops replay deterministically.
package control

import "math"

// Mode is the controller operating mode.
type Mode string

const (
	// ModeManual holds the output at the operator-set value.
	ModeManual Mode = "MAN"
	// ModeAuto closes the loop on the local setpoint.
	ModeAuto Mode = "AUTO"
	// ModeCascade closes the loop on an externally supplied setpoint.
	ModeCascade Mode = "CASCADE"
)

// FaultCode identifies why the last calculation was rejected.
type FaultCode string

const (
	FaultNone      FaultCode = ""
	FaultPVInvalid FaultCode = "PV_INVALID"
	FaultDTInvalid FaultCode = "DT_INVALID"
)

// Status is the coarse diagnostic classification of a loop.
type Status string

const (
	StatusOK      Status = "OK"
	StatusWarning Status = "WARNING"
	StatusFault   Status = "FAULT"
)

// StatusCode refines Status for display and interlock logic.
type StatusCode string

const (
	CodeNone        StatusCode = ""
	CodeSaturatedHi StatusCode = "SATURATED_HI"
	CodeSaturatedLo StatusCode = "SATURATED_LO"
)

// Config holds the tuning and limits of one loop. Zero rate limits mean
// unlimited; DerivFilter is the low-pass pole on the error rate in [0, 1),
// where 0 disables filtering and values near 1 filter heavily.
type Config struct {
	Kp float64 // proportional gain, OP units per PV unit
	Ki float64 // integral gain, OP units per (PV unit · s)
	Kd float64 // derivative gain, OP units per (PV unit / s)

	OPMin, OPMax float64 // output clamp, engineering %
	SPMin, SPMax float64 // setpoint clamp, PV units

	OPRateLimit float64 // max output slew, OP units/s (0 = unlimited)
	SPRateLimit float64 // max setpoint slew, PV units/s (0 = unlimited)
	DerivFilter float64 // error-rate low-pass coefficient, 0..1
}

// State is the full persistent state of one loop. It is mutated only through
// the pure transition functions in this package; the engine stores one per
// configured loop and threads it through every tick.
type State struct {
	Tag  string
	Mode Mode

	SP       float64 // effective setpoint after slew
	SPTarget float64 // requested setpoint the SP slews toward
	PV       float64 // last process value seen
	OP       float64 // controller output, OPMin..OPMax

	Integral   float64 // accumulated integral term, OP units
	DerivState float64 // filtered error rate, PV units/s
	LastErr    float64
	Primed     bool // true once one valid calculation has run

	Saturated bool
	SatDir    int // +1 pinned at OPMax, -1 at OPMin

	Fault     bool
	FaultCode FaultCode
}

// NewState returns a loop parked in MAN at the given output and setpoint,
// both clamped to the config limits. Plants bring loops up in MAN.
func NewState(tag string, cfg Config, sp, op float64) State {
	sp = clamp(sp, cfg.SPMin, cfg.SPMax)
	return State{
		Tag:      tag,
		Mode:     ModeManual,
		SP:       sp,
		SPTarget: sp,
		OP:       clamp(op, cfg.OPMin, cfg.OPMax),
	}
}

// Calculate advances the loop by dt seconds against the measured pv and
// returns the next state and its output. An invalid pv or dt sets the fault
// flag and holds the prior output; the loop stays live and recovers on the
// next valid call.
func Calculate(st State, pv float64, cfg Config, dt float64) (State, float64) {
	if math.IsNaN(pv) || math.IsInf(pv, 0) {
		st.Fault = true
		st.FaultCode = FaultPVInvalid
		return st, st.OP
	}
	if dt <= 0 || math.IsNaN(dt) {
		st.Fault = true
		st.FaultCode = FaultDTInvalid
		return st, st.OP
	}
	st.Fault = false
	st.FaultCode = FaultNone
	st.PV = pv
	st.SP = slew(st.SP, st.SPTarget, cfg.SPRateLimit, dt)

	if st.Mode == ModeManual {
		// Output is whatever the operator set; keep the derivative chain
		// primed so a later AUTO switch does not kick.
		st.LastErr = st.SP - pv
		st.DerivState = 0
		st.Primed = true
		st.Saturated = false
		st.SatDir = 0
		return st, st.OP
	}

	err := st.SP - pv

	rate := 0.0
	if st.Primed {
		rate = (err - st.LastErr) / dt
	}
	st.DerivState = cfg.DerivFilter*st.DerivState + (1-cfg.DerivFilter)*rate

	// Conditional integration: the integral is frozen when the unclamped
	// output would run past the limit the loop is already pinned against.
	candidate := st.Integral + cfg.Ki*err*dt
	unclamped := cfg.Kp*err + candidate + cfg.Kd*st.DerivState
	if (st.Saturated && st.SatDir > 0 && err > 0 && unclamped > cfg.OPMax) ||
		(st.Saturated && st.SatDir < 0 && err < 0 && unclamped < cfg.OPMin) {
		candidate = st.Integral
		unclamped = cfg.Kp*err + candidate + cfg.Kd*st.DerivState
	}
	st.Integral = candidate

	op := clamp(unclamped, cfg.OPMin, cfg.OPMax)
	if cfg.OPRateLimit > 0 {
		op = clamp(op, st.OP-cfg.OPRateLimit*dt, st.OP+cfg.OPRateLimit*dt)
	}

	st.Saturated = op >= cfg.OPMax || op <= cfg.OPMin
	switch {
	case op >= cfg.OPMax:
		st.SatDir = 1
	case op <= cfg.OPMin:
		st.SatDir = -1
	default:
		st.SatDir = 0
	}

	st.LastErr = err
	st.Primed = true
	st.OP = op
	return st, op
}

// SetMode switches the loop mode. MAN→AUTO (or CASCADE) back-calculates the
// integral so the first closed-loop tick reproduces the held output —
// bumpless transfer. Switching into MAN is inherently bumpless because the
// manual value initializes to the current output.
func SetMode(st State, mode Mode, cfg Config) State {
	if mode != ModeManual && mode != ModeAuto && mode != ModeCascade {
		return st
	}
	if st.Mode == mode {
		return st
	}
	if st.Mode == ModeManual {
		err := st.SP - st.PV
		st.Integral = st.OP - cfg.Kp*err
		st.DerivState = 0
		st.LastErr = err
	}
	st.Mode = mode
	return st
}

// SetSetpoint requests a new setpoint. The value clamps to SPMin/SPMax and
// then slews toward the target at SPRateLimit inside Calculate.
func SetSetpoint(st State, sp float64, cfg Config) State {
	st.SPTarget = clamp(sp, cfg.SPMin, cfg.SPMax)
	if cfg.SPRateLimit <= 0 {
		st.SP = st.SPTarget
	}
	return st
}

// SetRemoteSetpoint drives the setpoint from a supervisory loop. Only
// honored in CASCADE; the remote value clamps but does not slew — the outer
// loop owns its own dynamics.
func SetRemoteSetpoint(st State, sp float64, cfg Config) State {
	if st.Mode != ModeCascade {
		return st
	}
	st.SPTarget = clamp(sp, cfg.SPMin, cfg.SPMax)
	st.SP = st.SPTarget
	return st
}

// SetManualOutput sets the held output while in MAN. Ignored in closed-loop
// modes; the value clamps to the output limits.
func SetManualOutput(st State, op float64, cfg Config) State {
	if st.Mode != ModeManual {
		return st
	}
	st.OP = clamp(op, cfg.OPMin, cfg.OPMax)
	return st
}

// Diag is the result of a diagnostics query.
type Diag struct {
	Status Status
	Code   StatusCode
	Fault  FaultCode
}

// Diagnostics classifies the loop: FAULT when the last calculation was
// rejected, WARNING while the output is pinned at a limit, OK otherwise.
func Diagnostics(st State, cfg Config) Diag {
	if st.Fault {
		return Diag{Status: StatusFault, Fault: st.FaultCode}
	}
	if st.Saturated {
		code := CodeSaturatedLo
		if st.SatDir > 0 {
			code = CodeSaturatedHi
		}
		return Diag{Status: StatusWarning, Code: code}
	}
	return Diag{Status: StatusOK}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func slew(current, target, rateLimit, dt float64) float64 {
	if rateLimit <= 0 {
		return target
	}
	maxStep := rateLimit * dt
	delta := target - current
	if delta > maxStep {
		return current + maxStep
	}
	if delta < -maxStep {
		return current - maxStep
	}
	return target
}
