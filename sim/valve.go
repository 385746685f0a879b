package sim

// ValveState is the commanded or failed position class of a valve.
type ValveState string

const (
	ValveOpen         ValveState = "open"
	ValveClosed       ValveState = "closed"
	ValveThrottled    ValveState = "throttled"
	ValveFailedOpen   ValveState = "failed-open"
	ValveFailedClosed ValveState = "failed-closed"
)

// FailSafe is the position a valve drives to on trip or loss of signal.
type FailSafe string

const (
	FailSafeOpen   FailSafe = "open"
	FailSafeClosed FailSafe = "closed"
)

// Valve is an on/off or throttling valve on a transfer line.
type Valve struct {
	ID          string
	State       ValveState
	PositionPct float64 // 0 closed .. 100 open
	Interlocked bool    // true while a latched interlock holds the valve
	FailSafe    FailSafe
}

// open drives the valve fully open unless an interlock holds it.
func (v *Valve) open() {
	if v.Interlocked || v.failed() {
		return
	}
	v.State = ValveOpen
	v.PositionPct = 100
}

// close drives the valve fully closed unless an interlock holds it.
func (v *Valve) close() {
	if v.Interlocked || v.failed() {
		return
	}
	v.State = ValveClosed
	v.PositionPct = 0
}

// throttle moves the valve to an intermediate position.
func (v *Valve) throttle(positionPct float64) {
	if v.Interlocked || v.failed() {
		return
	}
	if positionPct < 0 {
		positionPct = 0
	}
	if positionPct > 100 {
		positionPct = 100
	}
	v.State = ValveThrottled
	v.PositionPct = positionPct
}

// toFailSafe drives the valve to its fail-safe position and latches it
// against further commands until the interlock releases.
func (v *Valve) toFailSafe() {
	if v.failed() {
		return
	}
	if v.FailSafe == FailSafeOpen {
		v.State = ValveOpen
		v.PositionPct = 100
	} else {
		v.State = ValveClosed
		v.PositionPct = 0
	}
	v.Interlocked = true
}

// release lifts the interlock hold; the valve keeps its current position
// until the next command.
func (v *Valve) release() {
	v.Interlocked = false
}

func (v *Valve) failed() bool {
	return v.State == ValveFailedOpen || v.State == ValveFailedClosed
}
