package sim

import (
	"github.com/sepsim/sepsim/sim/constraints"
	"github.com/sepsim/sepsim/sim/control"
)

// Totals accumulates volumes and energy over a run. Volumes are cumulative
// m3 at the plant boundary; energy covers pumps, heaters and the separator
// drive.
type Totals struct {
	FeedInM3         float64
	FeedSpilledM3    float64
	SepFeedM3        float64
	CentrateM3       float64
	CakeM3           float64
	OilRecoveredM3   float64
	ProductSpilledM3 float64
	EnergyKWh        float64
	AlarmsRaised     int
	InterlockTrips   int
}

// LoopStatus is the externally visible state of one control loop.
type LoopStatus struct {
	Kind   LoopKind
	Target string
	State  control.State
}

// ProcessState is a self-contained snapshot of the plant after a step.
// Collections are copied; rule definitions inside protection results are
// immutable and shared.
type ProcessState struct {
	RunID     string
	SimTimeS  float64
	StepCount uint64

	Tanks      []Tank
	Pumps      []Pump
	Valves     []Valve
	Heaters    []Heater
	Routes     []TransferRoute
	Separator  Separator
	Loops      []LoopStatus
	Protection constraints.Result
	Interlocks []Interlock
	Alarms     []Alarm
	Totals     Totals
}

func copyRoutes(routes []*TransferRoute) []TransferRoute {
	out := make([]TransferRoute, len(routes))
	for i, r := range routes {
		out[i] = *r
		out[i].ValveIDs = append([]string(nil), r.ValveIDs...)
	}
	return out
}

func copyProtection(r constraints.Result) constraints.Result {
	out := r
	out.EnforcedLimits = make(map[constraints.Variable]float64, len(r.EnforcedLimits))
	for k, v := range r.EnforcedLimits {
		out.EnforcedLimits[k] = v
	}
	out.Constraints = append([]constraints.ConstraintResult(nil), r.Constraints...)
	out.Interlocks = append([]constraints.InterlockResult(nil), r.Interlocks...)
	return out
}
