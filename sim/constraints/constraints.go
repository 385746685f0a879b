// Package constraints evaluates equipment operating envelopes: independent
// min/max constraints that cap a variable with a WARNING, and multi-condition
// safety interlocks that TRIP and force variables to safe values. Evaluation
// is a stateless pure function over a sensor snapshot; identical inputs
// always produce identical output. Latching and reset live in the engine,
// not here.
package constraints

// Variable names one sensor reading or manipulated variable.
type Variable string

const (
	VarSpeed        Variable = "speedRPM"
	VarTorque       Variable = "torqueNm"
	VarVibration    Variable = "vibrationMMs"
	VarBearingTemp  Variable = "bearingTempC"
	VarMotorTemp    Variable = "motorTempC"
	VarFeedRate     Variable = "feedRateM3h"
	VarFeedTemp     Variable = "feedTempC"
	VarFeedPressure Variable = "feedPressureKPa"
	VarPondDepth    Variable = "pondDepthM"
	VarDiffSpeed    Variable = "diffSpeedRPM"
	VarPower        Variable = "powerKW"
)

// Kind says which side of the limit is safe.
type Kind string

const (
	// KindMax rules violate/trip when the value rises above the limit.
	KindMax Kind = "max"
	// KindMin rules violate/trip when the value falls below the limit.
	KindMin Kind = "min"
)

// Status is the aggregate envelope classification.
type Status string

const (
	StatusOK      Status = "OK"
	StatusWarning Status = "WARNING"
	StatusTrip    Status = "TRIP"
)

// EquipmentState is a read-only snapshot of separator sensor readings.
type EquipmentState struct {
	SpeedRPM        float64
	TorqueNm        float64
	VibrationMMs    float64 // RMS velocity
	BearingTempC    float64
	MotorTempC      float64
	FeedRateM3h     float64
	FeedTempC       float64
	FeedPressureKPa float64
	PondDepthM      float64
	DiffSpeedRPM    float64
	PowerKW         float64
	RuntimeH        float64
}

// Constraint is one independent envelope rule. Exceeding it caps the
// variable at the limit and raises a warning; it never trips.
type Constraint struct {
	ID          string
	Description string
	Variable    Variable
	Limit       float64
	Kind        Kind
}

// Condition is one term of an interlock rule. All conditions of a rule must
// hold simultaneously for the rule to trip.
type Condition struct {
	Variable Variable
	Limit    float64
	Kind     Kind
}

// Action is a value forced onto a variable by a tripped interlock.
type Action struct {
	Variable Variable
	Value    float64
}

// InterlockRule is a safety rule: when every condition holds, the rule trips
// and its actions are enforced.
type InterlockRule struct {
	ID          string
	Description string
	Conditions  []Condition
	Actions     []Action
}

// ConstraintResult reports one constraint against the snapshot. Enforced is
// the capped value when violated, otherwise the measured value.
type ConstraintResult struct {
	Rule     Constraint
	Value    float64
	Violated bool
	Enforced float64
}

// InterlockResult reports one interlock rule against the snapshot.
type InterlockResult struct {
	Rule    InterlockRule
	Tripped bool
}

// Result is the full evaluation outcome. EnforcedLimits carries the most
// restrictive enforced value per variable across all violated constraints
// and tripped interlocks; variables inside their envelope are absent.
type Result struct {
	Status         Status
	AnyViolated    bool
	AnyTripped     bool
	EnforcedLimits map[Variable]float64
	Constraints    []ConstraintResult
	Interlocks     []InterlockResult
}

// Evaluate checks the snapshot against every constraint and interlock rule.
func Evaluate(eq EquipmentState, cs []Constraint, ils []InterlockRule) Result {
	res := Result{
		Status:         StatusOK,
		EnforcedLimits: make(map[Variable]float64),
		Constraints:    make([]ConstraintResult, 0, len(cs)),
		Interlocks:     make([]InterlockResult, 0, len(ils)),
	}
	// kinds remembers whether each enforced value is a cap or a floor, so
	// overlapping enforcements merge toward the restrictive side.
	kinds := make(map[Variable]Kind)

	for _, c := range cs {
		v := valueOf(eq, c.Variable)
		cr := ConstraintResult{Rule: c, Value: v, Enforced: v}
		if exceeded(v, c.Limit, c.Kind) {
			cr.Violated = true
			cr.Enforced = c.Limit
			res.AnyViolated = true
			enforce(res.EnforcedLimits, kinds, c.Variable, c.Limit, c.Kind)
		}
		res.Constraints = append(res.Constraints, cr)
	}

	for _, il := range ils {
		tripped := len(il.Conditions) > 0
		for _, cond := range il.Conditions {
			if !exceeded(valueOf(eq, cond.Variable), cond.Limit, cond.Kind) {
				tripped = false
				break
			}
		}
		res.Interlocks = append(res.Interlocks, InterlockResult{Rule: il, Tripped: tripped})
		if !tripped {
			continue
		}
		res.AnyTripped = true
		for _, a := range il.Actions {
			// Trip actions are hard caps regardless of rule kind.
			enforce(res.EnforcedLimits, kinds, a.Variable, a.Value, KindMax)
		}
	}

	switch {
	case res.AnyTripped:
		res.Status = StatusTrip
	case res.AnyViolated:
		res.Status = StatusWarning
	}
	return res
}

func exceeded(value, limit float64, kind Kind) bool {
	if kind == KindMin {
		return value < limit
	}
	return value > limit
}

// enforce merges a new enforced value into the per-variable map: caps keep
// the minimum, floors keep the maximum, and a cap displaces a floor on the
// same variable (trips win).
func enforce(limits map[Variable]float64, kinds map[Variable]Kind, v Variable, value float64, kind Kind) {
	cur, ok := limits[v]
	if !ok {
		limits[v] = value
		kinds[v] = kind
		return
	}
	switch {
	case kinds[v] == kind && kind == KindMax:
		if value < cur {
			limits[v] = value
		}
	case kinds[v] == kind && kind == KindMin:
		if value > cur {
			limits[v] = value
		}
	case kind == KindMax:
		limits[v] = value
		kinds[v] = KindMax
	}
}

func valueOf(eq EquipmentState, v Variable) float64 {
	switch v {
	case VarSpeed:
		return eq.SpeedRPM
	case VarTorque:
		return eq.TorqueNm
	case VarVibration:
		return eq.VibrationMMs
	case VarBearingTemp:
		return eq.BearingTempC
	case VarMotorTemp:
		return eq.MotorTempC
	case VarFeedRate:
		return eq.FeedRateM3h
	case VarFeedTemp:
		return eq.FeedTempC
	case VarFeedPressure:
		return eq.FeedPressureKPa
	case VarPondDepth:
		return eq.PondDepthM
	case VarDiffSpeed:
		return eq.DiffSpeedRPM
	case VarPower:
		return eq.PowerKW
	}
	return 0
}
