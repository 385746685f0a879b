package sim

// PumpKind distinguishes the hydraulic behavior of a pump.
type PumpKind string

const (
	PumpCentrifugal       PumpKind = "centrifugal"
	PumpProgressiveCavity PumpKind = "progressive-cavity"
)

// PumpStatus is the service state of a pump.
type PumpStatus string

const (
	PumpRunning     PumpStatus = "running"
	PumpStopped     PumpStatus = "stopped"
	PumpFault       PumpStatus = "fault"
	PumpMaintenance PumpStatus = "maintenance"
)

// Pump is one transfer pump. Flow is commanded by the route it serves;
// head, efficiency and power are recomputed from the flow every tick.
type Pump struct {
	ID     string
	Kind   PumpKind
	Status PumpStatus
	Source string
	Dest   string

	MaxFlowM3h float64
	MaxHeadM   float64

	FlowM3h       float64
	HeadM         float64
	EfficiencyPct float64
	PowerKW       float64

	EnergyKWh float64 // cumulative over the run
}

// waterRhoForPower is the density used in hydraulic power, kg/m3. Pump
// power is a cost-model input, not a balance term, so a fixed density is
// accurate enough.
const waterRhoForPower = 1000.0

// efficiencyCurve is piecewise linear over flow fraction of BEP. Efficiency
// increases with flow toward the best efficiency point at full flow.
var efficiencyCurve = []struct {
	flowFrac float64
	effPct   float64
}{
	{0.00, 25},
	{0.25, 45},
	{0.50, 62},
	{0.75, 73},
	{1.00, 78},
}

// pumpEfficiencyPct interpolates the efficiency curve at the given flow
// fraction, clamped to the curve's ends.
func pumpEfficiencyPct(flowFrac float64) float64 {
	if flowFrac <= efficiencyCurve[0].flowFrac {
		return efficiencyCurve[0].effPct
	}
	last := efficiencyCurve[len(efficiencyCurve)-1]
	if flowFrac >= last.flowFrac {
		return last.effPct
	}
	for i := 1; i < len(efficiencyCurve); i++ {
		lo, hi := efficiencyCurve[i-1], efficiencyCurve[i]
		if flowFrac <= hi.flowFrac {
			t := (flowFrac - lo.flowFrac) / (hi.flowFrac - lo.flowFrac)
			return lo.effPct + t*(hi.effPct-lo.effPct)
		}
	}
	return last.effPct
}

// updatePower recomputes head, efficiency and shaft power from the current
// flow, then integrates energy over dt seconds.
func (p *Pump) updatePower(dt float64) {
	if p.Status != PumpRunning || p.FlowM3h <= 0 || p.MaxFlowM3h <= 0 {
		p.HeadM = 0
		p.EfficiencyPct = 0
		p.PowerKW = 0
		return
	}
	frac := p.FlowM3h / p.MaxFlowM3h
	if frac > 1 {
		frac = 1
	}

	// Centrifugal head droops with the square of flow; a progressive-cavity
	// pump holds head across its range.
	p.HeadM = p.MaxHeadM
	if p.Kind == PumpCentrifugal {
		p.HeadM = p.MaxHeadM * (1 - 0.3*frac*frac)
	}

	p.EfficiencyPct = pumpEfficiencyPct(frac)

	// Hydraulic power in kW: rho*g*Q*H with Q in m3/s.
	hydraulicKW := waterRhoForPower * 9.81 * (p.FlowM3h / 3600) * p.HeadM / 1000
	p.PowerKW = hydraulicKW / (p.EfficiencyPct / 100)
	p.EnergyKWh += p.PowerKW * dt / 3600
}

// start puts the pump into service at the commanded flow, clamped to the
// pump's rating.
func (p *Pump) start(flowM3h float64) {
	if p.Status == PumpFault || p.Status == PumpMaintenance {
		return
	}
	if flowM3h > p.MaxFlowM3h {
		flowM3h = p.MaxFlowM3h
	}
	if flowM3h < 0 {
		flowM3h = 0
	}
	p.Status = PumpRunning
	p.FlowM3h = flowM3h
}

// stop takes the pump out of service.
func (p *Pump) stop() {
	if p.Status == PumpFault || p.Status == PumpMaintenance {
		return
	}
	p.Status = PumpStopped
	p.FlowM3h = 0
	p.PowerKW = 0
}
