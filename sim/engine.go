package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sepsim/sepsim/sim/constraints"
	"github.com/sepsim/sepsim/sim/control"
	"github.com/sepsim/sepsim/sim/massbalance"
	"github.com/sepsim/sepsim/sim/physics"
)

// MaxStepSeconds caps a single tick. Drivers wanting coarser simulated time
// call Step repeatedly; the physics correlations are not trustworthy over
// longer intervals.
const MaxStepSeconds = 1.0

// Alarm codes raised by the engine itself. Constraint and interlock alarms
// reuse the rule IDs as codes.
const (
	alarmCodeLevelHiHi  = "LVL-HIHI"
	alarmCodeLevelHi    = "LVL-HI"
	alarmCodeLevelLo    = "LVL-LO"
	alarmCodeLevelLoLo  = "LVL-LOLO"
	alarmCodeLoopFault  = "PID-FAULT"
	alarmCodeXferStop   = "XFER-STOP"
	alarmCodeXferReject = "XFER-REJECT"
)

const overfillInterlockPrefix = "IL-OVERFILL-"

// controlLoop binds one PID state to the thing it measures and actuates.
type controlLoop struct {
	kind   LoopKind
	target string
	cfg    control.Config
	st     control.State
}

// PlantSimulator is the tick-driven plant engine: tanks, pumps, valves and
// heaters around one decanter centrifuge, with PID loops, protection rules
// and an alarm annunciator. The caller owns the clock and drives the plant
// by calling Step; the engine performs no IO and spawns no goroutines, so a
// run is exactly reproducible from its seed.
//
// Not safe for concurrent use.
type PlantSimulator struct {
	RunID     string
	Clock     float64 // simulated seconds since start
	StepCount uint64

	cfg PlantConfig
	rng *PartitionedRNG

	tanks     []*Tank
	tankByID  map[string]*Tank
	pumps     []*Pump
	pumpByID  map[string]*Pump
	valves    []*Valve
	valveByID map[string]*Valve
	heaters   []*Heater
	routes    []*TransferRoute
	routeByID map[string]*TransferRoute

	separator *Separator
	feed      feedProgram
	loops     []*controlLoop

	constraintRules []constraints.Constraint
	interlockRules  []constraints.InterlockRule
	protection      constraints.Result

	latched        []*Interlock
	latchedByID    map[string]*Interlock
	latchedActions map[string][]constraints.Action

	alarms    *alarmLog
	prevBands map[string]levelBand

	totals        Totals
	samples       kpiSamples
	sepFeedMassKg float64
	cakeMassKg    float64
	lastBalance   massbalance.Input
}

// New builds a plant from its configuration. The configuration is validated
// and copied; later mutation of cfg by the caller does not affect the
// running plant.
func New(cfg PlantConfig) (*PlantSimulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Limits = fillLimits(cfg.Limits)

	ps := &PlantSimulator{
		RunID:          uuid.NewString(),
		cfg:            cfg,
		rng:            NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		tankByID:       make(map[string]*Tank),
		pumpByID:       make(map[string]*Pump),
		valveByID:      make(map[string]*Valve),
		routeByID:      make(map[string]*TransferRoute),
		latchedByID:    make(map[string]*Interlock),
		latchedActions: make(map[string][]constraints.Action),
		alarms:         newAlarmLog(),
		prevBands:      make(map[string]levelBand),
	}

	for _, tc := range cfg.Tanks {
		t := &Tank{
			ID:         tc.ID,
			CapacityM3: tc.CapacityM3,
			DiameterM:  tc.DiameterM,
			HeightM:    tc.HeightM,
			TempC:      tc.TempC,
			Comp:       tc.Comp.normalized(),
			Thresholds: tc.Thresholds,
			Heated:     tc.Heated,
			Agitated:   tc.Agitated,
			Vertical:   tc.Vertical,
		}
		t.setVolume(tc.LevelPct / 100 * tc.CapacityM3)
		ps.tanks = append(ps.tanks, t)
		ps.tankByID[t.ID] = t
		ps.prevBands[t.ID] = t.band()
	}
	for _, pc := range cfg.Pumps {
		p := &Pump{ID: pc.ID, Kind: pc.Kind, Status: PumpStopped, MaxFlowM3h: pc.MaxFlowM3h, MaxHeadM: pc.MaxHeadM}
		ps.pumps = append(ps.pumps, p)
		ps.pumpByID[p.ID] = p
	}
	for _, vc := range cfg.Valves {
		v := &Valve{ID: vc.ID, State: ValveClosed, FailSafe: vc.FailSafe}
		ps.valves = append(ps.valves, v)
		ps.valveByID[v.ID] = v
	}
	for _, rc := range cfg.Routes {
		r := &TransferRoute{
			ID:        rc.ID,
			Source:    rc.Source,
			Dest:      rc.Dest,
			PumpID:    rc.PumpID,
			ValveIDs:  append([]string(nil), rc.ValveIDs...),
			Permitted: true,
		}
		ps.routes = append(ps.routes, r)
		ps.routeByID[r.ID] = r
	}
	for _, hc := range cfg.Heaters {
		ps.heaters = append(ps.heaters, &Heater{
			ID:         hc.ID,
			TankID:     hc.TankID,
			MaxDutyKW:  hc.MaxDutyKW,
			SetpointC:  hc.SetpointC,
			Thermostat: hc.Thermostat,
		})
	}

	sc := cfg.Separator
	ps.separator = &Separator{
		ID:                  sc.ID,
		BowlRadiusM:         sc.BowlRadiusM,
		PondDepthM:          sc.PondDepthM,
		ClarifierLengthM:    sc.ClarifierLengthM,
		DesignFlowM3h:       sc.DesignFlowM3h,
		SpeedRPM:            sc.SpeedRPM,
		DiffSpeedRPM:        sc.DiffSpeedRPM,
		SolidsDensityKgM3:   sc.SolidsDensityKgM3,
		SolidsPSD:           sc.SolidsPSD.psd(),
		OilDensity15KgM3:    sc.OilDensity15KgM3,
		OilDropletD50Micron: sc.OilDropletD50Micron,
		CakeMoistureFrac:    sc.CakeMoistureFrac,
		SensorNoisePct:      sc.SensorNoisePct,
		BearingTempC:        ambientTempC,
		MotorTempC:          ambientTempC,
	}

	ps.feed = feedProgram{cfg: cfg.Feed, rng: ps.rng.ForSubsystem(SubsystemFeed)}

	for _, lc := range cfg.Loops {
		ccfg := lc.Tuning.controlConfig()
		st := control.NewState(lc.Tag, ccfg, lc.SP, ccfg.OPMin)
		mode := lc.Mode
		if mode == "" {
			mode = control.ModeAuto
		}
		st = control.SetMode(st, mode, ccfg)
		ps.loops = append(ps.loops, &controlLoop{kind: lc.Kind, target: lc.Target, cfg: ccfg, st: st})
	}

	ps.constraintRules = constraints.DefaultConstraints(cfg.Limits)
	ps.interlockRules = constraints.DefaultInterlocks(cfg.Limits)
	ps.protection = constraints.Evaluate(ps.separator.equipmentState(), ps.constraintRules, ps.interlockRules)

	logrus.Infof("plant %s initialized: %d tanks, %d pumps, %d routes, %d loops, seed %d",
		ps.RunID, len(ps.tanks), len(ps.pumps), len(ps.routes), len(ps.loops), cfg.Seed)
	return ps, nil
}

// fillLimits substitutes defaults for zero-valued limit fields so partial
// yaml files only override what they name.
func fillLimits(l constraints.Limits) constraints.Limits {
	d := constraints.DefaultLimits()
	if l.MaxSpeedRPM == 0 {
		l.MaxSpeedRPM = d.MaxSpeedRPM
	}
	if l.MaxTorqueNm == 0 {
		l.MaxTorqueNm = d.MaxTorqueNm
	}
	if l.TripTorqueNm == 0 {
		l.TripTorqueNm = d.TripTorqueNm
	}
	if l.MaxVibrationMMs == 0 {
		l.MaxVibrationMMs = d.MaxVibrationMMs
	}
	if l.TripVibrationMMs == 0 {
		l.TripVibrationMMs = d.TripVibrationMMs
	}
	if l.MaxBearingTempC == 0 {
		l.MaxBearingTempC = d.MaxBearingTempC
	}
	if l.TripBearingTempC == 0 {
		l.TripBearingTempC = d.TripBearingTempC
	}
	if l.MaxMotorTempC == 0 {
		l.MaxMotorTempC = d.MaxMotorTempC
	}
	if l.MaxFeedRateM3h == 0 {
		l.MaxFeedRateM3h = d.MaxFeedRateM3h
	}
	if l.MinFeedTempC == 0 {
		l.MinFeedTempC = d.MinFeedTempC
	}
	if l.MaxFeedPressureKPa == 0 {
		l.MaxFeedPressureKPa = d.MaxFeedPressureKPa
	}
	if l.MaxDiffSpeedRPM == 0 {
		l.MaxDiffSpeedRPM = d.MaxDiffSpeedRPM
	}
	if l.MaxPowerKW == 0 {
		l.MaxPowerKW = d.MaxPowerKW
	}
	return l
}

// Step advances the plant by dt seconds and returns the resulting snapshot.
// Order within a tick: feed arrival, control loops, protection, transfers,
// separation, settling, heating, then alarm scan. Protection acts on the
// sensor readings synthesized at the end of the previous tick, giving the
// one-tick detection lag a real system has.
func (ps *PlantSimulator) Step(dt float64) ProcessState {
	if math.IsNaN(dt) || dt <= 0 {
		logrus.Warnf("[t %.1fs] step rejected: invalid dt %v", ps.Clock, dt)
		return ps.snapshot()
	}
	if dt > MaxStepSeconds {
		logrus.Warnf("[t %.1fs] dt %.3fs clamped to %.1fs", ps.Clock, dt, MaxStepSeconds)
		dt = MaxStepSeconds
	}

	// Raw feed from upstream.
	if ps.cfg.Feed.TankID != "" {
		tank := ps.tankByID[ps.cfg.Feed.TankID]
		accepted, spilled := ps.feed.deliver(dt, tank)
		ps.totals.FeedInM3 += accepted
		ps.totals.FeedSpilledM3 += spilled
	}

	ps.runLoops(dt)
	ps.runProtection()
	sepVol, sepComp, sepTemp := ps.runTransfers(dt)
	ps.runSeparator(dt, sepVol, sepComp, sepTemp)
	ps.settleTanks(dt)
	ps.runHeaters(dt)
	ps.scanAlarms()

	ps.Clock += dt
	ps.StepCount++
	logrus.Debugf("[t %.1fs] step %d: sep feed %.3f m3, status %s",
		ps.Clock, ps.StepCount, sepVol, ps.protection.Status)
	return ps.snapshot()
}

// runLoops executes every PID loop. Loops calculate on every tick whether or
// not their actuator is currently listening, exactly as a DCS would.
func (ps *PlantSimulator) runLoops(dt float64) {
	for _, l := range ps.loops {
		switch l.kind {
		case LoopHeaterTemp:
			h := ps.heaterByID(l.target)
			if h == nil || h.Thermostat {
				continue
			}
			tank := ps.tankByID[h.TankID]
			var op float64
			l.st, op = control.Calculate(l.st, tank.TempC, l.cfg, dt)
			h.DutyPct = op
		case LoopFeedFlow:
			r := ps.routeByID[l.target]
			var op float64
			l.st, op = control.Calculate(l.st, r.DeliveredM3h, l.cfg, dt)
			if r.Active && !r.Interlocked {
				pump := ps.pumpByID[r.PumpID]
				r.FlowRateM3h = op / 100 * pump.MaxFlowM3h
			}
		}
	}
}

// runProtection evaluates the constraint and interlock rules against the
// separator's readings, latches fresh trips, and raises the matching
// alarms.
func (ps *PlantSimulator) runProtection() {
	eq := ps.separator.equipmentState()
	ps.protection = constraints.Evaluate(eq, ps.constraintRules, ps.interlockRules)

	for _, cr := range ps.protection.Constraints {
		if cr.Violated {
			ps.raiseAlarm(ps.separator.ID, cr.Rule.ID, PriorityMedium, cr.Rule.Description, cr.Value, cr.Rule.Limit)
		} else {
			ps.alarms.returned(ps.separator.ID, cr.Rule.ID)
		}
	}

	for _, ir := range ps.protection.Interlocks {
		if !ir.Tripped || ps.latchedByID[ir.Rule.ID] != nil {
			continue
		}
		ps.latchInterlock(ir.Rule)
	}

	// Latched speed caps pin the bowl; once every latch is reset the bowl
	// returns to its configured speed.
	speed := ps.cfg.Separator.SpeedRPM
	if limit, ok := ps.enforcedCap(constraints.VarSpeed); ok && limit < speed {
		speed = limit
	}
	ps.separator.SpeedRPM = speed
}

// latchInterlock records a tripped rule, applies its actions and isolates
// the feed path.
func (ps *PlantSimulator) latchInterlock(rule constraints.InterlockRule) {
	il := &Interlock{
		ID:            rule.ID,
		Condition:     rule.Description,
		Action:        actionSummary(rule.Actions),
		Status:        InterlockTripped,
		ResetRequired: true,
		TrippedAtSim:  ps.Clock,
	}
	ps.latched = append(ps.latched, il)
	ps.latchedByID[il.ID] = il
	ps.latchedActions[il.ID] = rule.Actions
	ps.totals.InterlockTrips++
	ps.raiseAlarm(ps.separator.ID, rule.ID, PriorityCritical, "interlock trip: "+rule.Description, 0, 0)
	logrus.Warnf("[t %.1fs] interlock %s tripped: %s", ps.Clock, rule.ID, rule.Description)

	if limit, ok := ps.enforcedCap(constraints.VarFeedRate); ok && limit <= 0 {
		for _, r := range ps.routes {
			if r.Active && r.feedsSeparator(ps.separator.ID) {
				ps.isolateRoute(r, "interlock "+rule.ID)
			}
		}
	}
}

// isolateRoute shuts a feeding route down hard: pump stopped, valves to
// fail-safe, route latched until the interlock resets.
func (ps *PlantSimulator) isolateRoute(r *TransferRoute, reason string) {
	ps.stopRoute(r)
	r.Interlocked = true
	for _, vid := range r.ValveIDs {
		ps.valveByID[vid].toFailSafe()
	}
	ps.raiseAlarm(r.ID, alarmCodeXferStop, PriorityHigh, "transfer isolated: "+reason, 0, 0)
}

// enforcedCap merges the live protection limits with every latched
// interlock's actions and returns the most restrictive cap for v.
func (ps *PlantSimulator) enforcedCap(v constraints.Variable) (float64, bool) {
	limit, ok := ps.protection.EnforcedLimits[v]
	for _, actions := range ps.latchedActions {
		for _, a := range actions {
			if a.Variable != v {
				continue
			}
			if !ok || a.Value < limit {
				limit, ok = a.Value, true
			}
		}
	}
	return limit, ok
}

// runTransfers moves material along every active route and returns the
// combined volume, composition and temperature delivered to the separator
// this tick.
func (ps *PlantSimulator) runTransfers(dt float64) (float64, Composition, float64) {
	var sepVol, sepTemp float64
	var sepComp Composition

	feedCap, feedCapped := ps.enforcedCap(constraints.VarFeedRate)

	for _, r := range ps.routes {
		if !r.Active {
			r.DeliveredM3h = 0
			continue
		}
		pump := ps.pumpByID[r.PumpID]
		rate := r.FlowRateM3h
		if rate > pump.MaxFlowM3h {
			rate = pump.MaxFlowM3h
		}
		if r.feedsSeparator(ps.separator.ID) && feedCapped && rate > feedCap {
			rate = feedCap
		}
		want := rate * dt / 3600

		src := ps.tankByID[r.Source]
		if dst, isTank := ps.tankByID[r.Dest]; isTank {
			want = minFloat(want, dst.freeM3())
			moved, comp, temp := src.removeVolume(want)
			dst.addVolume(moved, comp, temp)
			r.DeliveredM3h = moved * 3600 / dt
		} else {
			moved, comp, temp := src.removeVolume(want)
			if moved > 0 {
				sepComp = blendComp(sepComp, sepVol, comp, moved)
				sepTemp = (sepTemp*sepVol + temp*moved) / (sepVol + moved)
				sepVol += moved
			}
			r.DeliveredM3h = moved * 3600 / dt
		}

		pump.FlowM3h = r.DeliveredM3h
		pump.updatePower(dt)

		// Post-move level checks stop a transfer before it empties the
		// source or floods the destination.
		if dst, isTank := ps.tankByID[r.Dest]; isTank && dst.band() == bandHighHigh {
			ps.stopRoute(r)
			ps.latchOverfill(dst)
			ps.raiseAlarm(r.ID, alarmCodeXferStop, PriorityCritical,
				fmt.Sprintf("transfer stopped: %s level high-high", dst.ID), dst.LevelPct, dst.Thresholds.HighHighPct)
		} else if src.band() == bandLowLow {
			ps.stopRoute(r)
			ps.raiseAlarm(r.ID, alarmCodeXferStop, PriorityHigh,
				fmt.Sprintf("transfer stopped: %s level low-low", src.ID), src.LevelPct, src.Thresholds.LowLowPct)
		}
	}
	return sepVol, sepComp, sepTemp
}

// latchOverfill records a destination high-high latch. Restarting a
// transfer into the tank needs an explicit reset even after the level
// drops.
func (ps *PlantSimulator) latchOverfill(t *Tank) {
	id := overfillInterlockPrefix + t.ID
	if ps.latchedByID[id] != nil {
		return
	}
	il := &Interlock{
		ID:            id,
		Condition:     fmt.Sprintf("%s level above high-high (%.0f%%)", t.ID, t.Thresholds.HighHighPct),
		Action:        "block transfers into " + t.ID,
		Status:        InterlockTripped,
		ResetRequired: true,
		TrippedAtSim:  ps.Clock,
	}
	ps.latched = append(ps.latched, il)
	ps.latchedByID[id] = il
	ps.totals.InterlockTrips++
	ps.raiseAlarm(t.ID, id, PriorityCritical, il.Condition, t.LevelPct, t.Thresholds.HighHighPct)
}

// runSeparator pushes this tick's feed through the bowl and distributes the
// products. With the bowl stopped the material passes to the centrate tank
// unseparated.
func (ps *PlantSimulator) runSeparator(dt, vol float64, comp Composition, tempC float64) {
	s := ps.separator
	if vol <= 0 {
		s.InletFlowM3h = 0
		s.SkimRateM3h = 0
		s.updateSensors(dt, ps.rng.ForSubsystem(SubsystemSensors))
		return
	}

	if s.SpeedRPM <= 0 {
		if t := ps.tankByID[ps.cfg.Separator.CentrateTank]; t != nil {
			accepted := t.addVolume(vol, comp, tempC)
			ps.totals.ProductSpilledM3 += vol - accepted
		}
		s.InletFlowM3h = vol * 3600 / dt
		s.InletComp = comp.normalized()
		s.InletTempC = tempC
		s.updateSensors(dt, ps.rng.ForSubsystem(SubsystemSensors))
		return
	}

	split := s.process(dt, vol, comp, tempC)
	ps.totals.SepFeedM3 += vol
	ps.sepFeedMassKg += vol * ps.mixDensityKgM3(s.InletComp, tempC)

	if t := ps.tankByID[ps.cfg.Separator.CentrateTank]; t != nil && split.CentrateM3 > 0 {
		accepted := t.addVolume(split.CentrateM3, split.CentrateComp, split.TempC)
		ps.totals.CentrateM3 += accepted
		ps.totals.ProductSpilledM3 += split.CentrateM3 - accepted
	}
	if t := ps.tankByID[ps.cfg.Separator.CakeTank]; t != nil && split.CakeM3 > 0 {
		accepted := t.addVolume(split.CakeM3, split.CakeComp, split.TempC)
		ps.totals.CakeM3 += accepted
		ps.totals.ProductSpilledM3 += split.CakeM3 - accepted
		ps.cakeMassKg += split.CakeM3 * ps.mixDensityKgM3(split.CakeComp, split.TempC)
	}
	if t := ps.tankByID[ps.cfg.Separator.OilTank]; t != nil && split.OilM3 > 0 {
		oilComp := Composition{Oil: 1}
		accepted := t.addVolume(split.OilM3, oilComp, split.TempC)
		ps.totals.OilRecoveredM3 += accepted
		ps.totals.ProductSpilledM3 += split.OilM3 - accepted
	}

	ps.samples.record(s)
	ps.lastBalance = ps.balanceFromSplit(dt, vol, split)
	s.updateSensors(dt, ps.rng.ForSubsystem(SubsystemSensors))
}

// settleTanks lets quiescent vertical tanks clarify. Velocities come from
// the same correlations the separator uses, at each tank's temperature.
func (ps *PlantSimulator) settleTanks(dt float64) {
	sc := ps.cfg.Separator
	for _, t := range ps.tanks {
		if t.Agitated || !t.Vertical || t.VolumeM3 <= 0 {
			continue
		}
		fluid := physics.FluidProps{
			Density:   physics.WaterDensity(t.TempC),
			Viscosity: physics.Viscosity(t.TempC, t.Comp.Solids*100),
		}
		oilRho := physics.OilDensity(t.TempC, physics.Measured(sc.OilDensity15KgM3, "kg/m3"))
		rise := physics.RiseVelocity(sc.OilDropletD50Micron, oilRho, fluid)
		fall, _ := physics.CorrectedSettlingVelocity(sc.SolidsPSD.D50Micron,
			physics.Measured(sc.SolidsDensityKgM3, "kg/m3"), fluid)
		t.settle(dt, rise.Value, fall.Value)
	}
}

func (ps *PlantSimulator) runHeaters(dt float64) {
	for _, h := range ps.heaters {
		tank := ps.tankByID[h.TankID]
		h.update(tank, dt, ps.mixDensityKgM3(tank.Comp, tank.TempC))
	}
}

// scanAlarms raises and returns level alarms on band transitions and loop
// fault alarms on PID diagnostics.
func (ps *PlantSimulator) scanAlarms() {
	for _, t := range ps.tanks {
		now := t.band()
		prev := ps.prevBands[t.ID]
		if now == prev {
			continue
		}
		if code, _ := bandAlarm(prev); code != "" {
			ps.alarms.returned(t.ID, code)
		}
		if code, prio := bandAlarm(now); code != "" {
			ps.raiseAlarm(t.ID, code, prio,
				fmt.Sprintf("%s level %s", t.ID, bandName(now)), t.LevelPct, bandLimit(t, now))
		}
		ps.prevBands[t.ID] = now
	}
	for _, l := range ps.loops {
		if l.st.Fault {
			ps.raiseAlarm(l.st.Tag, alarmCodeLoopFault, PriorityHigh,
				fmt.Sprintf("loop %s fault: %s", l.st.Tag, l.st.FaultCode), l.st.PV, 0)
		} else {
			ps.alarms.returned(l.st.Tag, alarmCodeLoopFault)
		}
	}
}

func bandAlarm(b levelBand) (string, AlarmPriority) {
	switch b {
	case bandHighHigh:
		return alarmCodeLevelHiHi, PriorityCritical
	case bandLowLow:
		return alarmCodeLevelLoLo, PriorityHigh
	case bandHigh:
		return alarmCodeLevelHi, PriorityMedium
	case bandLow:
		return alarmCodeLevelLo, PriorityLow
	}
	return "", PriorityLow
}

func bandName(b levelBand) string {
	switch b {
	case bandHighHigh:
		return "high-high"
	case bandLowLow:
		return "low-low"
	case bandHigh:
		return "high"
	case bandLow:
		return "low"
	}
	return "normal"
}

func bandLimit(t *Tank, b levelBand) float64 {
	switch b {
	case bandHighHigh:
		return t.Thresholds.HighHighPct
	case bandLowLow:
		return t.Thresholds.LowLowPct
	case bandHigh:
		return t.Thresholds.HighPct
	case bandLow:
		return t.Thresholds.LowPct
	}
	return 0
}

func (ps *PlantSimulator) raiseAlarm(tag, code string, prio AlarmPriority, msg string, value, limit float64) {
	before := ps.alarms.raised
	ps.alarms.raise(ps.Clock, tag, code, prio, msg, value, limit)
	ps.totals.AlarmsRaised += ps.alarms.raised - before
}

// === Operator interface ===

// StartTransfer activates a route at the requested rate. It refuses, with
// an alarm stating why, when the route is latched out, the pump is busy, a
// valve has failed, the destination is at high-high, the source is at
// low-low, or the separator is not spinning for a feed route.
func (ps *PlantSimulator) StartTransfer(routeID string, flowM3h float64) bool {
	r, ok := ps.routeByID[routeID]
	if !ok {
		logrus.Warnf("StartTransfer: unknown route %q", routeID)
		return false
	}
	if r.Active {
		r.FlowRateM3h = flowM3h
		return true
	}
	if refusal := ps.transferRefusal(r, flowM3h); refusal != "" {
		ps.raiseAlarm(r.ID, alarmCodeXferReject, PriorityMedium, "start refused: "+refusal, 0, 0)
		logrus.Warnf("[t %.1fs] StartTransfer %s refused: %s", ps.Clock, r.ID, refusal)
		return false
	}

	pump := ps.pumpByID[r.PumpID]
	pump.Source = r.Source
	pump.Dest = r.Dest
	pump.start(flowM3h)
	for _, vid := range r.ValveIDs {
		ps.valveByID[vid].open()
	}
	r.Active = true
	r.FlowRateM3h = minFloat(flowM3h, pump.MaxFlowM3h)
	logrus.Infof("[t %.1fs] transfer %s started at %.1f m3/h", ps.Clock, r.ID, r.FlowRateM3h)
	return true
}

// transferRefusal returns the first reason the route must not start, or ""
// when it may.
func (ps *PlantSimulator) transferRefusal(r *TransferRoute, flowM3h float64) string {
	if !r.Permitted {
		return "route not permitted"
	}
	if r.Interlocked {
		return "route latched by interlock"
	}
	if flowM3h <= 0 {
		return fmt.Sprintf("flow %.2f m3/h not positive", flowM3h)
	}
	for _, other := range ps.routes {
		if other != r && other.Active && other.PumpID == r.PumpID {
			return "pump " + r.PumpID + " already serving " + other.ID
		}
	}
	for _, vid := range r.ValveIDs {
		if ps.valveByID[vid].failed() {
			return "valve " + vid + " failed"
		}
	}
	if src := ps.tankByID[r.Source]; src.band() == bandLowLow {
		return r.Source + " at low-low level"
	}
	if dst, isTank := ps.tankByID[r.Dest]; isTank {
		if dst.band() == bandHighHigh {
			return r.Dest + " at high-high level"
		}
		if ps.latchedByID[overfillInterlockPrefix+r.Dest] != nil {
			return r.Dest + " overfill latch not reset"
		}
	} else {
		if ps.separator.SpeedRPM <= 0 {
			return "separator not at speed"
		}
		if limit, ok := ps.enforcedCap(constraints.VarFeedRate); ok && limit <= 0 {
			return "feed blocked by interlock"
		}
	}
	return ""
}

// StopTransfer deactivates a route. Stopping an inactive route is a no-op
// returning true; only unknown routes return false.
func (ps *PlantSimulator) StopTransfer(routeID string) bool {
	r, ok := ps.routeByID[routeID]
	if !ok {
		logrus.Warnf("StopTransfer: unknown route %q", routeID)
		return false
	}
	if r.Active {
		ps.stopRoute(r)
		logrus.Infof("[t %.1fs] transfer %s stopped", ps.Clock, r.ID)
	}
	return true
}

// stopRoute deactivates the route, closing its valves and stopping its pump
// unless another active route still needs the pump.
func (ps *PlantSimulator) stopRoute(r *TransferRoute) {
	r.Active = false
	r.FlowRateM3h = 0
	r.DeliveredM3h = 0
	shared := false
	for _, other := range ps.routes {
		if other != r && other.Active && other.PumpID == r.PumpID {
			shared = true
		}
	}
	if !shared {
		ps.pumpByID[r.PumpID].stop()
	}
	for _, vid := range r.ValveIDs {
		ps.valveByID[vid].close()
	}
}

// AcknowledgeAlarm and ShelveAlarm forward to the annunciator.
func (ps *PlantSimulator) AcknowledgeAlarm(id uint64) bool { return ps.alarms.acknowledge(id) }
func (ps *PlantSimulator) ShelveAlarm(id uint64) bool      { return ps.alarms.shelve(id) }

// ResetInterlock clears a latched interlock after re-validating that its
// condition is gone. A reset attempt while the condition persists fails and
// re-raises the alarm.
func (ps *PlantSimulator) ResetInterlock(id string) bool {
	il := ps.latchedByID[id]
	if il == nil {
		logrus.Warnf("ResetInterlock: %q not latched", id)
		return false
	}

	if tankID, isOverfill := strings.CutPrefix(id, overfillInterlockPrefix); isOverfill {
		t := ps.tankByID[tankID]
		if t != nil && t.band() == bandHighHigh {
			ps.raiseAlarm(tankID, id, PriorityCritical, "reset refused: level still high-high", t.LevelPct, t.Thresholds.HighHighPct)
			return false
		}
		ps.unlatch(id)
		ps.alarms.returned(tankID, id)
		logrus.Infof("[t %.1fs] interlock %s reset", ps.Clock, id)
		return true
	}

	res := constraints.Evaluate(ps.separator.equipmentState(), nil, ps.interlockRules)
	for _, ir := range res.Interlocks {
		if ir.Rule.ID == id && ir.Tripped {
			ps.raiseAlarm(ps.separator.ID, id, PriorityCritical, "reset refused: "+ir.Rule.Description, 0, 0)
			return false
		}
	}
	ps.unlatch(id)
	ps.alarms.returned(ps.separator.ID, id)

	// Release the feed path once no remaining latch blocks it.
	if limit, ok := ps.enforcedCap(constraints.VarFeedRate); !ok || limit > 0 {
		for _, r := range ps.routes {
			if r.feedsSeparator(ps.separator.ID) && r.Interlocked {
				r.Interlocked = false
				for _, vid := range r.ValveIDs {
					ps.valveByID[vid].release()
				}
			}
		}
	}
	logrus.Infof("[t %.1fs] interlock %s reset", ps.Clock, id)
	return true
}

func (ps *PlantSimulator) unlatch(id string) {
	delete(ps.latchedByID, id)
	delete(ps.latchedActions, id)
	for i, il := range ps.latched {
		if il.ID == id {
			ps.latched = append(ps.latched[:i], ps.latched[i+1:]...)
			break
		}
	}
}

// SetLoopSetpoint requests a new setpoint for the named loop.
func (ps *PlantSimulator) SetLoopSetpoint(tag string, sp float64) bool {
	for _, l := range ps.loops {
		if l.st.Tag == tag {
			l.st = control.SetSetpoint(l.st, sp, l.cfg)
			return true
		}
	}
	logrus.Warnf("SetLoopSetpoint: unknown loop %q", tag)
	return false
}

// SetLoopMode switches the named loop's mode.
func (ps *PlantSimulator) SetLoopMode(tag string, mode control.Mode) bool {
	for _, l := range ps.loops {
		if l.st.Tag == tag {
			l.st = control.SetMode(l.st, mode, l.cfg)
			return true
		}
	}
	logrus.Warnf("SetLoopMode: unknown loop %q", tag)
	return false
}

// === Reporting ===

// State returns a detached snapshot of the whole plant.
func (ps *PlantSimulator) State() ProcessState { return ps.snapshot() }

func (ps *PlantSimulator) snapshot() ProcessState {
	st := ProcessState{
		RunID:     ps.RunID,
		SimTimeS:  ps.Clock,
		StepCount: ps.StepCount,
		Separator: *ps.separator,
		Routes:    copyRoutes(ps.routes),
		Totals:    ps.totals,
	}
	for _, t := range ps.tanks {
		st.Tanks = append(st.Tanks, *t)
	}
	for _, p := range ps.pumps {
		st.Pumps = append(st.Pumps, *p)
	}
	for _, v := range ps.valves {
		st.Valves = append(st.Valves, *v)
	}
	for _, h := range ps.heaters {
		st.Heaters = append(st.Heaters, *h)
	}
	for _, l := range ps.loops {
		st.Loops = append(st.Loops, LoopStatus{Kind: l.kind, Target: l.target, State: l.st})
	}
	for _, il := range ps.latched {
		st.Interlocks = append(st.Interlocks, *il)
	}
	st.Protection = copyProtection(ps.protection)
	st.Alarms = ps.alarms.snapshot()
	st.Totals.EnergyKWh = ps.energyKWh()
	return st
}

func (ps *PlantSimulator) energyKWh() float64 {
	total := ps.separator.EnergyKWh
	for _, p := range ps.pumps {
		total += p.EnergyKWh
	}
	for _, h := range ps.heaters {
		total += h.EnergyKWh
	}
	return total
}

// KPIs summarizes the run so far.
func (ps *PlantSimulator) KPIs() ProcessKPIs {
	k := ProcessKPIs{
		RunID:            ps.RunID,
		SimTimeS:         ps.Clock,
		SolidsRemovalPct: summarize(ps.samples.removalPct),
		OilRecoveryPct:   summarize(ps.samples.recoveryPct),
		OutletOilPPM:     summarize(ps.samples.outletPPM),
		SepFeedM3h:       summarize(ps.samples.sepFeedM3h),
		FeedTempC:        summarize(ps.samples.feedTempC),
		Totals:           ps.totals,
	}
	k.Totals.EnergyKWh = ps.energyKWh()
	if ps.totals.SepFeedM3 > 0 {
		k.SpecificEnergyKWhM3 = k.Totals.EnergyKWh / ps.totals.SepFeedM3
	}
	if ps.StepCount > 0 {
		k.UptimePct = float64(ps.samples.fedSteps) / float64(ps.StepCount) * 100
	}
	return k
}

// Costs prices the run so far.
func (ps *PlantSimulator) Costs() OperationalCostBreakdown {
	t := ps.totals
	t.EnergyKWh = ps.energyKWh()
	return computeCosts(ps.cfg.Costs, ps.cfg.Chemicals, t, ps.separator.RuntimeH, ps.sepFeedMassKg, ps.cakeMassKg)
}

// BalanceInput returns the mass-flow streams of the most recent separated
// tick, ready for the massbalance validator. Before the first separated
// tick the streams are zero.
func (ps *PlantSimulator) BalanceInput() massbalance.Input { return ps.lastBalance }

func (ps *PlantSimulator) balanceFromSplit(dt, feedVol float64, split separatorSplit) massbalance.Input {
	s := ps.separator
	oilRho := physics.OilDensity(split.TempC, physics.Measured(s.OilDensity15KgM3, "kg/m3")).Value
	return massbalance.Input{
		Feed:            ps.streamFromVol(dt, feedVol, s.InletComp, s.InletTempC),
		Centrate:        ps.streamFromVol(dt, split.CentrateM3, split.CentrateComp, split.TempC),
		Cake:            ps.streamFromVol(dt, split.CakeM3, split.CakeComp, split.TempC),
		OilRecoveredKgH: split.OilM3 * 3600 / dt * oilRho,
	}
}

func (ps *PlantSimulator) streamFromVol(dt, vol float64, comp Composition, tempC float64) massbalance.Stream {
	flow := vol * 3600 / dt
	waterRho := physics.WaterDensity(tempC).Value
	oilRho := physics.OilDensity(tempC, physics.Measured(ps.cfg.Separator.OilDensity15KgM3, "kg/m3")).Value
	solidsRho := ps.cfg.Separator.SolidsDensityKgM3
	water := flow * comp.Water * waterRho
	oil := flow * comp.Oil * oilRho
	solids := flow * comp.Solids * solidsRho
	return massbalance.Stream{
		TotalMassKgH: water + oil + solids,
		WaterKgH:     water,
		OilKgH:       oil,
		SolidsKgH:    solids,
		TempC:        tempC,
		DensityKgM3:  ps.mixDensityKgM3(comp, tempC),
		FlowM3h:      flow,
	}
}

func (ps *PlantSimulator) mixDensityKgM3(comp Composition, tempC float64) float64 {
	waterRho := physics.WaterDensity(tempC).Value
	oilRho := physics.OilDensity(tempC, physics.Measured(ps.cfg.Separator.OilDensity15KgM3, "kg/m3")).Value
	return comp.Water*waterRho + comp.Oil*oilRho + comp.Solids*ps.cfg.Separator.SolidsDensityKgM3
}

func (ps *PlantSimulator) heaterByID(id string) *Heater {
	for _, h := range ps.heaters {
		if h.ID == id {
			return h
		}
	}
	return nil
}

func actionSummary(actions []constraints.Action) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		parts = append(parts, fmt.Sprintf("%s=%g", a.Variable, a.Value))
	}
	return strings.Join(parts, ", ")
}

func blendComp(a Composition, aVol float64, b Composition, bVol float64) Composition {
	total := aVol + bVol
	if total <= 0 {
		return a
	}
	return Composition{
		Water:  (a.Water*aVol + b.Water*bVol) / total,
		Oil:    (a.Oil*aVol + b.Oil*bVol) / total,
		Solids: (a.Solids*aVol + b.Solids*bVol) / total,
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
