package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeparator() *Separator {
	return &Separator{
		ID:                  "SEP-900",
		BowlRadiusM:         0.25,
		PondDepthM:          0.05,
		ClarifierLengthM:    1.2,
		DesignFlowM3h:       20,
		SpeedRPM:            3000,
		DiffSpeedRPM:        12,
		SolidsDensityKgM3:   2650,
		SolidsPSD:           PSDConfig{D10Micron: 5, D50Micron: 25, D90Micron: 120}.psd(),
		OilDensity15KgM3:    890,
		OilDropletD50Micron: 120,
		CakeMoistureFrac:    0.35,
		BearingTempC:        ambientTempC,
		MotorTempC:          ambientTempC,
	}
}

func oilyFeed() Composition {
	return Composition{Water: 0.95, Oil: 0.03, Solids: 0.02}
}

// === Separation ===

func TestSeparatorConservesVolumeAndPhases(t *testing.T) {
	s := testSeparator()
	inVol := 18.0 / 3600 // one second at 18 m3/h

	split := s.process(1, inVol, oilyFeed(), 80)

	// GIVEN a tick of feed, WHEN separated, THEN nothing appears or vanishes.
	total := split.CentrateM3 + split.CakeM3 + split.OilM3
	require.InDelta(t, inVol, total, 1e-12, "volume not conserved")

	waterIn := inVol * 0.95
	waterOut := split.CentrateM3*split.CentrateComp.Water + split.CakeM3*split.CakeComp.Water
	assert.InDelta(t, waterIn, waterOut, 1e-12, "water not conserved")

	oilIn := inVol * 0.03
	oilOut := split.CentrateM3*split.CentrateComp.Oil + split.OilM3
	assert.InDelta(t, oilIn, oilOut, 1e-12, "oil not conserved")

	solidsIn := inVol * 0.02
	solidsOut := split.CentrateM3*split.CentrateComp.Solids + split.CakeM3*split.CakeComp.Solids
	assert.InDelta(t, solidsIn, solidsOut, 1e-12, "solids not conserved")
}

func TestSeparatorPerformanceAtDesignPoint(t *testing.T) {
	s := testSeparator()

	s.process(1, 18.0/3600, oilyFeed(), 80)

	// Hot low-solids feed at design rate: the cut size lands around 10 µm
	// against a 25 µm median, most solids drop out, and free oil at 120 µm
	// rises so fast the capture cap binds.
	assert.InDelta(t, 18, s.InletFlowM3h, 1e-9)
	assert.Greater(t, s.CutSizeMicron.Value, 5.0)
	assert.Less(t, s.CutSizeMicron.Value, 20.0)
	assert.Greater(t, s.SolidsRemovalPct, 60.0)
	assert.Less(t, s.SolidsRemovalPct, 90.0)
	assert.InDelta(t, maxOilCaptureFrac*100, s.OilRecoveryPct, 1e-9)
	assert.Greater(t, s.OutletOilPPM, 100.0)
	assert.Less(t, s.OutletOilPPM, 2000.0)
}

func TestSeparatorCakeHoldsConfiguredMoisture(t *testing.T) {
	s := testSeparator()

	split := s.process(1, 18.0/3600, oilyFeed(), 80)

	require.Greater(t, split.CakeM3, 0.0)
	assert.InDelta(t, s.CakeMoistureFrac, split.CakeComp.Water, 1e-9)
	assert.InDelta(t, 1-s.CakeMoistureFrac, split.CakeComp.Solids, 1e-9)
}

func TestSeparatorColdViscousFeedSeparatesWorse(t *testing.T) {
	hot := testSeparator()
	hot.process(1, 18.0/3600, oilyFeed(), 85)

	cold := testSeparator()
	cold.process(1, 18.0/3600, oilyFeed(), 40)

	// Cold feed means higher viscosity, a larger cut size, less removal.
	assert.Greater(t, cold.CutSizeMicron.Value, hot.CutSizeMicron.Value)
	assert.Less(t, cold.SolidsRemovalPct, hot.SolidsRemovalPct)
}

func TestSeparatorOverloadShiftsCutSize(t *testing.T) {
	design := testSeparator()
	design.process(1, 18.0/3600, oilyFeed(), 80)

	overloaded := testSeparator()
	overloaded.process(1, 30.0/3600, oilyFeed(), 80)

	assert.Greater(t, overloaded.CutSizeMicron.Value, design.CutSizeMicron.Value)
	assert.Less(t, overloaded.SolidsRemovalPct, design.SolidsRemovalPct)
}

func TestSeparatorZeroSolidsFeed(t *testing.T) {
	s := testSeparator()

	split := s.process(1, 18.0/3600, Composition{Water: 0.97, Oil: 0.03}, 80)

	assert.Zero(t, split.CakeM3, "no solids in, no cake out")
	assert.InDelta(t, 18.0/3600, split.CentrateM3+split.OilM3, 1e-12)
}

// === Sensor Synthesis ===

func TestSeparatorSensorsTrackLoad(t *testing.T) {
	s := testSeparator()
	s.process(1, 18.0/3600, oilyFeed(), 80)
	s.updateSensors(1, rand.New(rand.NewSource(1)))

	// Zero configured noise: readings are exact functions of the load.
	solidsKgH := 18 * 0.02 * 2650.0
	assert.InDelta(t, 80+0.35*solidsKgH+2.5*12, s.TorqueNm, 1e-9)
	assert.InDelta(t, 0.6+2.4+0.3*solidsKgH/1000, s.VibrationMMs, 1e-9)
	assert.InDelta(t, 12+1.65*18+7, s.PowerKW, 1e-9)
	assert.InDelta(t, 101+8*18, s.FeedPressureKPa, 1e-9)
	assert.Greater(t, s.BearingTempC, ambientTempC, "bearings warm under load")
}

func TestSeparatorSensorNoiseDeterministic(t *testing.T) {
	run := func() float64 {
		s := testSeparator()
		s.SensorNoisePct = 1
		s.process(1, 18.0/3600, oilyFeed(), 80)
		s.updateSensors(1, rand.New(rand.NewSource(7)))
		return s.TorqueNm
	}

	first, second := run(), run()
	require.Equal(t, first, second, "same seed must give identical noisy readings")
	assert.NotEqual(t, 80+0.35*18*0.02*2650+2.5*12.0, first, "noise configured but reading exact")
}

func TestSeparatorRuntimeAccumulates(t *testing.T) {
	s := testSeparator()
	for i := 0; i < 7200; i++ {
		s.updateSensors(1, rand.New(rand.NewSource(1)))
	}
	assert.InDelta(t, 2.0, s.RuntimeH, 1e-9)
	assert.Greater(t, s.EnergyKWh, 0.0)

	stopped := testSeparator()
	stopped.SpeedRPM = 0
	stopped.updateSensors(1, rand.New(rand.NewSource(1)))
	assert.Zero(t, stopped.RuntimeH, "stopped bowl accrues no runtime")
}

// === Equipment State ===

func TestSeparatorEquipmentState(t *testing.T) {
	s := testSeparator()
	s.process(1, 18.0/3600, oilyFeed(), 80)
	s.updateSensors(1, rand.New(rand.NewSource(1)))

	eq := s.equipmentState()
	assert.Equal(t, s.SpeedRPM, eq.SpeedRPM)
	assert.Equal(t, s.TorqueNm, eq.TorqueNm)
	assert.Equal(t, s.InletFlowM3h, eq.FeedRateM3h)
	assert.Equal(t, 80.0, eq.FeedTempC)
	assert.Equal(t, s.PondDepthM, eq.PondDepthM)
	assert.Equal(t, s.RuntimeH, eq.RuntimeH)
}

func TestOutletOilPPMMassBasis(t *testing.T) {
	// 1000 ppm by volume of oil in near-water liquor converts to slightly
	// less by mass because oil is lighter.
	comp := Composition{Water: 0.999, Oil: 0.001}
	ppm := outletOilPPM(comp, 80, 890, 2650)

	assert.Greater(t, ppm, 700.0)
	assert.Less(t, ppm, 1000.0)
	assert.True(t, !math.IsNaN(ppm))
}
