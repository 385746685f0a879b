package massbalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matchedStreams is a balance envelope whose outlets sum back to the feed:
// 10200 kg/h of oily water splitting into centrate, cake and recovered oil.
func matchedStreams() Input {
	return Input{
		Feed:            Stream{TotalMassKgH: 10200, WaterKgH: 9690, OilKgH: 210, SolidsKgH: 300, TempC: 80, DensityKgM3: 1020, FlowM3h: 10},
		Centrate:        Stream{TotalMassKgH: 9553, WaterKgH: 9535, OilKgH: 10, SolidsKgH: 8, TempC: 78, DensityKgM3: 997, FlowM3h: 9.582},
		Cake:            Stream{TotalMassKgH: 450, WaterKgH: 155, OilKgH: 5, SolidsKgH: 290, TempC: 70, DensityKgM3: 1150, FlowM3h: 0.3913},
		OilRecoveredKgH: 195,
	}
}

func findAlert(res Result, code string) (Alert, bool) {
	for _, a := range res.Alerts {
		if a.Code == code {
			return a, true
		}
	}
	return Alert{}, false
}

func TestMatchedStreamsClose(t *testing.T) {
	res := Calculate(matchedStreams(), DefaultConfig())

	assert.Greater(t, res.ClosurePct, 95.0)
	assert.Equal(t, SeverityOK, res.Status)
	assert.True(t, res.Valid)
	assert.False(t, res.ToleranceExceeded)
	assert.Empty(t, res.Alerts)

	assert.True(t, res.Water.Valid)
	assert.True(t, res.Oil.Valid)
	assert.True(t, res.Solids.Valid)
	assert.InDelta(t, 100.0, res.Oil.ClosurePct, 0.01)
}

func TestInflatedCentrateExceedsTolerance(t *testing.T) {
	// GIVEN a centrate mass meter reading more out than came in:
	// feed 10 m3/h at 1020 kg/m3 against centrate 9 m3/h at 1005 kg/m3
	// plus cake 1.2 m3/h at 1200 kg/m3
	in := Input{
		Feed:            Stream{TotalMassKgH: 10200, WaterKgH: 9690, OilKgH: 210, SolidsKgH: 300, TempC: 80, DensityKgM3: 1020, FlowM3h: 10},
		Centrate:        Stream{TotalMassKgH: 9045, WaterKgH: 8990, OilKgH: 15, SolidsKgH: 40, TempC: 78, DensityKgM3: 1005, FlowM3h: 9},
		Cake:            Stream{TotalMassKgH: 1440, WaterKgH: 430, OilKgH: 10, SolidsKgH: 1000, TempC: 70, DensityKgM3: 1200, FlowM3h: 1.2},
		OilRecoveredKgH: 50,
	}

	res := Calculate(in, DefaultConfig())

	assert.True(t, res.ToleranceExceeded)
	assert.NotEqual(t, SeverityOK, res.Status)
	assert.False(t, res.Valid)
	assert.InDelta(t, 103.3, res.ClosurePct, 0.1)

	_, found := findAlert(res, CodeMassClosure)
	assert.True(t, found)
	assert.False(t, res.Oil.Valid)
}

func TestComponentSumMismatchRaisesAlarm(t *testing.T) {
	in := matchedStreams()
	in.Centrate.WaterKgH = 9600 // components no longer sum to the metered total

	res := Calculate(in, DefaultConfig())

	a, found := findAlert(res, CodeComponentSum)
	require.True(t, found)
	assert.Equal(t, SeverityAlarm, a.Severity)
	assert.Equal(t, "centrate", a.Stream)
	assert.False(t, res.Valid)
}

func TestImplausibleDensityRaisesAlarm(t *testing.T) {
	in := matchedStreams()
	in.Cake.DensityKgM3 = 400

	res := Calculate(in, DefaultConfig())

	a, found := findAlert(res, CodeStreamDensity)
	require.True(t, found)
	assert.Equal(t, SeverityAlarm, a.Severity)
	assert.Equal(t, SeverityAlarm, res.Status)
}

func TestFlowMeterDisagreementWarns(t *testing.T) {
	// GIVEN a feed flow meter drifting 5% against the mass meter
	in := matchedStreams()
	in.Feed.FlowM3h = 10.5

	res := Calculate(in, DefaultConfig())

	a, found := findAlert(res, CodeFlowDensity)
	require.True(t, found)
	assert.Equal(t, SeverityWarning, a.Severity)
	// warnings do not invalidate the balance
	assert.Equal(t, SeverityWarning, res.Status)
	assert.True(t, res.Valid)
}

func TestTemperatureOutsidePlausibleWarns(t *testing.T) {
	in := matchedStreams()
	in.Centrate.TempC = 170

	res := Calculate(in, DefaultConfig())

	a, found := findAlert(res, CodeStreamTemp)
	require.True(t, found)
	assert.Equal(t, SeverityWarning, a.Severity)
}

func TestZeroFeedIsFault(t *testing.T) {
	res := Calculate(Input{}, DefaultConfig())

	assert.Equal(t, SeverityFault, res.Status)
	assert.False(t, res.Valid)
	assert.True(t, res.ToleranceExceeded)
	_, found := findAlert(res, CodeNoFeed)
	assert.True(t, found)
}

func TestLowOilRecoveryGradesByDeviation(t *testing.T) {
	// GIVEN recovery at 75% of feed oil against a 90% target: past the
	// warning threshold, short of the alarm threshold
	in := matchedStreams()
	in.OilRecoveredKgH = 157.5

	res := Calculate(in, DefaultConfig())

	a, found := findAlert(res, CodeOilRecovery)
	require.True(t, found)
	assert.Equal(t, SeverityWarning, a.Severity)
}

func TestHighCentrateSolidsRaisesAlarm(t *testing.T) {
	// GIVEN centrate carrying 0.63% solids against a 0.5% target, beyond
	// the alarm threshold
	in := matchedStreams()
	in.Centrate.WaterKgH = 9483
	in.Centrate.SolidsKgH = 60

	res := Calculate(in, DefaultConfig())

	a, found := findAlert(res, CodeCentrateSolids)
	require.True(t, found)
	assert.Equal(t, SeverityAlarm, a.Severity)
}

func TestAuditHashTracksInputs(t *testing.T) {
	cfg := DefaultConfig()

	first := Calculate(matchedStreams(), cfg)
	second := Calculate(matchedStreams(), cfg)
	assert.Equal(t, first.AuditHash, second.AuditHash)
	assert.Len(t, first.AuditHash, 16)

	changed := matchedStreams()
	changed.OilRecoveredKgH += 0.001
	third := Calculate(changed, cfg)
	assert.NotEqual(t, first.AuditHash, third.AuditHash)
}
