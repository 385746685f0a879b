package sim

// waterCpJPerKgK approximates the mixture heat capacity; the streams here
// are predominantly water.
const waterCpJPerKgK = 4186.0

// ambientTempC is the surroundings temperature tanks lose heat toward.
const ambientTempC = 25.0

// heatLossPerHour is the fractional approach of a tank toward ambient per
// hour with the heater off.
const heatLossPerHour = 0.02

// Heater is an immersion heater on one tank. Its duty is either modulated
// by a temperature control loop or, with no loop bound, by a thermostat
// around the setpoint. Temperature moves at a duty-limited rate: a cold
// tank cannot jump to setpoint in one tick no matter the dt.
type Heater struct {
	ID        string
	TankID    string
	MaxDutyKW float64
	SetpointC float64

	DutyPct    float64 // 0..100, written by the bound control loop
	Thermostat bool    // true when no loop drives DutyPct

	EnergyKWh float64 // cumulative over the run
}

// thermostatDeadbandC keeps an unbound heater from chattering around the
// setpoint.
const thermostatDeadbandC = 0.5

// update applies heat to the tank for dt seconds and integrates energy.
// The tank also loses a little heat toward ambient, so holding setpoint
// costs nonzero duty.
func (h *Heater) update(t *Tank, dt float64, mixDensityKgM3 float64) {
	if h.Thermostat {
		switch {
		case t.TempC < h.SetpointC-thermostatDeadbandC:
			h.DutyPct = 100
		case t.TempC > h.SetpointC:
			h.DutyPct = 0
		}
	}

	massKg := t.VolumeM3 * mixDensityKgM3
	if massKg > 0 && h.DutyPct > 0 {
		dutyKW := h.MaxDutyKW * h.DutyPct / 100
		deltaC := dutyKW * 1000 * dt / (massKg * waterCpJPerKgK)
		// A heater cannot push the contents past its setpoint within a tick.
		if t.TempC+deltaC > h.SetpointC && t.TempC <= h.SetpointC {
			deltaC = h.SetpointC - t.TempC
		}
		t.TempC += deltaC
		h.EnergyKWh += dutyKW * dt / 3600
	}

	// Ambient loss, duty-independent.
	t.TempC -= (t.TempC - ambientTempC) * heatLossPerHour * dt / 3600
}
