package sim

import (
	"math"
	"testing"
)

func heaterTestTank(tempC float64) *Tank {
	t := &Tank{
		ID:         "T-910",
		CapacityM3: 10,
		TempC:      tempC,
		Comp:       Composition{Water: 1},
		Thresholds: Thresholds{LowLowPct: 5, LowPct: 15, HighPct: 85, HighHighPct: 95},
		Heated:     true,
		Vertical:   true,
	}
	t.setVolume(10)
	return t
}

func TestThermostatSwitchesAroundSetpoint(t *testing.T) {
	h := &Heater{ID: "H-900", TankID: "T-910", MaxDutyKW: 100, SetpointC: 50, Thermostat: true}

	cold := heaterTestTank(40)
	h.update(cold, 1, 1000)
	if h.DutyPct != 100 {
		t.Errorf("duty below setpoint = %v, want 100", h.DutyPct)
	}

	hot := heaterTestTank(51)
	h.update(hot, 1, 1000)
	if h.DutyPct != 0 {
		t.Errorf("duty above setpoint = %v, want 0", h.DutyPct)
	}

	// Inside the deadband the duty holds its last value.
	h.DutyPct = 100
	inBand := heaterTestTank(49.8)
	h.update(inBand, 1, 1000)
	if h.DutyPct != 100 {
		t.Errorf("duty inside deadband = %v, want held at 100", h.DutyPct)
	}
}

func TestHeaterWarmsTank(t *testing.T) {
	h := &Heater{ID: "H-901", TankID: "T-910", MaxDutyKW: 100, SetpointC: 50, Thermostat: true}
	tank := heaterTestTank(40)

	h.update(tank, 1, 1000)

	// 100 kW into 10000 kg of water: 100000/(10000*4186) K per second,
	// minus a small ambient loss.
	heatC := 100000.0 / (10000 * waterCpJPerKgK)
	lossC := (40 + heatC - ambientTempC) * heatLossPerHour / 3600
	want := 40 + heatC - lossC
	if math.Abs(tank.TempC-want) > 1e-9 {
		t.Errorf("temp = %v, want %v", tank.TempC, want)
	}
	if math.Abs(h.EnergyKWh-100.0/3600) > 1e-12 {
		t.Errorf("energy = %v kWh, want %v", h.EnergyKWh, 100.0/3600)
	}
}

func TestHeaterDoesNotOvershootSetpoint(t *testing.T) {
	// 5000 kW into 500 kg would raise ~2.4C per second unclamped.
	h := &Heater{ID: "H-902", TankID: "T-910", MaxDutyKW: 5000, SetpointC: 50, Thermostat: true}
	tank := heaterTestTank(49)
	tank.setVolume(0.5)

	h.update(tank, 1, 1000)

	if tank.TempC > 50 {
		t.Errorf("temp = %v, overshot the 50C setpoint within one tick", tank.TempC)
	}
	if tank.TempC < 49.9 {
		t.Errorf("temp = %v, want driven up to the setpoint", tank.TempC)
	}
}

func TestUnheatedTankCoolsTowardAmbient(t *testing.T) {
	h := &Heater{ID: "H-903", TankID: "T-910", MaxDutyKW: 100, SetpointC: 50, Thermostat: true}
	tank := heaterTestTank(80)

	before := tank.TempC
	for i := 0; i < 3600; i++ {
		h.update(tank, 1, 1000)
	}

	if tank.TempC >= before {
		t.Errorf("temp = %v, want below %v after an hour of losses", tank.TempC, before)
	}
	if tank.TempC < ambientTempC {
		t.Errorf("temp = %v, cooled below ambient %v", tank.TempC, ambientTempC)
	}
}

func TestLoopDrivenHeaterUsesGivenDuty(t *testing.T) {
	// With Thermostat false the duty comes from a control loop and update
	// must not touch it.
	h := &Heater{ID: "H-904", TankID: "T-910", MaxDutyKW: 100, SetpointC: 80, Thermostat: false, DutyPct: 37}
	tank := heaterTestTank(40)

	h.update(tank, 1, 1000)

	if h.DutyPct != 37 {
		t.Errorf("duty = %v, want untouched 37", h.DutyPct)
	}
	if tank.TempC <= 40 {
		t.Errorf("temp = %v, want warmed by the 37%% duty", tank.TempC)
	}
}
