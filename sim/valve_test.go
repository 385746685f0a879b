package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValveOpenCloseAndThrottle(t *testing.T) {
	v := &Valve{ID: "V-1", State: ValveClosed, FailSafe: FailSafeClosed}

	v.open()
	assert.Equal(t, ValveOpen, v.State)
	assert.Equal(t, 100.0, v.PositionPct)

	v.throttle(42)
	assert.Equal(t, ValveThrottled, v.State)
	assert.Equal(t, 42.0, v.PositionPct)

	// BDD: throttle clamps the requested position into 0..100
	v.throttle(150)
	assert.Equal(t, 100.0, v.PositionPct)
	v.throttle(-10)
	assert.Equal(t, 0.0, v.PositionPct)

	v.close()
	assert.Equal(t, ValveClosed, v.State)
	assert.Equal(t, 0.0, v.PositionPct)
}

func TestValveToFailSafeLatchesAgainstCommands(t *testing.T) {
	v := &Valve{ID: "V-1", State: ValveOpen, PositionPct: 100, FailSafe: FailSafeClosed}

	v.toFailSafe()
	assert.Equal(t, ValveClosed, v.State)
	assert.True(t, v.Interlocked)

	// Commands are ignored while the interlock holds the valve.
	v.open()
	assert.Equal(t, ValveClosed, v.State)
	v.throttle(50)
	assert.Equal(t, 0.0, v.PositionPct)

	v.release()
	v.open()
	assert.Equal(t, ValveOpen, v.State)
}

func TestValveFailSafeOpenPosition(t *testing.T) {
	v := &Valve{ID: "V-1", State: ValveClosed, FailSafe: FailSafeOpen}
	v.toFailSafe()
	assert.Equal(t, ValveOpen, v.State)
	assert.Equal(t, 100.0, v.PositionPct)
}

func TestValveFailedInPlaceIgnoresEverything(t *testing.T) {
	v := &Valve{ID: "V-1", State: ValveFailedOpen, PositionPct: 100, FailSafe: FailSafeClosed}

	v.close()
	assert.Equal(t, ValveFailedOpen, v.State)
	v.toFailSafe()
	assert.Equal(t, ValveFailedOpen, v.State)
	assert.False(t, v.Interlocked)
	assert.Equal(t, 100.0, v.PositionPct)
}
