package sim

// InterlockStatus is the lifecycle of a latched safety action.
type InterlockStatus string

const (
	InterlockHealthy  InterlockStatus = "healthy"
	InterlockTripped  InterlockStatus = "tripped"
	InterlockBypassed InterlockStatus = "bypassed"
)

// Interlock is one latched safety action. It trips automatically when its
// condition comes true and stays tripped until an explicit operator reset;
// the reset re-validates the condition first. Bypassing suppresses the
// enforcement but keeps the interlock visible.
type Interlock struct {
	ID            string
	Condition     string // human-readable tripping condition
	Action        string // what the trip enforces
	Status        InterlockStatus
	ResetRequired bool
	TrippedAtSim  float64 // simulation seconds of the latch, 0 if healthy
}
