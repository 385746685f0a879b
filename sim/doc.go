// Package sim provides the tick-driven simulation engine for a liquid
// separation plant built around a decanter centrifuge.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - config.go: PlantConfig, the complete plant description, and its defaults
//   - engine.go: PlantSimulator, the Step loop and the operator interface
//   - separator.go: the centrifuge model coupling the physics to the flow network
//
// # Architecture
//
// The engine is a pure state machine: the caller owns the clock and drives
// the plant with Step(dt); the engine performs no IO, keeps no timers and
// spawns no goroutines. All randomness flows through a PartitionedRNG keyed
// by the configured seed, so equal seeds give bit-identical runs.
//
// Domain calculations live in sub-packages and are usable on their own:
//   - sim/physics/: settling, centrifugation and fluid-property correlations
//   - sim/control/: PID loops as pure state-transition functions
//   - sim/constraints/: warning constraints and trip interlocks
//   - sim/massbalance/: stream mass-balance validation and reporting
//
// # Tick Order
//
// Each Step runs the plant in a fixed order: raw feed arrival, PID loops,
// protection (on the previous tick's sensor readings), transfers along
// active routes, separation, tank settling, heaters, then the alarm scan.
// State between ticks lives entirely inside PlantSimulator; State() returns
// a detached snapshot safe to retain.
package sim
