// Package fan implements the fan-curve subsystem: parsing a textual
// "(temp:duty),(temp:duty),..." description into a canonical
// piecewise-linear curve, and a control loop that tracks that curve
// against the live GPU temperature.
//
// # Canonical curves
//
// ParseCurve enforces the curve invariants at construction time:
//
//   - non-empty
//   - strictly increasing temperatures (duplicates collapse, max duty wins)
//   - first keypoint at temperature 0, last at temperature 100
//     (anchors (0,0) and (100,100) are inserted when missing)
//   - every temperature and duty within [0, 100]
//
// A single-point input is valid; the anchors turn it into a full curve.
//
// # Controller
//
// The controller is single-threaded and synchronous. Each iteration
// runs check -> read -> interpolate -> write -> sleep, and the sleep is
// preemptible by context cancellation, so Ctrl+C stops the loop within
// one period. Sensor-read and fan-write failures are non-fatal; the
// iteration is skipped and retried on the next tick. Exiting leaves the
// GPU in its last commanded state; there is no rollback.
package fan
