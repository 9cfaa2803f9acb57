// Package tuner orchestrates a tuning run: NVML session lifecycle,
// one-shot power and clock setters, and the fan-curve controller.
//
// One-shot setters are applied exactly once, before the controller
// starts, and their driver failures are logged but never fatal. Fatal
// errors (library load, init, device handle) unwind to the CLI with the
// session shut down on the way out.
package tuner
