// Package nvml wraps the vendor management library behind a small
// session with explicit lifecycle: Open prepares the binding, Init maps
// libnvidia-ml.so and initializes it, Device resolves a zero-based
// index to a handle, Shutdown releases everything. Shutdown is safe to
// defer immediately after Open; it only acts after a successful Init.
//
// The session owns the unit conversions the driver entry points demand:
// power limits are watts here and milliwatts at the driver, memory
// clock offsets are MHz here and half-MHz units at the driver. Both CLI
// and controller therefore speak plain watts and MHz.
//
// Driver return codes follow NVML convention: zero is success,
// everything else is surfaced as a classified error with the numeric
// code preserved for diagnostics.
package nvml
