// Package logging configures structured logging for nvml-tune.
//
// The tool logs to two sinks at once: a human-readable text stream on
// stderr and a JSON log file. The JSON file is truncated on open and is
// created only after privilege escalation, so its owner matches the
// elevated process rather than the invoking user.
//
// Levels are parsed from the --log-level flag or the LOG_LEVEL
// environment variable (DEBUG, INFO, WARN, ERROR; default INFO).
//
// Typical wiring in main:
//
//	sink, err := logging.OpenLogFile("nvml-tune.log")
//	if err != nil { ... }
//	defer sink.Close()
//	logging.SetDefault("nvml-tune", version, slog.LevelInfo, sink)
//	slog.Info("starting", "index", 0)
//
// Every record carries module, version, and a per-run UUID so runs can
// be correlated in the JSON sink.
package logging
