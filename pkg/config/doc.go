// Package config loads the optional YAML profile referenced by the
// --config flag. The profile carries the same settings as the CLI
// flags; flag values given explicitly on the command line win over
// profile values. There is no auto-discovery: no --config, no file.
package config
