/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the command-line interface for nvml-tune.
//
// # Usage
//
//	nvml-tune [--index N] [--tdp W] [--mclk-offset MHZ] [--gclk-offset MHZ]
//	          [--fan-speed PCT | --fan-curve "(T:D),(T:D),..."]
//	          [--fan-update-duration SEC] [--logfile PATH] [--config PATH]
//
// The command escalates to root (via sudo re-exec) before opening any
// file, resolves flags against the optional YAML profile, and delegates
// the actual tuning to pkg/tuner.
//
// # Exit codes
//
//	0  success, including interrupt-driven exit of the fan controller
//	1  fatal error: privilege, library load, NVML init, device handle,
//	   curve parse, or configuration failure
//
// # Environment variables
//
//	NVML_TUNE_INDEX   default GPU index
//	NVML_TUNE_CONFIG  default profile path
//	LOG_LEVEL         logging verbosity (debug, info, warn, error)
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/nvml-tune/pkg/cli.version=1.0.0'"
package cli
