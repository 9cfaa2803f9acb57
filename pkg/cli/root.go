/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/nvml-tune/pkg/config"
	"github.com/NVIDIA/nvml-tune/pkg/errors"
	"github.com/NVIDIA/nvml-tune/pkg/fan"
	"github.com/NVIDIA/nvml-tune/pkg/logging"
	"github.com/NVIDIA/nvml-tune/pkg/nvml"
	"github.com/NVIDIA/nvml-tune/pkg/privilege"
	"github.com/NVIDIA/nvml-tune/pkg/tuner"
)

const (
	name           = "nvml-tune"
	defaultLogfile = "nvml-tune.log"
)

// overridden during build with ldflags
var version = "dev"

// Execute runs the root command. Called by main.main. An interrupt
// signal cancels the command context; the controller treats that as a
// normal exit, so interrupted runs still exit 0.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Version:               version,
		EnableShellCompletion: true,
		Usage:                 "Tune a single NVIDIA GPU over NVML",
		Description: `Applies one-shot overrides to the power cap, memory clock offset,
graphics clock offset, and fan speed of one GPU, and optionally enforces
a piecewise-linear fan curve in a control loop until interrupted.

The fan curve is a comma-separated list of (temperature:duty) keypoints:

  nvml-tune --fan-curve "(0:20),(50:50),(100:100)"

Keypoints are de-duplicated (the louder duty wins), sorted, and anchored
at 0C and 100C when the ends are missing. The controller re-evaluates
the curve every --fan-update-duration seconds until Ctrl+C.

Settings are applied once and left in place on exit; there is no
rollback. The tool re-executes itself with sudo when not run as root.

# Examples

Cap power at 250W and undervolt-style clock offsets:

  nvml-tune --tdp 250 --mclk-offset 800 --gclk-offset -120

Enforce a fan curve on GPU 1, checking every 5 seconds:

  nvml-tune -i 1 -c "(30:0),(60:40),(80:100)" -r 5`,
		Flags: tuneFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// The gate must run before the log file is opened so the
			// elevated child, not the invoking user, owns the file.
			if err := privilege.Escalate(); err != nil {
				return err
			}

			opts, err := parseOptions(cmd)
			if err != nil {
				return err
			}

			sink, err := logging.OpenLogFile(opts.logfile)
			if err != nil {
				return err
			}
			defer sink.Close()

			logger := logging.SetDefault(name, version, opts.logLevel, sink)
			logger.Info("starting", "index", opts.settings.Index)

			return tuner.Run(ctx, opts.settings, logger)
		},
	}
}

func tuneFlags() []cli.Flag {
	return []cli.Flag{
		&cli.UintFlag{
			Name:    "index",
			Aliases: []string{"i"},
			Usage:   "Zero-based index of the GPU to tune",
			Sources: cli.EnvVars("NVML_TUNE_INDEX"),
			Value:   0,
		},
		&cli.UintFlag{
			Name:    "tdp",
			Aliases: []string{"t"},
			Usage:   "Power cap in watts (one-shot)",
		},
		&cli.IntFlag{
			Name:    "mclk-offset",
			Aliases: []string{"m"},
			Usage:   "Memory clock offset in MHz, may be negative (one-shot)",
		},
		&cli.IntFlag{
			Name:    "gclk-offset",
			Aliases: []string{"g"},
			Usage:   "Graphics clock offset in MHz, may be negative (one-shot)",
		},
		&cli.UintFlag{
			Name:    "fan-speed",
			Aliases: []string{"f"},
			Usage:   "Fixed fan duty in percent (one-shot, excludes --fan-curve)",
		},
		&cli.StringFlag{
			Name:    "fan-curve",
			Aliases: []string{"c"},
			Usage:   "Fan curve keypoints \"(T:D),(T:D),...\"; enables the controller",
		},
		&cli.UintFlag{
			Name:    "fan-update-duration",
			Aliases: []string{"r"},
			Usage:   "Seconds between fan curve evaluations",
			Value:   2,
		},
		&cli.StringFlag{
			Name:    "logfile",
			Aliases: []string{"l"},
			Usage:   "Path of the JSON log file (truncated on open)",
			Value:   defaultLogfile,
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Optional YAML profile providing defaults for all flags",
			Sources: cli.EnvVars("NVML_TUNE_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.EnvVars("LOG_LEVEL"),
			Value:   "info",
		},
	}
}

// options holds the fully resolved invocation.
type options struct {
	settings tuner.Settings
	logfile  string
	logLevel slog.Level
}

// parseOptions merges flags with the optional profile (explicit flags
// win), validates the combination, and parses the fan curve. All
// failures here are fatal.
func parseOptions(cmd *cli.Command) (*options, error) {
	var profile *config.Profile
	if path := cmd.String("config"); path != "" {
		p, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		profile = p
	}

	opts := &options{
		logfile: cmd.String("logfile"),
	}

	s := &opts.settings
	s.Index = int(cmd.Uint("index"))
	s.LibraryPath = nvml.DefaultLibraryPath
	s.Period = time.Duration(cmd.Uint("fan-update-duration")) * time.Second

	if cmd.IsSet("tdp") {
		v := uint(cmd.Uint("tdp"))
		s.PowerLimit = &v
	}
	if cmd.IsSet("mclk-offset") {
		v := int(cmd.Int("mclk-offset"))
		s.MemClockOffset = &v
	}
	if cmd.IsSet("gclk-offset") {
		v := int(cmd.Int("gclk-offset"))
		s.GraphicsClockOffset = &v
	}
	if cmd.IsSet("fan-speed") {
		v := uint(cmd.Uint("fan-speed"))
		s.FanDuty = &v
	}
	rawCurve := cmd.String("fan-curve")

	if profile != nil {
		if !cmd.IsSet("index") && profile.Index != nil {
			s.Index = int(*profile.Index)
		}
		if s.PowerLimit == nil && profile.TDP != nil {
			v := *profile.TDP
			s.PowerLimit = &v
		}
		if s.MemClockOffset == nil && profile.MclkOffset != nil {
			v := *profile.MclkOffset
			s.MemClockOffset = &v
		}
		if s.GraphicsClockOffset == nil && profile.GclkOffset != nil {
			v := *profile.GclkOffset
			s.GraphicsClockOffset = &v
		}
		// A fan setting given on the command line shadows the
		// profile's opposing one; the two never conflict across the
		// flag/profile boundary.
		if s.FanDuty == nil && rawCurve == "" && profile.FanSpeed != nil {
			v := *profile.FanSpeed
			s.FanDuty = &v
		}
		if rawCurve == "" && s.FanDuty == nil {
			rawCurve = profile.FanCurve
		}
		if !cmd.IsSet("fan-update-duration") && profile.FanUpdateDuration != nil {
			s.Period = time.Duration(*profile.FanUpdateDuration) * time.Second
		}
		if !cmd.IsSet("logfile") && profile.Logfile != "" {
			opts.logfile = profile.Logfile
		}
	}

	if s.FanDuty != nil && rawCurve != "" {
		return nil, errors.New(errors.KindConfig,
			"--fan-speed and --fan-curve are mutually exclusive")
	}
	if s.FanDuty != nil && *s.FanDuty > 100 {
		return nil, errors.Newf(errors.KindConfig,
			"--fan-speed %d exceeds 100%%", *s.FanDuty)
	}
	if s.Period <= 0 {
		s.Period = fan.DefaultPeriod
	}

	if rawCurve != "" {
		curve, err := fan.ParseCurve(rawCurve)
		if err != nil {
			return nil, err
		}
		s.Curve = curve
	}

	level := cmd.String("log-level")
	if profile != nil && !cmd.IsSet("log-level") && profile.LogLevel != "" {
		level = profile.LogLevel
	}
	parsed, err := logging.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(errors.KindConfig, "parsing log level", err)
	}
	opts.logLevel = parsed

	return opts, nil
}
