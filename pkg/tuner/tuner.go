package tuner

import (
	"context"
	"log/slog"
	"time"

	"github.com/NVIDIA/nvml-tune/pkg/fan"
	"github.com/NVIDIA/nvml-tune/pkg/nvml"
)

// Settings is the fully resolved tuning request: flags merged with the
// optional profile, curve already parsed. Nil one-shot fields mean
// "do not touch".
type Settings struct {
	Index       int
	LibraryPath string

	PowerLimit          *uint // watts
	MemClockOffset      *int  // MHz, may be negative
	GraphicsClockOffset *int  // MHz, may be negative
	FanDuty             *uint // fixed duty percent, one-shot

	Curve  fan.Curve // non-nil enables the controller
	Period time.Duration
}

// Device is the slice of the NVML session the tuner drives.
type Device interface {
	SetPowerLimit(watts uint32) error
	SetMemClockOffset(mhz int) error
	SetGraphicsClockOffset(mhz int) error
	Temperature() (int, error)
	SetFanDuty(percent int) error
}

// Run opens the NVML session, applies the requested one-shot settings,
// and, when a curve is configured, drives the fan controller until ctx
// is canceled. Session shutdown runs on every path after a successful
// init. The returned error is always fatal; recoverable driver failures
// are logged and absorbed.
func Run(ctx context.Context, s Settings, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	session := nvml.Open(s.LibraryPath)
	if err := session.Init(); err != nil {
		return err
	}
	defer session.Shutdown()
	logger.Info("initialized nvml")

	if version, err := session.DriverVersion(); err != nil {
		logger.Error("driver version unavailable", "error", err)
	} else {
		logger.Info("detected driver", "version", version)
	}

	dev, err := session.Device(s.Index)
	if err != nil {
		return err
	}
	logger.Info("acquired device", "index", s.Index)

	// One-shots run before the controller so a failed power or clock
	// change never delays fan response.
	ApplyOneShots(dev, s, logger)

	if s.Curve != nil {
		ctrl := fan.NewController(s.Curve, dev, s.Period, logger)
		ctrl.Run(ctx)
	}

	return nil
}

// ApplyOneShots invokes each configured setter exactly once. Driver
// failures are logged at ERROR and never abort the run.
func ApplyOneShots(dev Device, s Settings, logger *slog.Logger) {
	if s.PowerLimit != nil {
		watts := *s.PowerLimit
		if err := dev.SetPowerLimit(uint32(watts)); err != nil {
			logger.Error("set power limit failed", "watts", watts, "error", err)
		} else {
			logger.Info("set power limit", "watts", watts)
		}
	}

	if s.MemClockOffset != nil {
		mhz := *s.MemClockOffset
		if err := dev.SetMemClockOffset(mhz); err != nil {
			logger.Error("set memory clock offset failed", "mhz", mhz, "error", err)
		} else {
			logger.Info("set memory clock offset", "mhz", mhz)
		}
	}

	if s.GraphicsClockOffset != nil {
		mhz := *s.GraphicsClockOffset
		if err := dev.SetGraphicsClockOffset(mhz); err != nil {
			logger.Error("set graphics clock offset failed", "mhz", mhz, "error", err)
		} else {
			logger.Info("set graphics clock offset", "mhz", mhz)
		}
	}

	if s.FanDuty != nil {
		duty := *s.FanDuty
		if err := dev.SetFanDuty(int(duty)); err != nil {
			logger.Error("set fan duty failed", "duty", duty, "error", err)
		} else {
			logger.Info("set fan duty", "duty", duty)
		}
	}
}
