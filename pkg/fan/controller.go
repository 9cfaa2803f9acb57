package fan

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPeriod is the controller cadence when none is configured.
const DefaultPeriod = 2 * time.Second

// Device is the slice of the NVML session the controller drives. The
// controller borrows it for the duration of the loop; it never owns
// the handle.
type Device interface {
	Temperature() (int, error)
	SetFanDuty(percent int) error
}

// Controller tracks the canonical curve on a fixed cadence: each
// iteration reads the GPU temperature, interpolates a duty, and writes
// it to fan 0. Sensor and write failures are logged and retried on the
// next iteration.
type Controller struct {
	curve  Curve
	device Device
	period time.Duration
	logger *slog.Logger
}

// NewController builds a controller for a canonical curve. A
// non-positive period falls back to DefaultPeriod; a nil logger falls
// back to slog.Default.
func NewController(curve Curve, device Device, period time.Duration, logger *slog.Logger) *Controller {
	if period <= 0 {
		period = DefaultPeriod
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		curve:  curve,
		device: device,
		period: period,
		logger: logger,
	}
}

// Run drives the fan until ctx is canceled. The inter-iteration sleep
// is preemptible, so cancellation is observed within one period, and no
// write happens after cancellation is observed. Run never fails: every
// driver error inside the loop is recoverable.
func (c *Controller) Run(ctx context.Context) {
	c.logger.Info("fan curve controller started",
		"keypoints", len(c.curve),
		"period", c.period.String(),
	)

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("fan curve controller interrupted")
			return
		default:
		}

		c.step()

		select {
		case <-ctx.Done():
			c.logger.Info("fan curve controller interrupted")
			return
		case <-ticker.C:
		}
	}
}

// step performs one read-interpolate-write iteration.
func (c *Controller) step() {
	temp, err := c.device.Temperature()
	if err != nil {
		// Leave the last commanded duty in place and retry next tick.
		c.logger.Error("temperature read failed", "error", err)
		return
	}

	duty := c.curve.DutyAt(temp)
	if err := c.device.SetFanDuty(duty); err != nil {
		c.logger.Error("fan duty write failed", "temp", temp, "duty", duty, "error", err)
		return
	}

	c.logger.Info("fan duty updated", "temp", temp, "duty", duty)
}
