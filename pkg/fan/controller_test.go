package fan

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/nvml-tune/pkg/errors"
)

type fakeDevice struct {
	temp     atomic.Int64
	tempErr  atomic.Bool
	writeErr atomic.Bool

	reads    atomic.Int64
	writes   atomic.Int64
	lastDuty atomic.Int64
	dutyCh   chan int
}

func newFakeDevice(temp int) *fakeDevice {
	d := &fakeDevice{dutyCh: make(chan int, 64)}
	d.temp.Store(int64(temp))
	return d
}

func (d *fakeDevice) Temperature() (int, error) {
	d.reads.Add(1)
	if d.tempErr.Load() {
		return 0, errors.NewWithCode(errors.KindDriverOp, "temperature read failed", 15)
	}
	return int(d.temp.Load()), nil
}

func (d *fakeDevice) SetFanDuty(percent int) error {
	if d.writeErr.Load() {
		return errors.NewWithCode(errors.KindDriverOp, "set fan duty failed", 2)
	}
	d.writes.Add(1)
	d.lastDuty.Store(int64(percent))
	select {
	case d.dutyCh <- percent:
	default:
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestControllerWritesInterpolatedDuty(t *testing.T) {
	curve, err := ParseCurve("(0:0),(100:100)")
	require.NoError(t, err)

	dev := newFakeDevice(37)
	ctrl := NewController(curve, dev, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ctrl.Run(ctx)
		close(done)
	}()

	select {
	case duty := <-dev.dutyCh:
		require.Equal(t, 37, duty)
	case <-time.After(time.Second):
		t.Fatal("expected a duty write within one period")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("controller did not stop after cancellation")
	}
}

func TestControllerTracksTemperatureChanges(t *testing.T) {
	curve, err := ParseCurve("(0:0),(40:20),(80:100)")
	require.NoError(t, err)

	dev := newFakeDevice(40)
	ctrl := NewController(curve, dev, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	waitForDuty := func(want int) {
		t.Helper()
		deadline := time.After(time.Second)
		for {
			select {
			case duty := <-dev.dutyCh:
				if duty == want {
					return
				}
			case <-deadline:
				t.Fatalf("never observed duty %d (last %d)", want, dev.lastDuty.Load())
			}
		}
	}

	waitForDuty(20)
	dev.temp.Store(60)
	waitForDuty(60)
	dev.temp.Store(200) // saturates to the upper anchor
	waitForDuty(100)
}

func TestControllerInterruptShortensSleep(t *testing.T) {
	curve, err := ParseCurve("(0:0),(100:100)")
	require.NoError(t, err)

	dev := newFakeDevice(50)
	// Long period: exiting promptly proves the sleep is preemptible.
	ctrl := NewController(curve, dev, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ctrl.Run(ctx)
		close(done)
	}()

	// Let the first iteration land, then interrupt mid-sleep.
	select {
	case <-dev.dutyCh:
	case <-time.After(time.Second):
		t.Fatal("expected first duty write")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("controller did not exit within one period of the interrupt")
	}

	// No write may happen after cancellation was observed.
	writes := dev.writes.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, writes, dev.writes.Load())
}

func TestControllerSensorFailureIsRetried(t *testing.T) {
	curve, err := ParseCurve("(0:0),(100:100)")
	require.NoError(t, err)

	dev := newFakeDevice(42)
	dev.tempErr.Store(true)
	ctrl := NewController(curve, dev, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	// While reads fail, the fan must not be updated.
	require.Eventually(t, func() bool { return dev.reads.Load() >= 3 },
		time.Second, time.Millisecond)
	require.Zero(t, dev.writes.Load())

	// Recovery on a later iteration.
	dev.tempErr.Store(false)
	select {
	case duty := <-dev.dutyCh:
		require.Equal(t, 42, duty)
	case <-time.After(time.Second):
		t.Fatal("controller did not recover after sensor failures")
	}
}

func TestControllerWriteFailureIsRetried(t *testing.T) {
	curve, err := ParseCurve("(0:0),(100:100)")
	require.NoError(t, err)

	dev := newFakeDevice(42)
	dev.writeErr.Store(true)
	ctrl := NewController(curve, dev, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	require.Eventually(t, func() bool { return dev.reads.Load() >= 3 },
		time.Second, time.Millisecond)

	dev.writeErr.Store(false)
	select {
	case duty := <-dev.dutyCh:
		require.Equal(t, 42, duty)
	case <-time.After(time.Second):
		t.Fatal("controller did not recover after write failures")
	}
}

func TestNewControllerDefaults(t *testing.T) {
	curve := Curve{{0, 0}, {100, 100}}
	ctrl := NewController(curve, newFakeDevice(0), 0, nil)
	require.Equal(t, DefaultPeriod, ctrl.period)
	require.NotNil(t, ctrl.logger)
}
