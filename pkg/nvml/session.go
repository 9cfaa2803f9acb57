package nvml

import (
	"log/slog"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/NVIDIA/nvml-tune/pkg/errors"
)

// DefaultLibraryPath is the shared object resolved by the dynamic
// loader's default search path.
const DefaultLibraryPath = "libnvidia-ml.so"

// newFunc is swappable in tests.
var newFunc = nvml.New

// Session owns the loaded NVML library and its initialized state. It is
// initialized at most once per process; Shutdown must run on every exit
// path reached after a successful Init.
type Session struct {
	lib         nvml.Interface
	initialized bool
}

// Open prepares a session over the shared library at path. The library
// is mapped lazily by Init; Open itself never touches the driver.
func Open(path string) *Session {
	if path == "" {
		path = DefaultLibraryPath
	}
	return &Session{lib: newFunc(nvml.WithLibraryPath(path))}
}

// Init loads the shared library and calls the NVML init entry point.
// A missing or symbol-incomplete library is a LIBRARY_LOAD error; any
// other non-zero return is an INIT error with the code preserved.
func (s *Session) Init() error {
	ret := s.lib.Init()
	switch ret {
	case nvml.SUCCESS:
		s.initialized = true
		return nil
	case nvml.ERROR_LIBRARY_NOT_FOUND, nvml.ERROR_FUNCTION_NOT_FOUND:
		return &errors.Error{
			Kind:    errors.KindLibraryLoad,
			Message: "loading libnvidia-ml.so",
			Code:    int(ret),
			Cause:   ret,
		}
	default:
		return &errors.Error{
			Kind:    errors.KindInit,
			Message: "initializing nvml",
			Code:    int(ret),
			Cause:   ret,
		}
	}
}

// Shutdown releases the library state. Safe to call unconditionally;
// it is a no-op before a successful Init. Shutdown failures are logged,
// never returned, since callers run it on the way out.
func (s *Session) Shutdown() {
	if !s.initialized {
		return
	}
	s.initialized = false
	if ret := s.lib.Shutdown(); ret != nvml.SUCCESS {
		slog.Error("nvml shutdown failed", "code", int(ret))
	}
}

// Device resolves a zero-based GPU index to a handle. The handle is
// valid until Shutdown.
func (s *Session) Device(index int) (*Device, error) {
	handle, ret := s.lib.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, &errors.Error{
			Kind:    errors.KindDevice,
			Message: "getting device handle by index",
			Code:    int(ret),
			Cause:   ret,
		}
	}
	return &Device{handle: handle, index: index}, nil
}

// DriverVersion reports the host driver version. Best effort; callers
// treat failures as recoverable.
func (s *Session) DriverVersion() (string, error) {
	version, ret := s.lib.SystemGetDriverVersion()
	if ret != nvml.SUCCESS {
		return "", driverOpError("reading driver version", ret)
	}
	return version, nil
}

// Device identifies one GPU within an initialized session. It never
// outlives the session that produced it.
type Device struct {
	handle nvml.Device
	index  int
}

// Index returns the zero-based GPU index the device was resolved from.
func (d *Device) Index() int {
	return d.index
}

// SetPowerLimit sets the power management cap. The driver entry point
// takes milliwatts; callers pass watts.
func (d *Device) SetPowerLimit(watts uint32) error {
	if ret := d.handle.SetPowerManagementLimit(watts * 1000); ret != nvml.SUCCESS {
		return driverOpError("setting power limit", ret)
	}
	return nil
}

// SetMemClockOffset applies a memory clock offset. The driver entry
// point is in half-MHz units; callers pass MHz, which may be negative.
func (d *Device) SetMemClockOffset(mhz int) error {
	if ret := d.handle.SetMemClkVfOffset(mhz * 2); ret != nvml.SUCCESS {
		return driverOpError("setting memory clock offset", ret)
	}
	return nil
}

// SetGraphicsClockOffset applies a graphics clock offset in MHz, passed
// through to the driver unchanged. May be negative.
func (d *Device) SetGraphicsClockOffset(mhz int) error {
	if ret := d.handle.SetGpcClkVfOffset(mhz); ret != nvml.SUCCESS {
		return driverOpError("setting graphics clock offset", ret)
	}
	return nil
}

// Temperature reads the default GPU temperature sensor in Celsius.
func (d *Device) Temperature() (int, error) {
	temp, ret := d.handle.GetTemperature(nvml.TEMPERATURE_GPU)
	if ret != nvml.SUCCESS {
		return 0, driverOpError("reading temperature", ret)
	}
	return int(temp), nil
}

// SetFanDuty writes a duty percentage to fan 0.
func (d *Device) SetFanDuty(percent int) error {
	if ret := d.handle.SetFanSpeed_v2(0, percent); ret != nvml.SUCCESS {
		return driverOpError("setting fan duty", ret)
	}
	return nil
}

func driverOpError(op string, ret nvml.Return) error {
	return &errors.Error{
		Kind:    errors.KindDriverOp,
		Message: op,
		Code:    int(ret),
		Cause:   ret,
	}
}
