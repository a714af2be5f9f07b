package hardware

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/joperezr/SmartHomePi/internal/smarthome"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

const DefaultSensorAddr = 0x77

var ErrSensorClosed = errors.New("sensor is closed")

// EnvDevice is the part of a periph environmental sensor the agent needs.
type EnvDevice interface {
	Sense(e *physic.Env) error
	Halt() error
}

// Sensor reads temperature and pressure from a single device.
type Sensor struct {
	mu     sync.Mutex
	dev    EnvDevice
	bus    io.Closer
	closed bool
}

var initOnce = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// Init loads the periph host drivers. Safe to call more than once.
func Init() error {
	return initOnce()
}

// OpenSensor opens a BMP180/BMx280 on the given I2C bus ("" picks the first
// one available).
func OpenSensor(busName string, addr uint16) (*Sensor, error) {
	if err := Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}

	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("open sensor at %#x: %w", addr, err)
	}

	return NewSensor(dev, bus), nil
}

// NewSensor wraps an already opened device. bus may be nil.
func NewSensor(dev EnvDevice, bus io.Closer) *Sensor {
	return &Sensor{dev: dev, bus: bus}
}

func (s *Sensor) Read() (smarthome.Environment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return smarthome.Environment{}, ErrSensorClosed
	}

	var e physic.Env
	if err := s.dev.Sense(&e); err != nil {
		return smarthome.Environment{}, err
	}

	return smarthome.Environment{
		TemperatureF: e.Temperature.Fahrenheit(),
		PressurePa:   float64(e.Pressure) / float64(physic.Pascal),
	}, nil
}

func (s *Sensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.dev.Halt(); err != nil {
		errs = append(errs, err)
	}
	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
