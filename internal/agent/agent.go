// Package agent is the device side of SmartHomePi: it answers direct methods
// by switching relay-driven light bulbs and reading the environment sensor.
package agent

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/joperezr/SmartHomePi/internal/logging"
	"github.com/joperezr/SmartHomePi/internal/methods"
	"github.com/joperezr/SmartHomePi/internal/smarthome"
	"periph.io/x/conn/v3/gpio"
)

// DefaultBulbIDs are the light bulbs wired to the reference board.
var DefaultBulbIDs = []int{1, 2, 3}

// DefaultReportedIDs is the set answered by GetLightBulbStatus. Bulb 2 has
// never been part of the status report; whether that is intended is still an
// open product question, so it stays out until decided.
var DefaultReportedIDs = []int{1, 3}

var errSensorReleased = errors.New("sensor has been released")

const unknownMethod = "unknown"

// OutputLines drives one physical line per light bulb id.
type OutputLines interface {
	Write(id int, level gpio.Level) error
	Close() error
}

type EnvironmentSensor interface {
	Read() (smarthome.Environment, error)
	Close() error
}

// Conn is the transport connection owned by the agent.
type Conn interface {
	Disconnect()
}

type methodServer interface {
	Stop() error
}

type Resources struct {
	Conn    Conn
	Lines   OutputLines
	Sensor  EnvironmentSensor
	Console *logging.Console
}

type Options struct {
	BulbIDs     []int
	ReportedIDs []int
}

type Agent struct {
	mu       sync.Mutex
	bulbs    bulbMap
	reported []int

	server  methodServer
	conn    Conn
	lines   OutputLines
	sensor  EnvironmentSensor
	console *logging.Console

	table *methods.Table
}

// New binds the three direct methods to the agent. Any registration failure
// fails construction.
func New(res Resources, opts Options) (*Agent, error) {
	if res.Lines == nil {
		return nil, errors.New("agent: output lines are required")
	}
	if res.Sensor == nil {
		return nil, errors.New("agent: sensor is required")
	}
	if res.Console == nil {
		res.Console = logging.NewConsole(nil)
	}
	if len(opts.BulbIDs) == 0 {
		opts.BulbIDs = DefaultBulbIDs
	}
	if opts.ReportedIDs == nil {
		opts.ReportedIDs = DefaultReportedIDs
	}

	a := &Agent{
		bulbs:   newBulbMap(opts.BulbIDs),
		conn:    res.Conn,
		lines:   res.Lines,
		sensor:  res.Sensor,
		console: res.Console,
		table:   methods.NewTable(),
	}

	for _, id := range opts.ReportedIDs {
		if !a.bulbs.Has(id) {
			return nil, fmt.Errorf("agent: reported light bulb %d is not configured", id)
		}
		a.reported = append(a.reported, id)
	}

	bindings := []struct {
		name    string
		handler methods.Handler
	}{
		{smarthome.MethodChangeLightBulbState, a.changeLightBulbState},
		{smarthome.MethodGetLightBulbStatus, a.getLightBulbStatus},
		{smarthome.MethodGetEnvironmentReading, a.getEnvironmentReading},
	}
	for _, b := range bindings {
		if err := a.table.Register(b.name, b.handler); err != nil {
			return nil, fmt.Errorf("agent: register %w", err)
		}
	}

	a.table.OnPanic(func(method string, v interface{}) {
		a.console.Failure("%s failed: %v", method, v)
		logging.Error("Unrecoverable fault in %s: %v", method, v)
	})

	return a, nil
}

// Dispatch runs a direct method and records its outcome. Methods that are
// not registered share the "unknown" label.
func (a *Agent) Dispatch(method string, payload []byte) (int, []byte) {
	label := method
	if !a.table.Has(method) {
		label = unknownMethod
		a.console.Failure("There is no method %q", method)
	}
	status, body := a.table.Dispatch(method, payload)
	methodsHandled.WithLabelValues(label, strconv.Itoa(status)).Inc()
	return status, body
}

func (a *Agent) Methods() []string {
	return a.table.Names()
}

// attach hands the server answering for the agent to Close.
func (a *Agent) attach(server methodServer) {
	a.mu.Lock()
	a.server = server
	a.mu.Unlock()
}

// Close stops answering requests, then releases the transport connection,
// the output lines and the sensor, in that order. Each one is released at
// most once.
func (a *Agent) Close() error {
	a.mu.Lock()
	server, conn, lines, sensor := a.server, a.conn, a.lines, a.sensor
	a.server, a.conn, a.lines, a.sensor = nil, nil, nil, nil
	a.mu.Unlock()

	var errs []error
	if server != nil {
		if err := server.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop method server: %w", err))
		}
	}
	if conn != nil {
		conn.Disconnect()
	}
	if lines != nil {
		if err := lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output lines: %w", err))
		}
	}
	if sensor != nil {
		if err := sensor.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sensor: %w", err))
		}
	}
	return errors.Join(errs...)
}
