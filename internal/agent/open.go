package agent

import (
	"fmt"

	"github.com/joperezr/SmartHomePi/internal/config"
	"github.com/joperezr/SmartHomePi/internal/hardware"
	"github.com/joperezr/SmartHomePi/internal/logging"
	"github.com/joperezr/SmartHomePi/internal/mqtt"
)

// InitError wraps anything that stops the agent from starting.
type InitError struct {
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("agent init: %s: %s", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Open connects to the broker, takes the output lines and the sensor, binds
// the direct methods and starts answering them. Whatever was acquired is
// released again when a later step fails.
func Open(cfg config.Agent, console *logging.Console) (*Agent, error) {
	uri, err := mqtt.ParseConnectionString(cfg.ConnectionString)
	if err != nil {
		return nil, &InitError{Stage: "configuration", Err: err}
	}

	client := mqtt.NewMQTTClient(uri, "smarthome_agent_")
	if err := client.Connect(); err != nil {
		return nil, &InitError{Stage: "connect", Err: err}
	}

	if err := hardware.Init(); err != nil {
		client.Disconnect()
		return nil, &InitError{Stage: "hardware", Err: err}
	}

	// Bulbs start off: the idle level of an active-low line is high.
	lines, err := hardware.OpenLines(cfg.BulbPins, bulbLevel(false))
	if err != nil {
		client.Disconnect()
		return nil, &InitError{Stage: "output lines", Err: err}
	}

	sensor, err := hardware.OpenSensor(cfg.SensorBus, cfg.SensorAddr)
	if err != nil {
		client.Disconnect()
		lines.Close()
		return nil, &InitError{Stage: "sensor", Err: err}
	}

	a, err := New(Resources{
		Conn:    client,
		Lines:   lines,
		Sensor:  sensor,
		Console: console,
	}, Options{BulbIDs: lines.IDs()})
	if err != nil {
		client.Disconnect()
		lines.Close()
		sensor.Close()
		return nil, &InitError{Stage: "methods", Err: err}
	}

	server := mqtt.NewMethodServer(client, mqtt.NewTopics(cfg.TopicPrefix, cfg.DeviceID), a)
	if err := server.Start(); err != nil {
		a.Close()
		return nil, &InitError{Stage: "subscribe", Err: err}
	}
	a.attach(server)

	logging.Info("Device %s answering %v", cfg.DeviceID, a.Methods())
	return a, nil
}
