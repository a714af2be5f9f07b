// Package controller is the cloud side of SmartHomePi. It turns the device's
// direct methods into typed calls.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joperezr/SmartHomePi/internal/logging"
	"github.com/joperezr/SmartHomePi/internal/mqtt"
	"github.com/joperezr/SmartHomePi/internal/smarthome"
)

// ResponseTimeout bounds every invocation.
const ResponseTimeout = 30 * time.Second

// Invoker performs one direct-method round trip.
type Invoker interface {
	Invoke(ctx context.Context, method string, payload []byte, timeout time.Duration) (status int, body []byte, err error)
}

type Config struct {
	ConnectionString string
	DeviceID         string
	TopicPrefix      string
}

type Controller struct {
	invoker Invoker
	release func()
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

// New validates cfg, connects to the broker and returns a ready controller.
func New(cfg Config) (*Controller, error) {
	if strings.TrimSpace(cfg.ConnectionString) == "" {
		return nil, ErrMissingConnectionString
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = smarthome.DefaultDeviceID
	}

	uri, err := mqtt.ParseConnectionString(cfg.ConnectionString)
	if err != nil {
		return nil, &InitError{Err: err}
	}

	client := mqtt.NewMQTTClient(uri, "smarthome_controller_")
	if err := client.Connect(); err != nil {
		return nil, &InitError{Err: err}
	}

	inv := mqtt.NewInvoker(client, mqtt.NewTopics(cfg.TopicPrefix, cfg.DeviceID))
	if err := inv.Start(); err != nil {
		client.Disconnect()
		return nil, &InitError{Err: err}
	}

	return newController(inv, func() {
		if err := inv.Close(); err != nil {
			logging.Warn("Unable to stop listening for responses: %s", err)
		}
		client.Disconnect()
	}), nil
}

func newController(inv Invoker, release func()) *Controller {
	return &Controller{invoker: inv, release: release, timeout: ResponseTimeout}
}

// Close fails any call still waiting for the device with ErrClosed and
// releases the broker connection. Later calls do nothing.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.release != nil {
		c.release()
	}
	return nil
}

func (c *Controller) SetLightBulbState(ctx context.Context, id int, on bool) error {
	payload, err := json.Marshal(smarthome.LightBulbState{ID: id, On: on})
	if err != nil {
		return err
	}
	_, err = c.invoke(ctx, smarthome.MethodChangeLightBulbState, payload)
	return err
}

func (c *Controller) GetLightBulbStates(ctx context.Context) ([]smarthome.LightBulbState, error) {
	body, err := c.invoke(ctx, smarthome.MethodGetLightBulbStatus, nil)
	if err != nil {
		return nil, err
	}

	var states []smarthome.LightBulbState
	if err := json.Unmarshal(body, &states); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", smarthome.MethodGetLightBulbStatus, err)
	}
	return states, nil
}

func (c *Controller) GetEnvironment(ctx context.Context) (smarthome.Environment, error) {
	body, err := c.invoke(ctx, smarthome.MethodGetEnvironmentReading, nil)
	if err != nil {
		return smarthome.Environment{}, err
	}

	var env smarthome.Environment
	if err := json.Unmarshal(body, &env); err != nil {
		return smarthome.Environment{}, fmt.Errorf("decode %s response: %w", smarthome.MethodGetEnvironmentReading, err)
	}
	return env, nil
}

func (c *Controller) invoke(ctx context.Context, method string, payload []byte) ([]byte, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	status, body, err := c.invoker.Invoke(ctx, method, payload, c.timeout)
	switch {
	case errors.Is(err, ErrTimeout):
		invocations.WithLabelValues(method, "timeout").Inc()
		return nil, err
	case err != nil:
		invocations.WithLabelValues(method, "error").Inc()
		return nil, err
	case status != 200:
		invocations.WithLabelValues(method, "status").Inc()
		return nil, &StatusError{Method: method, Status: status, Body: body}
	}

	invocations.WithLabelValues(method, "ok").Inc()
	return body, nil
}
