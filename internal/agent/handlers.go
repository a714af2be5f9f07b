package agent

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/joperezr/SmartHomePi/internal/methods"
	"github.com/joperezr/SmartHomePi/internal/smarthome"
	"periph.io/x/conn/v3/gpio"
)

// bulbLevel maps a requested bulb state to its line level. The relay board is
// active-low: a low line energises the bulb.
func bulbLevel(on bool) gpio.Level {
	return gpio.Level(!on)
}

func (a *Agent) changeLightBulbState(payload []byte) (int, []byte) {
	var req smarthome.LightBulbState
	if err := json.Unmarshal(payload, &req); err != nil {
		a.console.Failure("Unable to read light bulb state %q: %s", payload, err)
		return methods.StatusInternalError, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.bulbs.Has(req.ID) {
		a.console.Failure("There is no light bulb %d", req.ID)
		return methods.StatusInternalError, nil
	}
	if a.lines == nil {
		a.console.Failure("Output lines are closed, ignoring light bulb %d", req.ID)
		return methods.StatusInternalError, nil
	}

	if err := a.lines.Write(req.ID, bulbLevel(req.On)); err != nil {
		a.console.Failure("Unable to turn light bulb %d %s: %s", req.ID, smarthome.OnOff(req.On), err)
		return methods.StatusInternalError, nil
	}
	a.bulbs.Set(req.ID, req.On)

	result := smarthome.SwitchedResult(req.ID, req.On)
	body, err := json.Marshal(result)
	if err != nil {
		a.console.Failure("Unable to encode result: %s", err)
		return methods.StatusInternalError, nil
	}

	bulbsSwitched.WithLabelValues(strconv.Itoa(req.ID), smarthome.OnOff(req.On)).Inc()
	a.console.Success("%s", result.Message)
	return methods.StatusOK, body
}

func (a *Agent) getLightBulbStatus([]byte) (int, []byte) {
	a.mu.Lock()
	states := make([]smarthome.LightBulbState, 0, len(a.reported))
	for _, id := range a.reported {
		on, _ := a.bulbs.Get(id)
		states = append(states, smarthome.LightBulbState{ID: id, On: on})
	}
	a.mu.Unlock()

	body, err := json.Marshal(states)
	if err != nil {
		a.console.Failure("Unable to encode light bulb status: %s", err)
		return methods.StatusInternalError, nil
	}

	a.console.Success("Reported the status of %d light bulbs", len(states))
	return methods.StatusOK, body
}

// getEnvironmentReading has no failure response: a sensor fault is raised as
// a panic and left to take the process down.
func (a *Agent) getEnvironmentReading([]byte) (int, []byte) {
	a.mu.Lock()
	sensor := a.sensor
	a.mu.Unlock()

	if sensor == nil {
		panic(fmt.Errorf("read environment: %w", errSensorReleased))
	}

	env, err := sensor.Read()
	if err != nil {
		panic(fmt.Errorf("read environment: %w", err))
	}

	a.console.Success("Temperature: %.2f °F, Pressure: %.2f Pa", env.TemperatureF, env.PressurePa)

	body, err := json.Marshal(env)
	if err != nil {
		panic(fmt.Errorf("encode environment: %w", err))
	}
	return methods.StatusOK, body
}
