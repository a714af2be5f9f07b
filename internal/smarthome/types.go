// Package smarthome holds the payloads exchanged between the controller and
// the device agent, and the names of the methods the agent answers to.
package smarthome

import (
	"fmt"

	"github.com/icza/gox/gox"
)

// Method names are part of the wire contract and are case-sensitive.
const (
	MethodChangeLightBulbState  = "ChangeLightBulbState"
	MethodGetLightBulbStatus    = "GetLightBulbStatus"
	MethodGetEnvironmentReading = "GetTemperatureAndPreassure"
)

const DefaultDeviceID = "smarthomepi"

// StatusSuccess is the only status the agent reports in a CommandResult.
const StatusSuccess = "Success"

type LightBulbState struct {
	ID int  `json:"id"`
	On bool `json:"state"`
}

func (s LightBulbState) String() string {
	return fmt.Sprintf("id:%d state:%s", s.ID, OnOff(s.On))
}

type Environment struct {
	TemperatureF float64 `json:"temperatureInFahrenheit"`
	PressurePa   float64 `json:"preassureInPascals"`
}

type CommandResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func SwitchedResult(id int, on bool) CommandResult {
	return CommandResult{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("The light bulb %d was turned %s", id, OnOff(on)),
	}
}

func OnOff(on bool) string {
	return gox.If(on).String("On", "Off")
}
