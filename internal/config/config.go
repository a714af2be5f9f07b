// Package config reads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/joperezr/SmartHomePi/internal/hardware"
	"github.com/joperezr/SmartHomePi/internal/logging"
	"github.com/joperezr/SmartHomePi/internal/mqtt"
	"github.com/joperezr/SmartHomePi/internal/smarthome"
)

const (
	EnvDeviceConnectionString  = "DEVICE_CONNECTION_STRING"
	EnvServiceConnectionString = "SERVICE_CONNECTION_STRING"
	EnvDeviceID                = "DEVICE_ID"
	EnvTopicPrefix             = "MQTT_TOPIC_PREFIX"
	EnvBulbPins                = "BULB_PINS"
	EnvSensorBus               = "SENSOR_I2C_BUS"
	EnvSensorAddr              = "SENSOR_I2C_ADDR"
	EnvPort                    = "PORT"
)

var ErrNoConnectionString = errors.New("no device connection string: set " + EnvDeviceConnectionString + " or pass it as the first argument")

type Agent struct {
	ConnectionString string
	DeviceID         string
	TopicPrefix      string
	BulbPins         map[int]string
	SensorBus        string
	SensorAddr       uint16
	Port             int
}

type Controller struct {
	ConnectionString string
	DeviceID         string
	TopicPrefix      string
	Port             int
}

// LoadDotEnv loads the given files (".env" when none) without overriding
// variables already set. A missing file is only worth a warning.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		logging.Info("Loading %s file", f)
		if err := godotenv.Load(f); err != nil {
			logging.Warn("Unable to load %s", f)
		}
	}
}

// AgentFromEnv builds the agent settings. The connection string comes from
// the environment first and falls back to args[0].
func AgentFromEnv(args []string) (Agent, error) {
	cfg := Agent{
		ConnectionString: strings.TrimSpace(os.Getenv(EnvDeviceConnectionString)),
		DeviceID:         getenv(EnvDeviceID, smarthome.DefaultDeviceID),
		TopicPrefix:      getenv(EnvTopicPrefix, mqtt.DefaultTopicPrefix),
		SensorBus:        os.Getenv(EnvSensorBus),
		SensorAddr:       hardware.DefaultSensorAddr,
		BulbPins:         maps.Clone(hardware.DefaultBulbPins),
	}
	if cfg.ConnectionString == "" && len(args) > 0 {
		cfg.ConnectionString = strings.TrimSpace(args[0])
	}
	if cfg.ConnectionString == "" {
		return Agent{}, ErrNoConnectionString
	}

	if v := os.Getenv(EnvBulbPins); v != "" {
		pins, err := hardware.ParsePinMap(v)
		if err != nil {
			return Agent{}, fmt.Errorf("%s: %w", EnvBulbPins, err)
		}
		cfg.BulbPins = pins
	}

	if v := os.Getenv(EnvSensorAddr); v != "" {
		addr, err := strconv.ParseUint(v, 0, 16)
		if err != nil {
			return Agent{}, fmt.Errorf("%s: %w", EnvSensorAddr, err)
		}
		cfg.SensorAddr = uint16(addr)
	}

	port, err := getPort(0)
	if err != nil {
		return Agent{}, err
	}
	cfg.Port = port

	return cfg, nil
}

// ControllerFromEnv reads the controller settings. An empty connection string
// is not an error here; the controller itself refuses it.
func ControllerFromEnv() (Controller, error) {
	port, err := getPort(8080)
	if err != nil {
		return Controller{}, err
	}
	return Controller{
		ConnectionString: strings.TrimSpace(os.Getenv(EnvServiceConnectionString)),
		DeviceID:         getenv(EnvDeviceID, smarthome.DefaultDeviceID),
		TopicPrefix:      getenv(EnvTopicPrefix, mqtt.DefaultTopicPrefix),
		Port:             port,
	}, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getPort(fallback int) (int, error) {
	v := os.Getenv(EnvPort)
	if v == "" {
		return fallback, nil
	}
	port, err := strconv.Atoi(v)
	if err != nil || port < 0 || port > 65535 {
		return 0, fmt.Errorf("%s: invalid port %q", EnvPort, v)
	}
	return port, nil
}
