package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		EnvDeviceConnectionString, EnvServiceConnectionString, EnvDeviceID,
		EnvTopicPrefix, EnvBulbPins, EnvSensorBus, EnvSensorAddr, EnvPort,
	} {
		t.Setenv(key, "")
	}
}

func TestAgentFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDeviceConnectionString, "tcp://broker:1883")

	cfg, err := AgentFromEnv(nil)
	require.NoError(t, err)
	assert.Equal(t, "tcp://broker:1883", cfg.ConnectionString)
	assert.Equal(t, "smarthomepi", cfg.DeviceID)
	assert.Equal(t, "smarthome", cfg.TopicPrefix)
	assert.Equal(t, map[int]string{1: "GPIO17", 2: "GPIO27", 3: "GPIO22"}, cfg.BulbPins)
	assert.Equal(t, uint16(0x77), cfg.SensorAddr)
	assert.Equal(t, 0, cfg.Port)
}

func TestAgentFromEnvArgumentFallback(t *testing.T) {
	clearEnv(t)

	cfg, err := AgentFromEnv([]string{"tcp://from-args:1883"})
	require.NoError(t, err)
	assert.Equal(t, "tcp://from-args:1883", cfg.ConnectionString)

	t.Setenv(EnvDeviceConnectionString, "tcp://from-env:1883")
	cfg, err = AgentFromEnv([]string{"tcp://from-args:1883"})
	require.NoError(t, err)
	assert.Equal(t, "tcp://from-env:1883", cfg.ConnectionString)
}

func TestAgentFromEnvMissingConnectionString(t *testing.T) {
	clearEnv(t)

	_, err := AgentFromEnv(nil)
	assert.ErrorIs(t, err, ErrNoConnectionString)

	_, err = AgentFromEnv([]string{"   "})
	assert.ErrorIs(t, err, ErrNoConnectionString)
}

func TestAgentFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDeviceConnectionString, "tcp://broker:1883")
	t.Setenv(EnvBulbPins, "1=GPIO5,2=GPIO6,3=GPIO13")
	t.Setenv(EnvSensorAddr, "0x76")
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvDeviceID, "kitchen")

	cfg, err := AgentFromEnv(nil)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "GPIO5", 2: "GPIO6", 3: "GPIO13"}, cfg.BulbPins)
	assert.Equal(t, uint16(0x76), cfg.SensorAddr)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "kitchen", cfg.DeviceID)

	t.Setenv(EnvPort, "http")
	_, err = AgentFromEnv(nil)
	assert.Error(t, err)
}

func TestControllerFromEnv(t *testing.T) {
	clearEnv(t)

	cfg, err := ControllerFromEnv()
	require.NoError(t, err)
	assert.Empty(t, cfg.ConnectionString)
	assert.Equal(t, "smarthomepi", cfg.DeviceID)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("DEVICE_ID=from-file\nMQTT_TOPIC_PREFIX=file-prefix\n"), 0o600))

	t.Setenv(EnvTopicPrefix, "already-set")
	os.Unsetenv(EnvDeviceID)

	LoadDotEnv(file, filepath.Join(dir, "missing.env"))

	assert.Equal(t, "from-file", os.Getenv(EnvDeviceID))
	assert.Equal(t, "already-set", os.Getenv(EnvTopicPrefix))
}
