package main

import (
	"fmt"
	"os"

	"github.com/joperezr/SmartHomePi/internal/config"
	"github.com/joperezr/SmartHomePi/internal/controller"
	"github.com/joperezr/SmartHomePi/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smarthome-controller",
	Short: "Drive a SmartHomePi device over MQTT direct methods",
	Long: `smarthome-controller switches the light bulbs of a SmartHomePi device and
reads its temperature and pressure sensor. The broker connection string comes
from ` + config.EnvServiceConnectionString + ` or --connection-string.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(os.Stderr, logging.DefaultFlags)
		config.LoadDotEnv()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logging.NewConsole(os.Stderr).Failure("%s", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("connection-string", "", "Broker connection string (overrides "+config.EnvServiceConnectionString+")")
	rootCmd.PersistentFlags().String("device-id", "", "Device to talk to (overrides "+config.EnvDeviceID+")")
	rootCmd.PersistentFlags().String("topic-prefix", "", "Topic prefix (overrides "+config.EnvTopicPrefix+")")
}

// loadConfig reads the environment and applies any flags set on cmd.
func loadConfig(cmd *cobra.Command) (config.Controller, error) {
	cfg, err := config.ControllerFromEnv()
	if err != nil {
		return config.Controller{}, err
	}
	if v, _ := cmd.Flags().GetString("connection-string"); v != "" {
		cfg.ConnectionString = v
	}
	if v, _ := cmd.Flags().GetString("device-id"); v != "" {
		cfg.DeviceID = v
	}
	if v, _ := cmd.Flags().GetString("topic-prefix"); v != "" {
		cfg.TopicPrefix = v
	}
	return cfg, nil
}

func connect(cmd *cobra.Command) (*controller.Controller, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	c, err := controller.New(controller.Config{
		ConnectionString: cfg.ConnectionString,
		DeviceID:         cfg.DeviceID,
		TopicPrefix:      cfg.TopicPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.DeviceID, err)
	}
	return c, nil
}
