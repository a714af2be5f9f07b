package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joperezr/SmartHomePi/internal/logging"
	"github.com/joperezr/SmartHomePi/internal/smarthome"
	"github.com/spf13/cobra"
)

var onCmd = &cobra.Command{
	Use:   "on <id>",
	Short: "Turn a light bulb on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return switchBulb(cmd, args[0], true)
	},
}

var offCmd = &cobra.Command{
	Use:   "off <id>",
	Short: "Turn a light bulb off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return switchBulb(cmd, args[0], false)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the reported light bulbs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		states, err := c.GetLightBulbStates(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range states {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

var environmentCmd = &cobra.Command{
	Use:   "environment",
	Short: "Read temperature and pressure from the device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		env, err := c.GetEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Temperature: %.2f °F, Pressure: %.2f Pa\n", env.TemperatureF, env.PressurePa)
		return nil
	},
}

func switchBulb(cmd *cobra.Command, arg string, on bool) error {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid light bulb id %q", arg)
	}

	c, err := connect(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.SetLightBulbState(cmd.Context(), id, on); err != nil {
		return err
	}
	logging.NewConsole(os.Stdout).Success("%s", smarthome.SwitchedResult(id, on).Message)
	return nil
}

func init() {
	rootCmd.AddCommand(onCmd, offCmd, statusCmd, environmentCmd)
}
