package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joperezr/SmartHomePi/internal/logging"
	"github.com/joperezr/SmartHomePi/internal/web"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the device over HTTP",
	Long:  `Starts an HTTP front end with /bulbs, /bulbs/:id, /environment and /metrics.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}

		c, err := connect(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: web.CreateControllerHandler(c),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logging.Info("Starting HTTP server on port %d for device %s", cfg.Port, cfg.DeviceID)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case sig := <-shutdown:
			logging.Info("Exit signal received: %v", sig)
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logging.Warn("Graceful shutdown did not complete in %v: %s", shutdownTimeout, err)
			return srv.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides PORT)")
}
