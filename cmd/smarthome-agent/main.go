package main

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joperezr/SmartHomePi/internal/agent"
	"github.com/joperezr/SmartHomePi/internal/config"
	"github.com/joperezr/SmartHomePi/internal/logging"
	"github.com/joperezr/SmartHomePi/internal/web"
)

func init() {
	logging.Init(nil, logging.DefaultFlags)
	config.LoadDotEnv()
}

func main() {
	console := logging.NewConsole(os.Stdout)

	cfg, err := config.AgentFromEnv(os.Args[1:])
	if err != nil {
		console.Failure("%s", err)
		os.Exit(1)
	}

	a, err := agent.Open(cfg, console)
	if err != nil {
		console.Failure("%s", err)
		os.Exit(1)
	}

	if cfg.Port > 0 {
		go startServer(cfg.Port)
	}

	console.Info("Waiting for direct method calls. Press Enter to exit.")
	waitForExit()

	logging.Info("Terminating")
	if err := a.Close(); err != nil {
		logging.Error("Releasing resources: %s", err)
	}
}

// waitForExit returns on Enter or on SIGINT/SIGTERM.
func waitForExit() {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	enter := make(chan struct{})
	go func() {
		// Without a terminal stdin is at EOF; only a signal ends the run then.
		if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err == nil {
			close(enter)
		}
	}()

	select {
	case <-signalChan:
		logging.Info("Exit signal received")
	case <-enter:
	}
}

func startServer(port int) {
	server := http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: web.CreateHandler(),
	}
	logging.Info("Starting HTTP server on port %d", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error("HTTP server: %s", err)
	}
}
