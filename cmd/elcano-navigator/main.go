// Command elcano-navigator is the chart plotter's on-device process: it
// loads configuration, brings up the sensor and display stack, and runs
// the supervisor's main loop until terminated.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oleche/elcano-nav-go/internal/config"
	"github.com/oleche/elcano-nav-go/internal/display"
	"github.com/oleche/elcano-nav-go/internal/logging"
	"github.com/oleche/elcano-nav-go/internal/supervisor"
)

var (
	configPath string
	simulate   bool
)

func main() {
	root := &cobra.Command{
		Use:   "elcano-navigator",
		Short: "Run the chart plotter's navigation process",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "/opt/elcano/config.json", "path to the JSON configuration file")
	root.Flags().BoolVar(&simulate, "simulate", false, "drive an in-memory display bus instead of real hardware, for bench testing")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logging.NewLogger("main")
	cfg := config.Load(configPath)

	sup, err := supervisor.New(cfg)
	if err != nil {
		log.Error("startup failed: %v", err)
		return fmt.Errorf("startup: %w", err)
	}
	defer sup.Close()

	panel, err := newPanel(cfg)
	if err != nil {
		log.Error("display init failed: %v", err)
		return fmt.Errorf("display: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received signal %v, shutting down", sig)
		cancel()
	}()

	log.Info("elcano-navigator starting")
	if err := sup.Run(ctx, panel); err != nil {
		log.Error("supervisor exited with error: %v", err)
		return fmt.Errorf("supervisor: %w", err)
	}

	log.Info("elcano-navigator shut down cleanly")
	return nil
}

// newPanel builds the Display.Device the Supervisor drives. The real SPI
// bus is a collaborator outside this module's scope (§1); --simulate
// substitutes the in-memory bus used by the test suite so the rest of
// the stack can run on a development machine.
func newPanel(cfg *config.Config) (display.Device, error) {
	var bus display.Bus
	if simulate {
		bus = display.NewMemoryBus()
	} else {
		return nil, fmt.Errorf("no hardware SPI/GPIO bus wired in this build; rerun with --simulate")
	}
	return display.NewPanel(bus, cfg.PanelWidth, cfg.PanelHeight), nil
}
