package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akeren/mandarin-waitlist/config"
	"github.com/akeren/mandarin-waitlist/domain"
	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/spf13/pflag"
)

const drainTimeout = 30 * time.Second

func main() {
	logger := log.NewLoggerWithJSONOutput()

	autoMigrate := pflag.BoolP("auto-migrate", "m", false, "create or update the waitlist table with GORM before serving (development only)")
	pflag.Parse()

	logger.Info("Waitlist API server initializing", "auto_migrate", *autoMigrate)

	appConfig, err := config.LoadApplicationConfiguration(logger, *autoMigrate)
	if err != nil {
		logger.Error("Failed to load application configuration", "error", err.Error())
		os.Exit(1)
	}

	if err := domain.SetupCoreDomain(appConfig); err != nil {
		logger.Error("Failed to set up domain", "error", err.Error())
		appConfig.Cleanup()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := appConfig.Serve(ctx, drainTimeout); err != nil {
		logger.Error("Server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}
