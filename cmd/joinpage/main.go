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
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	appConfig, pageConfig, err := config.LoadJoinPageConfiguration(logger)
	if err != nil {
		logger.Error("Failed to load join page configuration", "error", err.Error())
		os.Exit(1)
	}

	domain.SetupJoinPageDomain(appConfig, pageConfig)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := appConfig.Serve(ctx, 10*time.Second); err != nil {
		logger.Error("Join page server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}
