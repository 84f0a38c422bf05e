package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/pkg/utils"
	"github.com/joho/godotenv"
)

const AppEnvKey = "APP_ENV"

// autoMigrateEnvs are the APP_ENV values under which --auto-migrate may
// touch the schema. Empty counts as development.
var autoMigrateEnvs = []string{"", "dev", "development", "local", "test", "testing"}

// InitializeEnvFile loads .env into the process environment without
// overriding variables that are already set. SKIP_DOTENV=true disables it.
func InitializeEnvFile(logger *log.Logger) {
	if utils.EnvBool("SKIP_DOTENV", false) {
		logger.Info("Skipping .env file", "reason", "SKIP_DOTENV")
		return
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", "error", err.Error())
		return
	}

	logger.Info("Loaded environment from .env")
}

func GetAppEnv() string {
	return strings.ToLower(utils.GetEnvTrimmed(AppEnvKey))
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))
	if slices.Contains(autoMigrateEnvs, env) {
		return nil
	}
	return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: %q)", AppEnvKey, env, autoMigrateEnvs)
}
