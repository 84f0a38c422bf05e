package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/pkg/retry"
	"github.com/akeren/mandarin-waitlist/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string // Default: "require"
	ConnectAttempts int    // Default: DB_CONNECT_ATTEMPTS or 3
}

func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = &DBConfig{}
	}
	cfg.applyDefaults()

	appDatabaseURL := utils.GetEnvUnquoted("APP_DATABASE_URL")

	dsn, err := buildDSNFromEnv(appDatabaseURL, logger, cfg)
	if err != nil {
		return nil, err
	}

	var gdb *gorm.DB

	backoff := retry.NewExponentialBackoff(&retry.Config{
		MaxAttempts: cfg.ConnectAttempts,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Warn("Database not ready, retrying", "attempt", attempt, "delay", delay.String(), "error", err)
		},
	})

	err = backoff.Execute(context.Background(), func(ctx context.Context) error {
		db, err := openAndPing(ctx, dsn, cfg)
		if err != nil {
			return err
		}
		gdb = db
		return nil
	})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Database connection established successfully")
	return gdb, nil
}

func (cfg *DBConfig) applyDefaults() {
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 10
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 100
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = time.Minute
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "require"
	}
	if cfg.ConnectAttempts <= 0 {
		cfg.ConnectAttempts = utils.EnvPositiveInt("DB_CONNECT_ATTEMPTS", 3)
	}
}

func openAndPing(ctx context.Context, dsn string, cfg *DBConfig) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return gdb, nil
}

// pgEnv holds the discrete POSTGRES_* settings used when APP_DATABASE_URL
// is unset.
type pgEnv struct {
	Host, Port, User, Password, Name, SSLMode string
}

func pgEnvFromProcess() pgEnv {
	return pgEnv{
		Host:     utils.GetEnvUnquoted("POSTGRES_HOST"),
		Port:     utils.GetEnvUnquoted("POSTGRES_PORT"),
		User:     utils.GetEnvUnquoted("POSTGRES_USER"),
		Password: utils.GetEnvUnquoted("POSTGRES_PASSWORD"),
		Name:     utils.GetEnvUnquoted("POSTGRES_DB_NAME"),
		SSLMode:  utils.GetEnvUnquoted("POSTGRES_SSLMODE"),
	}
}

func (e pgEnv) missing() []string {
	var missing []string
	for _, f := range []struct{ key, value string }{
		{"POSTGRES_HOST", e.Host},
		{"POSTGRES_PORT", e.Port},
		{"POSTGRES_USER", e.User},
		{"POSTGRES_DB_NAME", e.Name},
	} {
		if f.value == "" {
			missing = append(missing, f.key)
		}
	}
	return missing
}

// dsn renders a keyword/value connection string. defaultSSLMode applies
// when POSTGRES_SSLMODE is unset.
func (e pgEnv) dsn(defaultSSLMode string) (string, error) {
	if missing := e.missing(); len(missing) > 0 {
		return "", fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(e.Port)
	if err != nil || port <= 0 {
		return "", fmt.Errorf("invalid POSTGRES_PORT %q", e.Port)
	}

	sslMode := e.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		e.Host, port, e.User, e.Password, e.Name, sslMode), nil
}

func buildDSNFromEnv(appDatabaseURL string, logger *log.Logger, cfg *DBConfig) (string, error) {
	if appDatabaseURL != "" {
		logger.Info("Using APP_DATABASE_URL for database connection")
		return appDatabaseURL, nil
	}

	env := pgEnvFromProcess()
	dsn, err := env.dsn(cfg.SSLMode)
	if err != nil {
		logger.Error("Invalid database configuration", "error", err)
		return "", err
	}

	logger.Info("Connecting to database", "host", env.Host, "port", env.Port, "user", env.User, "dbname", env.Name)
	return dsn, nil
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		logger.Error("Cannot migrate: db is empty")
		return fmt.Errorf("cannot migrate: db is empty")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database migration completed successfully")

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	} else {
		logger.Info("Database closed successfully")
	}
}
