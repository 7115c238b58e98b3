package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Slots    SlotsConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

type SlotsConfig struct {
	WindowMinutes    int
	CapacityCategory string
}

type NotifyConfig struct {
	WebhookURL string
	// WaitBudget bounds how long order submission waits for the
	// notification fan-out after commit.
	WaitBudget time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := os.Getenv("SERVER_HOST")
	if serverHost == "" {
		serverHost = "localhost"
	}

	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080"
	}

	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid SERVER_PORT: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: serverHost,
		Port: serverPort,
	}

	postgresHost := os.Getenv("POSTGRES_HOST")
	if postgresHost == "" {
		postgresHost = "localhost"
	}

	postgresPortStr := os.Getenv("POSTGRES_PORT")
	if postgresPortStr == "" {
		postgresPortStr = "5432"
	}

	postgresPort, err := strconv.Atoi(postgresPortStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid POSTGRES_PORT: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresSSLMode := os.Getenv("POSTGRES_SSLMODE")
	if postgresSSLMode == "" {
		postgresSSLMode = "disable"
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     postgresHost,
		Port:     postgresPort,
		SSLMode:  postgresSSLMode,
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisCfg := RedisConfig{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	}

	windowMinutes := 10
	if s := os.Getenv("SLOT_WINDOW_MINUTES"); s != "" {
		windowMinutes, err = strconv.Atoi(s)
		if err != nil || windowMinutes <= 0 {
			return nil, fmt.Errorf("%s: invalid SLOT_WINDOW_MINUTES: %q", op, s)
		}
	}

	capacityCategory := os.Getenv("SLOT_CAPACITY_CATEGORY")
	if capacityCategory == "" {
		capacityCategory = "pizza"
	}

	slotsCfg := SlotsConfig{
		WindowMinutes:    windowMinutes,
		CapacityCategory: capacityCategory,
	}

	notifyWait := 1500 * time.Millisecond
	if s := os.Getenv("NOTIFY_WAIT_MS"); s != "" {
		ms, err := strconv.Atoi(s)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("%s: invalid NOTIFY_WAIT_MS: %q", op, s)
		}
		notifyWait = time.Duration(ms) * time.Millisecond
	}

	notifyCfg := NotifyConfig{
		WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		WaitBudget: notifyWait,
	}

	return &Config{
		Server:   serverCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Slots:    slotsCfg,
		Notify:   notifyCfg,
	}, nil
}
