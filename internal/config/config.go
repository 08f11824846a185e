package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppEnv  string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisPass string
	RedisDB   int

	IdempTTLSecs int

	// CoinRabbit loan processor
	CoinRabbitBaseURL string
	CoinRabbitAPIKey  string
	// live|mock per call family (COINRABBIT_GET_LOAN_MODE / COINRABBIT_CONFIRM_MODE)
	GetLoanMode string
	ConfirmMode string

	// Wallet bridge (payment capability)
	WalletBridgeURL string

	// Managed auth provider (tokeninfo endpoint)
	AuthBaseURL string

	SessionTokenTTL time.Duration

	PollInterval time.Duration
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func Load() *Config {
	// .env is optional; real env wins
	_ = godotenv.Load()

	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		AppEnv:    getenv("APP_ENV", "development"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "cryptolend"),
		MySQLUser: getenv("MYSQL_USER", "cryptolend"),
		MySQLPass: getenv("MYSQL_PASS", "cryptolend"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisPass:    os.Getenv("REDIS_PASS"),
		IdempTTLSecs: 300,

		CoinRabbitBaseURL: getenv("COINRABBIT_BASE_URL", "https://api.coinrabbit.io"),
		CoinRabbitAPIKey:  os.Getenv("COINRABBIT_API_KEY"),
		GetLoanMode:       getenv("COINRABBIT_GET_LOAN_MODE", "live"),
		ConfirmMode:       getenv("COINRABBIT_CONFIRM_MODE", "live"),

		WalletBridgeURL: getenv("WALLET_BRIDGE_URL", "http://wallet-bridge:9090"),
		AuthBaseURL:     getenv("AUTH_BASE_URL", "http://auth:9091"),

		SessionTokenTTL: 24 * time.Hour,
		PollInterval:    8 * time.Second,
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv("IDEMPOTENCY_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IdempTTLSecs = n
		}
	}
	if v := os.Getenv("SESSION_TOKEN_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SessionTokenTTL = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PollInterval = time.Duration(n) * time.Millisecond
		}
	}
	return c
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.CoinRabbitBaseURL == "" {
		return errors.New("missing COINRABBIT_BASE_URL")
	}
	if c.GetLoanMode != "live" && c.GetLoanMode != "mock" {
		return fmt.Errorf("COINRABBIT_GET_LOAN_MODE must be live or mock, got %q", c.GetLoanMode)
	}
	if c.ConfirmMode != "live" && c.ConfirmMode != "mock" {
		return fmt.Errorf("COINRABBIT_CONFIRM_MODE must be live or mock, got %q", c.ConfirmMode)
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
