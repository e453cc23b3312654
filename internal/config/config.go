package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Gateway names.
const (
	GatewayManual = "manual"
	GatewayStripe = "stripe"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress         string
	DatabaseURI        string
	OriginalityAddress string
	JWTSecret          string
	TokenTTL           time.Duration
	PasswordCost       int
	CheckPollInterval  time.Duration
	CheckBatchSize     int
	WorkerPoolSize     int
	ShutdownTimeout    time.Duration
	LogLevel           string

	PlatformFeeRate decimal.Decimal
	MinWithdrawal   decimal.Decimal
	BasePagePrice   decimal.Decimal
	Currency        string
	RevisionWindow  time.Duration

	// LevelMultipliers and UrgencyMultipliers override pricing table entries by key.
	LevelMultipliers   map[string]decimal.Decimal
	UrgencyMultipliers map[string]decimal.Decimal

	PaymentGateway  string
	StripeSecretKey string

	KafkaBrokers []string
	KafkaTopic   string

	RedisAddr string
	LockTTL   time.Duration

	AdminEmail    string
	AdminPassword string
}

const (
	defaultRunAddress        = ":8080"
	defaultJWTSecret         = "change-me-in-production"
	defaultTokenTTL          = 24 * time.Hour
	defaultCheckPollInterval = 3 * time.Second
	defaultCheckBatchSize    = 32
	defaultWorkerPoolSize    = 4
	defaultShutdownTimeout   = 10 * time.Second
	defaultPlatformFeeRate   = "0.20"
	defaultMinWithdrawal     = "20.00"
	defaultBasePagePrice     = "12.00"
	defaultCurrency          = "USD"
	defaultRevisionWindow    = 24 * time.Hour
	defaultKafkaTopic        = "scribemart.notifications"
	defaultLockTTL           = 10 * time.Second
	defaultEnvFile           = ".env"
)

// Load parses configuration from flags, environment variables and an optional .env file.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	lookup, err := withDotEnv(lookup)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RunAddress:         getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:        getString(lookup, "DATABASE_URI", ""),
		OriginalityAddress: getString(lookup, "ORIGINALITY_SERVICE_ADDRESS", ""),
		JWTSecret:          getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:           getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		PasswordCost:       getInt(lookup, "BCRYPT_COST", 0),
		CheckPollInterval:  getDuration(lookup, "CHECK_POLL_INTERVAL", defaultCheckPollInterval),
		CheckBatchSize:     getInt(lookup, "CHECK_BATCH_SIZE", defaultCheckBatchSize),
		WorkerPoolSize:     getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:    getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:           getString(lookup, "LOG_LEVEL", "info"),
		Currency:           getString(lookup, "CURRENCY", defaultCurrency),
		RevisionWindow:     getDuration(lookup, "REVISION_WINDOW", defaultRevisionWindow),
		PaymentGateway:     getString(lookup, "PAYMENT_GATEWAY", GatewayManual),
		StripeSecretKey:    getString(lookup, "STRIPE_SECRET_KEY", ""),
		KafkaTopic:         getString(lookup, "KAFKA_TOPIC", defaultKafkaTopic),
		RedisAddr:          getString(lookup, "REDIS_ADDR", ""),
		LockTTL:            getDuration(lookup, "LOCK_TTL", defaultLockTTL),
		AdminEmail:         getString(lookup, "ADMIN_EMAIL", ""),
		AdminPassword:      getString(lookup, "ADMIN_PASSWORD", ""),
	}

	fs := flag.NewFlagSet("scribemart", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.CheckPollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		feeRateStr         = getString(lookup, "PLATFORM_FEE_RATE", defaultPlatformFeeRate)
		minWithdrawalStr   = getString(lookup, "MIN_WITHDRAWAL", defaultMinWithdrawal)
		basePriceStr       = getString(lookup, "BASE_PAGE_PRICE", defaultBasePagePrice)
		brokersStr         = getString(lookup, "KAFKA_BROKERS", "")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN, in-memory store when empty")
	fs.StringVar(&cfg.OriginalityAddress, "o", cfg.OriginalityAddress, "Originality checker base URL")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent originality workers")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between originality queue polls")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.CheckBatchSize, "poll-batch", cfg.CheckBatchSize, "Maximum submissions per polling batch")
	fs.StringVar(&feeRateStr, "fee-rate", feeRateStr, "Platform fee share of an order payment")
	fs.StringVar(&minWithdrawalStr, "min-withdrawal", minWithdrawalStr, "Minimum withdrawal amount")
	fs.StringVar(&cfg.PaymentGateway, "gateway", cfg.PaymentGateway, "Payment gateway: manual or stripe")
	fs.StringVar(&brokersStr, "kafka-brokers", brokersStr, "Comma separated Kafka brokers")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for distributed locks")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if cfg.CheckPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.PlatformFeeRate, err = decimal.NewFromString(feeRateStr); err != nil {
		return nil, fmt.Errorf("invalid fee rate: %w", err)
	}

	if cfg.MinWithdrawal, err = decimal.NewFromString(minWithdrawalStr); err != nil {
		return nil, fmt.Errorf("invalid minimum withdrawal: %w", err)
	}

	if cfg.BasePagePrice, err = decimal.NewFromString(basePriceStr); err != nil {
		return nil, fmt.Errorf("invalid base page price: %w", err)
	}

	if cfg.LevelMultipliers, err = parseMultipliers(getString(lookup, "LEVEL_MULTIPLIERS", "")); err != nil {
		return nil, fmt.Errorf("invalid level multipliers: %w", err)
	}

	if cfg.UrgencyMultipliers, err = parseMultipliers(getString(lookup, "URGENCY_MULTIPLIERS", "")); err != nil {
		return nil, fmt.Errorf("invalid urgency multipliers: %w", err)
	}

	cfg.KafkaBrokers = splitList(brokersStr)

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.CheckBatchSize <= 0 {
		cfg.CheckBatchSize = defaultCheckBatchSize
	}

	if cfg.CheckPollInterval <= 0 {
		cfg.CheckPollInterval = defaultCheckPollInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.RevisionWindow <= 0 {
		cfg.RevisionWindow = defaultRevisionWindow
	}

	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}

	if cfg.BasePagePrice.Sign() <= 0 {
		cfg.BasePagePrice = decimal.RequireFromString(defaultBasePagePrice)
	}

	if cfg.MinWithdrawal.IsNegative() {
		cfg.MinWithdrawal = decimal.Zero
	}

	if cfg.PlatformFeeRate.IsNegative() || cfg.PlatformFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("fee rate must be within [0, 1)")
	}

	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, fmt.Errorf("admin email and password must be set together")
	}

	switch cfg.PaymentGateway {
	case GatewayManual:
	case GatewayStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("stripe secret key must be provided")
		}
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", cfg.PaymentGateway)
	}

	return cfg, nil
}

// withDotEnv layers values from ENV_FILE (or ./.env) below the real environment.
func withDotEnv(lookup envLookup) (envLookup, error) {
	path, explicit := lookup("ENV_FILE")
	if !explicit || path == "" {
		path = defaultEnvFile
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return lookup, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}

	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

// parseMultipliers reads "key=value,key=value" into a map of positive decimals.
func parseMultipliers(raw string) (map[string]decimal.Decimal, error) {
	items := splitList(raw)
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string]decimal.Decimal, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("entry %q is not key=value", item)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", item, err)
		}
		if !d.IsPositive() {
			return nil, fmt.Errorf("entry %q must be positive", item)
		}
		out[key] = d
	}
	return out, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
