package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	domainavailability "locadz/internal/domain/availability"
	domainbooking "locadz/internal/domain/booking"
	domainpricing "locadz/internal/domain/pricing"
	domainrange "locadz/internal/domain/shared/daterange"
	"locadz/internal/domain/shared/money"
)

// Config aggregates application configuration values loaded from environment variables.
// Empty connection settings select the in-memory adapters.
type Config struct {
	Env                  string
	LogLevel             string
	HTTPAddr             string
	CORSOrigins          []string
	MongoURI             string
	MongoDB              string
	KafkaBrokers         []string
	KafkaTopicPrefix     string
	KafkaGroupID         string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	LockTTL              time.Duration
	IdempotencyTTL       time.Duration
	OutboxPollInterval   time.Duration
	RetryBackoff         []time.Duration
	FeeRates             domainpricing.FeeRates
	Currency             string
	Availability         domainavailability.Policy
	AvailabilityFailOpen bool
	JWTSecret            string
	JWTIssuer            string
	ListingsFixture      string
	S3Endpoint           string
	S3PublicEndpoint     string
	S3AccessKey          string
	S3SecretKey          string
	S3Bucket             string
	S3UseSSL             bool
	MaxProofBytes        int64
}

// Load reads an optional .env file, then parses configuration from the
// current environment. Only malformed values are errors.
func Load(envFiles ...string) (Config, error) {
	if err := loadDotenv(envFiles...); err != nil {
		return Config{}, err
	}
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "locadz"),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "locadz-api"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		Currency:         strings.ToUpper(getEnv("CURRENCY", money.DefaultCurrency)),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTIssuer:        os.Getenv("JWT_ISSUER"),
		ListingsFixture:  getEnv("LISTINGS_FIXTURE", "data/listings.json"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3PublicEndpoint: getEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:      getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:         getEnv("S3_BUCKET", "locadz-payment-proofs"),
	}

	var err error
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.LockTTL, err = parseDurationEnv("LOCK_TTL", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	clientBps, err := parseIntEnv("CLIENT_FEE_BPS", int(domainpricing.DefaultFeeRates.ClientBps))
	if err != nil {
		return Config{}, err
	}
	hostBps, err := parseIntEnv("HOST_FEE_BPS", int(domainpricing.DefaultFeeRates.HostBps))
	if err != nil {
		return Config{}, err
	}
	cfg.FeeRates = domainpricing.FeeRates{ClientBps: int64(clientBps), HostBps: int64(hostBps)}
	if err := cfg.FeeRates.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid CLIENT_FEE_BPS/HOST_FEE_BPS: %w", err)
	}
	if _, err := money.New(0, cfg.Currency); err != nil {
		return Config{}, fmt.Errorf("invalid CURRENCY %q: %w", cfg.Currency, err)
	}

	if cfg.Availability, err = parseAvailability(); err != nil {
		return Config{}, err
	}
	if cfg.AvailabilityFailOpen, err = parseBoolEnv("AVAILABILITY_FAIL_OPEN", false); err != nil {
		return Config{}, err
	}

	maxProofMB, err := parseIntEnv("MAX_PROOF_MB", 10)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxProofBytes = int64(maxProofMB) << 20

	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}
	return cfg, nil
}

func parseAvailability() (domainavailability.Policy, error) {
	policy := domainavailability.DefaultPolicy
	if raw := os.Getenv("AVAILABILITY_BLOCKING_STATUSES"); raw != "" {
		statuses, err := domainbooking.ParseStatuses(raw)
		if err != nil {
			return policy, fmt.Errorf("invalid AVAILABILITY_BLOCKING_STATUSES: %w", err)
		}
		policy.Blocking = statuses
	}
	if raw := os.Getenv("AVAILABILITY_OVERLAP_MODE"); raw != "" {
		mode, err := domainrange.ParseOverlapMode(raw)
		if err != nil {
			return policy, fmt.Errorf("invalid AVAILABILITY_OVERLAP_MODE: %w", err)
		}
		policy.Mode = mode
	}
	if err := policy.Validate(); err != nil {
		return policy, fmt.Errorf("invalid AVAILABILITY_BLOCKING_STATUSES: %w", err)
	}
	return policy, nil
}

func loadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", f, err)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
