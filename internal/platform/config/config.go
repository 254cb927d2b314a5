package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Server       Server
	Redis        RedisConfig
	Database     DatabaseConfig
	Kafka        KafkaConfig
	Vault        VaultConfig
	APIGateway   APIGatewayConfig
	ProjectToken ProjectTokenConfig
	Requests     RequestsConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	Environment    string
	LogLevel       string
	RequestTimeout time.Duration
	// TrustedProxies is a comma separated list of CIDRs allowed to set X-Forwarded-For.
	TrustedProxies string
}

// RedisConfig configures the Redis cycle store. An empty URL selects the in-memory store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CycleTTL     time.Duration
	// LockTTL bounds how long one instance may hold a session's cycle lock.
	LockTTL      time.Duration
}

// DatabaseConfig configures the Postgres issuance store. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig configures issuance event publishing. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers         string
	IssuanceTopic   string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// VaultConfig points at the identity wallet web app.
type VaultConfig struct {
	// RequestURL is where the wallet's share page lives; request URLs are built on it.
	RequestURL string
	// ClaimURL prefixes credential offers to build the "Accept Offer" link.
	ClaimURL string
}

// APIGatewayConfig describes the external verification and issuance APIs.
type APIGatewayConfig struct {
	URL              string
	ProjectID        string
	Timeout          time.Duration
	SkipVerification bool
}

// ProjectTokenConfig holds the personal access token used to mint project-scoped tokens.
type ProjectTokenConfig struct {
	TokenEndpoint string
	TokenID       string
	KeyID         string
	PrivateKey    string
	StaticToken   string
}

// RequestsConfig tunes the request-cycle orchestration.
type RequestsConfig struct {
	MergePolicy string
}

// Configured reports whether the outbound API can be called at all.
func (c APIGatewayConfig) Configured() bool {
	return c.URL != "" && c.ProjectID != ""
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	gateway := APIGatewayConfig{
		URL:       strings.TrimRight(os.Getenv("API_GATEWAY_URL"), "/"),
		ProjectID: os.Getenv("PROJECT_ID"),
		Timeout:   durationEnv("API_GATEWAY_TIMEOUT", 10*time.Second),
	}
	token := ProjectTokenConfig{
		TokenEndpoint: os.Getenv("TOKEN_ENDPOINT"),
		TokenID:       os.Getenv("TOKEN_ID"),
		KeyID:         os.Getenv("TOKEN_KEY_ID"),
		PrivateKey:    os.Getenv("TOKEN_PRIVATE_KEY"),
		StaticToken:   os.Getenv("PROJECT_SCOPED_TOKEN"),
	}
	// Without gateway credentials there is nothing to verify against.
	gateway.SkipVerification = boolEnv("SKIP_VERIFICATION") || !gateway.Configured() || !token.Configured()

	return Config{
		Server: Server{
			Addr:           stringEnv("VAULTFLOW_ADDR", ":8080"),
			Environment:    stringEnv("ENVIRONMENT", "development"),
			LogLevel:       stringEnv("LOG_LEVEL", "info"),
			RequestTimeout: durationEnv("REQUEST_TIMEOUT", 30*time.Second),
			TrustedProxies: os.Getenv("TRUSTED_PROXIES"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CycleTTL:     durationEnv("REQUEST_CYCLE_TTL", 24*time.Hour),
			LockTTL:      durationEnv("REQUEST_CYCLE_LOCK_TTL", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    intEnv("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    intEnv("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durationEnv("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			IssuanceTopic:   stringEnv("KAFKA_ISSUANCE_TOPIC", "issuance.started"),
			Acks:            stringEnv("KAFKA_ACKS", "all"),
			Retries:         intEnv("KAFKA_RETRIES", 3),
			DeliveryTimeout: durationEnv("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
		},
		Vault: VaultConfig{
			RequestURL: stringEnv("VAULT_URL", "https://vault.affinidi.com/login"),
			ClaimURL:   os.Getenv("VAULT_CLAIM_URL"),
		},
		APIGateway:   gateway,
		ProjectToken: token,
		Requests: RequestsConfig{
			MergePolicy: stringEnv("REQUEST_MERGE_POLICY", "accumulate"),
		},
	}
}

// Configured reports whether a project token can be obtained.
func (c ProjectTokenConfig) Configured() bool {
	if c.StaticToken != "" {
		return true
	}
	return c.TokenEndpoint != "" && c.TokenID != "" && c.PrivateKey != ""
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func boolEnv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
