package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	IdentityFirebase = "firebase"
	IdentityLocal    = "local"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string
	AutoMigrate bool

	IdentityProvider        string
	FirebaseCredentialsFile string
	FirebaseProjectID       string
	IdentityAPIKey          string
	TokenExchangeURL        string
	TokenExchangeTimeout    time.Duration
	LocalAssertionSecret    []byte
	LocalIDTokenSecret      []byte

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	LoginRateLimit float64
}

const firebaseExchangeURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithCustomToken"

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
	return FromEnv(), nil
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() *Config {
	cfg := &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "shops-api"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		AutoMigrate: EnvBoolDefault("AUTO_MIGRATE", false),

		IdentityProvider:        strings.ToLower(EnvDefault("IDENTITY_PROVIDER", IdentityFirebase)),
		FirebaseCredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		IdentityAPIKey:          os.Getenv("IDENTITY_API_KEY"),
		TokenExchangeURL:        os.Getenv("TOKEN_EXCHANGE_URL"),
		TokenExchangeTimeout:    EnvDurationDefault("TOKEN_EXCHANGE_TIMEOUT", 5*time.Second),
		LocalAssertionSecret:    []byte(os.Getenv("LOCAL_ASSERTION_SECRET")),
		LocalIDTokenSecret:      []byte(os.Getenv("LOCAL_ID_TOKEN_SECRET")),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		LoginRateLimit: EnvFloatDefault("LOGIN_RATE_LIMIT", 5),
	}

	if cfg.TokenExchangeURL == "" {
		if cfg.IdentityProvider == IdentityLocal {
			cfg.TokenExchangeURL = "http://localhost:" + strconv.Itoa(cfg.ServerPort) + "/identity/v1/exchange"
		} else {
			cfg.TokenExchangeURL = firebaseExchangeURL
		}
	}

	return cfg
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
