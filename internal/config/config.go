package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type StoreBackend string

const (
	StoreMemory    StoreBackend = "memory"
	StoreFirestore StoreBackend = "firestore"
	StoreMongo     StoreBackend = "mongo"
)

type ExplainerKind string

const (
	ExplainerNone   ExplainerKind = "none"
	ExplainerMock   ExplainerKind = "mock"
	ExplainerVertex ExplainerKind = "vertex"
)

const DefaultScoringURL = "http://localhost:8080"

type Config struct {
	ScoringURL     string
	ScoringTimeout time.Duration
	ScoringRPS     float64

	StoreBackend StoreBackend

	GCPProjectID string
	GCPLocation  string
	ModelName    string
	Explainer    ExplainerKind

	MongoURI string
	MongoDB  string

	IdentityDSN  string
	TokenSecret  string
	TokenFile    string
	LoginTimeout time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel string
	Port     string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getFloatEnv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".heartdx-session"
	}
	return filepath.Join(home, ".heartdx", "session")
}

// Load reads .env.local (if present) and the environment, and builds the config.
func Load() *Config {
	_ = godotenv.Load(".env.local")

	backend := StoreBackend(strings.ToLower(getEnv("HEARTDX_STORE_BACKEND", string(StoreMemory))))
	switch backend {
	case StoreFirestore, StoreMongo:
	default:
		backend = StoreMemory
	}

	explainer := ExplainerKind(strings.ToLower(getEnv("HEARTDX_EXPLAINER", string(ExplainerNone))))
	switch explainer {
	case ExplainerMock, ExplainerVertex:
	default:
		explainer = ExplainerNone
	}

	return &Config{
		ScoringURL:     strings.TrimRight(getEnv("HEARTDX_SCORING_URL", DefaultScoringURL), "/"),
		ScoringTimeout: getDurationEnv("HEARTDX_SCORING_TIMEOUT", 30*time.Second),
		ScoringRPS:     getFloatEnv("HEARTDX_SCORING_RPS", 5),

		StoreBackend: backend,

		GCPProjectID: getEnv("HEARTDX_GCP_PROJECT", ""),
		GCPLocation:  getEnv("HEARTDX_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("HEARTDX_MODEL_NAME", "gemini-2.5-flash-lite"),
		Explainer:    explainer,

		MongoURI: getEnv("HEARTDX_MONGO_URI", ""),
		MongoDB:  getEnv("HEARTDX_MONGO_DB", "heartdx"),

		IdentityDSN:  getEnv("HEARTDX_IDENTITY_DSN", "heartdx-identity.db"),
		TokenSecret:  getEnv("HEARTDX_TOKEN_SECRET", "heartdx-dev-secret"),
		TokenFile:    getEnv("HEARTDX_TOKEN_FILE", defaultTokenFile()),
		LoginTimeout: getDurationEnv("HEARTDX_LOGIN_TIMEOUT", 10*time.Second),

		KafkaBrokers: splitList(os.Getenv("HEARTDX_KAFKA_BROKERS")),
		KafkaTopic:   getEnv("HEARTDX_KAFKA_TOPIC", "emergency-alerts"),

		LogLevel: getEnv("HEARTDX_LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),
	}
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	if c.StoreBackend == StoreFirestore && c.GCPProjectID == "" {
		return errors.New("HEARTDX_GCP_PROJECT must be set for the firestore store backend")
	}
	if c.StoreBackend == StoreMongo && c.MongoURI == "" {
		return errors.New("HEARTDX_MONGO_URI must be set for the mongo store backend")
	}
	if c.Explainer == ExplainerVertex && c.GCPProjectID == "" {
		return errors.New("HEARTDX_GCP_PROJECT must be set for the vertex explainer")
	}
	return nil
}
