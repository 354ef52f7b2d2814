package config_test

import (
	"testing"
	"time"

	"github.com/PabloGalante/heartdx/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"HEARTDX_SCORING_URL", "HEARTDX_SCORING_TIMEOUT", "HEARTDX_SCORING_RPS",
		"HEARTDX_STORE_BACKEND", "HEARTDX_EXPLAINER", "HEARTDX_LOGIN_TIMEOUT",
		"HEARTDX_KAFKA_BROKERS", "HEARTDX_KAFKA_TOPIC", "HEARTDX_MONGO_DB",
	} {
		t.Setenv(k, "")
	}

	cfg := config.Load()

	if cfg.ScoringURL != config.DefaultScoringURL {
		t.Fatalf("expected default scoring url, got %q", cfg.ScoringURL)
	}
	if cfg.ScoringTimeout != 30*time.Second || cfg.LoginTimeout != 10*time.Second {
		t.Fatalf("unexpected timeouts %v %v", cfg.ScoringTimeout, cfg.LoginTimeout)
	}
	if cfg.ScoringRPS != 5 {
		t.Fatalf("expected 5 rps, got %v", cfg.ScoringRPS)
	}
	if cfg.StoreBackend != config.StoreMemory || cfg.Explainer != config.ExplainerNone {
		t.Fatalf("unexpected backends %q %q", cfg.StoreBackend, cfg.Explainer)
	}
	if len(cfg.KafkaBrokers) != 0 || cfg.KafkaTopic != "emergency-alerts" {
		t.Fatalf("unexpected kafka config %v %q", cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	if cfg.MongoDB != "heartdx" {
		t.Fatalf("unexpected mongo db %q", cfg.MongoDB)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HEARTDX_SCORING_URL", "https://scoring.example.com/")
	t.Setenv("HEARTDX_SCORING_TIMEOUT", "5s")
	t.Setenv("HEARTDX_SCORING_RPS", "0")
	t.Setenv("HEARTDX_STORE_BACKEND", "Mongo")
	t.Setenv("HEARTDX_EXPLAINER", "mock")
	t.Setenv("HEARTDX_KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("HEARTDX_LOGIN_TIMEOUT", "not-a-duration")

	cfg := config.Load()

	if cfg.ScoringURL != "https://scoring.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.ScoringURL)
	}
	if cfg.ScoringTimeout != 5*time.Second || cfg.ScoringRPS != 0 {
		t.Fatalf("unexpected scoring settings %v %v", cfg.ScoringTimeout, cfg.ScoringRPS)
	}
	if cfg.StoreBackend != config.StoreMongo || cfg.Explainer != config.ExplainerMock {
		t.Fatalf("unexpected backends %q %q", cfg.StoreBackend, cfg.Explainer)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.LoginTimeout != 10*time.Second {
		t.Fatalf("expected invalid duration to fall back, got %v", cfg.LoginTimeout)
	}
}

func TestLoad_UnknownBackendFallsBackToMemory(t *testing.T) {
	t.Setenv("HEARTDX_STORE_BACKEND", "cassandra")
	t.Setenv("HEARTDX_EXPLAINER", "gpt")

	cfg := config.Load()

	if cfg.StoreBackend != config.StoreMemory || cfg.Explainer != config.ExplainerNone {
		t.Fatalf("expected fallbacks, got %q %q", cfg.StoreBackend, cfg.Explainer)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"memory", config.Config{StoreBackend: config.StoreMemory}, false},
		{"firestore without project", config.Config{StoreBackend: config.StoreFirestore}, true},
		{"firestore with project", config.Config{StoreBackend: config.StoreFirestore, GCPProjectID: "p"}, false},
		{"mongo without uri", config.Config{StoreBackend: config.StoreMongo}, true},
		{"vertex without project", config.Config{StoreBackend: config.StoreMemory, Explainer: config.ExplainerVertex}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
