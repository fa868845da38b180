package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"API_PORT", "NATS_URL", "NATS_SUBJECT", "INGESTION_WORKER_URL", "PYTHON_SERVICE_URL",
		"INGESTION_WORKER_TIMEOUT", "JWT_EXPIRES_IN", "CORS_ALLOWED_ORIGINS", "API_RATE_LIMIT_RPS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.APIPort != "3000" {
		t.Fatalf("expected default port 3000, got %q", cfg.APIPort)
	}
	if cfg.NATSURL != "" {
		t.Fatalf("expected event publishing disabled by default, got %q", cfg.NATSURL)
	}
	if cfg.NATSSubject != "ingestion.status" {
		t.Fatalf("expected default subject, got %q", cfg.NATSSubject)
	}
	if cfg.IngestionWorkerTimeout != 120*time.Second {
		t.Fatalf("expected default worker timeout 120s, got %s", cfg.IngestionWorkerTimeout)
	}
	if cfg.JWTExpiresIn != time.Hour {
		t.Fatalf("expected default token lifetime 1h, got %s", cfg.JWTExpiresIn)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.APIRateLimitRPS != 50 {
		t.Fatalf("expected default rps 50, got %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadWorkerURLFallsBackToLegacyVariable(t *testing.T) {
	t.Setenv("INGESTION_WORKER_URL", "")
	t.Setenv("PYTHON_SERVICE_URL", "http://python:8000")

	if got := Load().IngestionWorkerURL; got != "http://python:8000" {
		t.Fatalf("expected legacy url, got %q", got)
	}

	t.Setenv("INGESTION_WORKER_URL", "http://worker:9000")
	if got := Load().IngestionWorkerURL; got != "http://worker:9000" {
		t.Fatalf("expected explicit url to win, got %q", got)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("INGESTION_WORKER_TIMEOUT", "45")
	t.Setenv("JWT_EXPIRES_IN", "15m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("INGESTION_BREAKER_ENABLED", "false")

	cfg := Load()
	if cfg.IngestionWorkerTimeout != 45*time.Second {
		t.Fatalf("expected bare seconds to parse, got %s", cfg.IngestionWorkerTimeout)
	}
	if cfg.JWTExpiresIn != 15*time.Minute {
		t.Fatalf("expected 15m, got %s", cfg.JWTExpiresIn)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected 2.5 rps, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.IngestionBreakerOn {
		t.Fatalf("expected breaker disabled")
	}
}

func TestMustEnvDurationInvalidFallsBack(t *testing.T) {
	t.Setenv("X_TEST_DURATION", "soon")
	if got := mustEnvDuration("X_TEST_DURATION", 3*time.Second); got != 3*time.Second {
		t.Fatalf("expected fallback, got %s", got)
	}
}
