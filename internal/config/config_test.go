package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(map[string]string{"PATH": "/usr/bin", "BOARD_ROWS": ""})
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(map[string]string{
		"PORT":           "9000",
		"BOARD_ROWS":     "4",
		"BOARD_COLS":     "4",
		"ROUND_SECONDS":  "90",
		"REDIS_DB":       "2",
		"SCORES_BACKEND": "redis",
		"SESSION_TTL":    "5m",
		"APP_ENV":        "production",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9000" || cfg.BoardRows != 4 || cfg.BoardCols != 4 || cfg.RoundSeconds != 90 {
		t.Errorf("board/port not decoded: %+v", cfg)
	}
	if cfg.RedisDB != 2 || cfg.ScoresBackend != "redis" {
		t.Errorf("redis not decoded: %+v", cfg)
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Errorf("SessionTTL = %s", cfg.SessionTTL)
	}
	if !cfg.Production() {
		t.Error("expected production")
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"non-numeric rows", map[string]string{"BOARD_ROWS": "four"}},
		{"unknown backend", map[string]string{"SCORES_BACKEND": "memcached"}},
		{"unknown driver", map[string]string{"DB_DRIVER": "postgres"}},
		{"bad duration", map[string]string{"SESSION_TTL": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromEnv(tt.env); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("ROUND_SECONDS", "45")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RoundSeconds != 45 {
		t.Fatalf("RoundSeconds = %d", cfg.RoundSeconds)
	}
}
