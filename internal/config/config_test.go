package config

import (
	"testing"
	"time"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"CHOREUS_JWT_SECRET": "s"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DBPath != "choreus.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "choreus.db")
	}
	if cfg.TokenTTL != 168*time.Hour {
		t.Errorf("TokenTTL = %v, want 168h", cfg.TokenTTL)
	}
	if cfg.ReminderInterval != time.Hour || cfg.ReminderAfter != 24*time.Hour {
		t.Errorf("reminders = %v/%v, want 1h/24h", cfg.ReminderInterval, cfg.ReminderAfter)
	}
	if cfg.AllowRevote {
		t.Error("AllowRevote should default to false")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.PushEnabled() {
		t.Error("push should be disabled without VAPID keys")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"CHOREUS_JWT_SECRET":        "s",
		"CHOREUS_PORT":              "9000",
		"CHOREUS_TOKEN_TTL":         "2h",
		"CHOREUS_ALLOW_REVOTE":      "true",
		"CHOREUS_CORS_ORIGINS":      "https://a.example, https://b.example ,",
		"CHOREUS_VAPID_PUBLIC_KEY":  "pub",
		"CHOREUS_VAPID_PRIVATE_KEY": "priv",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" || cfg.TokenTTL != 2*time.Hour || !cfg.AllowRevote {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if !cfg.PushEnabled() {
		t.Error("push should be enabled")
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"bad ttl", map[string]string{"CHOREUS_JWT_SECRET": "s", "CHOREUS_TOKEN_TTL": "soon"}},
		{"negative ttl", map[string]string{"CHOREUS_JWT_SECRET": "s", "CHOREUS_TOKEN_TTL": "-1h"}},
		{"zero reminder", map[string]string{"CHOREUS_JWT_SECRET": "s", "CHOREUS_REMINDER_AFTER": "0s"}},
		{"bad bool", map[string]string{"CHOREUS_JWT_SECRET": "s", "CHOREUS_ALLOW_REVOTE": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromEnv(env(tt.env)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
