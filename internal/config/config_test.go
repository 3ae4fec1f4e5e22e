package config

import (
	"os"
	"testing"
	"time"
)

func TestServerConfig_Timeouts_Defaults(t *testing.T) {
	// Set required env vars
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestServerConfig_Timeouts_CustomValues(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("SERVER_READ_TIMEOUT", "30s")
	os.Setenv("SERVER_WRITE_TIMEOUT", "45s")
	os.Setenv("SERVER_IDLE_TIMEOUT", "120s")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 30 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 45 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 120 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestSecurityConfig_Defaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	sc := cfg.Security
	if sc.LockoutThreshold != 5 {
		t.Errorf("LockoutThreshold: got %d, want 5", sc.LockoutThreshold)
	}
	if sc.LockoutDuration != 5*time.Minute {
		t.Errorf("LockoutDuration: got %v, want 5m", sc.LockoutDuration)
	}
	if sc.GeneralRateLimit != 100 {
		t.Errorf("GeneralRateLimit: got %d, want 100", sc.GeneralRateLimit)
	}
	if sc.AuthRateLimit != 10 {
		t.Errorf("AuthRateLimit: got %d, want 10", sc.AuthRateLimit)
	}
	if sc.RateLimitWindow != 60*time.Second {
		t.Errorf("RateLimitWindow: got %v, want 60s", sc.RateLimitWindow)
	}
	if sc.DetectorInterval != time.Minute {
		t.Errorf("DetectorInterval: got %v, want 1m", sc.DetectorInterval)
	}
	if sc.DetectorWindow != 15*time.Minute {
		t.Errorf("DetectorWindow: got %v, want 15m", sc.DetectorWindow)
	}
	if sc.DetectorThreshold != 10 {
		t.Errorf("DetectorThreshold: got %d, want 10", sc.DetectorThreshold)
	}
	if sc.DetectorBlockTime != 5*time.Minute {
		t.Errorf("DetectorBlockTime: got %v, want 5m", sc.DetectorBlockTime)
	}
	if sc.RetentionMaxAge != 30*24*time.Hour {
		t.Errorf("RetentionMaxAge: got %v, want 720h", sc.RetentionMaxAge)
	}
}

func TestSecurityConfig_WindowShorterThanInterval(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("DETECTOR_INTERVAL", "10m")
	os.Setenv("DETECTOR_WINDOW", "5m")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for window shorter than interval")
	}
}

func TestEmailConfig_EnabledRequiresFrom(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("EMAIL_ENABLED", "true")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error when EMAIL_ENABLED without EMAIL_FROM")
	}
}

func TestEmailConfig_RecipientList(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("EMAIL_ENABLED", "true")
	os.Setenv("EMAIL_FROM", "alerts@example.com")
	os.Setenv("EMAIL_ALERT_RECIPIENTS", "oncall@example.com, soc@example.com")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	got := cfg.Email.ToAddresses
	if len(got) != 2 || got[0] != "oncall@example.com" || got[1] != "soc@example.com" {
		t.Errorf("ToAddresses: got %v, want trimmed two-entry list", got)
	}
}

func TestJWTSecret_WeakValueRejected(t *testing.T) {
	os.Setenv("JWT_SECRET", "changeme")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for weak JWT secret")
	}
}
