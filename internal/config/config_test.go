package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":3000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":3000")
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.JWTTTL != "1h" {
		t.Errorf("JWTTTL = %q, want %q", cfg.JWTTTL, "1h")
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
	if cfg.AuthEventsTopic != "casas-auth-events" {
		t.Errorf("AuthEventsTopic = %q, want default", cfg.AuthEventsTopic)
	}
	if cfg.SweepDailyAt != "03:00" {
		t.Errorf("SweepDailyAt = %q, want 03:00", cfg.SweepDailyAt)
	}
	if cfg.JWTSecret != "" {
		t.Error("JWTSecret should default to empty")
	}
	if cfg.TrustedProxiesList() != nil {
		t.Errorf("TrustedProxiesList() = %v, want nil by default", cfg.TrustedProxiesList())
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	t.Setenv("GRPC_ADDR", ":9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("SWEEP_DAILY_AT", "04:30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, "s3cret")
	}
	if cfg.TokenTTL() != 2*time.Hour {
		t.Errorf("TokenTTL() = %v, want 2h", cfg.TokenTTL())
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	h, m := cfg.DailySweepClock()
	if h != 4 || m != 30 {
		t.Errorf("DailySweepClock() = %d:%d, want 4:30", h, m)
	}
}

func TestLoad_BCRYPT_COSTRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"valid middle", "12", 12, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			t.Setenv("BCRYPT_COST", tc.value)
			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatalf("BCRYPT_COST=%s: expected error", tc.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestLoad_InvalidSweepDailyAt(t *testing.T) {
	os.Clearenv()
	t.Setenv("SWEEP_DAILY_AT", "25:99")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid SWEEP_DAILY_AT")
	}
}

func TestConfig_DurationFallbacks(t *testing.T) {
	c := &Config{JWTTTL: "bogus", StoreTimeout: "-1s", SweepInterval: "", JWTLeeway: "nope"}
	if got := c.TokenTTL(); got != time.Hour {
		t.Errorf("TokenTTL() = %v, want 1h", got)
	}
	if got := c.StoreCallTimeout(); got != 3*time.Second {
		t.Errorf("StoreCallTimeout() = %v, want 3s", got)
	}
	if got := c.FrequentSweepInterval(); got != time.Hour {
		t.Errorf("FrequentSweepInterval() = %v, want 1h", got)
	}
	if got := c.Leeway(); got != 0 {
		t.Errorf("Leeway() = %v, want 0", got)
	}
	c.JWTLeeway = "30s"
	if got := c.Leeway(); got != 30*time.Second {
		t.Errorf("Leeway() = %v, want 30s", got)
	}
}

func TestConfig_KafkaBrokersList(t *testing.T) {
	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should return nil brokers")
	}
	c := &Config{KafkaBrokers: " a:9092, ,b:9092 "}
	got := c.KafkaBrokersList()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("KafkaBrokersList() = %v", got)
	}
}

func TestConfig_TrustedProxiesList(t *testing.T) {
	testCases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , ", nil},
		{"10.0.0.1", []string{"10.0.0.1"}},
		{"10.0.0.0/8, 192.168.1.2", []string{"10.0.0.0/8", "192.168.1.2"}},
	}
	for _, tc := range testCases {
		got := (&Config{TrustedProxies: tc.in}).TrustedProxiesList()
		if len(got) != len(tc.want) {
			t.Errorf("TrustedProxiesList(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		if tc.want == nil && got != nil {
			t.Errorf("TrustedProxiesList(%q) = %v, want nil", tc.in, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("TrustedProxiesList(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}

func TestParseClock(t *testing.T) {
	testCases := []struct {
		in     string
		h, m   int
		hasErr bool
	}{
		{"03:00", 3, 0, false},
		{"23:59", 23, 59, false},
		{"", 0, 0, true},
		{"3am", 0, 0, true},
	}
	for _, tc := range testCases {
		h, m, err := ParseClock(tc.in)
		if tc.hasErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || h != tc.h || m != tc.m {
			t.Errorf("ParseClock(%q) = %d, %d, %v", tc.in, h, m, err)
		}
	}
}
