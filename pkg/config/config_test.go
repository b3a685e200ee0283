package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LOKAPASAR_COMMERCE_BASE_URL", "http://commerce.test/api")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("unexpected default port %q", cfg.App.Port)
	}
	if !cfg.App.IsDev() {
		t.Fatal("expected dev default env")
	}
	if cfg.Payment.AdminFeeIDR != 1000 {
		t.Fatalf("unexpected admin fee %d", cfg.Payment.AdminFeeIDR)
	}
	if cfg.Payment.PollInterval != 10*time.Second {
		t.Fatalf("unexpected poll interval %s", cfg.Payment.PollInterval)
	}
	if cfg.Payment.SnapScriptURL == "" {
		t.Fatal("snap script URL must default, not fail")
	}
	if cfg.Commerce.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected request timeout %s", cfg.Commerce.RequestTimeout)
	}
	if cfg.Commerce.RetryAttempts != 3 {
		t.Fatalf("unexpected retry attempts %d", cfg.Commerce.RetryAttempts)
	}
	if cfg.Redis.URL != "" {
		t.Fatalf("redis URL should default empty, got %q", cfg.Redis.URL)
	}
}

func TestLoadRequiresCommerceBaseURL(t *testing.T) {
	t.Setenv("LOKAPASAR_COMMERCE_BASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when commerce base URL is missing")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOKAPASAR_COMMERCE_BASE_URL", "http://commerce.test/api")
	t.Setenv("LOKAPASAR_APP_ENV", "prod")
	t.Setenv("LOKAPASAR_ADMIN_FEE_IDR", "2500")
	t.Setenv("LOKAPASAR_PAYMENT_POLL_INTERVAL", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.App.IsProd() {
		t.Fatal("expected prod env")
	}
	if cfg.Payment.AdminFeeIDR != 2500 {
		t.Fatalf("unexpected admin fee %d", cfg.Payment.AdminFeeIDR)
	}
	if cfg.Payment.PollInterval != 5*time.Second {
		t.Fatalf("unexpected poll interval %s", cfg.Payment.PollInterval)
	}
}
