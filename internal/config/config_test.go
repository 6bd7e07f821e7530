package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DETECT_MIN_CONFIDENCE", "")
	t.Setenv("DETECT_LOOKBACK_DAYS", "")
	t.Setenv("DETECT_ALLOW_CUSTOM", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LookbackDays != 365 {
		t.Errorf("expected lookback 365, got %d", cfg.LookbackDays)
	}
	if cfg.MinTransactions != 2 {
		t.Errorf("expected min transactions 2, got %d", cfg.MinTransactions)
	}
	if cfg.MinConfidence != 0.3 {
		t.Errorf("expected min confidence 0.3, got %g", cfg.MinConfidence)
	}
	if cfg.AllowCustomCadence {
		t.Error("expected custom cadences to be off by default")
	}
	if cfg.DuplicateAmountTolerancePercent != 15 {
		t.Errorf("expected duplicate tolerance 15, got %g", cfg.DuplicateAmountTolerancePercent)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Run("valid values", func(t *testing.T) {
		t.Setenv("DETECT_MIN_CONFIDENCE", "0.5")
		t.Setenv("DETECT_LOOKBACK_DAYS", "180")
		t.Setenv("DETECT_ALLOW_CUSTOM", "true")

		cfg, _ := Load()
		if cfg.MinConfidence != 0.5 {
			t.Errorf("expected 0.5, got %g", cfg.MinConfidence)
		}
		if cfg.LookbackDays != 180 {
			t.Errorf("expected 180, got %d", cfg.LookbackDays)
		}
		if !cfg.AllowCustomCadence {
			t.Error("expected custom cadences to be allowed")
		}
	})

	t.Run("zero confidence is kept", func(t *testing.T) {
		t.Setenv("DETECT_MIN_CONFIDENCE", "0")

		cfg, _ := Load()
		if cfg.MinConfidence != 0 {
			t.Errorf("expected 0, got %g", cfg.MinConfidence)
		}
		if got := cfg.Detection().MinConfidence; got != 0 {
			t.Errorf("expected detection threshold 0, got %g", got)
		}
	})

	t.Run("invalid values fall back", func(t *testing.T) {
		t.Setenv("DETECT_MIN_CONFIDENCE", "high")
		t.Setenv("DETECT_LOOKBACK_DAYS", "a year")
		t.Setenv("DETECT_ALLOW_CUSTOM", "sometimes")

		cfg, _ := Load()
		if cfg.MinConfidence != 0.3 {
			t.Errorf("expected fallback 0.3, got %g", cfg.MinConfidence)
		}
		if cfg.LookbackDays != 365 {
			t.Errorf("expected fallback 365, got %d", cfg.LookbackDays)
		}
		if cfg.AllowCustomCadence {
			t.Error("expected fallback false")
		}
	})
}

func TestDerivedSettings(t *testing.T) {
	cfg := &Config{
		DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "tally", DBSSLMode: "disable",
		LookbackDays: 90, MinTransactions: 3, MinConfidence: 0.6, AllowCustomCadence: true,
		DuplicateAmountTolerancePercent: 10,
	}

	if got := cfg.DSN(); got != "host=db port=5432 user=u password=p dbname=tally sslmode=disable" {
		t.Errorf("unexpected DSN %q", got)
	}
	if got := cfg.MigrationURL(); got != "postgres://u:p@db:5432/tally?sslmode=disable" {
		t.Errorf("unexpected migration URL %q", got)
	}

	detection := cfg.Detection()
	if detection.LookbackDays != 90 || detection.MinTransactions != 3 || detection.MinConfidence != 0.6 || !detection.AllowCustom {
		t.Errorf("unexpected detection config %+v", detection)
	}

	dup := cfg.Duplicates()
	if dup.AmountTolerancePercent != 10 || !dup.CheckActiveOnly {
		t.Errorf("unexpected duplicate options %+v", dup)
	}
}
