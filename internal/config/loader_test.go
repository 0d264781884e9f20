package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "valid.toml"))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if cfg.ListenPort != 8080 {
		t.Fatalf("ListenPort = %d, want 8080", cfg.ListenPort)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.FetchTimeout.DurationValue() != 5*time.Second {
		t.Fatalf("FetchTimeout = %v, want 5s", cfg.FetchTimeout.DurationValue())
	}
	if cfg.InitialBackoff.DurationValue() != 100*time.Millisecond {
		t.Fatalf("InitialBackoff = %v, want 100ms", cfg.InitialBackoff.DurationValue())
	}
	if cfg.MaxRetries != 2 {
		t.Fatalf("MaxRetries = %d, want 2", cfg.MaxRetries)
	}
	if !cfg.VerboseCacheLog {
		t.Fatal("VerboseCacheLog should be true")
	}
	if cfg.BackupSchedule != "0 3 * * *" {
		t.Fatalf("BackupSchedule = %q", cfg.BackupSchedule)
	}
	if !filepath.IsAbs(cfg.DataDir) {
		t.Fatalf("DataDir must be resolved to an absolute path, got %q", cfg.DataDir)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "minimal.toml"))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if cfg.ListenPort != 5000 {
		t.Fatalf("ListenPort default = %d, want 5000", cfg.ListenPort)
	}
	if cfg.FetchTimeout.DurationValue() != 10*time.Second {
		t.Fatalf("FetchTimeout default = %v, want 10s", cfg.FetchTimeout.DurationValue())
	}
	if cfg.InitialBackoff.DurationValue() != 300*time.Millisecond {
		t.Fatalf("InitialBackoff default = %v, want 300ms", cfg.InitialBackoff.DurationValue())
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("MaxRetries default = %d, want 3", cfg.MaxRetries)
	}
	if cfg.APIBaseURL != "https://pokeapi.co/api/v2" {
		t.Fatalf("APIBaseURL default = %q", cfg.APIBaseURL)
	}
}

func TestLoadAcceptsBareSecondDurations(t *testing.T) {
	path := writeConfig(t, "LogLevel = \"info\"\nFetchTimeout = 7\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.FetchTimeout.DurationValue() != 7*time.Second {
		t.Fatalf("FetchTimeout = %v, want 7s", cfg.FetchTimeout.DurationValue())
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		field   string
	}{
		{"port out of range", "ListenPort = 70000\n", "ListenPort"},
		{"unknown log level", "LogLevel = \"chatty\"\n", "LogLevel"},
		{"empty data dir", "DataDir = \" \"\n", "DataDir"},
		{"relative api url", "APIBaseURL = \"/api/v2\"\n", "APIBaseURL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var fieldErr FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("expected FieldError, got %v", err)
			}
			if fieldErr.Field != tc.field {
				t.Fatalf("field = %q, want %q", fieldErr.Field, tc.field)
			}
		})
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("250ms")); err != nil || d.DurationValue() != 250*time.Millisecond {
		t.Fatalf("go duration literal: %v / %v", err, d.DurationValue())
	}
	if err := d.UnmarshalText([]byte("3")); err != nil || d.DurationValue() != 3*time.Second {
		t.Fatalf("bare second value: %v / %v", err, d.DurationValue())
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}
