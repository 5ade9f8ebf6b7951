package config

import (
	"strings"
	"testing"
	"time"
)

func TestResolveBackendURL(t *testing.T) {
	testCases := []struct {
		name     string
		useLocal bool
		localURL string
		envURL   string
		want     string
	}{
		{"local override wins", true, "http://10.0.0.2:8900", "https://api.example.com/prod", "http://10.0.0.2:8900"},
		{"env url without override", false, "http://10.0.0.2:8900", "https://api.example.com/prod", "https://api.example.com/prod"},
		{"fallback when nothing set", false, "", "", FallbackAPIURL},
		{"override with empty local url falls through", true, "  ", "https://api.example.com/prod", "https://api.example.com/prod"},
		{"override with nothing else", true, "", "", FallbackAPIURL},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveBackendURL(tc.useLocal, tc.localURL, tc.envURL)
			if got != tc.want {
				t.Errorf("ResolveBackendURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"DOCSCAN_USE_LOCAL_SERVER", "DOCSCAN_LOCAL_SERVER_URL", "DOCSCAN_API_URL",
		"DOCSCAN_REQUEST_TIMEOUT", "DOCSCAN_PROGRESS_INTERVAL", "DOCSCAN_HISTORY_BACKEND",
		"DOCSCAN_HISTORY_PATH",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.BackendURL != FallbackAPIURL {
		t.Errorf("BackendURL = %q, want fallback", cfg.BackendURL)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("RequestTimeout = %v, want 60s", cfg.RequestTimeout)
	}
	if cfg.ProgressInterval != 800*time.Millisecond {
		t.Errorf("ProgressInterval = %v, want 800ms", cfg.ProgressInterval)
	}
	if cfg.HistoryBackend != HistoryBackendFile {
		t.Errorf("HistoryBackend = %q, want file", cfg.HistoryBackend)
	}
}

func TestLoadConfigLocalOverride(t *testing.T) {
	t.Setenv("DOCSCAN_USE_LOCAL_SERVER", "true")
	t.Setenv("DOCSCAN_LOCAL_SERVER_URL", "http://192.168.1.20:8900")
	t.Setenv("DOCSCAN_API_URL", "https://api.example.com/prod")
	t.Setenv("DOCSCAN_REQUEST_TIMEOUT", "1500")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.BackendURL != "http://192.168.1.20:8900" {
		t.Errorf("BackendURL = %q, want local server", cfg.BackendURL)
	}
	if cfg.RequestTimeout != 1500*time.Millisecond {
		t.Errorf("RequestTimeout = %v, want 1.5s", cfg.RequestTimeout)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BackendURL:       "https://api.example.com",
			RequestTimeout:   time.Second,
			ProgressInterval: time.Millisecond,
			HistoryBackend:   HistoryBackendFile,
			HistoryPath:      "history.json",
		}
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad scheme", func(c *Config) { c.BackendURL = "ftp://x" }, "http or https"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "DOCSCAN_REQUEST_TIMEOUT"},
		{"postgres without dsn", func(c *Config) { c.HistoryBackend = HistoryBackendPostgres }, "DATABASE_URL"},
		{"unknown backend", func(c *Config) { c.HistoryBackend = "mongo" }, "DOCSCAN_HISTORY_BACKEND"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}
