package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FLEETDASH_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Key != "auth-storage" {
		t.Fatalf("storage key = %q", cfg.Storage.Key)
	}
	if cfg.Users.SearchDebounce != 500*time.Millisecond {
		t.Fatalf("search debounce = %v", cfg.Users.SearchDebounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fleetdash.json")
	body := `{"api":{"base_url":"https://fleet.example.com/api/"},"logging":{"level":"debug"}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FLEETDASH_SERVER_HTTP_PORT", "9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "https://fleet.example.com/api" {
		t.Fatalf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	if cfg.Server.HTTPPort != "9999" {
		t.Fatalf("port = %q", cfg.Server.HTTPPort)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
		ok   bool
	}{
		{"ok", func(*Config) {}, true},
		{"no base url", func(c *Config) { c.API.BaseURL = "" }, false},
		{"bad driver", func(c *Config) { c.Database.Driver = "sqlite" }, false},
		{"driver without dsn", func(c *Config) { c.Database.Driver = "mysql" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Config{
				API:     APIConfig{BaseURL: "http://x"},
				Storage: StorageConfig{Key: "auth-storage"},
			}
			tc.mut(c)
			err := c.Validate()
			if (err == nil) != tc.ok {
				t.Fatalf("Validate() err = %v, want ok=%v", err, tc.ok)
			}
		})
	}
}
