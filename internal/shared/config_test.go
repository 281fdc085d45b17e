package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./setlist.db" {
			t.Errorf("expected database path ./setlist.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Catalog.BaseURL != "http://127.0.0.1:5000" {
			t.Errorf("expected catalog base URL http://127.0.0.1:5000, got %s", config.Catalog.BaseURL)
		}

		if config.Catalog.Timeout.Duration != 30*time.Second {
			t.Errorf("expected catalog timeout 30s, got %s", config.Catalog.Timeout)
		}

		if config.Defaults.ArtistMode != "top10" {
			t.Errorf("expected default artist mode top10, got %s", config.Defaults.ArtistMode)
		}

		if !config.Defaults.AutoSelect {
			t.Error("expected auto_select to default to true")
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[catalog]
base_url = "http://catalog.local:9000"
access_token = "secret"
timeout = "5s"
requests_per_second = 0.5

[defaults]
playlist_id = "pl_123"
artist_mode = "topn"
custom_n = 5

[server]
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Catalog.BaseURL != "http://catalog.local:9000" {
			t.Errorf("expected base URL override, got %s", config.Catalog.BaseURL)
		}

		if config.Catalog.Timeout.Duration != 5*time.Second {
			t.Errorf("expected timeout 5s, got %s", config.Catalog.Timeout)
		}

		if config.Defaults.PlaylistID != "pl_123" || config.Defaults.CustomN != 5 {
			t.Errorf("unexpected defaults section: %+v", config.Defaults)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Database.Path != "./setlist.db" {
			t.Errorf("expected missing database section to keep default, got %s", config.Database.Path)
		}
	})

	t.Run("LoadConfig rejects bad duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[catalog]\ntimeout = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for unparsable duration")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		config.Catalog.BaseURL = ""

		err := config.Validate()
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}

		config = DefaultConfig()
		config.Defaults.CustomN = -1
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for negative custom_n, got %v", err)
		}
	})

	t.Run("ServerConfig Addr", func(t *testing.T) {
		s := ServerConfig{Host: "0.0.0.0", Port: 8081}
		if s.Addr() != "0.0.0.0:8081" {
			t.Errorf("unexpected addr %s", s.Addr())
		}
	})
}
