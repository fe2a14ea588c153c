package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.ListenAddr != ":5000" {
		t.Errorf("Expected :5000, got %s", cfg.ListenAddr)
	}
	if cfg.StorageBackend != BackendFS || cfg.WatchDebounce != 2*time.Second {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if !filepath.IsAbs(cfg.AudioDir) || filepath.Base(cfg.AudioDir) != "public" {
		t.Errorf("Expected absolute audio dir, got %s", cfg.AudioDir)
	}
	if cfg.MemoriesDSN != ":memory:" || cfg.Minio.Bucket != "keepsake" {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigEnvAndFlags(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":8080")
	t.Setenv("STORAGE_BACKEND", "MinIO")
	t.Setenv("MINIO_BUCKET", "songs")
	t.Setenv("WATCH_DEBOUNCE", "500ms")

	cfg, err := LoadConfig([]string{"--listen", ":9090", "--audio-dir", "/srv/audio"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("Expected flag to win, got %s", cfg.ListenAddr)
	}
	if cfg.StorageBackend != BackendMinio || cfg.Minio.Bucket != "songs" {
		t.Errorf("Unexpected minio settings %+v", cfg)
	}
	if cfg.WatchDebounce != 500*time.Millisecond || cfg.AudioDir != "/srv/audio" {
		t.Errorf("Unexpected config %+v", cfg)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "s3")
	if _, err := LoadConfig(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadPlayerConfig(t *testing.T) {
	cfg, err := LoadPlayerConfig(nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.ServerURL != "http://localhost:5000" || cfg.Volume != 0.7 || cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("Unexpected defaults %+v", cfg)
	}

	t.Setenv("PLAYER_VOLUME", "0.3")
	cfg, err = LoadPlayerConfig([]string{"-s", "http://music.local:5000"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Volume != 0.3 || cfg.ServerURL != "http://music.local:5000" {
		t.Errorf("Unexpected config %+v", cfg)
	}

	if _, err := LoadPlayerConfig([]string{"--volume", "1.5"}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
