package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPPort != "8080" || c.DBDriver != "postgres" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if !c.ListEmptyNotFound {
		t.Fatal("empty list should map to not found by default")
	}
	if c.CacheEnabled() || c.EventsEnabled() || c.AuthEnabled() {
		t.Fatal("optional integrations should be off by default")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "http_port: \"9000\"\ndb_driver: sqlite3\nkafka_brokers: [\"k1:9092\"]\nlist_empty_not_found: false\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPPort != "9100" {
		t.Errorf("env should override file, got port %q", c.HTTPPort)
	}
	if c.DBDriver != "sqlite3" {
		t.Errorf("driver from file not applied: %q", c.DBDriver)
	}
	if c.ListEmptyNotFound {
		t.Error("list_empty_not_found from file not applied")
	}
	if len(c.KafkaBrokers) != 2 || c.KafkaBrokers[0] != "a:9092" || c.KafkaBrokers[1] != "b:9092" {
		t.Errorf("brokers = %v", c.KafkaBrokers)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"gin mode", map[string]string{"GIN_MODE": "loud"}},
		{"pool", map[string]string{"DB_POOL_SIZE": "0"}},
		{"consumer without brokers", map[string]string{"EVENT_CONSUMER_ENABLED": "true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
