package config

import "testing"

func TestParseEnvDefaults(t *testing.T) {
	type cfg struct {
		Port   int    `env:"CONFIG_TEST_PORT" envDefault:"8080"`
		DBPath string `env:"CONFIG_TEST_DB_PATH" envDefault:"versus.db"`
	}
	var c cfg
	if err := ParseEnv(&c); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if c.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", c.Port)
	}
	if c.DBPath != "versus.db" {
		t.Fatalf("expected default db path, got %q", c.DBPath)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	type cfg struct {
		Port int `env:"CONFIG_TEST_PORT" envDefault:"8080"`
	}
	t.Setenv("CONFIG_TEST_PORT", "9999")
	var c cfg
	if err := ParseEnv(&c); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if c.Port != 9999 {
		t.Fatalf("expected env override 9999, got %d", c.Port)
	}
}
