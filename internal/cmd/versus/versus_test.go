package versus

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("versus", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Port != 8080 || cfg.DBPath != "versus.db" || cfg.CleanupInterval != 10*time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("VERSUS_PORT", "9090")
	t.Setenv("VERSUS_DB_PATH", "/tmp/rooms.db")
	t.Setenv("VERSUS_CLEANUP_INTERVAL", "1m")

	fs := flag.NewFlagSet("versus", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Port != 9090 || cfg.DBPath != "/tmp/rooms.db" || cfg.CleanupInterval != time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("VERSUS_PORT", "9090")

	fs := flag.NewFlagSet("versus", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-port", "7070"})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("port = %d, want flag to win", cfg.Port)
	}
}
