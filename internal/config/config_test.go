package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Modeling.Seed != nil || cfg.Data.Prediction != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[data]
prediction = "/srv/df1.csv"

[modeling]
seed = 7
test-fraction = 0.3
predict-neighbors = 9

[journal]
enabled = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Data.Prediction == nil || *cfg.Data.Prediction != "/srv/df1.csv" {
		t.Fatalf("unexpected prediction path: %v", cfg.Data.Prediction)
	}
	if cfg.Modeling.Seed == nil || *cfg.Modeling.Seed != 7 {
		t.Fatalf("unexpected seed: %v", cfg.Modeling.Seed)
	}
	if cfg.Modeling.TestFraction == nil || *cfg.Modeling.TestFraction != 0.3 {
		t.Fatalf("unexpected test fraction: %v", cfg.Modeling.TestFraction)
	}
	if cfg.Modeling.PredictNeighbors == nil || *cfg.Modeling.PredictNeighbors != 9 {
		t.Fatalf("unexpected neighbors: %v", cfg.Modeling.PredictNeighbors)
	}
	if cfg.Journal.Enabled == nil || !*cfg.Journal.Enabled {
		t.Fatalf("expected journal enabled")
	}
	if cfg.Modeling.ForestTrees != nil || cfg.Server.Addr != nil {
		t.Fatalf("expected unset fields to stay nil")
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[modeling]\nseeds = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "modeling.seeds") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("template should decode: %v", err)
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "hairstat", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "hairstat", "hairstat.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
}
