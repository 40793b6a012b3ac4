// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Data     DataConfig     `toml:"data"`
	Modeling ModelingConfig `toml:"modeling"`
	Journal  JournalConfig  `toml:"journal"`
	Server   ServerConfig   `toml:"server"`
}

// DataConfig maps dataset file locations.
type DataConfig struct {
	Prediction *string `toml:"prediction"`
	EDA        *string `toml:"eda"`
}

// ModelingConfig maps pipeline settings.
type ModelingConfig struct {
	Seed             *int64   `toml:"seed"`
	TestFraction     *float64 `toml:"test-fraction"`
	ForestTrees      *int     `toml:"forest-trees"`
	LogisticC        *float64 `toml:"logistic-c"`
	LogisticMaxIter  *int     `toml:"logistic-max-iter"`
	PredictNeighbors *int     `toml:"predict-neighbors"`
}

// JournalConfig maps run journal settings.
type JournalConfig struct {
	Enabled *bool   `toml:"enabled"`
	Path    *string `toml:"path"`
}

// ServerConfig maps HTTP API settings.
type ServerConfig struct {
	Addr *string `toml:"addr"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("failed to decode config: unknown key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Template is the commented config written by the config command.
const Template = `# hairstat configuration

[data]
# prediction = "data/df1.csv"
# eda = "data/df-eda.csv"

[modeling]
# seed = 42
# test-fraction = 0.25
# forest-trees = 100
# logistic-c = 1.0
# logistic-max-iter = 100
# predict-neighbors = 5

[journal]
# enabled = false
# path = "~/.local/share/hairstat/hairstat.db"

[server]
# addr = ":8080"
`
