// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice  PracticeConfig  `toml:"practice"`
	Coach     CoachConfig     `toml:"coach"`
	Narration NarrationConfig `toml:"narration"`
	Log       LogConfig       `toml:"log"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Mode                *string  `toml:"mode"`
	Operation           *string  `toml:"op"`
	SumsType            *string  `toml:"sums"`
	Digits              *string  `toml:"digits"`
	Rows                *int     `toml:"rows"`
	TimeLimit           *int     `toml:"time"`
	Interval            *float64 `toml:"interval"`
	NumberOfSums        *int     `toml:"sums-count"`
	MultiplicandDigits  *int     `toml:"multiplicand"`
	MultiplicatorDigits *int     `toml:"multiplicator"`
	DividendDigits      *int     `toml:"dividend"`
	DivisorDigits       *int     `toml:"divisor"`
	Preset              *string  `toml:"preset"`
}

// CoachConfig selects the advice provider.
type CoachConfig struct {
	Provider  *string `toml:"provider"`
	Model     *string `toml:"model"`
	OllamaURL *string `toml:"ollama-url"`
	Timeout   *int    `toml:"timeout"`
}

// NarrationConfig selects how oral drills are read out.
type NarrationConfig struct {
	Provider *string `toml:"provider"`
	Voice    *string `toml:"voice"`
	Command  *string `toml:"command"`
	Player   *string `toml:"player"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// Coach and narration providers.
const (
	ProviderAuto    = "auto"
	ProviderGemini  = "gemini"
	ProviderOllama  = "ollama"
	ProviderCommand = "command"
	ProviderNone    = "none"
)

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
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// String returns the value behind p or fallback when unset.
func String(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

// Int returns the value behind p or fallback when unset.
func Int(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}
