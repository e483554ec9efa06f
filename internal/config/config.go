package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	defaultListenAddr      = ":8080"
	defaultLogMode         = "development"
	defaultOpenAIModel     = "gpt-4o-mini"
	defaultArchiveSchedule = "@daily"
)

type Config struct {
	DBDSN            string `json:"db_dsn"`
	OpenAIAPIKey     string `json:"openai_api_key"`
	OpenAIModel      string `json:"openai_model"`
	ListenAddr       string `json:"listen_addr"`
	LogMode          string `json:"log_mode"`
	ArchiveAfterDays int    `json:"archive_after_days"`
	ArchiveSchedule  string `json:"archive_schedule"`
	ReferenceSeed    string `json:"reference_seed"`
}

// Load reads the JSON config at path and applies WOOL_DB_DSN and
// OPENAI_API_KEY from the environment when they are set.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if value := strings.TrimSpace(os.Getenv("WOOL_DB_DSN")); value != "" {
		cfg.DBDSN = value
	}
	if value := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); value != "" {
		cfg.OpenAIAPIKey = value
	}

	if cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("db_dsn is required")
	}
	if cfg.ArchiveAfterDays < 0 {
		return Config{}, fmt.Errorf("archive_after_days must not be negative")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.LogMode == "" {
		cfg.LogMode = defaultLogMode
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = defaultOpenAIModel
	}
	if cfg.ArchiveSchedule == "" {
		cfg.ArchiveSchedule = defaultArchiveSchedule
	}

	return cfg, nil
}
