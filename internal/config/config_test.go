package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("WOOL_DB_DSN", "")
	t.Setenv("OPENAI_API_KEY", "")

	dir := t.TempDir()
	path := writeTempFile(t, dir, "secrets.json", `{"db_dsn":"dsn","openai_api_key":"key","archive_after_days":90}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDSN != "dsn" {
		t.Fatalf("DBDSN = %q, want %q", cfg.DBDSN, "dsn")
	}
	if cfg.OpenAIAPIKey != "key" {
		t.Fatalf("OpenAIAPIKey = %q, want %q", cfg.OpenAIAPIKey, "key")
	}
	if cfg.ArchiveAfterDays != 90 {
		t.Fatalf("ArchiveAfterDays = %d, want 90", cfg.ArchiveAfterDays)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("ListenAddr = %q, want %q", cfg.ListenAddr, ":8080")
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("OpenAIModel = %q, want %q", cfg.OpenAIModel, "gpt-4o-mini")
	}
	if cfg.ArchiveSchedule != "@daily" {
		t.Fatalf("ArchiveSchedule = %q, want %q", cfg.ArchiveSchedule, "@daily")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("WOOL_DB_DSN", "env-dsn")
	t.Setenv("OPENAI_API_KEY", "env-key")

	dir := t.TempDir()
	path := writeTempFile(t, dir, "secrets.json", `{"db_dsn":"file-dsn"}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDSN != "env-dsn" {
		t.Fatalf("DBDSN = %q, want %q", cfg.DBDSN, "env-dsn")
	}
	if cfg.OpenAIAPIKey != "env-key" {
		t.Fatalf("OpenAIAPIKey = %q, want %q", cfg.OpenAIAPIKey, "env-key")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Setenv("WOOL_DB_DSN", "")

	if _, err := Load(""); err == nil {
		t.Fatalf("Load empty path: expected error")
	}

	dir := t.TempDir()
	missingDB := writeTempFile(t, dir, "missing_db.json", `{"openai_api_key":"key"}`)
	if _, err := Load(missingDB); err == nil {
		t.Fatalf("Load missing db_dsn: expected error")
	}

	negative := writeTempFile(t, dir, "negative.json", `{"db_dsn":"dsn","archive_after_days":-1}`)
	if _, err := Load(negative); err == nil {
		t.Fatalf("Load negative archive_after_days: expected error")
	}

	invalid := writeTempFile(t, dir, "invalid.json", "{")
	if _, err := Load(invalid); err == nil {
		t.Fatalf("Load invalid json: expected error")
	}
}

func TestLoadReferenceSeed(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "reference_seed.json", `{
		"provinces":["Eastern Cape","Free State"],
		"certifications":[{"code":"RWS","name":"Responsible Wool Standard"}],
		"commodity_types":["Merino"],
		"seasons":["2025/26"]
	}`)

	seed, err := LoadReferenceSeed(path)
	if err != nil {
		t.Fatalf("LoadReferenceSeed: %v", err)
	}
	if len(seed.Provinces) != 2 {
		t.Fatalf("provinces = %d, want 2", len(seed.Provinces))
	}
	if seed.Certifications[0].Code != "RWS" {
		t.Fatalf("certification code = %q, want %q", seed.Certifications[0].Code, "RWS")
	}
	if seed.Seasons[0] != "2025/26" {
		t.Fatalf("season = %q, want %q", seed.Seasons[0], "2025/26")
	}
}

func TestLoadReferenceSeedErrors(t *testing.T) {
	if _, err := LoadReferenceSeed(""); err == nil {
		t.Fatalf("LoadReferenceSeed empty path: expected error")
	}

	dir := t.TempDir()
	noProvinces := writeTempFile(t, dir, "no_provinces.json", `{"certifications":[{"code":"RWS"}]}`)
	if _, err := LoadReferenceSeed(noProvinces); err == nil {
		t.Fatalf("LoadReferenceSeed missing provinces: expected error")
	}

	blankCode := writeTempFile(t, dir, "blank_code.json", `{"provinces":["Free State"],"certifications":[{"code":" "}]}`)
	if _, err := LoadReferenceSeed(blankCode); err == nil {
		t.Fatalf("LoadReferenceSeed blank code: expected error")
	}
}
