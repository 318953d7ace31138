package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.VaultPath != def.VaultPath || cfg.Oracle.Provider != def.Oracle.Provider {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.yaml")
	doc := `
vault_path: /data/finance.db
chunk_lines: 10
oracle:
  provider: gemini
  model: gemini-2.0-flash
queue:
  workers: 4
date_formats:
  - "01/02/2006"
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VaultPath != "/data/finance.db" {
		t.Errorf("VaultPath = %q", cfg.VaultPath)
	}
	if cfg.ChunkLines != 10 {
		t.Errorf("ChunkLines = %d", cfg.ChunkLines)
	}
	if cfg.Oracle.Provider != ProviderGemini || cfg.Oracle.Model != "gemini-2.0-flash" {
		t.Errorf("Oracle = %+v", cfg.Oracle)
	}
	if cfg.Queue.Workers != 4 {
		t.Errorf("Queue.Workers = %d", cfg.Queue.Workers)
	}
	if len(cfg.DateFormats) != 1 || cfg.DateFormats[0] != "01/02/2006" {
		t.Errorf("DateFormats = %v", cfg.DateFormats)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.yaml")
	if err := os.WriteFile(path, []byte("vault_path: from-file.db\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VAULT_DB_PATH", "from-env.db")
	t.Setenv("VAULT_ORACLE_MODEL", "qwen2.5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VaultPath != "from-env.db" {
		t.Errorf("VaultPath = %q, want from-env.db", cfg.VaultPath)
	}
	if cfg.Oracle.Model != "qwen2.5" {
		t.Errorf("Oracle.Model = %q, want qwen2.5", cfg.Oracle.Model)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.yaml")
	if err := os.WriteFile(path, []byte("oracle:\n  provider: psychic\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load: got nil error for unknown provider")
	}
}
