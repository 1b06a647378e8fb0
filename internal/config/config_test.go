package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"quill/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("QUILL_IMAP_HOST", "imap.example.com")
	t.Setenv("QUILL_IMAP_USERNAME", "reader@example.com")
	t.Setenv("QUILL_IMAP_PASSWORD", "secret")
	t.Setenv("OPENROUTER_API_KEY", "llm-key")
	t.Setenv("NOTION_TOKEN", "notes-token")
	t.Setenv("NOTION_PARENT_ID", "parent-1")
}

func TestLoadDefaultConfigUsesEnvCredentialsAndExpandsPaths(t *testing.T) {
	setRequiredEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_DATA_HOME", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "quill")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7691" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Mail.Host != "imap.example.com" {
		t.Fatalf("expected mail host from env, got %q", cfg.Mail.Host)
	}
	if cfg.Mail.Port != 993 || cfg.Mail.Mailbox != "INBOX" {
		t.Fatalf("unexpected mail defaults: %+v", cfg.Mail)
	}
	if cfg.LLM.APIKey != "llm-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != config.Default().LLM.BaseURL {
		t.Fatalf("unexpected LLM base url: %q", cfg.LLM.BaseURL)
	}
	if cfg.Notes.Token != "notes-token" || cfg.Notes.ParentID != "parent-1" {
		t.Fatalf("expected notes credentials from env: %+v", cfg.Notes)
	}
	if cfg.Notes.ContentHeading != "Original Content" {
		t.Fatalf("unexpected content heading: %q", cfg.Notes.ContentHeading)
	}
	if cfg.Workflow.MinScore != 30 || cfg.Workflow.FetchLimit != 10 {
		t.Fatalf("unexpected workflow defaults: %+v", cfg.Workflow)
	}
	if cfg.LedgerPath() != filepath.Join(wantData, "ledger.db") {
		t.Fatalf("unexpected ledger path: %q", cfg.LedgerPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	setRequiredEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "quill.toml")

	type payload struct {
		Mail struct {
			Host     string `toml:"host"`
			Username string `toml:"username"`
			Password string `toml:"password"`
			Mailbox  string `toml:"mailbox"`
		} `toml:"mail"`
		Workflow struct {
			MinScore   int `toml:"min_score"`
			FetchLimit int `toml:"fetch_limit"`
		} `toml:"workflow"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Mail.Host = "mail.internal"
	custom.Mail.Username = "digest@internal"
	custom.Mail.Password = "hunter2"
	custom.Mail.Mailbox = "Newsletters"
	custom.Workflow.MinScore = 55
	custom.Workflow.FetchLimit = 3
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: exists=%v resolved=%q", exists, resolved)
	}
	if cfg.Mail.Host != "mail.internal" || cfg.Mail.Mailbox != "Newsletters" {
		t.Fatalf("custom mail settings not applied: %+v", cfg.Mail)
	}
	if cfg.Workflow.MinScore != 55 || cfg.Workflow.FetchLimit != 3 {
		t.Fatalf("custom workflow settings not applied: %+v", cfg.Workflow)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	setRequiredEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "quill.toml")

	contents := "[workflow]\nmin_score = 250\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "min_score") {
		t.Fatalf("expected min_score validation error, got %v", err)
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	for _, env := range []string{
		"QUILL_IMAP_HOST", "QUILL_IMAP_USERNAME", "QUILL_IMAP_PASSWORD",
		"QUILL_LLM_API_KEY", "OPENROUTER_API_KEY", "NOTION_TOKEN", "NOTION_PARENT_ID",
	} {
		t.Setenv(env, "")
	}
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	if _, _, _, err := config.Load(""); err == nil {
		t.Fatal("expected error when no credentials are configured")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	setRequiredEnv(t)
	tempDir := t.TempDir()
	samplePath := filepath.Join(tempDir, "nested", "config.toml")

	if err := config.CreateSample(samplePath); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(samplePath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[mail]") {
		t.Fatalf("sample config missing mail section:\n%s", data)
	}

	if _, _, _, err := config.Load(samplePath); err != nil {
		t.Fatalf("sample config did not load: %v", err)
	}
}
