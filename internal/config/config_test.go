package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	rerrors "github.com/scottviteri/r1-chat/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.ServerURL != DefaultServerURL {
		t.Errorf("ServerURL = %q, want %q", cfg.ServerURL, DefaultServerURL)
	}
	if cfg.Sampling != (Sampling{Temperature: 0.1, TopP: 0.9, MaxTokens: 100}) {
		t.Errorf("Sampling = %+v", cfg.Sampling)
	}
	if cfg.Stream.TerminalToken != "[DONE]" || cfg.Stream.FailurePrefix != "[Request failed" {
		t.Errorf("Stream markers = %q / %q", cfg.Stream.TerminalToken, cfg.Stream.FailurePrefix)
	}
	if cfg.Stream.TypesetEvery != 15 {
		t.Errorf("TypesetEvery = %d, want 15", cfg.Stream.TypesetEvery)
	}
	if !cfg.Stream.NotifyBackendOnCancel {
		t.Error("NotifyBackendOnCancel should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() should validate: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "config.yaml")
	cfg, err := Load(LoadOptions{Path: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerURL != DefaultServerURL {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}
	if cfg.FilePath() != path {
		t.Errorf("FilePath() = %q, want %q", cfg.FilePath(), path)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server_url: http://gpu-box:8080
request_timeout: 5s
sampling:
  temperature: 0.7
  max_tokens: 512
stream:
  assistant_label: DeepSeek
ui:
  markdown: false
`)
	cfg, err := Load(LoadOptions{Path: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerURL != "http://gpu-box:8080" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.Sampling.Temperature != 0.7 || cfg.Sampling.MaxTokens != 512 {
		t.Errorf("Sampling = %+v", cfg.Sampling)
	}
	if cfg.Sampling.TopP != DefaultTopP {
		t.Errorf("TopP should keep its default, got %v", cfg.Sampling.TopP)
	}
	if cfg.Stream.AssistantLabel != "DeepSeek" {
		t.Errorf("AssistantLabel = %q", cfg.Stream.AssistantLabel)
	}
	if cfg.UI.Markdown {
		t.Error("UI.Markdown should be false")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server_url: [unterminated\n")
	_, err := Load(LoadOptions{Path: path})
	if err == nil {
		t.Fatal("Load() should fail on malformed YAML")
	}
	if !rerrors.Is(err, rerrors.KindConfig) {
		t.Errorf("expected KindConfig, got %v", rerrors.GetKind(err))
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, "sampling:\n  top_p: 1.5\n")
	_, err := Load(LoadOptions{Path: path})
	if err == nil {
		t.Fatal("Load() should reject top_p > 1")
	}
	if !rerrors.Is(err, rerrors.KindInvalid) {
		t.Errorf("expected KindInvalid, got %v", rerrors.GetKind(err))
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "sampling:\n  max_tokens: 200\n")
	t.Setenv("R1CHAT_SAMPLING_MAX_TOKENS", "300")
	t.Setenv("R1CHAT_SERVER_URL", "https://chat.example.com")

	cfg, err := Load(LoadOptions{Path: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sampling.MaxTokens != 300 {
		t.Errorf("MaxTokens = %d, want env value 300", cfg.Sampling.MaxTokens)
	}
	if cfg.ServerURL != "https://chat.example.com" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	path := writeConfig(t, "sampling:\n  temperature: 0.5\n")
	t.Setenv("R1CHAT_SAMPLING_TEMPERATURE", "0.6")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("server", DefaultServerURL, "")
	fs.Float64("temperature", DefaultTemperature, "")
	fs.Float64("top-p", DefaultTopP, "")
	if err := fs.Parse([]string{"--temperature", "1.2"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(LoadOptions{Path: path, Flags: fs})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sampling.Temperature != 1.2 {
		t.Errorf("Temperature = %v, want flag value 1.2", cfg.Sampling.Temperature)
	}
	if cfg.Sampling.TopP != DefaultTopP {
		t.Errorf("unset flag should not override: TopP = %v", cfg.Sampling.TopP)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad scheme", func(c *Config) { c.ServerURL = "ftp://host" }, "server_url"},
		{"no host", func(c *Config) { c.ServerURL = "http://" }, "server_url"},
		{"temperature high", func(c *Config) { c.Sampling.Temperature = 2.5 }, "temperature"},
		{"temperature negative", func(c *Config) { c.Sampling.Temperature = -0.1 }, "temperature"},
		{"top_p zero", func(c *Config) { c.Sampling.TopP = 0 }, "top_p"},
		{"max tokens zero", func(c *Config) { c.Sampling.MaxTokens = 0 }, "max_tokens"},
		{"typeset zero", func(c *Config) { c.Stream.TypesetEvery = 0 }, "typeset_every"},
		{"empty terminal", func(c *Config) { c.Stream.TerminalToken = "" }, "terminal_token"},
		{"empty failure prefix", func(c *Config) { c.Stream.FailurePrefix = "" }, "failure_prefix"},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, "request_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_SetSampling(t *testing.T) {
	cfg := Default()

	if err := cfg.SetSampling(Sampling{Temperature: 0.3, TopP: 0.5, MaxTokens: 64}); err != nil {
		t.Fatalf("SetSampling() error = %v", err)
	}
	if got := cfg.GetSampling(); got.MaxTokens != 64 || got.TopP != 0.5 {
		t.Errorf("GetSampling() = %+v", got)
	}

	if err := cfg.SetSampling(Sampling{Temperature: 0.3, TopP: 0, MaxTokens: 64}); err == nil {
		t.Error("SetSampling() should reject top_p = 0")
	}
	if got := cfg.GetSampling(); got.TopP != 0.5 {
		t.Errorf("rejected SetSampling() should not modify state, TopP = %v", got.TopP)
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(LoadOptions{Path: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.SetSampling(Sampling{Temperature: 0.9, TopP: 0.8, MaxTokens: 2048}); err != nil {
		t.Fatalf("SetSampling() error = %v", err)
	}
	cfg.SetUI(UI{Markdown: true, Notifications: true})

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := Load(LoadOptions{Path: path})
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if reloaded.Sampling != (Sampling{Temperature: 0.9, TopP: 0.8, MaxTokens: 2048}) {
		t.Errorf("reloaded Sampling = %+v", reloaded.Sampling)
	}
	if !reloaded.UI.Notifications {
		t.Error("reloaded UI.Notifications should be true")
	}
	if reloaded.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("reloaded RequestTimeout = %v", reloaded.RequestTimeout)
	}
}

func TestConfig_SaveWithoutPath(t *testing.T) {
	if err := Default().Save(); err == nil {
		t.Error("Save() without a file path should fail")
	}
}
