package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/ledgerflow/errors"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Mode          string    `mapstructure:"mode"`
	Workers       int       `mapstructure:"workers"`
	RPC           rpcConfig `mapstructure:"rpc"`
	Retry         struct {
		MaxAttempts int `mapstructure:"max_attempts"`
	} `mapstructure:"retry"`
}

type rpcConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfig_ApplyDefaults(t *testing.T) {
	cfg := ServiceConfig{Name: "ledgerflow"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" {
		t.Errorf("expected development, got %q", cfg.Environment)
	}
	if cfg.Version != "dev" {
		t.Errorf("expected dev, got %q", cfg.Version)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected info, got %q", cfg.Logging.Level)
	}

	debug := ServiceConfig{Name: "ledgerflow", Debug: true}
	debug.ApplyDefaults()
	if debug.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %q", debug.Logging.Level)
	}
}

func TestServiceConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "ledgerflow", Environment: "production"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "name: is required"},
		{"bad environment", ServiceConfig{Name: "ledgerflow", Environment: "qa"}, "environment: must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
			if !errors.HasCode(err, errors.ErrCodeValidation) {
				t.Errorf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: ledgerflow
environment: staging
mode: stream
workers: 4
rpc:
  url: https://s2.ripple.com:51234
  timeout: 10s
`)

	var cfg testConfig
	if err := LoadConfig("ledgerflow", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none"))); err == nil {
		t.Fatal("expected error for missing env file")
	}
	cfg = testConfig{}
	if err := LoadConfig("ledgerflow", &cfg, WithConfigFile(path), WithFileSystem(&mockFS{files: map[string]bool{path: true}})); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "ledgerflow" || cfg.Environment != "staging" {
		t.Errorf("expected ledgerflow/staging, got %s/%s", cfg.Name, cfg.Environment)
	}
	if cfg.Mode != "stream" || cfg.Workers != 4 {
		t.Errorf("expected stream/4, got %s/%d", cfg.Mode, cfg.Workers)
	}
	if cfg.RPC.Timeout != 10*time.Second {
		t.Errorf("expected 10s, got %v", cfg.RPC.Timeout)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "mode: backfill\nrpc:\n  url: https://s1.ripple.com:51234\n")
	t.Setenv("LEDGERFLOW_MODE", "objects")
	t.Setenv("LEDGERFLOW_RPC_URL", "http://localhost:5005")
	t.Setenv("LEDGERFLOW_RETRY_MAX_ATTEMPTS", "2")
	t.Setenv("OTHER_MODE", "file")

	var cfg testConfig
	fs := &mockFS{files: map[string]bool{path: true}}
	if err := LoadConfig("ledgerflow", &cfg, WithConfigFile(path), WithFileSystem(fs)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Mode != "objects" {
		t.Errorf("expected objects, got %q", cfg.Mode)
	}
	if cfg.RPC.URL != "http://localhost:5005" {
		t.Errorf("expected env url, got %q", cfg.RPC.URL)
	}
	if cfg.Retry.MaxAttempts != 2 {
		t.Errorf("expected 2, got %d", cfg.Retry.MaxAttempts)
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "LEDGERFLOW_TEST_WORKERS=7\n")
	t.Cleanup(func() { _ = os.Unsetenv("LEDGERFLOW_TEST_WORKERS") })

	var cfg testConfig
	if err := LoadConfig("ledgerflow-test", &cfg, WithEnvFile(envPath), WithFileSystem(&mockFS{})); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Workers != 7 {
		t.Errorf("expected 7 workers from .env, got %d", cfg.Workers)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("ledgerflow", &cfg, WithConfigFile("/nonexistent/config.yml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestLoadConfig_Search(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		filepath.Join("config", "config.yml"): true,
		"config.yml":                          true,
	}}
	if got := firstExisting(fs, configSearchPaths("ledgerflow")); got != filepath.Join("config", "config.yml") {
		t.Errorf("expected config/config.yml, got %q", got)
	}
	if got := firstExisting(fs, envSearchPaths("ledgerflow")); got != "" {
		t.Errorf("expected no env file, got %q", got)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"MODE", []string{"mode"}},
		{"RPC_URL", []string{"rpc_url", "rpc.url"}},
		{"RETRY_MAX_ATTEMPTS", []string{"retry_max_attempts", "retry.max.attempts", "retry.max_attempts", "retry_max.attempts"}},
	}
	for _, tc := range tests {
		got := envKeyVariants(tc.key)
		if strings.Join(got, ",") != strings.Join(tc.want, ",") {
			t.Errorf("%s: expected %v, got %v", tc.key, tc.want, got)
		}
	}
}

func TestEnvPrefix(t *testing.T) {
	if got := envPrefix("ledger-flow"); got != "LEDGER_FLOW_" {
		t.Errorf("expected LEDGER_FLOW_, got %q", got)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error {
	return OSFileSystem{}.LoadEnv(path)
}
