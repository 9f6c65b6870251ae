package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classnames.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
generate:
  output_suffix: "_gen.go"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Generate.OutputSuffix != "_gen.go" {
		t.Errorf("output_suffix = %q, want _gen.go", cfg.Generate.OutputSuffix)
	}
	if cfg.Generate.Directive != "classnames:const" {
		t.Errorf("directive should default, got %q", cfg.Generate.Directive)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classnames.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeoutSeconds != 10 {
		t.Errorf("default request timeout: got %d", cfg.Server.RequestTimeoutSeconds)
	}
	if cfg.Generate.OutputSuffix != "_classnames.go" {
		t.Errorf("default output suffix: got %s", cfg.Generate.OutputSuffix)
	}
	if len(cfg.Generate.Extensions) != 1 || cfg.Generate.Extensions[0] != ".go" {
		t.Errorf("default extensions: got %v", cfg.Generate.Extensions)
	}
	if cfg.Generate.DebounceMS != 400 {
		t.Errorf("default debounce: got %d", cfg.Generate.DebounceMS)
	}
	if cfg.Generate.RecursiveOrDefault() {
		t.Error("recursive should default to false")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvDebug, "true")
	t.Setenv(EnvServerHost, "0.0.0.0")
	t.Setenv(EnvServerPort, "9999")
	t.Setenv(EnvGenerateSuffix, "_cn.go")

	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be overridden to true")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9999 {
		t.Errorf("server override: got %+v", cfg.Server)
	}
	if cfg.Generate.OutputSuffix != "_cn.go" {
		t.Errorf("suffix override: got %s", cfg.Generate.OutputSuffix)
	}
}

func TestApplyEnv_invalidPort(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvServerPort, "not-a-port")
	cfg := &Config{}
	if err := ApplyEnv(cfg); err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestApplyEnv_dotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvServerHost, "")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CLASSNAMES_SERVER_PORT=7070\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set, so make
	// sure the port is unset; t.Setenv restores it afterwards.
	t.Setenv(EnvServerPort, "")
	os.Unsetenv(EnvServerPort)

	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port from .env: got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("blank env host should be ignored, got %q", cfg.Server.Host)
	}
}

func TestApplyEnv_malformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BAD-KEY=1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg); err == nil {
		t.Error("expected error for malformed .env")
	}
}

func TestApplyEnv_noDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg); err != nil {
		t.Errorf("missing .env must not fail: %v", err)
	}
}

func TestApplyEnv_tracing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvTracing, "true")
	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.SampleRatio != 1 {
		t.Errorf("tracing = %+v", cfg.Tracing)
	}
	t.Setenv(EnvTracing, "maybe")
	if err := ApplyEnv(cfg); err == nil {
		t.Error("expected error for invalid tracing flag")
	}
}

func TestLoadOrDefault_missingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port == 0 || cfg.Generate.Directive == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestSave_roundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Server.Port = 8181
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 8181 {
		t.Errorf("saved port: got %d", loaded.Server.Port)
	}
}
