package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsToAnEmptyFile(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bus.InboundCapacity != 64 || cfg.Bus.OutboundCapacity != 64 {
		t.Fatalf("expected default bus capacities, got %+v", cfg.Bus)
	}
	if cfg.Sandbox.Backend != "direct" {
		t.Fatalf("expected direct sandbox backend default, got %q", cfg.Sandbox.Backend)
	}
	if cfg.Memory.WindowSize != 40 {
		t.Fatalf("expected default memory window, got %d", cfg.Memory.WindowSize)
	}
	if cfg.Provider.MaxToolIterations != 20 {
		t.Fatalf("expected default max tool iterations, got %d", cfg.Provider.MaxToolIterations)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
provider:
  model: gpt-5
  not_a_real_field: true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestLoadRejectsSandboxedAndFullShellTogether(t *testing.T) {
	path := writeConfig(t, `
exec:
  sandboxed: true
  full_shell: true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for mutually exclusive exec options")
	}
}

func TestLoadRejectsUnknownSandboxBackend(t *testing.T) {
	path := writeConfig(t, `
sandbox:
  backend: made_up
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown sandbox backend")
	}
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TEST_PROVIDER_API_KEY", "sk-test-123")
	path := writeConfig(t, `
provider:
  model: gpt-5
  api_key: ${TEST_PROVIDER_API_KEY}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.APIKey != "sk-test-123" {
		t.Fatalf("expected expanded api key, got %q", cfg.Provider.APIKey)
	}
}

func TestLoadResolvesIncludes(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.yaml")
	if err := os.WriteFile(basePath, []byte(`
bus:
  inbound_capacity: 128
provider:
  model: base-model
`), 0o644); err != nil {
		t.Fatalf("write base: %v", err)
	}

	mainPath := filepath.Join(dir, "main.yaml")
	if err := os.WriteFile(mainPath, []byte(`
$include: base.yaml
provider:
  model: overridden-model
`), 0o644); err != nil {
		t.Fatalf("write main: %v", err)
	}

	cfg, err := Load(mainPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bus.InboundCapacity != 128 {
		t.Fatalf("expected included bus capacity to survive, got %d", cfg.Bus.InboundCapacity)
	}
	if cfg.Provider.Model != "overridden-model" {
		t.Fatalf("expected main file's value to win over the include, got %q", cfg.Provider.Model)
	}
}

func TestLoadDetectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.yaml")
	bPath := filepath.Join(dir, "b.yaml")
	if err := os.WriteFile(aPath, []byte("$include: b.yaml\n"), 0o644); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(bPath, []byte("$include: a.yaml\n"), 0o644); err != nil {
		t.Fatalf("write b: %v", err)
	}

	if _, err := Load(aPath); err == nil {
		t.Fatal("expected an include cycle error")
	}
}

func TestLoadParsesJSON5WhenExtensionMatches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	if err := os.WriteFile(path, []byte(`{
  // trailing commas and comments are fine in json5
  provider: { model: "gpt-5", max_tokens: 2048, },
}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.Model != "gpt-5" || cfg.Provider.MaxTokens != 2048 {
		t.Fatalf("unexpected provider config: %+v", cfg.Provider)
	}
}

func TestLoadRejectsInvalidRateLimitDimension(t *testing.T) {
	path := writeConfig(t, `
rate_limit:
  dimensions:
    per_owner:
      max: 0
      window_seconds: 60
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a non-positive rate limit max")
	}
}
