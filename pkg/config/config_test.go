package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	if !cfg.IsFeatureEnabled(FeatCComments) || !cfg.IsFeatureEnabled(FeatDirectives) || !cfg.IsFeatureEnabled(FeatPermissiveConvert) {
		t.Fatal("expected all features on by default")
	}
	if cfg.IsWarningEnabled(WarnExtra) {
		t.Fatal("extra warnings should be off by default")
	}
	if !cfg.IsWarningEnabled(WarnOverflow) {
		t.Fatal("overflow warning should be on by default")
	}
	if cfg.WordSize != 4 {
		t.Fatalf("word size = %d, want 4", cfg.WordSize)
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := NewConfig()
	cfg.ApplyFlags([]string{"Wno-overflow", "Wextra", "Fno-directives"})
	if cfg.IsWarningEnabled(WarnOverflow) {
		t.Error("Wno-overflow did not disable the warning")
	}
	if !cfg.IsWarningEnabled(WarnExtra) {
		t.Error("Wextra did not enable the warning")
	}
	if cfg.IsFeatureEnabled(FeatDirectives) {
		t.Error("Fno-directives did not disable the feature")
	}
}

func TestApplyFlagsAll(t *testing.T) {
	cfg := NewConfig()
	cfg.ApplyFlags([]string{"Wno-all"})
	for wt := Warning(0); wt < WarnCount; wt++ {
		if cfg.IsWarningEnabled(wt) {
			t.Fatalf("warning %v still enabled after Wno-all", wt)
		}
	}
	cfg.ApplyFlags([]string{"Wall"})
	if !cfg.IsWarningEnabled(WarnExtra) {
		t.Fatal("Wall did not enable every warning")
	}
}

func TestFlagsApplyInOrder(t *testing.T) {
	cfg := NewConfig()
	cfg.ApplyFlags([]string{"Wno-overflow", "Woverflow"})
	if !cfg.IsWarningEnabled(WarnOverflow) {
		t.Fatal("later flag should win")
	}
}

func TestLoadProjectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compi.toml")
	content := `
output = "build/out.asm"

[warnings]
overflow = false

[features]
permissive-convert = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewConfig()
	if err := cfg.LoadProjectFile(path); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.OutFile != "build/out.asm" {
		t.Errorf("output = %q", cfg.OutFile)
	}
	if cfg.IsWarningEnabled(WarnOverflow) {
		t.Error("project file did not disable the overflow warning")
	}
	if cfg.IsFeatureEnabled(FeatPermissiveConvert) {
		t.Error("project file did not disable permissive-convert")
	}
}

func TestLoadProjectFileUnknownName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compi.toml")
	if err := os.WriteFile(path, []byte("[warnings]\nnonsense = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := NewConfig().LoadProjectFile(path)
	if err == nil || !strings.Contains(err.Error(), "unknown warning") {
		t.Fatalf("got %v, want unknown warning error", err)
	}
}

func TestMissingDefaultProjectFileIsFine(t *testing.T) {
	dir := t.TempDir()
	old, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(old)

	if err := NewConfig().LoadProjectFile(""); err != nil {
		t.Fatalf("missing default project file should not error: %v", err)
	}
}

func TestMissingExplicitProjectFileErrors(t *testing.T) {
	if err := NewConfig().LoadProjectFile("/does/not/exist.toml"); err == nil {
		t.Fatal("explicit missing path should error")
	}
}
