package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lorolabs/loro/internal/config"
)

func TestValidate_WhisperChainIsValid(t *testing.T) {
	t.Parallel()
	yaml := `
transcriber:
  kind: whisper
  server_url: http://localhost:8080
  fallback:
    kind: openai
    api_key: sk-test
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NativeWithModelPathIsValid(t *testing.T) {
	t.Parallel()
	yaml := `
transcriber:
  kind: whisper-native
  model_path: /models/ggml-base.bin
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoneNeedsNothing(t *testing.T) {
	t.Parallel()
	yaml := `
transcriber:
  kind: none
  server_url: ""
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NestedFallbackIsChecked(t *testing.T) {
	t.Parallel()
	yaml := `
transcriber:
  kind: whisper
  server_url: http://localhost:8080
  fallback:
    kind: openai
    api_key: sk-test
    fallback:
      kind: whisper-native
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for nested fallback without model_path, got nil")
	}
	if !strings.Contains(err.Error(), "transcriber.fallback.fallback") {
		t.Errorf("error should name the nested fallback, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
session:
  base_name: ""
  duration_seconds: -2
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
	if !strings.Contains(errStr, "base_name") {
		t.Errorf("error should mention base_name, got: %v", err)
	}
	if !strings.Contains(errStr, "duration_seconds") {
		t.Errorf("error should mention duration_seconds, got: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/loro.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
	if !strings.Contains(err.Error(), "open") {
		t.Errorf("error should mention open, got: %v", err)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "loro.yaml")
	yaml := `
session:
  base_name: toma_uno
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Session.BaseName != "toma_uno" {
		t.Errorf("session.base_name: got %q, want %q", cfg.Session.BaseName, "toma_uno")
	}
	if cfg.Session.DurationSeconds != 3 {
		t.Errorf("session.duration_seconds: got %.2f, want default 3", cfg.Session.DurationSeconds)
	}
}
