package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("DOCQA_ENGINE_URL", "")
	t.Setenv("DOCQA_ENGINE_TOKEN", "")
	t.Setenv("OLLAMA_HOST", "")

	env, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadEnv returned error: %v", err)
	}
	if env.EngineURL != defaultEngineURL {
		t.Fatalf("expected default engine URL, got %q", env.EngineURL)
	}
	if env.OllamaHost != defaultOllamaHost {
		t.Fatalf("expected default ollama host, got %q", env.OllamaHost)
	}
	if env.EngineToken != "" {
		t.Fatalf("expected no engine token, got %q", env.EngineToken)
	}
}

func TestLoadEnvFileOverridesProcess(t *testing.T) {
	t.Setenv("DOCQA_ENGINE_URL", "http://from-process:1")
	t.Setenv("DOCQA_ENGINE_TOKEN", "")
	t.Setenv("OLLAMA_HOST", "")

	path := filepath.Join(t.TempDir(), ".env")
	contents := "DOCQA_ENGINE_URL=http://from-file:9000\nDOCQA_ENGINE_TOKEN=secret\nOLLAMA_HOST=127.0.0.1:11434\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	env, err := LoadEnv(path)
	if err != nil {
		t.Fatalf("LoadEnv returned error: %v", err)
	}
	if env.EngineURL != "http://from-file:9000" {
		t.Fatalf("expected env file to override process value, got %q", env.EngineURL)
	}
	if env.EngineToken != "secret" {
		t.Fatalf("expected token from env file, got %q", env.EngineToken)
	}
	if env.OllamaHost != "http://127.0.0.1:11434" {
		t.Fatalf("expected scheme to be added to ollama host, got %q", env.OllamaHost)
	}
}

func TestLoadEnvRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BAD-KEY=value\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	if _, err := LoadEnv(path); err == nil {
		t.Fatalf("expected error for malformed env file")
	}
}

func TestResolveEnvironmentKeepsScheme(t *testing.T) {
	env := resolveEnvironment(func(key string) string {
		if key == "OLLAMA_HOST" {
			return "https://ollama.internal"
		}
		return ""
	})
	if env.OllamaHost != "https://ollama.internal" {
		t.Fatalf("expected host to be kept, got %q", env.OllamaHost)
	}
}
