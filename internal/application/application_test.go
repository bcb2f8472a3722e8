package application

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/docqa/internal/backend"
	"github.com/eugenenazirov/docqa/internal/config"
	"github.com/eugenenazirov/docqa/internal/qa"
)

func TestEngineOptionsPerBackend(t *testing.T) {
	cfg := baseTestConfig(t)
	env := config.Environment{EngineURL: "http://localhost:8000", OllamaHost: "http://localhost:11434"}

	tests := []struct {
		backend        Backend
		wantEmbeddings string
		wantModelID    string
		wantCallable   bool
		wantMaxDocLen  int64
	}{
		{backend: BackendOpenAI, wantEmbeddings: "openai:text-embedding-3-small", wantModelID: "openai:gpt-4o-mini"},
		{backend: BackendOllama, wantEmbeddings: "huggingface:all-MiniLM-L6-v2", wantCallable: true, wantMaxDocLen: ollamaMaxDocLen},
		{backend: BackendHuggingFace, wantEmbeddings: "huggingface:all-MiniLM-L6-v2", wantModelID: "hf:meta-llama/Llama-2-13b-chat-hf"},
		{backend: BackendLlamaCpp, wantEmbeddings: "huggingface:all-MiniLM-L6-v2", wantModelID: "llama-cpu:model/x.gguf"},
	}

	for _, tc := range tests {
		t.Run(string(tc.backend), func(t *testing.T) {
			got, err := engineOptions(cfg, env, Options{Backend: tc.backend}, zaptest.NewLogger(t))
			if err != nil {
				t.Fatalf("engineOptions returned error: %v", err)
			}
			if got.Embeddings != tc.wantEmbeddings {
				t.Fatalf("expected embeddings %q, got %q", tc.wantEmbeddings, got.Embeddings)
			}
			if got.Model.ID != tc.wantModelID || got.Model.IsCallable() != tc.wantCallable {
				t.Fatalf("unexpected model %+v", got.Model)
			}
			if got.MaxDocLen != tc.wantMaxDocLen {
				t.Fatalf("expected max doc len %d, got %d", tc.wantMaxDocLen, got.MaxDocLen)
			}
			if got.TopK != defaultTopK || got.Language != defaultLanguage || got.SearchType != "svm" {
				t.Fatalf("unexpected engine defaults %+v", got)
			}
		})
	}
}

func TestEngineOptionsUnknownBackend(t *testing.T) {
	if _, err := engineOptions(baseTestConfig(t), config.Environment{}, Options{Backend: "gemini"}, nil); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	app, err := New(baseTestConfig(t), config.Environment{EngineURL: "http://localhost:8000"},
		Options{Backend: BackendOpenAI}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	req := app.Request()
	if req.DocPath != "docs" {
		t.Fatalf("expected doc path from config, got %q", req.DocPath)
	}
	if req.SystemPrompt != DefaultSystemPrompt {
		t.Fatalf("expected default system prompt, got %q", req.SystemPrompt)
	}
	if req.Prompt != DefaultPrompt(BackendOpenAI) {
		t.Fatalf("expected default prompt, got %q", req.Prompt)
	}
}

func TestNewRejectsBadEngineURL(t *testing.T) {
	_, err := New(baseTestConfig(t), config.Environment{EngineURL: "not a url"}, Options{Backend: BackendOpenAI}, nil)
	if !errors.Is(err, qa.ErrInvalidOptions) {
		t.Fatalf("expected qa.ErrInvalidOptions, got %v", err)
	}
}

func TestRunOpenAI(t *testing.T) {
	engine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/doc-qa/response" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["model"] != "openai:gpt-4o-mini" || body["prompt"] != "why?" {
			t.Errorf("unexpected request body %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"because"}`))
	}))
	defer engine.Close()

	app, err := New(baseTestConfig(t), config.Environment{EngineURL: engine.URL},
		Options{Backend: BackendOpenAI, Prompt: "why?"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	got, err := app.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got != "because" {
		t.Fatalf("expected engine answer, got %q", got)
	}
}

func TestRunOllama(t *testing.T) {
	engine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/doc-qa/context" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prompt":"context + question"}`))
	}))
	defer engine.Close()

	daemon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "gemma2:9b" {
			t.Errorf("expected ollama model gemma2:9b, got %q", body.Model)
		}
		if len(body.Messages) != 1 || body.Messages[0].Content != "context + question" {
			t.Errorf("unexpected messages %+v", body.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"local"},"finish_reason":"stop"}]}`))
	}))
	defer daemon.Close()

	env := config.Environment{EngineURL: engine.URL, OllamaHost: daemon.URL}
	app, err := New(baseTestConfig(t), env, Options{Backend: BackendOllama}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	got, err := app.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got != "local" {
		t.Fatalf("expected ollama answer, got %q", got)
	}
}

type failingEngine struct{}

func (failingEngine) GetResponse(context.Context, qa.Request) (string, error) {
	return "", context.DeadlineExceeded
}

func TestRunPropagatesEngineError(t *testing.T) {
	app := newApp(failingEngine{}, baseTestConfig(t), Options{Backend: BackendOpenAI, Prompt: "p", SystemPrompt: "s"}, zaptest.NewLogger(t))
	if req := app.Request(); req.Prompt != "p" || req.SystemPrompt != "s" {
		t.Fatalf("expected explicit prompts to be kept, got %+v", req)
	}

	if _, err := app.Run(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected engine error, got %v", err)
	}
}

func TestBackendsHaveDefaultPrompts(t *testing.T) {
	for _, b := range Backends() {
		if DefaultPrompt(Backend(b)) == "" {
			t.Fatalf("expected default prompt for %s", b)
		}
	}
}

func baseTestConfig(t *testing.T) config.Config {
	t.Helper()

	must := func(m backend.Model, err error) backend.Model {
		t.Helper()
		if err != nil {
			t.Fatalf("build model: %v", err)
		}
		return m
	}

	return config.Config{
		LLM: config.LLMConfig{
			OpenAI:      must(backend.LLM(backend.KindHostedAPI, "gpt-4o-mini")),
			Ollama:      must(backend.LLM(backend.KindLocalDaemon, "gemma2:9b")),
			HuggingFace: must(backend.LLM(backend.KindHostedHub, "meta-llama/Llama-2-13b-chat-hf")),
			LlamaCpp:    must(backend.LlamaCpp("x.gguf", backend.DeviceCPU)),
		},
		Embeddings: config.EmbeddingsModelConfig{
			OpenAI:      must(backend.Embeddings(backend.KindHostedAPI, "text-embedding-3-small")),
			HuggingFace: must(backend.Embeddings(backend.KindHostedHub, "all-MiniLM-L6-v2")),
		},
		Akasha: config.AkashaConfig{
			DocsPath:       "docs",
			DocsSearchType: config.SearchSVM,
		},
	}
}
