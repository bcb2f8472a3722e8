package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/docqa/internal/config"
	"github.com/eugenenazirov/docqa/internal/llm/ollama"
	"github.com/eugenenazirov/docqa/internal/qa"
)

// Backend selects which configured language model answers the question.
type Backend string

const (
	BackendOpenAI      Backend = "openai"
	BackendOllama      Backend = "ollama"
	BackendHuggingFace Backend = "huggingface"
	BackendLlamaCpp    Backend = "llamacpp"
)

// Backends lists the accepted values of Options.Backend.
func Backends() []string {
	return []string{string(BackendOpenAI), string(BackendOllama), string(BackendHuggingFace), string(BackendLlamaCpp)}
}

const (
	// DefaultSystemPrompt asks for answers in Traditional Chinese.
	DefaultSystemPrompt = "請使用繁體中文回答"

	defaultTopK     = 5
	defaultLanguage = "ch"
	// ollamaMaxDocLen effectively lifts the engine's retrieved-text cap.
	ollamaMaxDocLen int64 = 100000000000
)

var defaultPrompts = map[Backend]string{
	BackendOpenAI:      "如何讓噴漆可以通同時噴在塑膠&Rubber上?",
	BackendOllama:      "如何減少鋁蓋側邊因正反面噴砂各一次的壓力過大而造成的凹坑？",
	BackendHuggingFace: "如何讓噴漆可以通同時噴在塑膠&Rubber上?",
	BackendLlamaCpp:    "如何讓噴漆可以通同時噴在塑膠&Rubber上?",
}

// DefaultPrompt returns the question asked when no --prompt is given.
func DefaultPrompt(b Backend) string {
	return defaultPrompts[b]
}

// Options carries the per-run choices made on the command line.
type Options struct {
	Backend        Backend
	Prompt         string
	SystemPrompt   string
	TopK           int
	Language       string
	RateLimitRPS   float64
	RateLimitBurst int
	// Verbose is forwarded to the engine; it does not change the log level.
	Verbose bool
}

// App holds one configured QA engine and the question to ask it.
type App struct {
	engine  qa.Engine
	request qa.Request
	backend Backend
	logger  *zap.Logger
}

// New wires the QA engine for opts.Backend from the loaded configuration.
func New(cfg config.Config, env config.Environment, opts Options, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	engineOpts, err := engineOptions(cfg, env, opts, logger)
	if err != nil {
		return nil, err
	}

	engine, err := qa.NewDocQA(env.EngineURL, engineOpts,
		qa.WithToken(env.EngineToken),
		qa.WithRateLimit(opts.RateLimitRPS, opts.RateLimitBurst),
		qa.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create QA engine: %w", err)
	}

	return newApp(engine, cfg, opts, logger), nil
}

func newApp(engine qa.Engine, cfg config.Config, opts Options, logger *zap.Logger) *App {
	prompt := opts.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultPrompt(opts.Backend)
	}
	systemPrompt := opts.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}

	return &App{
		engine: engine,
		request: qa.Request{
			DocPath:      cfg.Akasha.DocsPath,
			SystemPrompt: systemPrompt,
			Prompt:       prompt,
		},
		backend: opts.Backend,
		logger:  logger,
	}
}

// engineOptions maps the backend choice onto the configured identifiers.
func engineOptions(cfg config.Config, env config.Environment, opts Options, logger *zap.Logger) (qa.Options, error) {
	out := qa.Options{
		TopK:       opts.TopK,
		Language:   opts.Language,
		SearchType: cfg.Akasha.DocsSearchType.String(),
		Verbose:    opts.Verbose,
	}
	if out.TopK <= 0 {
		out.TopK = defaultTopK
	}
	if out.Language == "" {
		out.Language = defaultLanguage
	}

	switch opts.Backend {
	case BackendOpenAI:
		out.Embeddings = cfg.Embeddings.OpenAI.Identifier()
		out.Model = qa.ModelID(cfg.LLM.OpenAI.Identifier())
	case BackendOllama:
		client := ollama.New(env.OllamaHost, cfg.LLM.Ollama.Identifier(), ollama.WithLogger(logger))
		out.Embeddings = cfg.Embeddings.HuggingFace.Identifier()
		out.Model = qa.ModelCallable(client.Func())
		out.MaxDocLen = ollamaMaxDocLen
	case BackendHuggingFace:
		out.Embeddings = cfg.Embeddings.HuggingFace.Identifier()
		out.Model = qa.ModelID(cfg.LLM.HuggingFace.Identifier())
	case BackendLlamaCpp:
		out.Embeddings = cfg.Embeddings.HuggingFace.Identifier()
		out.Model = qa.ModelID(cfg.LLM.LlamaCpp.Identifier())
	default:
		return qa.Options{}, fmt.Errorf("unknown backend %q (want one of %s)", opts.Backend, strings.Join(Backends(), ", "))
	}

	return out, nil
}

// Run asks the configured question once and returns the engine's answer.
func (a *App) Run(ctx context.Context) (string, error) {
	a.logger.Info("asking question",
		zap.String("backend", string(a.backend)),
		zap.String("doc_path", a.request.DocPath),
	)

	start := time.Now()
	answer, err := a.engine.GetResponse(ctx, a.request)
	if err != nil {
		return "", fmt.Errorf("get response: %w", err)
	}

	a.logger.Info("answer received",
		zap.String("backend", string(a.backend)),
		zap.Duration("duration", time.Since(start)),
		zap.Int("answer_chars", len(answer)),
	)
	return answer, nil
}

// Request returns the question the app will ask.
func (a *App) Request() qa.Request {
	return a.request
}
