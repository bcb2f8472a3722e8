package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/docqa/internal/application"
	"github.com/eugenenazirov/docqa/internal/config"
	"github.com/eugenenazirov/docqa/internal/logging"
)

var (
	signalNotify = signal.Notify
	newLogger    = logging.New
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run reports failures itself: on stderr until the logger exists, through
// the logger afterwards.
func run(args []string, stdout, stderr io.Writer) (err error) {
	kingpinApp := kingpin.New("docqa", "Ask a question against a document folder through the configured QA engine")
	kingpinApp.UsageWriter(stderr)
	kingpinApp.ErrorWriter(stderr)
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").Default(config.DefaultPath).String()
	envFile := kingpinApp.Flag("env-file", "Path to .env file loaded before configuration (values override the environment)").Default(config.DefaultEnvFile).String()
	verbose := kingpinApp.Flag("verbose", "Enable debug logging").Short('v').Bool()

	askCmd := kingpinApp.Command("ask", "Ask one question and print the answer").Default()
	backendName := askCmd.Flag("backend", "Language model backend").Default(string(application.BackendOpenAI)).Enum(application.Backends()...)
	prompt := askCmd.Flag("prompt", "Question to ask (defaults to the backend's built-in question)").String()
	systemPrompt := askCmd.Flag("system-prompt", "System prompt").Default(application.DefaultSystemPrompt).String()
	docsPath := askCmd.Flag("docs-path", "Override akasha.docs.path").String()
	searchType := askCmd.Flag("search-type", "Override akasha.docs.searchType (svm, mmr, tfidf, knn, bm25)").String()
	topK := askCmd.Flag("top-k", "Number of documents retrieved").Default("5").Int()
	language := askCmd.Flag("language", "Language tag passed to the engine").Default("ch").String()
	rateLimitRPS := askCmd.Flag("rate-limit-rps", "Engine calls per second allowed (set 0 to disable)").Default("0").Float64()
	rateLimitBurst := askCmd.Flag("rate-limit-burst", "Burst capacity for engine calls (set 0 to disable)").Default("0").Int()
	engineVerbose := askCmd.Flag("engine-verbose", "Ask the engine for verbose output").Default("true").Bool()

	configCmd := kingpinApp.Command("config", "Print the resolved backend identifiers and configuration")

	command, err := kingpinApp.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "docqa: %v\n", err)
		return fmt.Errorf("parse arguments: %w", err)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(stderr, "docqa: failed to initialize logger: %v\n", err)
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err != nil {
			logger.Error("docqa failed", zap.String("command", command), zap.Error(err))
		}
		_ = logger.Sync()
	}()

	env, err := config.LoadEnv(*envFile)
	if err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	switch command {
	case configCmd.FullCommand():
		return printConfig(stdout, cfg)
	case askCmd.FullCommand():
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	var overrides config.Overrides
	if *docsPath != "" {
		overrides.DocsPath = docsPath
	}
	if *searchType != "" {
		overrides.SearchType = searchType
	}
	cfg, err = cfg.WithOverrides(overrides)
	if err != nil {
		return fmt.Errorf("invalid override: %w", err)
	}

	app, err := application.New(cfg, env, application.Options{
		Backend:        application.Backend(*backendName),
		Prompt:         *prompt,
		SystemPrompt:   *systemPrompt,
		TopK:           *topK,
		Language:       *language,
		RateLimitRPS:   *rateLimitRPS,
		RateLimitBurst: *rateLimitBurst,
		Verbose:        *engineVerbose,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx, stop := withSignalCancel(context.Background(), logger)
	defer stop()

	answer, err := app.Run(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, answer)
	return err
}

func printConfig(w io.Writer, cfg config.Config) error {
	identifiers := []struct {
		key   string
		value string
	}{
		{"model.llm.openai", cfg.LLM.OpenAI.Identifier()},
		{"model.llm.ollama", cfg.LLM.Ollama.Identifier()},
		{"model.llm.huggingface", cfg.LLM.HuggingFace.Identifier()},
		{"model.llm.llamaCpp", cfg.LLM.LlamaCpp.Identifier()},
		{"model.embeddings.openai", cfg.Embeddings.OpenAI.Identifier()},
		{"model.embeddings.huggingface", cfg.Embeddings.HuggingFace.Identifier()},
	}
	for _, id := range identifiers {
		if _, err := fmt.Fprintf(w, "# %s => %s\n", id.key, id.value); err != nil {
			return err
		}
	}

	doc, err := cfg.Document()
	if err != nil {
		return err
	}
	_, err = w.Write(doc)
	return err
}

// withSignalCancel cancels the returned context on SIGINT or SIGTERM.
func withSignalCancel(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-quit:
			logger.Info("cancelling request", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(quit)
		cancel()
	}
}
