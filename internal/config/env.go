package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DefaultEnvFile is the dotenv file loaded at startup.
	DefaultEnvFile = ".env"

	defaultEngineURL  = "http://localhost:8000"
	defaultOllamaHost = "http://localhost:11434"
)

// Environment holds the process settings resolved at startup and handed to
// the QA engine and model clients explicitly.
type Environment struct {
	EngineURL   string
	EngineToken string
	OllamaHost  string
}

// LoadEnv loads path as a dotenv file, letting its values override the
// process environment, then resolves the Environment. A missing file is not
// an error.
func LoadEnv(path string) (Environment, error) {
	if strings.TrimSpace(path) != "" {
		if err := godotenv.Overload(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Environment{}, fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return resolveEnvironment(os.Getenv), nil
}

func resolveEnvironment(getenv func(string) string) Environment {
	env := Environment{
		EngineURL:   strings.TrimSpace(getenv("DOCQA_ENGINE_URL")),
		EngineToken: strings.TrimSpace(getenv("DOCQA_ENGINE_TOKEN")),
		OllamaHost:  strings.TrimSpace(getenv("OLLAMA_HOST")),
	}

	if env.EngineURL == "" {
		env.EngineURL = defaultEngineURL
	}
	if env.OllamaHost == "" {
		env.OllamaHost = defaultOllamaHost
	}
	if !strings.Contains(env.OllamaHost, "://") {
		env.OllamaHost = "http://" + env.OllamaHost
	}

	return env
}
