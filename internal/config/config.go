package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/docqa/internal/backend"
)

// DefaultPath is the config location used when no --config flag is given.
const DefaultPath = "src/config.yaml"

// LLMConfig holds the language model chosen for each provider slot.
type LLMConfig struct {
	OpenAI      backend.Model
	Ollama      backend.Model
	HuggingFace backend.Model
	LlamaCpp    backend.Model
}

// EmbeddingsModelConfig holds the embedding model chosen for each provider slot.
type EmbeddingsModelConfig struct {
	OpenAI      backend.Model
	HuggingFace backend.Model
}

// AkashaConfig describes how the QA engine searches the document folder.
type AkashaConfig struct {
	DocsPath       string
	DocsSearchType SearchType
}

// Config is the validated configuration tree. It is a value; copies are independent.
type Config struct {
	LLM        LLMConfig
	Embeddings EmbeddingsModelConfig
	Akasha     AkashaConfig
}

// document mirrors the YAML file. Pointers distinguish absent keys from zero values.
type document struct {
	Model  *modelSection  `yaml:"model"`
	Akasha *akashaSection `yaml:"akasha"`
}

type modelSection struct {
	LLM        *llmSection        `yaml:"llm"`
	Embeddings *embeddingsSection `yaml:"embeddings"`
}

type llmSection struct {
	OpenAI      *string          `yaml:"openai"`
	Ollama      *string          `yaml:"ollama"`
	HuggingFace *string          `yaml:"huggingface"`
	LlamaCpp    *llamaCppSection `yaml:"llamaCpp"`
}

type llamaCppSection struct {
	Name   *string `yaml:"name"`
	UseGPU *bool   `yaml:"useGPU"`
}

type embeddingsSection struct {
	OpenAI      *string `yaml:"openai"`
	HuggingFace *string `yaml:"huggingface"`
}

type akashaSection struct {
	Docs *docsSection `yaml:"docs"`
}

type docsSection struct {
	Path       *string `yaml:"path"`
	SearchType *string `yaml:"searchType"`
}

// Load reads and validates the YAML config at path. Every call re-reads the file.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Config{}, ErrInvalidArgument
	}

	doc, err := loadFromFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg, err := newConfig(doc)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// loadFromFile reads and decodes the YAML document at path.
func loadFromFile(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
		}
		return nil, fmt.Errorf("read file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	return &doc, nil
}

// newConfig validates the whole document and reports every problem at once.
func newConfig(doc *document) (Config, error) {
	var (
		v   validator
		cfg Config
	)

	if doc.Model == nil {
		v.missing("model")
	} else {
		cfg.LLM = v.llm(doc.Model.LLM)
		cfg.Embeddings = v.embeddings(doc.Model.Embeddings)
	}

	if doc.Akasha == nil {
		v.missing("akasha")
	} else {
		cfg.Akasha = v.akasha(doc.Akasha)
	}

	if err := v.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (v *validator) llm(s *llmSection) LLMConfig {
	var out LLMConfig
	if s == nil {
		v.missing("model.llm")
		return out
	}

	out.OpenAI = v.model("model.llm.openai", s.OpenAI, func(name string) (backend.Model, error) {
		return backend.LLM(backend.KindHostedAPI, name)
	})
	out.Ollama = v.model("model.llm.ollama", s.Ollama, func(name string) (backend.Model, error) {
		return backend.LLM(backend.KindLocalDaemon, name)
	})
	out.HuggingFace = v.model("model.llm.huggingface", s.HuggingFace, func(name string) (backend.Model, error) {
		return backend.LLM(backend.KindHostedHub, name)
	})

	if s.LlamaCpp == nil {
		v.missing("model.llm.llamaCpp")
		return out
	}
	device := backend.DeviceCPU
	if s.LlamaCpp.UseGPU == nil {
		v.missing("model.llm.llamaCpp.useGPU")
	} else if *s.LlamaCpp.UseGPU {
		device = backend.DeviceGPU
	}
	out.LlamaCpp = v.model("model.llm.llamaCpp.name", s.LlamaCpp.Name, func(name string) (backend.Model, error) {
		return backend.LlamaCpp(name, device)
	})

	return out
}

func (v *validator) embeddings(s *embeddingsSection) EmbeddingsModelConfig {
	var out EmbeddingsModelConfig
	if s == nil {
		v.missing("model.embeddings")
		return out
	}

	out.OpenAI = v.model("model.embeddings.openai", s.OpenAI, func(name string) (backend.Model, error) {
		return backend.Embeddings(backend.KindHostedAPI, name)
	})
	out.HuggingFace = v.model("model.embeddings.huggingface", s.HuggingFace, func(name string) (backend.Model, error) {
		return backend.Embeddings(backend.KindHostedHub, name)
	})

	return out
}

func (v *validator) akasha(s *akashaSection) AkashaConfig {
	var out AkashaConfig
	if s.Docs == nil {
		v.missing("akasha.docs")
		return out
	}

	if s.Docs.Path == nil || strings.TrimSpace(*s.Docs.Path) == "" {
		v.missing("akasha.docs.path")
	} else {
		out.DocsPath = *s.Docs.Path
	}

	out.DocsSearchType = DefaultSearchType
	if s.Docs.SearchType != nil {
		st, err := ParseSearchType(*s.Docs.SearchType)
		if err != nil {
			v.invalid("akasha.docs.searchType", err)
		} else {
			out.DocsSearchType = st
		}
	}

	return out
}

func (v *validator) model(path string, raw *string, build func(string) (backend.Model, error)) backend.Model {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		v.missing(path)
		return backend.Model{}
	}
	m, err := build(*raw)
	if err != nil {
		v.invalid(path, err)
		return backend.Model{}
	}
	return m
}

// Overrides carries command-line replacements for the docs section.
type Overrides struct {
	DocsPath   *string
	SearchType *string
}

// WithOverrides returns a copy of c with the non-nil overrides applied.
func (c Config) WithOverrides(o Overrides) (Config, error) {
	out := c
	if o.DocsPath != nil {
		if strings.TrimSpace(*o.DocsPath) == "" {
			return Config{}, &FieldError{Path: "akasha.docs.path", Err: ErrMissingField}
		}
		out.Akasha.DocsPath = *o.DocsPath
	}
	if o.SearchType != nil {
		st, err := ParseSearchType(*o.SearchType)
		if err != nil {
			return Config{}, &FieldError{Path: "akasha.docs.searchType", Err: fmt.Errorf("%w: %v", ErrInvalidField, err)}
		}
		out.Akasha.DocsSearchType = st
	}
	return out, nil
}

// rawDocument is the marshal-side twin of document.
type rawDocument struct {
	Model struct {
		LLM struct {
			OpenAI      string `yaml:"openai"`
			Ollama      string `yaml:"ollama"`
			HuggingFace string `yaml:"huggingface"`
			LlamaCpp    struct {
				Name   string `yaml:"name"`
				UseGPU bool   `yaml:"useGPU"`
			} `yaml:"llamaCpp"`
		} `yaml:"llm"`
		Embeddings struct {
			OpenAI      string `yaml:"openai"`
			HuggingFace string `yaml:"huggingface"`
		} `yaml:"embeddings"`
	} `yaml:"model"`
	Akasha struct {
		Docs struct {
			Path       string `yaml:"path"`
			SearchType string `yaml:"searchType"`
		} `yaml:"docs"`
	} `yaml:"akasha"`
}

// Document renders c back into the config file schema using the raw model names.
func (c Config) Document() ([]byte, error) {
	var raw rawDocument
	raw.Model.LLM.OpenAI = c.LLM.OpenAI.Name
	raw.Model.LLM.Ollama = c.LLM.Ollama.Name
	raw.Model.LLM.HuggingFace = c.LLM.HuggingFace.Name
	raw.Model.LLM.LlamaCpp.Name = c.LLM.LlamaCpp.Name
	raw.Model.LLM.LlamaCpp.UseGPU = c.LLM.LlamaCpp.Device == backend.DeviceGPU
	raw.Model.Embeddings.OpenAI = c.Embeddings.OpenAI.Name
	raw.Model.Embeddings.HuggingFace = c.Embeddings.HuggingFace.Name
	raw.Akasha.Docs.Path = c.Akasha.DocsPath
	raw.Akasha.Docs.SearchType = string(c.Akasha.DocsSearchType)

	out, err := yaml.Marshal(&raw)
	if err != nil {
		return nil, fmt.Errorf("marshal YAML: %w", err)
	}
	return out, nil
}
