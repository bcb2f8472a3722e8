package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	defaultTopK     = 5
	defaultLanguage = "ch"
)

var (
	// ErrInvalidOptions is returned when engine options are incomplete or contradictory.
	ErrInvalidOptions = errors.New("invalid QA engine options")
	// ErrInvalidRequest is returned when a question is missing its prompt or document folder.
	ErrInvalidRequest = errors.New("invalid QA request")
)

// ModelFunc answers a fully assembled prompt. It stands in for a model
// identifier when the caller drives the language model itself.
type ModelFunc func(ctx context.Context, prompt string) (string, error)

// Model is either a backend identifier understood by the engine or a callable.
type Model struct {
	ID   string
	Func ModelFunc
}

// ModelID selects a model the engine instantiates from its identifier.
func ModelID(id string) Model {
	return Model{ID: id}
}

// ModelCallable selects a model the caller runs locally.
func ModelCallable(fn ModelFunc) Model {
	return Model{Func: fn}
}

// IsCallable reports whether the model is driven by the caller.
func (m Model) IsCallable() bool {
	return m.Func != nil
}

func (m Model) String() string {
	if m.IsCallable() {
		return "<callable>"
	}
	return m.ID
}

// Options mirror the engine constructor arguments.
type Options struct {
	Embeddings string
	Model      Model
	TopK       int
	Language   string
	SearchType string
	// MaxDocLen caps the characters of retrieved text; zero leaves the engine default.
	MaxDocLen int64
	Verbose   bool
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = defaultTopK
	}
	if strings.TrimSpace(o.Language) == "" {
		o.Language = defaultLanguage
	}
	return o
}

func (o Options) validate() error {
	if strings.TrimSpace(o.Embeddings) == "" {
		return fmt.Errorf("%w: embeddings identifier is required", ErrInvalidOptions)
	}
	hasID := strings.TrimSpace(o.Model.ID) != ""
	switch {
	case hasID && o.Model.IsCallable():
		return fmt.Errorf("%w: model must be an identifier or a callable, not both", ErrInvalidOptions)
	case !hasID && !o.Model.IsCallable():
		return fmt.Errorf("%w: model is required", ErrInvalidOptions)
	}
	if o.MaxDocLen < 0 {
		return fmt.Errorf("%w: max doc length must be >= 0", ErrInvalidOptions)
	}
	return nil
}

// Request is one question asked against a document folder.
type Request struct {
	DocPath      string
	SystemPrompt string
	Prompt       string
}

func (r Request) validate() error {
	if strings.TrimSpace(r.DocPath) == "" {
		return fmt.Errorf("%w: document path is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	return nil
}

// Engine answers questions over a folder of documents.
type Engine interface {
	GetResponse(ctx context.Context, req Request) (string, error)
}
