package backend

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedKind is returned when a kind cannot serve the requested role.
	ErrUnsupportedKind = errors.New("backend kind is not supported for this role")
	// ErrEmptyName is returned when a model name is blank.
	ErrEmptyName = errors.New("model name must not be empty")
	// ErrReservedPrefix is returned when an Ollama model name starts with
	// another provider's identifier prefix.
	ErrReservedPrefix = errors.New("model name starts with a reserved provider prefix")
)

// Role distinguishes language models from embedding models.
type Role int

const (
	RoleLLM Role = iota + 1
	RoleEmbeddings
)

func (r Role) String() string {
	switch r {
	case RoleLLM:
		return "llm"
	case RoleEmbeddings:
		return "embeddings"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Kind is the provider family a model is served by.
type Kind int

const (
	// KindHostedAPI is a hosted API such as OpenAI.
	KindHostedAPI Kind = iota + 1
	// KindLocalDaemon is a model served by a local Ollama daemon.
	KindLocalDaemon
	// KindHostedHub is a model pulled from the Hugging Face hub.
	KindHostedHub
	// KindLocalQuantizedFile is a quantized llama.cpp model file.
	KindLocalQuantizedFile
)

func (k Kind) String() string {
	switch k {
	case KindHostedAPI:
		return "openai"
	case KindLocalDaemon:
		return "ollama"
	case KindHostedHub:
		return "huggingface"
	case KindLocalQuantizedFile:
		return "llamaCpp"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Device selects where a local quantized model runs.
type Device int

const (
	DeviceCPU Device = iota
	DeviceGPU
)

func (d Device) String() string {
	if d == DeviceGPU {
		return "gpu"
	}
	return "cpu"
}

const (
	prefixOpenAI       = "openai:"
	prefixHFModel      = "hf:"
	prefixHFEmbeddings = "huggingface:"
	prefixLlamaGPU     = "llama-gpu:model/"
	prefixLlamaCPU     = "llama-cpu:model/"
)

// Model identifies one backend selection. The zero value is not valid.
type Model struct {
	Role   Role
	Kind   Kind
	Name   string
	Device Device
}

// LLM returns a language model of the given kind. Use LlamaCpp for quantized files.
func LLM(kind Kind, name string) (Model, error) {
	m := Model{Role: RoleLLM, Kind: kind, Name: name}
	if err := m.Validate(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// LlamaCpp returns a llama.cpp language model running on device.
func LlamaCpp(name string, device Device) (Model, error) {
	m := Model{Role: RoleLLM, Kind: KindLocalQuantizedFile, Name: name, Device: device}
	if err := m.Validate(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Embeddings returns an embedding model of the given kind.
func Embeddings(kind Kind, name string) (Model, error) {
	m := Model{Role: RoleEmbeddings, Kind: kind, Name: name}
	if err := m.Validate(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Validate reports whether the role, kind and name combination can be rendered.
func (m Model) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	switch m.Role {
	case RoleLLM:
		switch m.Kind {
		case KindLocalDaemon:
			// Ollama names are rendered bare, so they must not look like another kind.
			for _, prefix := range []string{prefixOpenAI, prefixHFModel, prefixLlamaGPU, prefixLlamaCPU} {
				if strings.HasPrefix(m.Name, prefix) {
					return fmt.Errorf("%w: %q", ErrReservedPrefix, prefix)
				}
			}
			return nil
		case KindHostedAPI, KindHostedHub, KindLocalQuantizedFile:
			return nil
		}
	case RoleEmbeddings:
		switch m.Kind {
		case KindHostedAPI, KindHostedHub:
			return nil
		}
	}
	return fmt.Errorf("%w: %s %s", ErrUnsupportedKind, m.Role, m.Kind)
}

// Identifier renders the provider-prefixed string the QA engine uses to pick
// a client implementation.
func (m Model) Identifier() string {
	switch m.Kind {
	case KindHostedAPI:
		return prefixOpenAI + m.Name
	case KindLocalDaemon:
		return m.Name
	case KindHostedHub:
		if m.Role == RoleEmbeddings {
			return prefixHFEmbeddings + m.Name
		}
		return prefixHFModel + m.Name
	case KindLocalQuantizedFile:
		if m.Device == DeviceGPU {
			return prefixLlamaGPU + m.Name
		}
		return prefixLlamaCPU + m.Name
	default:
		return m.Name
	}
}

func (m Model) String() string {
	return m.Identifier()
}

// Parse is the inverse of Identifier. An LLM identifier without a known
// prefix is an Ollama model name.
func Parse(role Role, identifier string) (Model, error) {
	var m Model
	switch role {
	case RoleLLM:
		m = parseLLM(identifier)
	case RoleEmbeddings:
		var ok bool
		m, ok = parseEmbeddings(identifier)
		if !ok {
			return Model{}, fmt.Errorf("%w: unknown embeddings identifier %q", ErrUnsupportedKind, identifier)
		}
	default:
		return Model{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, role)
	}

	if err := m.Validate(); err != nil {
		return Model{}, fmt.Errorf("parse %q: %w", identifier, err)
	}
	return m, nil
}

func parseLLM(identifier string) Model {
	m := Model{Role: RoleLLM}
	switch {
	case strings.HasPrefix(identifier, prefixOpenAI):
		m.Kind, m.Name = KindHostedAPI, strings.TrimPrefix(identifier, prefixOpenAI)
	case strings.HasPrefix(identifier, prefixHFModel):
		m.Kind, m.Name = KindHostedHub, strings.TrimPrefix(identifier, prefixHFModel)
	case strings.HasPrefix(identifier, prefixLlamaGPU):
		m.Kind, m.Device, m.Name = KindLocalQuantizedFile, DeviceGPU, strings.TrimPrefix(identifier, prefixLlamaGPU)
	case strings.HasPrefix(identifier, prefixLlamaCPU):
		m.Kind, m.Device, m.Name = KindLocalQuantizedFile, DeviceCPU, strings.TrimPrefix(identifier, prefixLlamaCPU)
	default:
		m.Kind, m.Name = KindLocalDaemon, identifier
	}
	return m
}

func parseEmbeddings(identifier string) (Model, bool) {
	m := Model{Role: RoleEmbeddings}
	switch {
	case strings.HasPrefix(identifier, prefixOpenAI):
		m.Kind, m.Name = KindHostedAPI, strings.TrimPrefix(identifier, prefixOpenAI)
	case strings.HasPrefix(identifier, prefixHFEmbeddings):
		m.Kind, m.Name = KindHostedHub, strings.TrimPrefix(identifier, prefixHFEmbeddings)
	default:
		return Model{}, false
	}
	return m, true
}
