// Package backend models the language and embedding model backends the QA
// engine can be pointed at, and renders them into the provider-prefixed
// identifier strings the engine understands ("openai:gpt-4o-mini",
// "hf:meta-llama/Llama-2-13b-chat-hf", "llama-gpu:model/x.gguf", ...).
package backend
