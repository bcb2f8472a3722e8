// Package config loads the launcher's YAML configuration into an immutable
// tree of backend selections (language model, embeddings model) and document
// search settings, and resolves the .env-provided environment the QA engine
// collaborators need. Validation reports every missing or malformed key at
// once, by dotted path.
package config
