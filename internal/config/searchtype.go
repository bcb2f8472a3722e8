package config

import (
	"fmt"
	"strings"
)

// SearchType selects the document retrieval strategy used by the QA engine.
type SearchType string

const (
	SearchSVM   SearchType = "svm"
	SearchMMR   SearchType = "mmr"
	SearchTFIDF SearchType = "tfidf"
	SearchKNN   SearchType = "knn"
	SearchBM25  SearchType = "bm25"

	// DefaultSearchType applies when akasha.docs.searchType is not set.
	DefaultSearchType = SearchSVM
)

var searchTypes = []SearchType{SearchSVM, SearchMMR, SearchTFIDF, SearchKNN, SearchBM25}

// SearchTypes lists the supported strategies in their canonical form.
func SearchTypes() []SearchType {
	out := make([]SearchType, len(searchTypes))
	copy(out, searchTypes)
	return out
}

// ParseSearchType matches raw case-insensitively. A blank value yields the default.
func ParseSearchType(raw string) (SearchType, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return DefaultSearchType, nil
	}
	for _, st := range searchTypes {
		if string(st) == normalized {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown search type %q (want one of %s)", raw, joinSearchTypes())
}

func joinSearchTypes() string {
	names := make([]string, len(searchTypes))
	for i, st := range searchTypes {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

func (s SearchType) String() string {
	return string(s)
}
