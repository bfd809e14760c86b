// Package search turns user search terms into index store queries.
//
// The engine owns term parsing and escaping; the store owns SQL. A term
// compiles once into both match renderings, the store picks one based
// on the requested case sensitivity.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dferrors "github.com/dfind/dfind/internal/errors"
	"github.com/dfind/dfind/internal/store"
)

// Options control how a term is matched.
type Options struct {
	// Exact compares the term verbatim instead of as a pattern.
	// Escape sequences are wildcard-mode syntax and do not apply.
	Exact bool

	// CaseSensitive compares bytes; the default folds ASCII case.
	CaseSensitive bool

	// Scope selects the matched fields: name, path, or both.
	// Empty means name.
	Scope store.Scope

	// Type restricts results to files or directories. Empty means all.
	Type store.EntryType

	// Limit caps the result count. 0 means unlimited.
	Limit int
}

// Result is one executed search.
type Result struct {
	Entries []*store.Entry // ordered by (volume, path), never nil
	Count   int

	// Echo of the executed query, for presentation.
	Term          string
	Exact         bool
	CaseSensitive bool
	Wildcard      bool // term contained an unescaped *; always false in exact mode

	Elapsed time.Duration
}

// Engine executes searches against an index store.
// Safe for concurrent use when the underlying store is.
type Engine struct {
	store store.IndexStore
}

// New creates a search engine over st.
func New(st store.IndexStore) (*Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("index store is required")
	}
	return &Engine{store: st}, nil
}

// Search executes one query and returns the matching entries.
//
// An empty result set is a normal outcome, not an error. Errors are
// either query-category (malformed or empty term) or store-category
// (the store is missing, corrupt, or closed).
func (e *Engine) Search(ctx context.Context, term string, opts Options) (*Result, error) {
	start := time.Now()

	q := &store.Query{
		Exact:         opts.Exact,
		CaseSensitive: opts.CaseSensitive,
		Scope:         opts.Scope,
		Type:          opts.Type,
		Limit:         opts.Limit,
	}

	wildcard := false
	if opts.Exact {
		if term == "" {
			return nil, dferrors.New(dferrors.ErrCodeQueryEmpty, "empty search term", nil)
		}
		q.Term = term
	} else {
		p, err := Compile(term)
		if err != nil {
			return nil, err
		}
		q.Like = p.Like
		q.Glob = p.Glob
		wildcard = p.Wildcard
	}

	entries, err := e.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*store.Entry{}
	}

	r := &Result{
		Entries:       entries,
		Count:         len(entries),
		Term:          term,
		Exact:         opts.Exact,
		CaseSensitive: opts.CaseSensitive,
		Wildcard:      wildcard,
		Elapsed:       time.Since(start),
	}

	slog.Debug("search_completed",
		slog.String("term", term),
		slog.Bool("exact", opts.Exact),
		slog.Bool("case_sensitive", opts.CaseSensitive),
		slog.Int("results", r.Count),
		slog.Duration("elapsed", r.Elapsed))

	return r, nil
}
