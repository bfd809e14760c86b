package search

import (
	"fmt"
	"strings"

	dferrors "github.com/dfind/dfind/internal/errors"
)

// Pattern is one parsed search term rendered for both SQL match styles.
// The store picks a rendering based on case sensitivity: LIKE folds
// ASCII case, GLOB compares bytes.
type Pattern struct {
	Term     string // original input
	Like     string // LIKE rendering, backslash-escaped
	Glob     string // GLOB rendering, bracket-escaped
	Wildcard bool   // term contained at least one unescaped *
}

// Compile parses term once and renders it for LIKE and GLOB matching.
//
// `*` matches any run of characters. `\*` matches a literal asterisk
// and `\\` a literal backslash; any other backslash sequence is kept
// as-is, so Windows-style paths stay searchable without doubling every
// separator. A term ending in a lone backslash is malformed.
//
// A term without any unescaped `*` matches as a substring: both
// renderings are wrapped on both ends.
func Compile(term string) (*Pattern, error) {
	if term == "" {
		return nil, dferrors.New(dferrors.ErrCodeQueryEmpty, "empty search term", nil)
	}

	var like, glob strings.Builder
	wildcard := false
	escaped := false

	for i := 0; i < len(term); i++ {
		c := term[i]

		if escaped {
			if c != '*' && c != '\\' {
				writeLiteral(&like, &glob, '\\')
			}
			writeLiteral(&like, &glob, c)
			escaped = false
			continue
		}

		switch c {
		case '\\':
			escaped = true
		case '*':
			wildcard = true
			like.WriteByte('%')
			glob.WriteByte('*')
		default:
			writeLiteral(&like, &glob, c)
		}
	}
	if escaped {
		return nil, dferrors.QueryError(
			fmt.Sprintf("pattern %q ends with an unbalanced escape; use \\\\ for a literal backslash", term), nil)
	}

	p := &Pattern{
		Term:     term,
		Like:     like.String(),
		Glob:     glob.String(),
		Wildcard: wildcard,
	}
	if !wildcard {
		p.Like = "%" + p.Like + "%"
		p.Glob = "*" + p.Glob + "*"
	}

	return p, nil
}

// writeLiteral appends one literal byte with the escaping each
// rendering needs. LIKE treats % and _ as wildcards and backslash as
// our ESCAPE character; GLOB treats * ? [ as specials, neutralized by
// a single-character class.
func writeLiteral(like, glob *strings.Builder, c byte) {
	switch c {
	case '%', '_', '\\':
		like.WriteByte('\\')
	}
	like.WriteByte(c)

	switch c {
	case '*', '?', '[':
		glob.WriteByte('[')
		glob.WriteByte(c)
		glob.WriteByte(']')
	default:
		glob.WriteByte(c)
	}
}
