package fuzzy

import (
	"strings"
	"unicode"

	"github.com/armadaproject/tryselect/internal/common/tryerrors"
)

// PathKnower reports whether a string is a path known to the coverage index.
type PathKnower interface {
	Knows(path string) bool
}

type ParseOptions struct {
	// Exact makes bare terms exact; a leading ' then makes a term fuzzy instead.
	Exact bool
	// Paths recognises path literals. If nil, no token is treated as a path.
	Paths PathKnower
}

// token is one whitespace separated piece of a query.
type token struct {
	raw string
	// Set for "double quoted" phrases; text then holds the unescaped phrase.
	quoted  bool
	negated bool
	text    string
}

// Parse parses raw into a Query using fzf extended-search syntax:
//
//	abc     fuzzy match
//	'abc    exact (substring) match
//	^abc    prefix match
//	abc$    suffix match
//	^abc$   whole-name match
//	!abc    inverse exact match (!'abc is an inverse fuzzy match)
//	"a b"   exact match of a phrase that may contain spaces
//	a | b   either a or b
//
// A bare token containing a slash that opts.Paths knows is a path literal.
// Malformed tokens are reported as *tryerrors.ErrParse carrying the offending token.
func Parse(raw string, opts ParseOptions) (Query, error) {
	tokens, err := tokenize(raw)
	if err != nil {
		return Query{}, err
	}
	q := Query{Raw: raw}
	pendingOr := false
	for _, tok := range tokens {
		if tok.raw == "|" && !tok.quoted {
			if len(q.Clauses) == 0 || pendingOr {
				return Query{}, &tryerrors.ErrParse{Token: tok.raw, Query: raw, Message: "| must separate two terms"}
			}
			pendingOr = true
			continue
		}
		term, err := parseTerm(tok, opts)
		if err != nil {
			err.Query = raw
			return Query{}, err
		}
		if pendingOr {
			last := &q.Clauses[len(q.Clauses)-1]
			last.Alternatives = append(last.Alternatives, term)
			pendingOr = false
		} else {
			q.Clauses = append(q.Clauses, Clause{Alternatives: []Term{term}})
		}
	}
	if pendingOr {
		return Query{}, &tryerrors.ErrParse{Token: "|", Query: raw, Message: "| must separate two terms"}
	}
	for _, c := range q.Clauses {
		if len(c.Alternatives) < 2 {
			continue
		}
		for _, term := range c.Alternatives {
			if term.Kind == Path {
				return Query{}, &tryerrors.ErrParse{Token: term.Text, Query: raw, Message: "paths cannot be combined with |"}
			}
		}
	}
	return q, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constant queries.
func MustParse(raw string, opts ParseOptions) Query {
	q, err := Parse(raw, opts)
	if err != nil {
		panic(err)
	}
	return q
}

func tokenize(raw string) ([]token, error) {
	var tokens []token
	runes := []rune(raw)
	i := 0
	for i < len(runes) {
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		start := i
		negated := false
		if runes[i] == '!' && i+1 < len(runes) && runes[i+1] == '"' {
			negated = true
			i++
		}
		if runes[i] == '"' {
			var text strings.Builder
			i++
			closed := false
			for i < len(runes) {
				if runes[i] == '\\' && i+1 < len(runes) && runes[i+1] == '"' {
					text.WriteRune('"')
					i += 2
					continue
				}
				if runes[i] == '"' {
					closed = true
					i++
					break
				}
				text.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, &tryerrors.ErrParse{Token: string(runes[start:]), Query: raw, Message: "unterminated quote"}
			}
			if i < len(runes) && !unicode.IsSpace(runes[i]) {
				end := i
				for end < len(runes) && !unicode.IsSpace(runes[end]) {
					end++
				}
				return nil, &tryerrors.ErrParse{Token: string(runes[start:end]), Query: raw, Message: "unexpected text after closing quote"}
			}
			tokens = append(tokens, token{raw: string(runes[start:i]), quoted: true, negated: negated, text: text.String()})
			continue
		}
		for i < len(runes) && !unicode.IsSpace(runes[i]) {
			i++
		}
		tokens = append(tokens, token{raw: string(runes[start:i])})
	}
	return tokens, nil
}

func parseTerm(tok token, opts ParseOptions) (Term, *tryerrors.ErrParse) {
	if tok.quoted {
		if tok.text == "" {
			return Term{}, &tryerrors.ErrParse{Token: tok.raw, Message: "empty phrase"}
		}
		return Term{Kind: Exact, Text: tok.text, Negated: tok.negated}, nil
	}

	text := tok.raw
	negated := strings.HasPrefix(text, "!")
	text = strings.TrimPrefix(text, "!")
	exact := opts.Exact || negated
	modified := negated
	if strings.HasPrefix(text, "'") {
		text = text[1:]
		exact = !exact
		modified = true
	}
	prefix := strings.HasPrefix(text, "^")
	if prefix {
		text = text[1:]
		modified = true
	}
	suffix := len(text) > 0 && strings.HasSuffix(text, "$")
	if suffix {
		text = text[:len(text)-1]
		modified = true
	}
	if text == "" {
		return Term{}, &tryerrors.ErrParse{Token: tok.raw, Message: "missing text after modifier"}
	}
	isPath := strings.Contains(text, "/") && opts.Paths != nil && opts.Paths.Knows(text)
	if negated && isPath && tok.raw == "!"+text {
		return Term{}, &tryerrors.ErrParse{Token: tok.raw, Message: "paths cannot be negated"}
	}

	term := Term{Text: text, Negated: negated}
	switch {
	case prefix && suffix:
		term.Kind = Equal
	case prefix:
		term.Kind = Prefix
	case suffix:
		term.Kind = Suffix
	case !modified && isPath:
		term.Kind = Path
	case exact:
		term.Kind = Exact
	default:
		term.Kind = Fuzzy
	}
	return term, nil
}
