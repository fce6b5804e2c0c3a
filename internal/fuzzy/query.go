package fuzzy

import "strings"

// TermKind says how the text of a term is compared with a job name.
type TermKind int

const (
	// Fuzzy terms match if their characters appear in the name in order, ignoring case.
	Fuzzy TermKind = iota
	// Exact terms match if the name contains the text.
	Exact
	// Prefix terms match if the name starts with the text.
	Prefix
	// Suffix terms match if the name ends with the text.
	Suffix
	// Equal terms match if the name is the text.
	Equal
	// Path terms are source paths, resolved through the coverage index rather than against the name.
	Path
)

func (k TermKind) String() string {
	switch k {
	case Fuzzy:
		return "fuzzy"
	case Exact:
		return "exact"
	case Prefix:
		return "prefix"
	case Suffix:
		return "suffix"
	case Equal:
		return "equal"
	case Path:
		return "path"
	default:
		return "unknown"
	}
}

// Term is a single comparison of a query.
type Term struct {
	Kind    TermKind
	Text    string
	Negated bool
}

// Clause is satisfied if any of its alternatives is. Most clauses have a single alternative;
// "a | b" in a query produces a clause with two.
type Clause struct {
	Alternatives []Term
}

// IsPath returns true if the clause is a path literal.
func (c Clause) IsPath() bool {
	return len(c.Alternatives) == 1 && c.Alternatives[0].Kind == Path
}

// Query is a parsed selection query. A job satisfies a query if it satisfies every clause.
type Query struct {
	// Raw is the text the query was parsed from.
	Raw     string
	Clauses []Clause
}

// Paths returns the path literals of the query in order.
func (q Query) Paths() []string {
	var rv []string
	for _, c := range q.Clauses {
		if c.IsPath() {
			rv = append(rv, c.Alternatives[0].Text)
		}
	}
	return rv
}

// TextClauses returns every clause that is matched against job names, i.e., all but the path literals.
func (q Query) TextClauses() []Clause {
	var rv []Clause
	for _, c := range q.Clauses {
		if !c.IsPath() {
			rv = append(rv, c)
		}
	}
	return rv
}

// WithPaths returns a copy of q with the given paths appended as path literals.
func (q Query) WithPaths(paths ...string) Query {
	clauses := make([]Clause, 0, len(q.Clauses)+len(paths))
	clauses = append(clauses, q.Clauses...)
	for _, p := range paths {
		clauses = append(clauses, Clause{Alternatives: []Term{{Kind: Path, Text: p}}})
	}
	raw := strings.TrimSpace(strings.Join(append([]string{q.Raw}, paths...), " "))
	return Query{Raw: raw, Clauses: clauses}
}

func (q Query) String() string {
	return q.Raw
}
