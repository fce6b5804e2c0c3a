package fuzzy

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/armadaproject/tryselect/internal/taskgraph"
)

// MatchResult is a job that satisfied a query.
type MatchResult struct {
	Job *taskgraph.Job
	// Non-negative; higher is a better match.
	Score int
	// Rune offsets into the job name of the matched characters, ascending.
	Positions []int
	// Set if the job was selected because a term named its whole chunk family.
	Family string
}

// Matcher scores jobs against queries. A fuzzy or exact term whose text is the name of a job, or the base name of a
// chunk family, among the jobs being matched selects exactly that job or the shards of that family, rather than every
// name that happens to contain the text. Once that job has been narrowed away the term is ordinary text again.
type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// corpusNames holds the job and chunk family names present in one corpus.
type corpusNames struct {
	jobs     map[string]bool
	families map[string]bool
}

func newCorpusNames(corpus []*taskgraph.Job) corpusNames {
	names := corpusNames{
		jobs:     make(map[string]bool, len(corpus)),
		families: make(map[string]bool),
	}
	for _, job := range corpus {
		names.jobs[job.Name] = true
		if job.Chunked {
			names.families[job.Family] = true
		}
	}
	return names
}

// Match returns the jobs of corpus satisfying every text clause of q, highest score first. Jobs with equal scores
// keep their corpus order. Path clauses are ignored; they are the resolver's business.
func (m *Matcher) Match(corpus []*taskgraph.Job, q Query) []MatchResult {
	clauses := q.TextClauses()
	names := newCorpusNames(corpus)
	results := make([]MatchResult, 0)
	for _, job := range corpus {
		if result, ok := m.matchJob(job, clauses, names); ok {
			results = append(results, result)
		}
	}
	sortResults(results)
	return results
}

// MatchAny returns the jobs of corpus satisfying at least one of queries, scored by the best query each satisfies.
// Ordering is the same as for Match.
func (m *Matcher) MatchAny(corpus []*taskgraph.Job, queries []Query) []MatchResult {
	textClauses := make([][]Clause, len(queries))
	for i, q := range queries {
		textClauses[i] = q.TextClauses()
	}
	names := newCorpusNames(corpus)
	results := make([]MatchResult, 0)
	for _, job := range corpus {
		var best MatchResult
		found := false
		for _, clauses := range textClauses {
			if result, ok := m.matchJob(job, clauses, names); ok && (!found || result.Score > best.Score) {
				best = result
				found = true
			}
		}
		if found {
			results = append(results, best)
		}
	}
	sortResults(results)
	return results
}

func sortResults(results []MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

func (m *Matcher) matchJob(job *taskgraph.Job, clauses []Clause, names corpusNames) (MatchResult, bool) {
	result := MatchResult{Job: job}
	var positions []int
	for _, clause := range clauses {
		best := termMatch{}
		for _, term := range clause.Alternatives {
			if tm := m.matchTerm(job, term, names); tm.ok && (!best.ok || tm.score > best.score) {
				best = tm
			}
		}
		if !best.ok {
			return MatchResult{}, false
		}
		result.Score += best.score
		positions = append(positions, best.positions...)
		if best.family != "" {
			result.Family = best.family
		}
	}
	result.Positions = uniqueSorted(positions)
	return result, true
}

type termMatch struct {
	ok        bool
	score     int
	positions []int
	family    string
}

func (m *Matcher) matchTerm(job *taskgraph.Job, term Term, names corpusNames) termMatch {
	if term.Kind == Path {
		return termMatch{ok: true}
	}
	tm, isIdentity := matchIdentity(job, term, names)
	if !isIdentity {
		tm = matchText(job.Name, term)
	}
	if term.Negated {
		return termMatch{ok: !tm.ok}
	}
	return tm
}

// matchIdentity handles fuzzy and exact terms whose text is the name of a job or of a chunk family in the corpus.
func matchIdentity(job *taskgraph.Job, term Term, names corpusNames) (termMatch, bool) {
	if term.Kind != Fuzzy && term.Kind != Exact {
		return termMatch{}, false
	}
	if names.jobs[term.Text] {
		if job.Name != term.Text {
			return termMatch{}, true
		}
		score, positions := contiguousMatch(job.Name, 0, term.Text)
		return termMatch{ok: true, score: score, positions: positions}, true
	}
	if names.families[term.Text] {
		if !job.Chunked || job.Family != term.Text {
			return termMatch{}, true
		}
		score, positions := contiguousMatch(job.Name, 0, term.Text)
		return termMatch{ok: true, score: score, positions: positions, family: term.Text}, true
	}
	return termMatch{}, false
}

func matchText(name string, term Term) termMatch {
	switch term.Kind {
	case Fuzzy:
		score, positions, ok := fuzzyMatch(name, term.Text)
		return termMatch{ok: ok, score: score, positions: positions}
	case Exact:
		idx := strings.Index(name, term.Text)
		if idx < 0 {
			return termMatch{}
		}
		return contiguousAt(name, idx, term.Text)
	case Prefix:
		if !strings.HasPrefix(name, term.Text) {
			return termMatch{}
		}
		return contiguousAt(name, 0, term.Text)
	case Suffix:
		if !strings.HasSuffix(name, term.Text) {
			return termMatch{}
		}
		return contiguousAt(name, len(name)-len(term.Text), term.Text)
	case Equal:
		if name != term.Text {
			return termMatch{}
		}
		return contiguousAt(name, 0, term.Text)
	default:
		return termMatch{}
	}
}

func contiguousAt(name string, byteOffset int, text string) termMatch {
	score, positions := contiguousMatch(name, utf8.RuneCountInString(name[:byteOffset]), text)
	return termMatch{ok: true, score: score, positions: positions}
}

func uniqueSorted(positions []int) []int {
	if len(positions) == 0 {
		return nil
	}
	sort.Ints(positions)
	rv := positions[:1]
	for _, p := range positions[1:] {
		if p != rv[len(rv)-1] {
			rv = append(rv, p)
		}
	}
	return rv
}
