package resolver

import (
	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/tryselect/internal/common/slices"
	"github.com/armadaproject/tryselect/internal/common/tryerrors"
	"github.com/armadaproject/tryselect/internal/fuzzy"
	"github.com/armadaproject/tryselect/internal/taskgraph"
)

// CoverageIndex maps a source path to the jobs exercising it.
type CoverageIndex interface {
	JobsCoveringPath(path string) []*taskgraph.Job
}

// Selection is the outcome of resolving a set of queries: unique task names in the order they were first resolved.
type Selection struct {
	Tasks []string
}

func (s Selection) Len() int {
	return len(s.Tasks)
}

type Options struct {
	// Intersect selects the tasks matched by every query rather than by any query.
	Intersect bool
	// Filters, if any, restrict the graph to the jobs matching at least one of them before any query is considered.
	Filters []fuzzy.Query
	// Kinds, if any, restrict the graph to the jobs of those task kinds. Jobs without a kind never pass.
	Kinds []string
}

// Resolver turns queries into a Selection. It holds no mutable state, so one Resolver may serve concurrent calls.
type Resolver struct {
	graph    *taskgraph.Graph
	coverage CoverageIndex
	matcher  *fuzzy.Matcher
}

// New returns a resolver over graph. coverage may be nil, in which case every path literal covers nothing.
func New(graph *taskgraph.Graph, coverage CoverageIndex) *Resolver {
	return &Resolver{
		graph:    graph,
		coverage: coverage,
		matcher:  fuzzy.NewMatcher(),
	}
}

// Resolve resolves queries against the graph. Each query selects the jobs satisfying all of its clauses: path literals
// narrow the candidates to the jobs covering every one of those paths, and text clauses are then matched against
// those candidates only. Results of the individual queries are unioned (or intersected, see Options) keeping
// first-seen order. If nothing is selected a *tryerrors.ErrNoMatch is returned.
func (r *Resolver) Resolve(queries []fuzzy.Query, opts Options) (Selection, error) {
	if len(queries) == 0 {
		return Selection{}, &tryerrors.ErrInvalidArgument{Name: "queries", Value: "", Message: "at least one query is required"}
	}
	corpus := r.graph.Jobs()
	if len(opts.Kinds) > 0 {
		kinds := make(map[string]bool, len(opts.Kinds))
		for _, kind := range opts.Kinds {
			kinds[kind] = true
		}
		corpus = slices.Filter(corpus, func(job *taskgraph.Job) bool { return kinds[job.Kind] })
		log.WithField("kinds", opts.Kinds).Debugf("%d of %d tasks have a requested kind", len(corpus), r.graph.Len())
	}
	if len(opts.Filters) > 0 {
		corpus = r.filter(corpus, opts.Filters)
		log.WithField("filters", slices.Map(opts.Filters, fuzzy.Query.String)).
			Debugf("%d of %d tasks remain after filtering", len(corpus), r.graph.Len())
	}

	var tasks []string
	for i, q := range queries {
		resolved := r.resolveQuery(corpus, q)
		log.WithField("query", q.Raw).Debugf("query matched %d tasks", len(resolved))
		switch {
		case i == 0:
			tasks = resolved
		case opts.Intersect:
			tasks = slices.Intersect(tasks, resolved)
		default:
			tasks = slices.Unique(slices.Concatenate(tasks, resolved))
		}
	}
	tasks = slices.Unique(tasks)

	if len(tasks) == 0 {
		return Selection{}, &tryerrors.ErrNoMatch{Queries: slices.Map(queries, fuzzy.Query.String)}
	}
	return Selection{Tasks: tasks}, nil
}

func (r *Resolver) filter(corpus []*taskgraph.Job, filters []fuzzy.Query) []*taskgraph.Job {
	keep := make(map[string]bool)
	for _, result := range r.matcher.MatchAny(corpus, filters) {
		keep[result.Job.Name] = true
	}
	return slices.Filter(corpus, func(job *taskgraph.Job) bool { return keep[job.Name] })
}

func (r *Resolver) resolveQuery(corpus []*taskgraph.Job, q fuzzy.Query) []string {
	candidates := corpus
	for _, path := range q.Paths() {
		covering := make(map[string]bool)
		if r.coverage != nil {
			for _, job := range r.coverage.JobsCoveringPath(path) {
				covering[job.Name] = true
			}
		} else {
			log.WithField("path", path).Warn("no coverage information available")
		}
		candidates = slices.Filter(candidates, func(job *taskgraph.Job) bool { return covering[job.Name] })
		log.WithField("path", path).Debugf("%d candidate tasks cover path", len(candidates))
	}

	if len(q.TextClauses()) == 0 {
		return slices.Map(candidates, func(job *taskgraph.Job) string { return job.Name })
	}
	return r.expandFamilies(r.matcher.Match(candidates, q))
}

// expandFamilies lists matched jobs in ranking order, except that a match on a whole chunk family is replaced by the
// matched shards of that family in shard order. Shards removed earlier (e.g., by a path literal) stay removed.
func (r *Resolver) expandFamilies(results []fuzzy.MatchResult) []string {
	matched := make(map[string]bool, len(results))
	for _, result := range results {
		matched[result.Job.Name] = true
	}
	emitted := make(map[string]bool, len(results))
	tasks := make([]string, 0, len(results))
	emit := func(name string) {
		if !emitted[name] {
			emitted[name] = true
			tasks = append(tasks, name)
		}
	}
	for _, result := range results {
		if result.Family == "" {
			emit(result.Job.Name)
			continue
		}
		for _, shard := range r.graph.ExpandFamily(result.Family) {
			if matched[shard.Name] {
				emit(shard.Name)
			}
		}
	}
	return tasks
}
