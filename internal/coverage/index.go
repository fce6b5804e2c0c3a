package coverage

import (
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/tryselect/internal/taskgraph"
)

const DefaultCacheSize = 1024

// entry is one registered path together with the jobs its job-name prefix selected when the index was built.
type entry struct {
	jobPrefix string
	path      string
	glob      bool
	jobs      []*taskgraph.Job
}

func (e *entry) covers(p string) bool {
	if e.glob {
		matched, err := zglob.Match(e.path, p)
		return err == nil && matched
	}
	return strings.HasPrefix(p, e.path)
}

// Index answers which jobs of a graph exercise a given source path. It never changes after construction and
// is safe for concurrent use.
type Index struct {
	graph   *taskgraph.Graph
	entries []*entry
	// Normalised path -> []*taskgraph.Job, sorted in graph order.
	cache *lru.Cache
}

// NewIndex builds an index over graph from the given manifests and from the paths declared on the jobs
// themselves. cacheSize bounds the number of memoised lookups; non-positive values select DefaultCacheSize.
func NewIndex(graph *taskgraph.Graph, manifests []Manifest, cacheSize int) (*Index, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	idx := &Index{
		graph: graph,
		cache: cache,
	}
	for _, manifest := range manifests {
		for _, key := range sortedKeys(manifest.Coverage) {
			jobs := jobsForPrefix(graph, key)
			if len(jobs) == 0 {
				log.WithField("prefix", key).Debug("coverage manifest entry does not match any task")
			}
			for _, p := range manifest.Coverage[key] {
				idx.add(key, p, jobs)
			}
		}
	}
	for _, job := range graph.Jobs() {
		for _, p := range job.Paths {
			idx.add(job.Name, p, []*taskgraph.Job{job})
		}
	}
	return idx, nil
}

func (idx *Index) add(jobPrefix string, p string, jobs []*taskgraph.Job) {
	normalised := NormalizePath(p)
	if normalised == "" {
		return
	}
	idx.entries = append(idx.entries, &entry{
		jobPrefix: jobPrefix,
		path:      normalised,
		glob:      isGlob(normalised),
		jobs:      jobs,
	})
}

// JobsCoveringPath returns the jobs whose registered paths cover p, in graph order.
// An empty result means no job covers p; it is up to the caller whether that is a problem.
func (idx *Index) JobsCoveringPath(p string) []*taskgraph.Job {
	normalised := NormalizePath(p)
	if cached, ok := idx.cache.Get(normalised); ok {
		return append([]*taskgraph.Job(nil), cached.([]*taskgraph.Job)...)
	}
	seen := make(map[string]bool)
	var jobs []*taskgraph.Job
	if normalised != "" {
		for _, e := range idx.entries {
			if !e.covers(normalised) {
				continue
			}
			for _, job := range e.jobs {
				if !seen[job.Name] {
					seen[job.Name] = true
					jobs = append(jobs, job)
				}
			}
		}
	}
	taskgraph.SortByGraphOrder(jobs)
	idx.cache.Add(normalised, jobs)
	return append([]*taskgraph.Job(nil), jobs...)
}

// Knows returns true if at least one registered entry covers p, whether or not that entry selects any job.
func (idx *Index) Knows(p string) bool {
	normalised := NormalizePath(p)
	if normalised == "" {
		return false
	}
	for _, e := range idx.entries {
		if e.covers(normalised) {
			return true
		}
	}
	return false
}

// NormalizePath converts p to forward slashes and cleans it. A trailing slash is kept, since it marks a directory
// entry that must not cover siblings sharing its name as a prefix.
func NormalizePath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	trailingSlash := strings.HasSuffix(p, "/")
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	if trailingSlash && p != "/" {
		p += "/"
	}
	return p
}

// jobsForPrefix returns the jobs selected by a manifest key: the job named exactly key, or jobs whose name continues
// key at a name boundary. So "mochitest-1" selects mochitest-1 but never mochitest-10.
func jobsForPrefix(graph *taskgraph.Graph, key string) []*taskgraph.Job {
	var rv []*taskgraph.Job
	for _, job := range graph.WithNamePrefix(key) {
		if matchesJobPrefix(job.Name, key) {
			rv = append(rv, job)
		}
	}
	return rv
}

func matchesJobPrefix(name string, key string) bool {
	if !strings.HasPrefix(name, key) {
		return false
	}
	if len(name) == len(key) || strings.HasSuffix(key, "-") || strings.HasSuffix(key, "/") {
		return true
	}
	next := name[len(key)]
	return next == '-' || next == '/'
}
