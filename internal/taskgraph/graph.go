package taskgraph

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-memdb"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

const (
	jobsTable   = "jobs"
	idIndex     = "id"        // index for looking up jobs by name
	idPrefix    = "id_prefix" // prefix scan over the id index
	familyIndex = "family"    // index for looking up all shards of a chunk family
)

// Graph is the read-only set of jobs a query is resolved against.
// Graph is implemented on top of https://github.com/hashicorp/go-memdb; every lookup runs in its own read
// transaction, so a Graph can be shared between goroutines without further locking.
type Graph struct {
	db *memdb.MemDB
	// Jobs in the order they were supplied.
	jobs []*Job
}

// NewGraph builds a graph from jobs. Only Name, Kind and Paths of the supplied jobs are used; chunk information is
// derived here, since whether a trailing integer is a shard index depends on the other jobs in the graph.
// Empty and duplicate names are reported together in a single error.
func NewGraph(jobs []*Job) (*Graph, error) {
	var result *multierror.Error
	seen := make(map[string]bool, len(jobs))
	built := make([]*Job, 0, len(jobs))
	for i, job := range jobs {
		if job.Name == "" {
			result = multierror.Append(result, errors.Errorf("job %d has an empty name", i))
			continue
		}
		if seen[job.Name] {
			result = multierror.Append(result, errors.Errorf("duplicate job %s", job.Name))
			continue
		}
		seen[job.Name] = true
		built = append(built, &Job{
			Name:     job.Name,
			Family:   job.Name,
			Kind:     job.Kind,
			Paths:    append([]string(nil), job.Paths...),
			position: len(built),
		})
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	// A trailing integer is a shard index only if some sibling shares the base with a different index.
	indexesByBase := make(map[string]map[int]bool)
	for _, job := range built {
		if base, index, ok := SplitChunk(job.Name); ok {
			if indexesByBase[base] == nil {
				indexesByBase[base] = make(map[int]bool)
			}
			indexesByBase[base][index] = true
		}
	}
	for _, job := range built {
		if base, index, ok := SplitChunk(job.Name); ok && len(indexesByBase[base]) > 1 {
			job.Family = base
			job.Chunk = index
			job.Chunked = true
		}
	}

	db, err := memdb.NewMemDB(graphSchema())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	txn := db.Txn(true)
	for _, job := range built {
		if err := txn.Insert(jobsTable, job); err != nil {
			txn.Abort()
			return nil, errors.WithStack(err)
		}
	}
	txn.Commit()
	return &Graph{db: db, jobs: built}, nil
}

// NewGraphFromNames is a convenience wrapper around NewGraph for jobs that carry nothing but a name.
func NewGraphFromNames(names ...string) (*Graph, error) {
	jobs := make([]*Job, len(names))
	for i, name := range names {
		jobs[i] = &Job{Name: name}
	}
	return NewGraph(jobs)
}

// Len returns the number of jobs in the graph.
func (g *Graph) Len() int {
	return len(g.jobs)
}

// Jobs returns all jobs in graph order. The returned slice may be modified; the jobs may not.
func (g *Graph) Jobs() []*Job {
	return append([]*Job(nil), g.jobs...)
}

// Names returns the names of all jobs in graph order.
func (g *Graph) Names() []string {
	rv := make([]string, len(g.jobs))
	for i, job := range g.jobs {
		rv[i] = job.Name
	}
	return rv
}

// Get returns the job with the given name.
func (g *Graph) Get(name string) (*Job, bool) {
	obj, err := g.db.Txn(false).First(jobsTable, idIndex, name)
	if err != nil || obj == nil {
		return nil, false
	}
	return obj.(*Job), true
}

// Contains returns true if a job with the given name exists.
func (g *Graph) Contains(name string) bool {
	_, ok := g.Get(name)
	return ok
}

// BaseName returns the family name of the job, i.e., its name without shard suffix.
// Names not in the graph are returned unchanged.
func (g *Graph) BaseName(name string) string {
	if job, ok := g.Get(name); ok {
		return job.Family
	}
	return name
}

// ShardIndex returns the shard index of the named job, if the job exists and is chunked.
func (g *Graph) ShardIndex(name string) (int, bool) {
	job, ok := g.Get(name)
	if !ok {
		return 0, false
	}
	return job.ShardIndex()
}

// IsFamily returns true if base is the family name of at least one chunked job.
func (g *Graph) IsFamily(base string) bool {
	return len(g.shards(base)) > 0
}

// ExpandFamily returns all shards of the family base ordered by shard index.
// A name that is not a chunk family but is a job in the graph expands to that job alone.
func (g *Graph) ExpandFamily(base string) []*Job {
	if shards := g.shards(base); len(shards) > 0 {
		return shards
	}
	if job, ok := g.Get(base); ok {
		return []*Job{job}
	}
	return nil
}

func (g *Graph) shards(base string) []*Job {
	it, err := g.db.Txn(false).Get(jobsTable, familyIndex, base)
	if err != nil {
		panic(fmt.Sprintf("family index lookup failed: %s", err))
	}
	var rv []*Job
	for obj := it.Next(); obj != nil; obj = it.Next() {
		if job := obj.(*Job); job.Chunked {
			rv = append(rv, job)
		}
	}
	sort.Slice(rv, func(i, j int) bool { return rv[i].Chunk < rv[j].Chunk })
	return rv
}

// WithNamePrefix returns all jobs whose name starts with prefix, in graph order.
func (g *Graph) WithNamePrefix(prefix string) []*Job {
	it, err := g.db.Txn(false).Get(jobsTable, idPrefix, prefix)
	if err != nil {
		panic(fmt.Sprintf("id prefix lookup failed: %s", err))
	}
	var rv []*Job
	for obj := it.Next(); obj != nil; obj = it.Next() {
		rv = append(rv, obj.(*Job))
	}
	SortByGraphOrder(rv)
	return rv
}

// SortByGraphOrder sorts jobs in place into the order in which they appear in their graph.
func SortByGraphOrder(jobs []*Job) {
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].position < jobs[j].position })
}

// graphSchema creates the database schema.
// This is a simple schema consisting of a single "jobs" table with indexes for lookups by name and by family.
func graphSchema() *memdb.DBSchema {
	indexes := make(map[string]*memdb.IndexSchema)
	indexes[idIndex] = &memdb.IndexSchema{
		Name:    idIndex, // lookup by primary key
		Unique:  true,
		Indexer: &memdb.StringFieldIndex{Field: "Name"},
	}
	indexes[familyIndex] = &memdb.IndexSchema{
		Name:    familyIndex, // lookup all shards of a family
		Unique:  false,
		Indexer: &memdb.StringFieldIndex{Field: "Family"},
	}
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			jobsTable: {
				Name:    jobsTable,
				Indexes: indexes,
			},
		},
	}
}
