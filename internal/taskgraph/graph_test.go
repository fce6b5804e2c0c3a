package taskgraph

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobNames(jobs []*Job) []string {
	rv := make([]string, len(jobs))
	for i, job := range jobs {
		rv[i] = job.Name
	}
	return rv
}

func TestNewGraph_Errors(t *testing.T) {
	_, err := NewGraph([]*Job{{Name: "a"}, {Name: "a"}, {Name: ""}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate job a")
	assert.Contains(t, err.Error(), "job 2 has an empty name")
}

func TestNewGraph_CopiesInput(t *testing.T) {
	input := []*Job{{Name: "a", Kind: "test", Paths: []string{"x/"}}}
	graph, err := NewGraph(input)
	require.NoError(t, err)

	input[0].Name = "changed"
	input[0].Paths[0] = "changed"

	job, ok := graph.Get("a")
	require.True(t, ok)
	assert.Equal(t, "test", job.Kind)
	assert.Equal(t, []string{"x/"}, job.Paths)
}

func TestGraph_Lookups(t *testing.T) {
	graph, err := NewGraphFromNames("zeta", "m-3", "m-1", "alpha", "m-2", "m-10")
	require.NoError(t, err)

	assert.Equal(t, 6, graph.Len())
	assert.Equal(t, []string{"zeta", "m-3", "m-1", "alpha", "m-2", "m-10"}, graph.Names())
	assert.True(t, graph.Contains("alpha"))
	assert.False(t, graph.Contains("alph"))

	assert.True(t, graph.IsFamily("m"))
	assert.False(t, graph.IsFamily("zeta"))
	assert.Equal(t, []string{"m-1", "m-2", "m-3", "m-10"}, jobNames(graph.ExpandFamily("m")))
	assert.Equal(t, []string{"zeta"}, jobNames(graph.ExpandFamily("zeta")))
	assert.Empty(t, graph.ExpandFamily("nope"))

	// Prefix results come back in graph order, not name order.
	assert.Equal(t, []string{"m-3", "m-1", "m-2", "m-10"}, jobNames(graph.WithNamePrefix("m-")))
	assert.Equal(t, []string{"m-1", "m-10"}, jobNames(graph.WithNamePrefix("m-1")))
	assert.Empty(t, graph.WithNamePrefix("q"))
}

func TestGraph_JobsReturnsCopy(t *testing.T) {
	graph, err := NewGraphFromNames("a", "b")
	require.NoError(t, err)

	jobs := graph.Jobs()
	jobs[0], jobs[1] = jobs[1], jobs[0]
	assert.Equal(t, []string{"a", "b"}, graph.Names())
}

func TestGraph_ConcurrentReads(t *testing.T) {
	graph, err := NewGraphFromNames("m-1", "m-2", "m-3", "other")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Len(t, graph.ExpandFamily("m"), 3)
				assert.True(t, graph.Contains("other"))
			}
		}()
	}
	wg.Wait()
}
