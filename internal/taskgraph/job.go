package taskgraph

// Job is a single schedulable CI task. Jobs are immutable once the graph they belong to has been built.
type Job struct {
	// Unique task label, e.g. test-linux1804-64-qr/debug-mochitest-chrome-1proc-1.
	Name string
	// Name with the shard suffix removed. Equal to Name for jobs that are not chunked.
	Family string
	// Shard index. Only meaningful if Chunked is set.
	Chunk int
	// True if the job is one shard of a family with at least two shards.
	Chunked bool
	// Optional task kind, e.g. "test" or "source-test".
	Kind string
	// Source paths the job is declared to cover, if known.
	Paths []string

	// Position of the job in the graph, used to keep graph order stable.
	position int
}

// ShardIndex returns the shard index of the job and true if the job is chunked, or zero and false otherwise.
func (job *Job) ShardIndex() (int, bool) {
	if !job.Chunked {
		return 0, false
	}
	return job.Chunk, true
}
