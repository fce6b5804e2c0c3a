package taskgraph

import (
	"strconv"
	"strings"
)

// SplitChunk splits a trailing -<digits> suffix from name. It is purely syntactic: whether the name really is a
// shard depends on its siblings, which only the Graph knows.
// Digit runs with a leading zero are not treated as shard indexes, so that base + "-" + index always gives back
// the original name.
func SplitChunk(name string) (base string, index int, ok bool) {
	i := strings.LastIndexByte(name, '-')
	if i <= 0 || i == len(name)-1 {
		return "", 0, false
	}
	digits := name[i+1:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", 0, false
		}
	}
	if len(digits) > 1 && digits[0] == '0' {
		return "", 0, false
	}
	index, err := strconv.Atoi(digits)
	if err != nil {
		return "", 0, false
	}
	return name[:i], index, true
}

// CollapseChunks is used for display. Shards of a chunked family are replaced by a single <family>-* entry at the
// position of the first shard seen; other names are returned unchanged.
func CollapseChunks(names []string, graph *Graph) []string {
	rv := make([]string, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		display := name
		if job, ok := graph.Get(name); ok && job.Chunked {
			display = job.Family + "-*"
		}
		if !seen[display] {
			seen[display] = true
			rv = append(rv, display)
		}
	}
	return rv
}
