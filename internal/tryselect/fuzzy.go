package tryselect

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"

	"github.com/armadaproject/tryselect/internal/common/config"
	"github.com/armadaproject/tryselect/internal/common/tryerrors"
	"github.com/armadaproject/tryselect/internal/coverage"
	"github.com/armadaproject/tryselect/internal/fuzzy"
	"github.com/armadaproject/tryselect/internal/resolver"
	"github.com/armadaproject/tryselect/internal/taskgraph"
	"github.com/armadaproject/tryselect/internal/tryconfig"
)

const (
	MinRebuild = 2
	MaxRebuild = 20
)

type FuzzyArgs struct {
	// Queries given on the command line.
	Queries []string
	// Names of configured presets whose queries are added to Queries.
	Presets []string
	// Source paths; each narrows every query to the tasks covering it.
	Paths []string
	// Print the document without submitting it.
	NoPush bool
	// Ignore the configured filters.
	Full bool
	// List shards individually instead of one <family>-* line per family.
	ShowChunkNumbers bool
	// Select the tasks matched by every query instead of any query.
	Intersect bool
	// Treat bare terms as exact rather than fuzzy.
	Exact bool
	// Number of times to run each task; 0 to leave it unset.
	Rebuild int
	// KEY=VALUE pairs added to the task environment.
	Env []string
	// Task kinds to select from, e.g. "test"; empty for every kind.
	Kinds []string
}

func (args FuzzyArgs) validate() error {
	if args.Rebuild != 0 && (args.Rebuild < MinRebuild || args.Rebuild > MaxRebuild) {
		return &tryerrors.ErrInvalidArgument{
			Name:    "rebuild",
			Value:   args.Rebuild,
			Message: fmt.Sprintf("must be between %d and %d", MinRebuild, MaxRebuild),
		}
	}
	if len(args.Queries) == 0 && len(args.Presets) == 0 && len(args.Paths) == 0 {
		return &tryerrors.ErrParse{Message: "no query given; interactive selection is not available"}
	}
	return nil
}

// Fuzzy resolves the given queries and paths against the task graph, prints the selected tasks and the resulting
// try task config, and submits the config unless args.NoPush is set.
func (a *App) Fuzzy(ctx context.Context, args FuzzyArgs) error {
	if err := args.validate(); err != nil {
		return err
	}
	flagEnv, err := config.ParseKeyValues(args.Env)
	if err != nil {
		return &tryerrors.ErrInvalidArgument{Name: "env", Value: args.Env, Message: err.Error()}
	}
	env := make(map[string]string, len(a.Params.Config.Env)+len(flagEnv))
	maps.Copy(env, a.Params.Config.Env)
	maps.Copy(env, flagEnv)

	graph, index, err := a.load()
	if err != nil {
		return err
	}

	queries, err := a.queries(args, index)
	if err != nil {
		return err
	}
	opts := resolver.Options{Intersect: args.Intersect, Kinds: args.Kinds}
	if !args.Full {
		if opts.Filters, err = a.filters(); err != nil {
			return err
		}
	}

	selection, err := resolver.New(graph, index).Resolve(queries, opts)
	if err != nil {
		return err
	}
	a.printSelection(selection, graph, args.ShowChunkNumbers)

	doc := tryconfig.Compile(selection, tryconfig.RunMetadata{
		Env:       env,
		Rebuild:   args.Rebuild,
		TestPaths: args.Paths,
	})
	if err := tryconfig.WriteCalculated(a.Out, doc); err != nil {
		return err
	}
	if args.NoPush {
		return nil
	}
	if err := a.submitter().Submit(ctx, doc); err != nil {
		return errors.WithMessage(err, "[tryselect.Fuzzy] error submitting try task config")
	}
	return nil
}

func (a *App) load() (*taskgraph.Graph, *coverage.Index, error) {
	cfg := a.Params.Config
	if cfg.TaskGraph == "" {
		return nil, nil, &tryerrors.ErrInvalidArgument{
			Name:    "taskGraph",
			Value:   "",
			Message: "a task graph file is required; use --task-graph or set taskGraph in the config file",
		}
	}
	// The graph and the manifests are independent files; read them concurrently.
	var graph *taskgraph.Graph
	var manifests []coverage.Manifest
	g := new(errgroup.Group)
	g.Go(func() (err error) {
		graph, err = taskgraph.Load(cfg.TaskGraph)
		return
	})
	g.Go(func() (err error) {
		manifests, err = coverage.LoadManifests(cfg.CoverageManifests)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	index, err := coverage.NewIndex(graph, manifests, cfg.CoverageCacheSize)
	if err != nil {
		return nil, nil, err
	}
	log.Debugf("loaded %d coverage manifests", len(manifests))
	return graph, index, nil
}

// queries parses the command-line queries followed by the queries of each preset. Every query is narrowed by
// args.Paths; paths alone make up a single query.
func (a *App) queries(args FuzzyArgs, index *coverage.Index) ([]fuzzy.Query, error) {
	raw := append([]string(nil), args.Queries...)
	for _, name := range args.Presets {
		preset, ok := a.Params.Config.Presets[name]
		if !ok {
			return nil, &tryerrors.ErrInvalidArgument{Name: "preset", Value: name, Message: "no such preset"}
		}
		raw = append(raw, preset.Queries...)
	}
	if len(raw) == 0 {
		return []fuzzy.Query{fuzzy.Query{}.WithPaths(args.Paths...)}, nil
	}

	opts := fuzzy.ParseOptions{Exact: args.Exact, Paths: index}
	queries := make([]fuzzy.Query, 0, len(raw))
	for _, r := range raw {
		q, err := fuzzy.Parse(r, opts)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q.WithPaths(args.Paths...))
	}
	return queries, nil
}

func (a *App) filters() ([]fuzzy.Query, error) {
	filters := make([]fuzzy.Query, 0, len(a.Params.Config.Filters))
	for _, raw := range a.Params.Config.Filters {
		q, err := fuzzy.Parse(raw, fuzzy.ParseOptions{})
		if err != nil {
			return nil, errors.WithMessage(err, "invalid filter in configuration")
		}
		filters = append(filters, q)
	}
	return filters, nil
}

func (a *App) printSelection(selection resolver.Selection, graph *taskgraph.Graph, showChunkNumbers bool) {
	names := selection.Tasks
	if !showChunkNumbers {
		names = taskgraph.CollapseChunks(names, graph)
	}
	fmt.Fprintf(a.Out, "Selected %d tasks:\n", selection.Len())
	for _, name := range names {
		fmt.Fprintf(a.Out, "    %s\n", name)
	}
}
