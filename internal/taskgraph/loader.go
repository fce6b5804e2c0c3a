package taskgraph

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/tryselect/internal/common/tryerrors"
)

// taskDefinition is the per-task record of a graph file. Everything but the label is optional.
type taskDefinition struct {
	Label string   `json:"label"`
	Kind  string   `json:"kind"`
	Paths []string `json:"paths"`
}

// Load reads a task graph file. The file may be YAML or JSON and contain either
//
//   - a list of labels,
//   - a list of task definitions ({label, kind, paths}), or
//   - a map from label to task definition, in which case the tasks are sorted by label.
//
// Any failure is returned as a *tryerrors.ErrGraphLoad.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &tryerrors.ErrGraphLoad{Source: path, Err: err}
	}
	graph, err := Parse(data)
	if err != nil {
		return nil, &tryerrors.ErrGraphLoad{Source: path, Err: err}
	}
	log.WithField("source", path).Debugf("loaded %d tasks", graph.Len())
	return graph, nil
}

// Parse builds a graph from the contents of a task graph file. See Load for the accepted formats.
func Parse(data []byte) (*Graph, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	jsonData = bytes.TrimSpace(jsonData)

	var jobs []*Job
	switch {
	case len(jsonData) == 0 || bytes.Equal(jsonData, []byte("null")):
		jobs = nil
	case jsonData[0] == '[':
		jobs, err = parseList(jsonData)
	case jsonData[0] == '{':
		jobs, err = parseMap(jsonData)
	default:
		err = errors.New("task graph must be a list of tasks or a map from label to task")
	}
	if err != nil {
		return nil, err
	}
	return NewGraph(jobs)
}

func parseList(data []byte) ([]*Job, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.WithStack(err)
	}
	var result *multierror.Error
	jobs := make([]*Job, 0, len(items))
	for i, item := range items {
		if len(item) > 0 && item[0] == '"' {
			var label string
			if err := json.Unmarshal(item, &label); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "task %d", i))
				continue
			}
			jobs = append(jobs, &Job{Name: label})
			continue
		}
		var def taskDefinition
		if err := json.Unmarshal(item, &def); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "task %d", i))
			continue
		}
		jobs = append(jobs, &Job{Name: def.Label, Kind: def.Kind, Paths: def.Paths})
	}
	return jobs, result.ErrorOrNil()
}

func parseMap(data []byte) ([]*Job, error) {
	var defs map[string]taskDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, errors.WithStack(err)
	}
	labels := make([]string, 0, len(defs))
	for label := range defs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var result *multierror.Error
	jobs := make([]*Job, 0, len(defs))
	for _, label := range labels {
		def := defs[label]
		if def.Label != "" && def.Label != label {
			result = multierror.Append(result, errors.Errorf("task %s has mismatched label %s", label, def.Label))
			continue
		}
		jobs = append(jobs, &Job{Name: label, Kind: def.Kind, Paths: def.Paths})
	}
	return jobs, result.ErrorOrNil()
}
