package tryconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/armadaproject/tryselect/internal/common/slices"
	"github.com/armadaproject/tryselect/internal/resolver"
)

const (
	// FileName is the name downstream scheduling looks for.
	FileName = "try_task_config.json"
	// CalculatedMarker precedes the document in command output.
	CalculatedMarker = "Calculated try_task_config.json:"
	// TestPathsEnv carries the source paths given on the command line, as a JSON array.
	TestPathsEnv = "TRY_TEST_PATHS"

	Version = 2
	TryMode = "try_task_config"
)

// Document is the try task configuration consumed by the scheduling infrastructure.
type Document struct {
	Parameters Parameters `json:"parameters"`
	Version    int        `json:"version"`
}

type Parameters struct {
	OptimizeTargetTasks bool       `json:"optimize_target_tasks"`
	TryMode             string     `json:"try_mode"`
	TryTaskConfig       TaskConfig `json:"try_task_config"`
}

type TaskConfig struct {
	Env     map[string]string `json:"env,omitempty"`
	Rebuild int               `json:"rebuild,omitempty"`
	// Never nil, so that an empty selection is written as [].
	Tasks []string `json:"tasks"`
}

// RunMetadata is everything besides the selected tasks that goes into a Document.
type RunMetadata struct {
	Env       map[string]string
	Rebuild   int
	TestPaths []string
}

// Compile builds the document for a selection. It doesn't fail: any selection and metadata yield a valid document.
func Compile(selection resolver.Selection, meta RunMetadata) Document {
	tasks := make([]string, 0, selection.Len())
	tasks = append(tasks, slices.Unique(selection.Tasks)...)

	var env map[string]string
	if len(meta.Env) > 0 || len(meta.TestPaths) > 0 {
		env = make(map[string]string, len(meta.Env)+1)
		maps.Copy(env, meta.Env)
	}
	if len(meta.TestPaths) > 0 {
		// Marshalling a []string can't fail.
		testPaths, _ := json.Marshal(meta.TestPaths)
		env[TestPathsEnv] = string(testPaths)
	}

	return Document{
		Parameters: Parameters{
			OptimizeTargetTasks: false,
			TryMode:             TryMode,
			TryTaskConfig: TaskConfig{
				Env:     env,
				Rebuild: meta.Rebuild,
				Tasks:   tasks,
			},
		},
		Version: Version,
	}
}

// Marshal returns the document as JSON indented by four spaces, with a trailing newline.
func (doc Document) Marshal() ([]byte, error) {
	if doc.Parameters.TryTaskConfig.Tasks == nil {
		doc.Parameters.TryTaskConfig.Tasks = []string{}
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(doc); err != nil {
		return nil, errors.Wrap(err, "[tryconfig.Marshal] error encoding try task config")
	}
	return buf.Bytes(), nil
}

// WriteCalculated writes the marker line followed by the document.
func WriteCalculated(w io.Writer, doc Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, CalculatedMarker); err != nil {
		return errors.WithStack(err)
	}
	if _, err := w.Write(data); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
