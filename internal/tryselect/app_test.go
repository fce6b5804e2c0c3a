package tryselect

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/tryselect/internal/common/tryerrors"
	"github.com/armadaproject/tryselect/internal/tryconfig"
	"github.com/armadaproject/tryselect/internal/tryselect/configuration"
)

const (
	build      = "build-linux64/opt"
	buildCcov  = "build-linux64-ccov/opt"
	shard1     = "test-linux1804-64-qr/debug-mochitest-chrome-1proc-1"
	shard2     = "test-linux1804-64-qr/debug-mochitest-chrome-1proc-2"
	shard3     = "test-linux1804-64-qr/debug-mochitest-chrome-1proc-3"
	windows    = "test-windows10-64/opt-mochitest-chrome-1"
	python     = "source-test-python-taskgraph-tests-py3"
	addonPath  = "caps/tests/mochitest/test_addonMayLoad.html"
	chromePath = "toolkit/content/tests/chrome/test_bug1.html"
)

type recordingSubmitter struct {
	docs []tryconfig.Document
	err  error
}

func (s *recordingSubmitter) Submit(_ context.Context, doc tryconfig.Document) error {
	s.docs = append(s.docs, doc)
	return s.err
}

func testApp(t *testing.T) (*App, *bytes.Buffer, *recordingSubmitter) {
	config, err := configuration.Load(viper.New(), "testdata/config.yaml")
	require.NoError(t, err)
	buf := new(bytes.Buffer)
	submitter := &recordingSubmitter{}
	app := &App{
		Params:    &Params{Config: *config},
		Out:       buf,
		Submitter: submitter,
	}
	return app, buf, submitter
}

func calculatedDocument(t *testing.T, out string) tryconfig.Document {
	index := strings.Index(out, tryconfig.CalculatedMarker)
	require.GreaterOrEqual(t, index, 0, "output has no calculated config: %s", out)
	var doc tryconfig.Document
	require.NoError(t, json.Unmarshal([]byte(out[index+len(tryconfig.CalculatedMarker):]), &doc))
	return doc
}

func TestFuzzy_QueryWithPaths(t *testing.T) {
	for _, showChunkNumbers := range []bool{true, false} {
		app, buf, submitter := testApp(t)
		err := app.Fuzzy(context.Background(), FuzzyArgs{
			Queries:          []string{"^test-linux '64-qr/debug-mochitest-chrome-1proc-"},
			Paths:            []string{addonPath},
			NoPush:           true,
			ShowChunkNumbers: showChunkNumbers,
		})
		require.NoError(t, err)

		out := buf.String()
		doc := calculatedDocument(t, out)
		assert.Equal(t, []string{shard1}, doc.Parameters.TryTaskConfig.Tasks)
		assert.Equal(t, `["`+addonPath+`"]`, doc.Parameters.TryTaskConfig.Env[tryconfig.TestPathsEnv])
		assert.Empty(t, submitter.docs)

		listing := out[:strings.Index(out, tryconfig.CalculatedMarker)]
		if showChunkNumbers {
			assert.Contains(t, listing, "    "+shard1+"\n")
		} else {
			assert.Contains(t, listing, "    test-linux1804-64-qr/debug-mochitest-chrome-1proc-*\n")
			assert.NotContains(t, listing, shard1)
		}
	}
}

func TestFuzzy_ExactQuery(t *testing.T) {
	for _, full := range []bool{true, false} {
		app, buf, _ := testApp(t)
		err := app.Fuzzy(context.Background(), FuzzyArgs{
			Queries: []string{"'" + python},
			NoPush:  true,
			Full:    full,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{python}, calculatedDocument(t, buf.String()).Parameters.TryTaskConfig.Tasks)
	}
}

func TestFuzzy_NoMatch(t *testing.T) {
	app, buf, submitter := testApp(t)
	err := app.Fuzzy(context.Background(), FuzzyArgs{Queries: []string{"'does-not-exist"}})

	var noMatch *tryerrors.ErrNoMatch
	require.ErrorAs(t, err, &noMatch)
	assert.Equal(t, []string{"'does-not-exist"}, noMatch.Queries)
	assert.NotContains(t, buf.String(), tryconfig.CalculatedMarker)
	assert.Empty(t, submitter.docs)
}

func TestFuzzy_Selection(t *testing.T) {
	tests := map[string]struct {
		args     FuzzyArgs
		expected []string
	}{
		"filters applied": {
			args:     FuzzyArgs{Queries: []string{"'build-linux64"}},
			expected: []string{build},
		},
		"full skips filters": {
			args:     FuzzyArgs{Queries: []string{"'build-linux64"}, Full: true},
			expected: []string{build, buildCcov},
		},
		"preset": {
			args:     FuzzyArgs{Presets: []string{"chrome"}},
			expected: []string{shard1, shard2, shard3},
		},
		"preset and query": {
			args:     FuzzyArgs{Queries: []string{"'" + python}, Presets: []string{"chrome"}},
			expected: []string{python, shard1, shard2, shard3},
		},
		"paths only": {
			args:     FuzzyArgs{Paths: []string{chromePath}},
			expected: []string{shard1, shard2, shard3, windows},
		},
		"inline graph paths": {
			args:     FuzzyArgs{Paths: []string{"taskcluster/taskgraph/util.py"}},
			expected: []string{python},
		},
		"query narrowed by path": {
			args:     FuzzyArgs{Queries: []string{"windows"}, Paths: []string{chromePath}},
			expected: []string{windows},
		},
		"intersect": {
			args:     FuzzyArgs{Queries: []string{"'mochitest", "'linux1804"}, Intersect: true},
			expected: []string{shard1, shard2, shard3},
		},
		"union": {
			args:     FuzzyArgs{Queries: []string{"'windows10", "'" + python}},
			expected: []string{windows, python},
		},
		"exact mode": {
			args:     FuzzyArgs{Queries: []string{"mochitest-chrome-1proc-2"}, Exact: true},
			expected: []string{shard2},
		},
		"kind": {
			args:     FuzzyArgs{Queries: []string{"'opt"}, Kinds: []string{"build"}},
			expected: []string{build},
		},
		"kind narrows paths": {
			args:     FuzzyArgs{Paths: []string{"taskcluster/taskgraph/util.py"}, Kinds: []string{"build", "source-test"}},
			expected: []string{python},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			app, buf, _ := testApp(t)
			tc.args.NoPush = true
			require.NoError(t, app.Fuzzy(context.Background(), tc.args))
			assert.Equal(t, tc.expected, calculatedDocument(t, buf.String()).Parameters.TryTaskConfig.Tasks)
		})
	}
}

func TestFuzzy_ExactModeDisablesFuzzyMatching(t *testing.T) {
	app, _, _ := testApp(t)
	err := app.Fuzzy(context.Background(), FuzzyArgs{Queries: []string{"chrome1proc"}, Exact: true, NoPush: true})
	var noMatch *tryerrors.ErrNoMatch
	assert.ErrorAs(t, err, &noMatch)

	app, buf, _ := testApp(t)
	require.NoError(t, app.Fuzzy(context.Background(), FuzzyArgs{Queries: []string{"chrome1proc"}, NoPush: true}))
	assert.Equal(t, []string{shard1, shard2, shard3}, calculatedDocument(t, buf.String()).Parameters.TryTaskConfig.Tasks)
}

func TestFuzzy_Metadata(t *testing.T) {
	app, buf, submitter := testApp(t)
	err := app.Fuzzy(context.Background(), FuzzyArgs{
		Queries: []string{"'" + python},
		Rebuild: 5,
		Env:     []string{"FOO=bar", "BAZ=a=b"},
	})
	require.NoError(t, err)

	doc := calculatedDocument(t, buf.String())
	assert.Equal(t, 5, doc.Parameters.TryTaskConfig.Rebuild)
	assert.Equal(t, map[string]string{"FOO": "bar", "BAZ": "a=b", "MOZ_LOG": "nsHttp:5"}, doc.Parameters.TryTaskConfig.Env)
	require.Len(t, submitter.docs, 1)
	assert.Equal(t, doc, submitter.docs[0])
}

func TestFuzzy_ConfiguredEnv(t *testing.T) {
	tests := map[string]struct {
		configEnv map[string]string
		flagEnv   []string
		expected  map[string]string
	}{
		"config only": {
			configEnv: map[string]string{"MOZ_LOG": "nsHttp:5"},
			expected:  map[string]string{"MOZ_LOG": "nsHttp:5"},
		},
		"flag overrides config": {
			configEnv: map[string]string{"MOZ_LOG": "nsHttp:5", "FOO": "default"},
			flagEnv:   []string{"FOO=bar"},
			expected:  map[string]string{"MOZ_LOG": "nsHttp:5", "FOO": "bar"},
		},
		"neither": {
			expected: nil,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			app, buf, _ := testApp(t)
			app.Params.Config.Env = tc.configEnv
			err := app.Fuzzy(context.Background(), FuzzyArgs{
				Queries: []string{"'" + python},
				Env:     tc.flagEnv,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, calculatedDocument(t, buf.String()).Parameters.TryTaskConfig.Env)
		})
	}
}

func TestFuzzy_InvalidArguments(t *testing.T) {
	tests := map[string]struct {
		args     FuzzyArgs
		exitCode int
	}{
		"no query":       {FuzzyArgs{}, tryerrors.ExitInvalid},
		"rebuild low":    {FuzzyArgs{Queries: []string{"build"}, Rebuild: 1}, tryerrors.ExitInvalid},
		"rebuild high":   {FuzzyArgs{Queries: []string{"build"}, Rebuild: 21}, tryerrors.ExitInvalid},
		"bad env":        {FuzzyArgs{Queries: []string{"build"}, Env: []string{"FOO"}}, tryerrors.ExitInvalid},
		"unknown preset": {FuzzyArgs{Presets: []string{"nope"}}, tryerrors.ExitInvalid},
		"bad query":      {FuzzyArgs{Queries: []string{`"unterminated`}}, tryerrors.ExitInvalid},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			app, buf, submitter := testApp(t)
			err := app.Fuzzy(context.Background(), tc.args)
			require.Error(t, err)
			assert.Equal(t, tc.exitCode, tryerrors.ExitCodeFromError(err))
			assert.Empty(t, buf.String())
			assert.Empty(t, submitter.docs)
		})
	}
}

func TestFuzzy_NoQueryIsParseError(t *testing.T) {
	app, _, _ := testApp(t)
	err := app.Fuzzy(context.Background(), FuzzyArgs{})
	var parseErr *tryerrors.ErrParse
	assert.ErrorAs(t, err, &parseErr)
}

func TestFuzzy_GraphLoadErrors(t *testing.T) {
	app, _, _ := testApp(t)
	app.Params.Config.TaskGraph = filepath.Join(t.TempDir(), "missing.yaml")
	err := app.Fuzzy(context.Background(), FuzzyArgs{Queries: []string{"build"}})
	assert.Equal(t, tryerrors.ExitGraphLoad, tryerrors.ExitCodeFromError(err))

	app, _, _ = testApp(t)
	app.Params.Config.TaskGraph = ""
	err = app.Fuzzy(context.Background(), FuzzyArgs{Queries: []string{"build"}})
	var invalid *tryerrors.ErrInvalidArgument
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "taskGraph", invalid.Name)
}

func TestFuzzy_SubmitError(t *testing.T) {
	app, _, submitter := testApp(t)
	submitter.err = errors.New("push failed")
	err := app.Fuzzy(context.Background(), FuzzyArgs{Queries: []string{"'" + python}})
	assert.ErrorContains(t, err, "push failed")
	assert.Equal(t, tryerrors.ExitUnknown, tryerrors.ExitCodeFromError(err))
}

func TestFuzzy_DefaultSubmitterWritesFile(t *testing.T) {
	app, _, _ := testApp(t)
	app.Submitter = nil
	app.Params.Config.Submit.Directory = t.TempDir()

	require.NoError(t, app.Fuzzy(context.Background(), FuzzyArgs{Queries: []string{"'" + python}}))

	data, err := os.ReadFile(filepath.Join(app.Params.Config.Submit.Directory, tryconfig.FileName))
	require.NoError(t, err)
	var doc tryconfig.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []string{python}, doc.Parameters.TryTaskConfig.Tasks)
}

func TestPresets(t *testing.T) {
	app, buf, _ := testApp(t)
	require.NoError(t, app.Presets())
	assert.Equal(t, `chrome:
  description: Chrome mochitests on linux
  queries:
  - ^test-linux mochitest-chrome
`, buf.String())

	buf.Reset()
	app.Params.Config.Presets = nil
	require.NoError(t, app.Presets())
	assert.Equal(t, "No presets configured\n", buf.String())
}

func TestVersion(t *testing.T) {
	buf := new(bytes.Buffer)
	app := &App{
		Params: &Params{},
		Out:    buf,
	}

	require.NoError(t, app.Version())

	out := buf.String()
	for _, s := range []string{"Version", "Commit", "Go version", "Built"} {
		assert.Contains(t, out, s)
	}
}
