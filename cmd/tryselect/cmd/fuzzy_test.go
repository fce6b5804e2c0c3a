package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/tryselect/internal/common/tryerrors"
	"github.com/armadaproject/tryselect/internal/tryconfig"
	"github.com/armadaproject/tryselect/internal/tryselect"
)

func execute(t *testing.T, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	a := tryselect.New()
	a.Out = buf
	cmd := rootCmdWithApp(a)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func tasks(t *testing.T, out string) []string {
	index := strings.Index(out, tryconfig.CalculatedMarker)
	require.GreaterOrEqual(t, index, 0, "output has no calculated config: %s", out)
	var doc tryconfig.Document
	require.NoError(t, json.Unmarshal([]byte(out[index+len(tryconfig.CalculatedMarker):]), &doc))
	return doc.Parameters.TryTaskConfig.Tasks
}

func TestFuzzy(t *testing.T) {
	tests := map[string]struct {
		args     []string
		expected []string
	}{
		"query and path": {
			args:     []string{"-q", "^test-linux '64-qr/debug-mochitest-chrome-1proc-", "caps/tests/mochitest/test_addonMayLoad.html"},
			expected: []string{"test-linux1804-64-qr/debug-mochitest-chrome-1proc-1"},
		},
		"query and path with chunk numbers": {
			args:     []string{"-q", "^test-linux '64-qr/debug-mochitest-chrome-1proc-", "caps/tests/mochitest/test_addonMayLoad.html", "--show-chunk-numbers"},
			expected: []string{"test-linux1804-64-qr/debug-mochitest-chrome-1proc-1"},
		},
		"exact query": {
			args:     []string{"-q", "'source-test-python-taskgraph-tests-py3"},
			expected: []string{"source-test-python-taskgraph-tests-py3"},
		},
		"exact query full": {
			args:     []string{"-q", "'source-test-python-taskgraph-tests-py3", "--full"},
			expected: []string{"source-test-python-taskgraph-tests-py3"},
		},
		"repeated queries": {
			args:     []string{"-q", "'windows10", "--query", "'build-linux64", "--full"},
			expected: []string{"test-windows10-64/opt-mochitest-chrome-1", "build-linux64/opt", "build-linux64-ccov/opt"},
		},
		"and": {
			args:     []string{"-q", "'mochitest", "-q", "'windows", "-x"},
			expected: []string{"test-windows10-64/opt-mochitest-chrome-1"},
		},
		"exact mode": {
			args:     []string{"-e", "-q", "mochitest-chrome-1proc-3"},
			expected: []string{"test-linux1804-64-qr/debug-mochitest-chrome-1proc-3"},
		},
		"kind": {
			args:     []string{"-q", "'linux64", "--kind", "build", "--full"},
			expected: []string{"build-linux64/opt", "build-linux64-ccov/opt"},
		},
		"preset": {
			args:     []string{"--preset", "python"},
			expected: []string{"source-test-python-taskgraph-tests-py3", "source-test-python-taskgraph-tests-py3-windows"},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			args := append([]string{"fuzzy", "--config", "testdata/config.yaml", "--no-push"}, tc.args...)
			out, err := execute(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, tasks(t, out))
		})
	}
}

func TestFuzzy_Flags(t *testing.T) {
	out, err := execute(t, "fuzzy", "--config", "testdata/config.yaml", "--no-push",
		"-q", "'source-test-python-taskgraph-tests-py3", "--rebuild", "4", "--env", "FOO=bar", "--env", "A=b,c")
	require.NoError(t, err)

	index := strings.Index(out, tryconfig.CalculatedMarker)
	require.GreaterOrEqual(t, index, 0)
	var doc tryconfig.Document
	require.NoError(t, json.Unmarshal([]byte(out[index+len(tryconfig.CalculatedMarker):]), &doc))
	assert.Equal(t, 4, doc.Parameters.TryTaskConfig.Rebuild)
	assert.Equal(t, map[string]string{"FOO": "bar", "A": "b,c"}, doc.Parameters.TryTaskConfig.Env)
}

func TestFuzzy_Errors(t *testing.T) {
	tests := map[string]struct {
		args     []string
		exitCode int
	}{
		"no query":      {[]string{}, tryerrors.ExitInvalid},
		"bad rebuild":   {[]string{"-q", "build", "--rebuild", "30"}, tryerrors.ExitInvalid},
		"parse error":   {[]string{"-q", "build |"}, tryerrors.ExitInvalid},
		"no match":      {[]string{"-q", "'does-not-exist"}, tryerrors.ExitNoMatch},
		"missing graph": {[]string{"-q", "build", "--task-graph", "testdata/missing.yaml"}, tryerrors.ExitGraphLoad},
		"missing config": {
			[]string{"-q", "build", "--config", "testdata/missing.yaml"},
			tryerrors.ExitInvalid,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			args := append([]string{"fuzzy", "--config", "testdata/config.yaml", "--no-push"}, tc.args...)
			out, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, tc.exitCode, tryerrors.ExitCodeFromError(err))
			assert.NotContains(t, out, tryconfig.CalculatedMarker)
		})
	}
}

func TestPresets(t *testing.T) {
	out, err := execute(t, "presets", "--config", "testdata/config.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "python:")
	assert.Contains(t, out, "'source-test-python-taskgraph-tests")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Go version")
}
