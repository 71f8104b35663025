package harness

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/classlint/pkg/lint"
)

// TestAll runs all integration tests.
func TestAll(t *testing.T) {
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "get current file path")

	harnessDir := filepath.Dir(filename)
	testdataDir := filepath.Join(harnessDir, "..", "..", "testdata")

	testCases := discoverTestCases(t, testdataDir)
	require.NotEmpty(t, testCases, "no test cases found")

	if testing.Verbose() {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	for _, tc := range testCases {
		t.Run(tc.Dir, func(t *testing.T) {
			t.Parallel()

			if tc.Description != "" {
				t.Logf("%s", tc.Description)
			}

			result := NewHarness(testdataDir).Run(t, tc)
			if !result.Success {
				t.Errorf("Test failed: %s", result.Message)
			}
		})
	}
}

func discoverTestCases(t *testing.T, root string) []*TestCase {
	t.Helper()

	// Read all directories in testdata.
	entries, err := os.ReadDir(root)
	require.NoError(t, err)

	var testCases []*TestCase
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(root, entry.Name())

		// Check if this directory has an expected.yaml.
		if _, err := os.Stat(filepath.Join(dir, "expected.yaml")); err == nil {
			testCases = append(testCases, LoadTestCase(t, dir, root))
		}
	}

	return testCases
}

func TestClassSpec_Build(t *testing.T) {
	spec := ClassSpec{
		Name:       "com/example/Job",
		Interfaces: []string{"java/lang/Runnable"},
		Access:     []string{"public", "final"},
		Fields:     []FieldSpec{{Name: "n", Desc: "I", Access: []string{"private"}}},
		Methods: []MethodSpec{
			{Name: "run", Desc: "()V", Access: []string{"public"}, Code: "return"},
			{Name: "hook", Desc: "()V", Access: []string{"public", "abstract"}},
		},
	}
	c, err := spec.Build()
	require.NoError(t, err)
	require.Equal(t, "Job.java", c.SourceFile)
	require.Len(t, c.Methods, 2)
	require.NotEmpty(t, c.Methods[0].Code)
	require.Empty(t, c.Methods[1].Code)

	spec.Access = []string{"sealed"}
	_, err = spec.Build()
	require.ErrorContains(t, err, `unknown access flag "sealed"`)

	spec.Access = nil
	spec.Methods[0].Code = "bogus_op"
	_, err = spec.Build()
	require.Error(t, err)
}

func TestValidateResults(t *testing.T) {
	finding := func(msg string, suppressed bool) lint.Finding {
		return lint.Finding{Linter: "DeadCode", Class: "a/B", Member: "m()V", Line: 3, Message: msg, Suppressed: suppressed}
	}
	expect := func(msg string, suppressed bool) ExpectedFinding {
		return ExpectedFinding{Linter: "DeadCode", Class: "a.B", Member: "m()V", Line: 3, Message: msg, Suppressed: suppressed}
	}

	tests := []struct {
		name     string
		expected []ExpectedFinding
		actual   []lint.Finding
		success  bool
		details  []string
	}{
		{
			name:     "missing finding",
			expected: []ExpectedFinding{expect("", false)},
			details:  []string{"Should have been reported: DeadCode a/B#m()V:3 ()"},
		},
		{
			name:     "exact match",
			expected: []ExpectedFinding{expect("unreachable", false)},
			actual:   []lint.Finding{finding("unreachable code after return", false)},
			success:  true,
		},
		{
			name:     "extra finding under a shared key",
			expected: []ExpectedFinding{expect("", false)},
			actual:   []lint.Finding{finding("first", false), finding("second", false)},
			details:  []string{"Should not have been reported: a.B#m()V:3 [DeadCode] second"},
		},
		{
			name:     "two findings under a shared key",
			expected: []ExpectedFinding{expect("second", false), expect("first", false)},
			actual:   []lint.Finding{finding("first", false), finding("second", false)},
			success:  true,
		},
		{
			name:     "shared key pairs by message",
			expected: []ExpectedFinding{expect("first", false), expect("first", false)},
			actual:   []lint.Finding{finding("first", false), finding("second", false)},
			details:  []string{`Message mismatch for DeadCode a/B#m()V:3: expected to contain "first", got "second"`},
		},
		{
			name:     "suppression mismatch",
			expected: []ExpectedFinding{expect("", true)},
			actual:   []lint.Finding{finding("first", false)},
			details:  []string{"Suppression mismatch for DeadCode a/B#m()V:3: expected true, got false"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cr := &ConfigurationResult{}
			validateResults(cr, tt.expected, tt.actual)
			require.Equal(t, tt.success, cr.Success)
			require.Equal(t, tt.details, cr.Details)
		})
	}
}
