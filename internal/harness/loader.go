package harness

import (
	"os"
	"path/filepath"
	"testing"

	yaml "gopkg.in/yaml.v3"

	"github.com/stretchr/testify/require"

	"github.com/715d/classlint/pkg/classfile"
)

// LoadTestCase loads a test case from a directory with a specified testdata root.
func LoadTestCase(t *testing.T, dir, root string) *TestCase {
	t.Helper()
	yamlPath := filepath.Join(dir, "expected.yaml")

	tc := &TestCase{}
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	err = yaml.Unmarshal(data, tc)
	require.NoError(t, err, "parsing %s", yamlPath)

	// Use relative path from testdata root if provided.
	if root != "" {
		relPath, err := filepath.Rel(root, dir)
		if err != nil {
			tc.Dir = filepath.Base(dir)
		} else {
			tc.Dir = relPath
		}
		return tc
	}

	tc.Dir = filepath.Base(dir)
	return tc
}

// WriteClasses writes every class of tc as a .class file under a fresh
// directory laid out by package, and returns the directory.
func WriteClasses(t *testing.T, tc *TestCase) string {
	t.Helper()
	dir := t.TempDir()
	for _, spec := range tc.Classes {
		c, err := spec.Build()
		require.NoError(t, err)
		data, err := c.Bytes()
		require.NoError(t, err, "writing %s", spec.Name)

		path := filepath.Join(dir, filepath.FromSlash(spec.Name)+".class")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o600))
	}
	return dir
}

// LoadBatch loads every class file under dir the way the CLI does.
func LoadBatch(t *testing.T, dir string) *classfile.Batch {
	t.Helper()
	t.Logf("Loading classes from %q", dir)
	batch, err := classfile.LoadPaths(t.Context(), []string{dir}, classfile.LoaderOptions{Recursive: true})
	require.NoError(t, err)
	for _, f := range batch.Failures {
		t.Logf("skipped %s", f)
	}
	return batch
}
