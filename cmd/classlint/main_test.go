package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/classlint/internal/classgen"
	"github.com/715d/classlint/internal/classtest"
	"github.com/715d/classlint/pkg/linters"
)

func writeClass(t *testing.T, dir string, c classgen.Class) {
	t.Helper()
	data, err := c.Bytes()
	require.NoError(t, err)
	path := filepath.Join(dir, filepath.FromSlash(c.Name)+".class")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func classDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeClass(t, dir, classgen.Class{
		Name: "com/example/Flow",
		Methods: []classgen.Method{
			classtest.Method("run", "()V", `
				line 7
				return
				iconst_0
				pop
				return
			`),
		},
	})
	writeClass(t, dir, classgen.Class{
		Name:    "com/example/Clean",
		Methods: []classgen.Method{classtest.Method("run", "()V", "line 2\nreturn")},
	})
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var cErr *codedError
	if errors.As(err, &cErr) {
		return cErr.code
	}
	return exitError
}

func TestRun(t *testing.T) {
	dir := classDir(t)

	tests := []struct {
		name     string
		args     []string
		config   string
		code     int
		contains []string
		excludes []string
	}{
		{
			name:     "findings exit with 1",
			args:     []string{"-l", "DeadCode", dir},
			code:     exitFindings,
			contains: []string{"com.example.Flow#run()V:7 [DeadCode] unreachable code after return"},
		},
		{
			name:     "clean run",
			args:     []string{"-l", "EqualsHashCode", dir},
			excludes: []string{"EqualsHashCode"},
		},
		{
			name:     "verbose lists clean pairs and suppressed findings",
			config:   "DeadCode: *\nnolint:DeadCode com/example/Flow // generated\n",
			args:     []string{"-v", dir},
			contains: []string{"com.example.Clean [DeadCode] no violations", "(suppressed: generated)", "2 classes, 2 jobs, 1 findings (1 suppressed)"},
		},
		{
			name:     "suppressed findings are hidden by default",
			config:   "DeadCode: *\nnolint:DeadCode com/example/Flow\n",
			args:     []string{dir},
			excludes: []string{"DeadCode"},
		},
		{
			name: "unknown linter is an operational error",
			args: []string{"-l", "NoSuchLinter", dir},
			code: exitError,
		},
		{
			name: "missing config file",
			args: []string{"-c", filepath.Join(dir, "missing.yaml"), dir},
			code: exitError,
		},
		{
			name: "no classes",
			args: []string{t.TempDir()},
			code: exitError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.config != "" {
				path := filepath.Join(t.TempDir(), "classlint.conf")
				require.NoError(t, os.WriteFile(path, []byte(tt.config), 0o600))
				args = append([]string{"-c", path}, args...)
			}
			out, err := execute(t, args...)
			require.Equal(t, tt.code, exitCode(err), "output: %s, err: %v", out, err)
			for _, s := range tt.contains {
				require.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				require.NotContains(t, out, s)
			}
		})
	}
}

func TestRun_JSON(t *testing.T) {
	out, err := execute(t, "--json", "-l", "DeadCode", classDir(t))
	require.Equal(t, exitFindings, exitCode(err))

	var got struct {
		Findings []struct {
			Linter   string `json:"linter"`
			Class    string `json:"class"`
			Member   string `json:"member"`
			Line     int    `json:"line"`
			Severity string `json:"severity"`
			Category string `json:"category"`
		} `json:"findings"`
		Errors []any `json:"errors"`
		Stats  Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Findings, 1)
	f := got.Findings[0]
	require.Equal(t, "DeadCode", f.Linter)
	require.Equal(t, "com/example/Flow", f.Class)
	require.Equal(t, "run()V", f.Member)
	require.Equal(t, 7, f.Line)
	require.Equal(t, "error", f.Severity)
	require.NotNil(t, got.Errors)
	require.Equal(t, 2, got.Stats.Classes)
	require.Equal(t, 2, got.Stats.Jobs)
}

func TestList(t *testing.T) {
	out, err := execute(t, "--list")
	require.NoError(t, err)
	for _, name := range linters.New(linters.Options{}).Names() {
		require.Contains(t, out, name)
	}
	require.Contains(t, out, "package")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classlint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
linters:
  - name: DeadCode
    all: true
suppress:
  - linter: FeatureEnvy
    class: com/example/*
`), 0o600))

	lintCfg, err := loadConfig(&Config{ConfigFile: path, Linters: []string{"FeatureEnvy"}})
	require.NoError(t, err)
	require.Len(t, lintCfg.Linters, 1)
	require.Equal(t, "FeatureEnvy", lintCfg.Linters[0].Name)
	require.Len(t, lintCfg.Suppress, 1)

	lintCfg, err = loadConfig(&Config{})
	require.NoError(t, err)
	require.Nil(t, lintCfg)
}
