package classlint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/classlint/internal/classgen"
	"github.com/715d/classlint/internal/classtest"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/config"
	"github.com/715d/classlint/pkg/lint"
	"github.com/715d/classlint/pkg/suppress"
)

var deadCodeClass = classgen.Class{
	Name: "com/example/Gen",
	Methods: []classgen.Method{
		classtest.Method("run", "()V", `
			line 3
			return
			iconst_0
			pop
			return
		`),
	},
}

func TestAnalyzer_NewAnalyzer(t *testing.T) {
	analyzer, err := NewAnalyzer(AnalyzerOptions{})
	require.NoError(t, err)
	require.NotNil(t, analyzer.suppressions, "Expected suppressions to be initialized")
	require.NotEmpty(t, analyzer.Registry().Names())

	_, err = NewAnalyzer(AnalyzerOptions{Config: config.ForLinters("NoSuchLinter")})
	var unknown *lint.UnknownLinterError
	require.ErrorAs(t, err, &unknown)

	analyzer, err = NewAnalyzer(AnalyzerOptions{Config: &config.Config{
		Suppress: []suppress.Rule{{Class: "["}},
	}})
	require.NoError(t, err, "glob metacharacters are literal")
	require.Equal(t, 1, analyzer.suppressions.Len())
}

func TestAnalyzer_Analyze(t *testing.T) {
	batch := &classfile.Batch{Classes: []*classfile.ClassModel{classtest.Parse(t, deadCodeClass)}}

	tests := []struct {
		name       string
		cfg        *config.Config
		violations bool
		suppressed bool
	}{
		{
			name:       "reported",
			cfg:        config.ForLinters("DeadCode"),
			violations: true,
		},
		{
			name: "suppressed",
			cfg: func() *config.Config {
				cfg := config.ForLinters("DeadCode")
				cfg.Suppress = []suppress.Rule{{Linter: "DeadCode", Class: "com.example.*", Reason: "generated"}}
				return cfg
			}(),
			suppressed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer, err := NewAnalyzer(AnalyzerOptions{Config: tt.cfg, Concurrency: 2})
			require.NoError(t, err)

			result, err := analyzer.Analyze(t.Context(), batch)
			require.NoError(t, err)
			require.Equal(t, 1, result.Jobs)
			require.Len(t, result.Findings, 1)

			f := result.Findings[0]
			require.Equal(t, "DeadCode", f.Linter)
			require.Equal(t, "run()V", f.Member)
			require.Equal(t, 3, f.Line)
			require.Equal(t, tt.suppressed, f.Suppressed)
			require.Equal(t, tt.violations, result.HasViolations())
		})
	}
}

func TestAnalyzer_AnalyzeEmpty(t *testing.T) {
	analyzer, err := NewAnalyzer(AnalyzerOptions{})
	require.NoError(t, err)

	_, err = analyzer.Analyze(t.Context(), nil)
	require.ErrorContains(t, err, "no classes")
	_, err = analyzer.Analyze(t.Context(), &classfile.Batch{})
	require.ErrorContains(t, err, "no classes")
}

func TestLoadClasses(t *testing.T) {
	dir := t.TempDir()
	data, err := deadCodeClass.Bytes()
	require.NoError(t, err)
	nested := filepath.Join(dir, "com", "example")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "Gen.class"), data, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken.class"), []byte{0xCA, 0xFE}, 0o600))

	batch, err := LoadClasses(t.Context(), LoaderOptions{Paths: []string{dir}, Recursive: true})
	require.NoError(t, err)
	require.Len(t, batch.Classes, 1)
	require.Equal(t, "com/example/Gen", batch.Classes[0].Name)
	require.Len(t, batch.Failures, 1)

	batch, err = LoadClasses(t.Context(), LoaderOptions{Paths: []string{dir}})
	require.NoError(t, err)
	require.Empty(t, batch.Classes)

	_, err = LoadClasses(t.Context(), LoaderOptions{Paths: []string{filepath.Join(dir, "missing")}})
	require.Error(t, err)
}
