package lint

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/classlint/pkg/classfile"
)

type stubLinter struct {
	name     string
	cls      *classfile.ClassModel
	ctx      PackageContext
	findings int
}

func (s *stubLinter) Name() string       { return s.name }
func (s *stubLinter) Category() Category { return CategoryStyle }
func (s *stubLinter) Lint() []Finding {
	c := NewCollector(s.name, CategoryStyle, s.cls.Name)
	for i := range s.findings {
		c.Add(SeverityWarning, "m", i+1, "finding %d", i)
	}
	if s.ctx != nil {
		c.Add(SeverityInfo, "", 0, "context of %d", len(s.ctx))
	}
	return c.Findings
}

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.RegisterClass("Two", func(cls *classfile.ClassModel) Linter {
		return &stubLinter{name: "Two", cls: cls, findings: 2}
	})
	reg.RegisterClass("None", func(cls *classfile.ClassModel) Linter {
		return &stubLinter{name: "None", cls: cls}
	})
	reg.RegisterPackage("Pkg", func(cls *classfile.ClassModel, ctx PackageContext) Linter {
		return &stubLinter{name: "Pkg", cls: cls, ctx: ctx}
	})
	reg.RegisterClass("Both", func(cls *classfile.ClassModel) Linter {
		return &stubLinter{name: "Both", cls: cls, findings: 1}
	})
	reg.RegisterPackage("Both", func(cls *classfile.ClassModel, ctx PackageContext) Linter {
		return &stubLinter{name: "Both", cls: cls, ctx: ctx}
	})
	return reg
}

func TestRegistry(t *testing.T) {
	reg := testRegistry()
	cls := &classfile.ClassModel{Name: "a/A"}

	require.Equal(t, []string{"Both", "None", "Pkg", "Two"}, reg.Names())
	require.True(t, reg.IsClassLinter("Two"))
	require.False(t, reg.IsPackageLinter("Two"))
	require.True(t, reg.IsPackageLinter("Pkg"))
	require.False(t, reg.IsClassLinter("Pkg"))
	require.True(t, reg.Has("Both"))
	require.False(t, reg.Has("Nope"))
	require.False(t, reg.IsPackageWide("Pkg"))

	reg.RegisterPackageWide("Wide", func(cls *classfile.ClassModel, ctx PackageContext) Linter {
		return &stubLinter{name: "Wide", cls: cls, ctx: ctx}
	})
	require.True(t, reg.IsPackageWide("Wide"))
	require.True(t, reg.IsPackageLinter("Wide"))
	require.False(t, reg.IsClassLinter("Wide"))

	l, err := reg.Create("Two", cls)
	require.NoError(t, err)
	require.Equal(t, "Two", l.Name())

	_, err = reg.Create("Nope", cls)
	var unknown *UnknownLinterError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "Nope", unknown.Name)

	_, err = reg.CreatePackageLinter("Two", cls, PackageContext{})
	var unsupported *UnsupportedPackageAnalysisError
	require.ErrorAs(t, err, &unsupported)

	// Re-registering replaces the factory.
	reg.RegisterClass("Two", func(cls *classfile.ClassModel) Linter {
		return &stubLinter{name: "Replaced", cls: cls}
	})
	l, err = reg.Create("Two", cls)
	require.NoError(t, err)
	require.Equal(t, "Replaced", l.Name())
}

func TestRegistry_NewJob(t *testing.T) {
	reg := testRegistry()
	cls := &classfile.ClassModel{Name: "a/A"}
	ctx := PackageContext{"a/A": cls}

	require.True(t, reg.NewJob("Both", cls, ctx).IsPackage())
	require.False(t, reg.NewJob("Both", cls, nil).IsPackage())
	require.False(t, reg.NewJob("Two", cls, ctx).IsPackage())
	require.True(t, reg.NewJob("Pkg", cls, ctx).IsPackage())
}

func TestRunner(t *testing.T) {
	a := &classfile.ClassModel{Name: "p/A"}
	b := &classfile.ClassModel{Name: "p/B"}
	ctx := PackageContext{a.Name: a, b.Name: b}

	jobs := []Job{
		{Linter: "Two", Class: b},
		{Linter: "Two", Class: a},
		{Linter: "None", Class: a},
		{Linter: "Missing", Class: a},
		{Linter: "Pkg", Class: a, Context: ctx},
		{Linter: "Pkg", Class: a, Context: ctx},
		{Linter: "Two", Class: nil},
	}

	for _, conc := range []int{0, 1, 4} {
		report, err := NewRunner(testRegistry(), RunnerOptions{Concurrency: conc}).Run(context.Background(), jobs)
		require.NoError(t, err)

		var got []string
		for _, f := range report.Findings {
			got = append(got, f.String())
		}
		require.Equal(t, []string{
			"p.A [Pkg] context of 2",
			"p.A#m:1 [Two] finding 0",
			"p.A#m:2 [Two] finding 1",
			"p.B#m:1 [Two] finding 0",
			"p.B#m:2 [Two] finding 1",
		}, got)

		require.Len(t, report.Errors, 2)
		var unknown *UnknownLinterError
		require.ErrorAs(t, report.Errors[0], &unknown)
		require.Equal(t, "p/A", report.Errors[0].Class)
		require.Equal(t, []JobRef{{Linter: "None", Class: "p/A"}}, report.Clean)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := []Job{{Linter: "Two", Class: &classfile.ClassModel{Name: "A"}}}
	_, err := NewRunner(testRegistry(), RunnerOptions{}).Run(ctx, jobs)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReport_Active(t *testing.T) {
	r := &Report{Findings: []Finding{{Message: "a"}, {Message: "b", Suppressed: true}}}
	require.Equal(t, []Finding{{Message: "a"}}, r.Active())
}

func TestFinding_JSON(t *testing.T) {
	f := Finding{
		Linter:   "DeadCode",
		Category: CategoryStyle,
		Class:    "p/A",
		Member:   "run",
		Line:     7,
		Severity: SeverityWarning,
		Message:  "unreachable",
	}
	data, err := json.Marshal(f)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"linter": "DeadCode",
		"category": "style-check",
		"class": "p/A",
		"member": "run",
		"line": 7,
		"severity": "warning",
		"message": "unreachable"
	}`, string(data))
}

func TestParseSeverity(t *testing.T) {
	for _, s := range []Severity{SeverityInfo, SeverityWarning, SeverityError} {
		got, err := ParseSeverity(s.String())
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
	_, err := ParseSeverity("fatal")
	require.Error(t, err)
	require.Equal(t, "principle", CategoryPrinciple.String())
	require.Equal(t, "pattern", CategoryPattern.String())
}
