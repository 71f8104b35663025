package linters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/classlint/internal/classgen"
	"github.com/715d/classlint/internal/classtest"
	"github.com/715d/classlint/pkg/lint"
)

func TestNew(t *testing.T) {
	r := New(Options{})
	require.Equal(t, []string{
		"AdapterPattern",
		"CyclicDependency",
		"DeadCode",
		"DecoratorPattern",
		"DemeterPrinciple",
		"DependencyInversionPrinciple",
		"EqualsHashCode",
		"FeatureEnvy",
		"HollywoodPrinciple",
		"MissingImplementation",
		"ObserverPattern",
		"OpenClosedPrinciple",
		"SingleResponsibilityPrinciple",
		"StrategyPattern",
		"TemporalCoupling",
		"UnusedVariables",
	}, r.Names())

	cls := classtest.Parse(t, classgen.Class{Name: "com/example/A"})
	ctx := lint.PackageContext{cls.Name: cls}
	for _, name := range r.Names() {
		require.NotEmpty(t, r.Description(name), name)
		if r.IsClassLinter(name) {
			l, err := r.Create(name, cls)
			require.NoError(t, err)
			require.Equal(t, name, l.Name())
		}
		if r.IsPackageLinter(name) {
			l, err := r.CreatePackageLinter(name, cls, ctx)
			require.NoError(t, err)
			require.Equal(t, name, l.Name())
		}
	}

	require.True(t, r.IsClassLinter("ObserverPattern"))
	require.True(t, r.IsPackageLinter("ObserverPattern"))
	require.False(t, r.IsClassLinter("CyclicDependency"))
	require.True(t, r.IsPackageWide("CyclicDependency"))
	require.False(t, r.IsPackageWide("DependencyInversionPrinciple"))

	_, err := r.Create("CyclicDependency", cls)
	var unknown *lint.UnknownLinterError
	require.ErrorAs(t, err, &unknown)
	_, err = r.CreatePackageLinter("DeadCode", cls, ctx)
	var unsupported *lint.UnsupportedPackageAnalysisError
	require.ErrorAs(t, err, &unsupported)
}
