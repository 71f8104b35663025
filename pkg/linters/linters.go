// Package linters assembles the registry of every built-in linter.
package linters

import (
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/cycles"
	"github.com/715d/classlint/pkg/deadcode"
	"github.com/715d/classlint/pkg/lint"
	"github.com/715d/classlint/pkg/patterns"
	"github.com/715d/classlint/pkg/platform"
	"github.com/715d/classlint/pkg/principles"
	"github.com/715d/classlint/pkg/style"
	"github.com/715d/classlint/pkg/unused"
)

// Options configures the built-in linters.
type Options struct {
	// Namespaces lists the packages treated as platform code. Nil means
	// platform.Default.
	Namespaces *platform.Namespaces
}

// New returns a registry holding every built-in linter.
func New(opts Options) *lint.Registry {
	ns := opts.Namespaces
	if ns == nil {
		ns = platform.Default
	}
	r := lint.NewRegistry()

	class := func(name, desc string, f lint.ClassFactory) {
		r.RegisterClass(name, f)
		r.Describe(name, desc)
	}
	pkg := func(name, desc string, f lint.PackageFactory) {
		r.RegisterPackage(name, f)
		r.Describe(name, desc)
	}

	class(style.EqualsHashCodeName, "equals and hashCode overridden together",
		func(cls *classfile.ClassModel) lint.Linter { return style.NewEqualsHashCode(cls) })
	class(deadcode.Name, "instructions after return, throw or goto", deadcode.New)
	class(unused.Name, "unused private fields, private methods and locals", unused.New)
	class(principles.FeatureEnvyName, "methods mostly using another class",
		func(cls *classfile.ClassModel) lint.Linter { return principles.NewFeatureEnvy(cls) })

	class(principles.DemeterName, "chained calls through returned objects",
		func(cls *classfile.ClassModel) lint.Linter { return principles.NewDemeter(cls) })
	class(principles.HollywoodName, "methods that build, pull and branch instead of being called",
		func(cls *classfile.ClassModel) lint.Linter { return principles.NewHollywood(cls, ns) })
	class(principles.TemporalCouplingName, "objects used before their setup call",
		func(cls *classfile.ClassModel) lint.Linter { return principles.NewTemporalCoupling(cls, ns) })
	class(principles.OpenClosedName, "classes closed to extension or open to modification",
		func(cls *classfile.ClassModel) lint.Linter { return principles.NewOpenClosed(cls) })
	class(principles.SingleResponsibilityName, "large, widely coupled or incohesive classes",
		func(cls *classfile.ClassModel) lint.Linter { return principles.NewSingleResponsibility(cls) })

	class(patterns.StrategyName, "injected fields delegated to as strategies",
		func(cls *classfile.ClassModel) lint.Linter { return patterns.NewStrategy(cls, ns) })
	class(patterns.AdapterName, "classes adapting a wrapped object to an interface",
		func(cls *classfile.ClassModel) lint.Linter { return patterns.NewAdapter(cls) })
	class(patterns.DecoratorName, "decorator classes and their wrapping mistakes",
		func(cls *classfile.ClassModel) lint.Linter { return patterns.NewDecorator(cls) })
	class(patterns.ObserverName, "observer subjects and implementations",
		func(cls *classfile.ClassModel) lint.Linter { return patterns.NewObserver(cls, nil) })

	pkg(patterns.ObserverName, "observer subjects and implementations",
		func(cls *classfile.ClassModel, ctx lint.PackageContext) lint.Linter {
			return patterns.NewObserver(cls, ctx)
		})
	r.RegisterPackageWide(cycles.Name, cycles.New)
	r.Describe(cycles.Name, "dependency cycles between classes of a package")
	pkg(principles.DependencyInversionName, "dependencies on concrete classes of the package",
		func(cls *classfile.ClassModel, ctx lint.PackageContext) lint.Linter {
			return principles.NewDependencyInversion(cls, ctx, ns)
		})
	pkg(style.MissingImplementationName, "abstract methods left unimplemented by concrete classes",
		func(cls *classfile.ClassModel, ctx lint.PackageContext) lint.Linter {
			return style.NewMissingImplementation(cls, ctx)
		})
	return r
}
