package lint

import (
	"fmt"
	"maps"
	"slices"

	"github.com/715d/classlint/pkg/classfile"
)

// UnknownLinterError is returned by Registry.Create for names without a
// per-class factory.
type UnknownLinterError struct {
	Name string
}

func (e *UnknownLinterError) Error() string {
	return fmt.Sprintf("unknown linter %q", e.Name)
}

// UnsupportedPackageAnalysisError is returned by Registry.CreatePackageLinter
// for names without a package-wide factory.
type UnsupportedPackageAnalysisError struct {
	Name string
}

func (e *UnsupportedPackageAnalysisError) Error() string {
	return fmt.Sprintf("linter %q does not support package analysis", e.Name)
}

// Registry maps linter names to factories. A name may have a per-class
// factory, a package-wide factory, or both.
type Registry struct {
	class   map[string]ClassFactory
	pkg     map[string]PackageFactory
	wide    map[string]bool
	details map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		class:   make(map[string]ClassFactory),
		pkg:     make(map[string]PackageFactory),
		wide:    make(map[string]bool),
		details: make(map[string]string),
	}
}

// RegisterClass adds or replaces the per-class factory for name.
func (r *Registry) RegisterClass(name string, f ClassFactory) {
	r.class[name] = f
}

// RegisterPackage adds or replaces the package-wide factory for name.
func (r *Registry) RegisterPackage(name string, f PackageFactory) {
	r.pkg[name] = f
}

// RegisterPackageWide adds a package-wide factory whose linter reports on
// the whole context regardless of its target, so one run per package is
// enough.
func (r *Registry) RegisterPackageWide(name string, f PackageFactory) {
	r.pkg[name] = f
	r.wide[name] = true
}

// IsPackageWide reports whether name was registered with
// RegisterPackageWide.
func (r *Registry) IsPackageWide(name string) bool { return r.wide[name] }

// Describe attaches a one-line description shown by --list.
func (r *Registry) Describe(name, text string) {
	r.details[name] = text
}

// Description returns the text set with Describe.
func (r *Registry) Description(name string) string {
	return r.details[name]
}

// Create constructs the per-class linter registered under name.
func (r *Registry) Create(name string, cls *classfile.ClassModel) (Linter, error) {
	f, ok := r.class[name]
	if !ok {
		return nil, &UnknownLinterError{Name: name}
	}
	return f(cls), nil
}

// CreatePackageLinter constructs the package-wide linter registered under
// name for target cls.
func (r *Registry) CreatePackageLinter(name string, cls *classfile.ClassModel, ctx PackageContext) (Linter, error) {
	f, ok := r.pkg[name]
	if !ok {
		return nil, &UnsupportedPackageAnalysisError{Name: name}
	}
	return f(cls, ctx), nil
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	names := make(map[string]struct{}, len(r.class)+len(r.pkg))
	for n := range r.class {
		names[n] = struct{}{}
	}
	for n := range r.pkg {
		names[n] = struct{}{}
	}
	return slices.Sorted(maps.Keys(names))
}

// Has reports whether name has any factory.
func (r *Registry) Has(name string) bool {
	_, c := r.class[name]
	_, p := r.pkg[name]
	return c || p
}

// IsPackageLinter reports whether name has a package-wide factory.
func (r *Registry) IsPackageLinter(name string) bool {
	_, ok := r.pkg[name]
	return ok
}

// IsClassLinter reports whether name has a per-class factory.
func (r *Registry) IsClassLinter(name string) bool {
	_, ok := r.class[name]
	return ok
}

// NewJob builds the job for running name against cls. Package-wide
// factories take precedence when ctx is available.
func (r *Registry) NewJob(name string, cls *classfile.ClassModel, ctx PackageContext) Job {
	if ctx != nil && r.IsPackageLinter(name) {
		return Job{Linter: name, Class: cls, Context: ctx}
	}
	return Job{Linter: name, Class: cls}
}
