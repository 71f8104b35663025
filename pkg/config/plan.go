package config

import (
	"log/slog"

	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
)

// Target is a rule target that names nothing in the batch.
type Target struct {
	Linter  string
	Name    string
	Package bool
}

// Plan is the set of jobs a config yields for a batch.
type Plan struct {
	Jobs    []lint.Job
	Missing []Target
}

// Plan expands the rules into jobs over batch. A linter with a package-wide
// factory sees every loaded class of the target's package. Each linter runs
// at most once per class, and a linter registered with RegisterPackageWide
// at most once per package.
func (c *Config) Plan(reg *lint.Registry, batch *classfile.Batch) *Plan {
	p := &Plan{}
	pkgs := batch.Packages()
	contexts := make(map[string]lint.PackageContext, len(pkgs))
	contextOf := func(cls *classfile.ClassModel) lint.PackageContext {
		name := cls.Package()
		if ctx, ok := contexts[name]; ok {
			return ctx
		}
		ctx := make(lint.PackageContext, len(pkgs[name]))
		for _, member := range pkgs[name] {
			ctx[member.Name] = member
		}
		contexts[name] = ctx
		return ctx
	}

	seen := make(map[lint.JobRef]bool)
	add := func(linter string, cls *classfile.ClassModel) {
		ref := lint.JobRef{Linter: linter, Class: cls.Name}
		if reg.IsPackageWide(linter) {
			ref.Class = cls.Package() + "/"
		}
		if seen[ref] {
			return
		}
		seen[ref] = true
		var ctx lint.PackageContext
		if reg.IsPackageLinter(linter) {
			ctx = contextOf(cls)
		}
		p.Jobs = append(p.Jobs, reg.NewJob(linter, cls, ctx))
	}

	for _, rule := range c.Linters {
		targets := c.targets(rule, batch, pkgs, p)
		for _, linter := range rule.linterNames(reg) {
			for _, cls := range targets {
				add(linter, cls)
			}
		}
	}
	slog.Debug("planned jobs", "jobs", len(p.Jobs), "missing", len(p.Missing))
	return p
}

func (c *Config) targets(rule LinterRule, batch *classfile.Batch, pkgs map[string][]*classfile.ClassModel, p *Plan) []*classfile.ClassModel {
	if rule.All {
		return batch.Classes
	}
	var out []*classfile.ClassModel
	for _, name := range rule.Classes {
		cls, ok := batch.Lookup(name)
		if !ok {
			p.Missing = append(p.Missing, Target{Linter: rule.Name, Name: name})
			continue
		}
		out = append(out, cls)
	}
	for _, name := range rule.Packages {
		members, ok := pkgs[classfile.InternalName(name)]
		if !ok {
			p.Missing = append(p.Missing, Target{Linter: rule.Name, Name: name, Package: true})
			continue
		}
		out = append(out, members...)
	}
	return out
}
