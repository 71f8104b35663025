// Package cycles finds cyclic dependencies between the classes of a package.
package cycles

import (
	"maps"
	"slices"
	"strings"

	"github.com/715d/classlint/pkg/bytecode"
	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/lint"
)

// Graph is a directed class dependency graph.
type Graph struct {
	edges map[string]map[string]struct{}
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{edges: make(map[string]map[string]struct{})}
}

// AddNode adds name without edges. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if _, ok := g.edges[name]; !ok {
		g.edges[name] = make(map[string]struct{})
	}
}

// AddEdge adds from -> to, adding both nodes as needed. Self edges are
// ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if from != to {
		g.edges[from][to] = struct{}{}
	}
}

// Nodes returns every node, sorted.
func (g *Graph) Nodes() []string {
	return slices.Sorted(maps.Keys(g.edges))
}

// Neighbors returns the direct dependencies of name, sorted.
func (g *Graph) Neighbors(name string) []string {
	return slices.Sorted(maps.Keys(g.edges[name]))
}

// Build derives the dependency graph of ctx. A class depends on another
// class of ctx when one of its methods, other than constructors and static
// initializers, invokes a method owned by it, or when one of its instance
// fields has it as object type. Array element types are not followed.
func Build(ctx lint.PackageContext) *Graph {
	g := NewGraph()
	for name, cls := range ctx {
		g.AddNode(name)
		for i := range cls.Methods {
			m := &cls.Methods[i]
			if bytecode.IsInitializer(m.Name) {
				continue
			}
			for _, in := range m.Code.All() {
				if in.Kind != bytecode.KindInvoke {
					continue
				}
				if _, ok := ctx[in.Owner]; ok && in.Owner != name {
					g.AddEdge(name, in.Owner)
				}
			}
		}
		for i := range cls.Fields {
			f := &cls.Fields[i]
			if f.IsStatic() {
				continue
			}
			dep, ok := classfile.ObjectType(f.Desc)
			if !ok || dep == name {
				continue
			}
			if _, ok := ctx[dep]; ok {
				g.AddEdge(name, dep)
			}
		}
	}
	return g
}

// FindCycles returns the strongly connected components with more than one
// node, using Tarjan's algorithm. Nodes and neighbors are visited in sorted
// order, and each component lists its nodes in discovery order, so the
// result is deterministic.
func (g *Graph) FindCycles() [][]string {
	index := 0
	var stack []string
	onStack := make(map[string]bool)
	indices := make(map[string]int)
	lowlinks := make(map[string]int)
	var sccs [][]string

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlinks[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.Neighbors(v) {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlinks[v] = min(lowlinks[v], lowlinks[w])
			} else if onStack[w] {
				// Tighten to the neighbor's index, not its lowlink.
				lowlinks[v] = min(lowlinks[v], indices[w])
			}
		}

		if lowlinks[v] != indices[v] {
			return
		}
		var scc []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		if len(scc) > 1 {
			slices.Reverse(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, v := range g.Nodes() {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}
	return sccs
}

// maxDisplayName is the longest dotted name shown in full.
const maxDisplayName = 40

// DisplayName renders an internal class name for a cycle report: dotted, or
// just the simple name when the dotted form is longer than 40 characters.
func DisplayName(name string) string {
	dotted := classfile.DottedName(name)
	if len(dotted) <= maxDisplayName {
		return dotted
	}
	if i := strings.LastIndexByte(dotted, '.'); i > 0 {
		return dotted[i+1:]
	}
	return dotted
}

// FormatCycle joins the display names of a cycle with " <-> ".
func FormatCycle(cycle []string) string {
	names := make([]string, len(cycle))
	for i, n := range cycle {
		names[i] = DisplayName(n)
	}
	return strings.Join(names, " <-> ")
}
