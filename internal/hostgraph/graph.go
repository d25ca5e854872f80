// Package hostgraph models the host build system's target graph as it is
// handed to the converter. Everything here is read-only once loaded.
package hostgraph

import (
	"iter"
	"slices"
)

// Target is one entry in the host build graph. The set of implementations is
// closed: *StaticLibrary, *SharedLibrary, *Executable, *CustomTarget and
// *RunTarget.
type Target interface {
	TargetID() string
	TargetName() string
	TargetSubdir() string
	isTarget()
}

// File is a plain file reference relative to the source tree
type File struct {
	Subdir string
	Fname  string
}

// IncludeDirs is one include_directories() object: a base directory and the
// sub-paths declared relative to it
type IncludeDirs struct {
	CurDir  string
	IncDirs []string
}

// GeneratedSource is an output of another step that a build target consumes
type GeneratedSource struct {
	Name string
}

// BuildTarget holds the fields shared by compiled targets
type BuildTarget struct {
	ID               string
	Name             string
	Subdir           string
	Sources          []File
	IncludeDirs      []IncludeDirs
	GeneratedSources []GeneratedSource
	LinkTargets      []Target
	LinkWholeTargets []Target
}

func (t *BuildTarget) TargetID() string     { return t.ID }
func (t *BuildTarget) TargetName() string   { return t.Name }
func (t *BuildTarget) TargetSubdir() string { return t.Subdir }

// GeneratedNames returns the names of all generated sources, duplicates included
func (t *BuildTarget) GeneratedNames() []string {
	names := make([]string, 0, len(t.GeneratedSources))
	for _, gs := range t.GeneratedSources {
		names = append(names, gs.Name)
	}
	return names
}

type StaticLibrary struct{ BuildTarget }

type SharedLibrary struct{ BuildTarget }

type Executable struct{ BuildTarget }

func (*StaticLibrary) isTarget() {}
func (*SharedLibrary) isTarget() {}
func (*Executable) isTarget()    {}

// CustomTarget is a custom_target() step: a command producing declared outputs
type CustomTarget struct {
	ID      string
	Name    string
	Subdir  string
	Sources []Source
	Outputs []string
	Command []string
}

func (t *CustomTarget) TargetID() string     { return t.ID }
func (t *CustomTarget) TargetName() string   { return t.Name }
func (t *CustomTarget) TargetSubdir() string { return t.Subdir }
func (*CustomTarget) isTarget()              {}

// RunTarget is a run_target(); it never produces build outputs
type RunTarget struct {
	ID      string
	Name    string
	Subdir  string
	Command []string
}

func (t *RunTarget) TargetID() string     { return t.ID }
func (t *RunTarget) TargetName() string   { return t.Name }
func (t *RunTarget) TargetSubdir() string { return t.Subdir }
func (*RunTarget) isTarget()              {}

// Source is one input of a custom target. Implementations: *File, *TargetRef,
// *GeneratedList and *ExtractedObjects.
type Source interface {
	isSource()
}

// TargetRef uses the outputs of another target as an input
type TargetRef struct {
	Target Target
}

// GeneratedList is the output of a generator() invocation
type GeneratedList struct {
	Outputs []string
}

// ExtractedObjects are object files pulled out of a build target
type ExtractedObjects struct {
	Target  Target
	Sources []string
}

func (*File) isSource()             {}
func (*TargetRef) isSource()        {}
func (*GeneratedList) isSource()    {}
func (*ExtractedObjects) isSource() {}

// Graph is the ordered mapping from target id to target
type Graph struct {
	Project string
	Options Options

	order   []string
	targets map[string]Target
}

func NewGraph(project string) *Graph {
	return &Graph{
		Project: project,
		Options: make(Options),
		targets: make(map[string]Target),
	}
}

// Add appends a target, replacing nothing. It reports false if the id is taken.
func (g *Graph) Add(t Target) bool {
	if _, ok := g.targets[t.TargetID()]; ok {
		return false
	}
	g.order = append(g.order, t.TargetID())
	g.targets[t.TargetID()] = t
	return true
}

func (g *Graph) Get(id string) (Target, bool) {
	t, ok := g.targets[id]
	return t, ok
}

func (g *Graph) Len() int { return len(g.order) }

// All yields targets in the order they were added
func (g *Graph) All() iter.Seq2[string, Target] {
	return func(yield func(string, Target) bool) {
		for _, id := range g.order {
			if !yield(id, g.targets[id]) {
				return
			}
		}
	}
}

// Filter returns a new graph holding only the targets keep accepts, in the
// same order. Options are shared with the receiver.
func (g *Graph) Filter(keep func(Target) bool) *Graph {
	out := NewGraph(g.Project)
	out.Options = g.Options
	for _, t := range g.All() {
		if keep(t) {
			out.Add(t)
		}
	}
	return out
}

// Prune returns a copy of g without references to targets g does not hold:
// link edges of build targets and TargetRef or ExtractedObjects inputs of
// custom targets. Targets with such references are copied before they are
// rewritten, so the targets of g are left untouched. dropped is called once
// for every removed reference.
func (g *Graph) Prune(dropped func(from, to Target)) *Graph {
	out := NewGraph(g.Project)
	out.Options = g.Options

	missing := func(from, to Target) bool {
		if _, ok := g.targets[to.TargetID()]; ok {
			return false
		}
		dropped(from, to)
		return true
	}

	for _, t := range g.All() {
		switch t := t.(type) {
		case *StaticLibrary:
			c := *t
			c.BuildTarget = t.pruned(t, missing)
			out.Add(&c)
		case *SharedLibrary:
			c := *t
			c.BuildTarget = t.pruned(t, missing)
			out.Add(&c)
		case *Executable:
			c := *t
			c.BuildTarget = t.pruned(t, missing)
			out.Add(&c)
		case *CustomTarget:
			c := *t
			c.Sources = slices.DeleteFunc(slices.Clone(t.Sources), func(src Source) bool {
				switch src := src.(type) {
				case *TargetRef:
					return missing(t, src.Target)
				case *ExtractedObjects:
					return missing(t, src.Target)
				}
				return false
			})
			out.Add(&c)
		default:
			out.Add(t)
		}
	}
	return out
}

func (t *BuildTarget) pruned(self Target, missing func(from, to Target) bool) BuildTarget {
	c := *t
	drop := func(dep Target) bool { return missing(self, dep) }
	c.LinkTargets = slices.DeleteFunc(slices.Clone(t.LinkTargets), drop)
	c.LinkWholeTargets = slices.DeleteFunc(slices.Clone(t.LinkWholeTargets), drop)
	return c
}
