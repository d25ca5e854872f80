package gen

import "github.com/qobs-build/meson2hermetic/internal/hermetic"

// Header describes the comment block on top of every generated file
type Header struct {
	Project  string
	Revision string // empty outside of a git work tree
}

func (h Header) lines() []string {
	project := h.Project
	if project == "" {
		project = "unnamed project"
	}
	lines := []string{"Generated by meson2hermetic for " + project + ". DO NOT EDIT."}
	if h.Revision != "" {
		lines = append(lines, "Source revision: "+h.Revision)
	}
	return lines
}

// Platform is the host machine the generated rules are restricted to
type Platform struct {
	System    string
	CPUFamily string
}

type Options struct {
	Header   Header
	Platform Platform
}

type Generator interface {
	// BuildFile is the name of the file Generate renders
	BuildFile() string
	Generate(state *hermetic.State) (string, error)
}
