// Package hermetic converts a host build graph into a normalized intermediate
// model that the Soong and Bazel generators render from.
package hermetic

import "fmt"

// LibraryKind tags a Library as static or shared. The record shape is the
// same for both; only the emitted rule differs.
type LibraryKind int

const (
	KindStatic LibraryKind = iota
	KindShared
)

func (k LibraryKind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindShared:
		return "shared"
	default:
		return fmt.Sprintf("LibraryKind(%d)", int(k))
	}
}

// Library is a normalized static or shared native library
type Library struct {
	Kind   LibraryKind
	Name   string
	Subdir string // where the library is defined

	Srcs             []string
	LocalIncludeDirs []string

	// disjoint and duplicate-free
	GeneratedHeaders []string
	GeneratedSources []string

	// StaticLibs includes whole-archive links as well
	StaticLibs      []string
	SharedLibs      []string
	WholeStaticLibs []string
}

func (l *Library) String() string {
	if l.Kind == KindShared {
		return "@SharedLibrary(" + l.Name + ")"
	}
	return "@StaticLibrary(" + l.Name + ")"
}

// CustomTarget is a normalized generated-code step
type CustomTarget struct {
	Name              string
	Subdir            string
	Srcs              []string
	Out               []string
	Tools             []string
	ExportIncludeDirs []string

	// Cmd is the host command, token by token
	Cmd []string

	// ScriptMain is the interpreted script the step runs, if one was found.
	// ScriptTargetName is then present in Tools.
	ScriptMain       string
	ScriptTargetName string
}

func (c *CustomTarget) String() string {
	return "CustomTarget(" + c.Name + ")"
}

// ScriptTarget is a runnable unit wrapping a custom target's script
type ScriptTarget struct {
	Name              string
	Main              string
	Srcs              []string
	Imports           []string
	Out               []string
	ExportIncludeDirs []string
}

func (s *ScriptTarget) String() string {
	return "ScriptTarget(" + s.Name + ")"
}

// Flags holds the global compiler options shared by every library
type Flags struct {
	ConlyFlags []string
	CppFlags   []string
	CStd       string
	CppStd     string
}

// State owns every record produced by one conversion run. It is append-only
// while Convert runs and read-only afterwards.
type State struct {
	Project string

	StaticLibraries []*Library
	SharedLibraries []*Library
	CustomTargets   []*CustomTarget
	ScriptTargets   []*ScriptTarget

	Flags
}

func NewState(project string) *State {
	return &State{Project: project}
}

// AddLibrary appends lib to the list matching its kind
func (s *State) AddLibrary(lib *Library) {
	switch lib.Kind {
	case KindShared:
		s.SharedLibraries = append(s.SharedLibraries, lib)
	default:
		s.StaticLibraries = append(s.StaticLibraries, lib)
	}
}

func (s *State) AddCustomTarget(ct *CustomTarget) {
	s.CustomTargets = append(s.CustomTargets, ct)
}

func (s *State) AddScriptTarget(st *ScriptTarget) {
	s.ScriptTargets = append(s.ScriptTargets, st)
}

func (s *State) SetFlags(f Flags) {
	s.Flags = f
}

// Libraries returns static libraries followed by shared libraries
func (s *State) Libraries() []*Library {
	libs := make([]*Library, 0, len(s.StaticLibraries)+len(s.SharedLibraries))
	libs = append(libs, s.StaticLibraries...)
	return append(libs, s.SharedLibraries...)
}

func (s *State) String() string {
	return fmt.Sprintf("HermeticState:\n\tshared_libraries len: %d"+
		"\n\tstatic_libraries len: %d"+
		"\n\tcustom_targets len: %d"+
		"\n\tscript_targets len: %d",
		len(s.SharedLibraries),
		len(s.StaticLibraries),
		len(s.CustomTargets),
		len(s.ScriptTargets),
	)
}
