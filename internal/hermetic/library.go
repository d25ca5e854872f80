package hermetic

import (
	"path"

	"github.com/qobs-build/meson2hermetic/internal/hostgraph"
	"github.com/qobs-build/meson2hermetic/internal/msg"
)

// NormalizeLibrary converts one native library target into a Library of the
// given kind. Source files are reduced to their filenames, so two sources
// with the same basename in different directories are not told apart.
func NormalizeLibrary(t *hostgraph.BuildTarget, kind LibraryKind) *Library {
	lib := &Library{
		Kind:   kind,
		Name:   t.Name,
		Subdir: t.Subdir,
	}

	lib.Srcs = make([]string, 0, len(t.Sources))
	for _, src := range t.Sources {
		lib.Srcs = append(lib.Srcs, src.Fname)
	}

	for _, inc := range t.IncludeDirs {
		for _, dir := range inc.IncDirs {
			lib.LocalIncludeDirs = append(lib.LocalIncludeDirs, path.Join(inc.CurDir, dir))
		}
	}

	lib.GeneratedHeaders, lib.GeneratedSources = ClassifyGenerated(t.GeneratedNames())

	for _, dep := range t.LinkTargets {
		switch dep := dep.(type) {
		case *hostgraph.StaticLibrary:
			lib.StaticLibs = append(lib.StaticLibs, dep.Name)
		case *hostgraph.SharedLibrary:
			lib.SharedLibs = append(lib.SharedLibs, dep.Name)
		default:
			msg.Warn("library %s links %s, which is not a library; ignoring", t.Name, dep.TargetName())
		}
	}

	// whole-archive links are merged into StaticLibs; WholeStaticLibs keeps
	// the distinction for consumers that need it
	for _, dep := range t.LinkWholeTargets {
		if dep, ok := dep.(*hostgraph.StaticLibrary); ok {
			lib.StaticLibs = append(lib.StaticLibs, dep.Name)
			lib.WholeStaticLibs = append(lib.WholeStaticLibs, dep.Name)
		}
	}

	return lib
}
