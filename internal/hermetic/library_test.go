package hermetic

import (
	"testing"

	"github.com/qobs-build/meson2hermetic/internal/hostgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticLib(name string) *hostgraph.StaticLibrary {
	return &hostgraph.StaticLibrary{BuildTarget: hostgraph.BuildTarget{ID: name + "@sta", Name: name}}
}

func sharedLib(name string) *hostgraph.SharedLibrary {
	return &hostgraph.SharedLibrary{BuildTarget: hostgraph.BuildTarget{ID: name + "@sha", Name: name}}
}

func TestNormalizeLibrary_Util(t *testing.T) {
	bt := hostgraph.BuildTarget{
		ID:     "util@sta",
		Name:   "util",
		Subdir: "src/util",
		Sources: []hostgraph.File{
			{Subdir: "src/util", Fname: "a.c"},
			{Subdir: "src/util", Fname: "b.c"},
		},
		GeneratedSources: []hostgraph.GeneratedSource{{Name: "gen.h"}, {Name: "gen.h"}, {Name: "gen.c"}},
		LinkTargets:      []hostgraph.Target{staticLib("base")},
	}

	lib := NormalizeLibrary(&bt, KindStatic)

	assert.Equal(t, "util", lib.Name)
	assert.Equal(t, "src/util", lib.Subdir)
	assert.Equal(t, []string{"a.c", "b.c"}, lib.Srcs)
	assert.Equal(t, []string{"gen.h"}, lib.GeneratedHeaders)
	assert.Equal(t, []string{"gen.c"}, lib.GeneratedSources)
	assert.Equal(t, []string{"base"}, lib.StaticLibs)
	assert.Empty(t, lib.SharedLibs)
	assert.Equal(t, "@StaticLibrary(util)", lib.String())
}

func TestNormalizeLibrary_SourcesKeepDuplicateBasenames(t *testing.T) {
	bt := hostgraph.BuildTarget{
		Name: "dup",
		Sources: []hostgraph.File{
			{Subdir: "x", Fname: "main.c"},
			{Subdir: "y", Fname: "main.c"},
		},
	}

	lib := NormalizeLibrary(&bt, KindStatic)
	assert.Equal(t, []string{"main.c", "main.c"}, lib.Srcs)
}

func TestNormalizeLibrary_IncludeDirs(t *testing.T) {
	bt := hostgraph.BuildTarget{
		Name: "inc",
		IncludeDirs: []hostgraph.IncludeDirs{
			{CurDir: "src/mesa", IncDirs: []string{".", "main", "include"}},
			{CurDir: "include", IncDirs: []string{"GL"}},
			{CurDir: "src", IncDirs: nil},
		},
	}

	lib := NormalizeLibrary(&bt, KindStatic)

	want := 0
	for _, inc := range bt.IncludeDirs {
		want += len(inc.IncDirs)
	}
	require.Len(t, lib.LocalIncludeDirs, want)
	assert.Equal(t, []string{"src/mesa", "src/mesa/main", "src/mesa/include", "include/GL"}, lib.LocalIncludeDirs)
}

func TestNormalizeLibrary_Links(t *testing.T) {
	bt := hostgraph.BuildTarget{
		Name:             "mixed",
		LinkTargets:      []hostgraph.Target{staticLib("a"), sharedLib("so"), staticLib("b")},
		LinkWholeTargets: []hostgraph.Target{staticLib("whole"), sharedLib("ignored")},
	}

	lib := NormalizeLibrary(&bt, KindShared)

	assert.Equal(t, KindShared, lib.Kind)
	assert.Equal(t, []string{"a", "b", "whole"}, lib.StaticLibs)
	assert.Equal(t, []string{"so"}, lib.SharedLibs)
	assert.Equal(t, []string{"whole"}, lib.WholeStaticLibs)
	assert.Equal(t, "@SharedLibrary(mixed)", lib.String())
}

func TestNormalizeLibrary_IgnoresNonLibraryLinks(t *testing.T) {
	captureMessages(t)

	bt := hostgraph.BuildTarget{
		Name:        "app_support",
		LinkTargets: []hostgraph.Target{&hostgraph.CustomTarget{ID: "gen@cus", Name: "gen"}},
	}

	lib := NormalizeLibrary(&bt, KindStatic)
	assert.Empty(t, lib.StaticLibs)
	assert.Empty(t, lib.SharedLibs)
}
