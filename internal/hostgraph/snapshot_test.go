package hostgraph

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mesaSnapshot = `
project: mesa
targets:
  - id: base@sta
    type: static_library
    name: base
    subdir: src/base
    sources:
      - {subdir: src/base, fname: base.c}
  - id: util@sta
    type: static_library
    name: util
    subdir: src/util
    sources:
      - {subdir: src/util, fname: a.c}
      - {subdir: src/util, fname: b.c}
    include_dirs:
      - {curdir: src/util, dirs: [".", include]}
    generated_sources: [gen.h, gen.h, gen.c]
    link_with: [base@sta, glapi@sha]
  - id: glapi@sha
    type: shared_library
    name: glapi
    link_whole: [util@sta]
  - id: codegen@cus
    type: custom_target
    name: codegen
    subdir: src/gen
    inputs:
      - file: {subdir: src/gen, fname: spec.json}
      - target: util@sta
      - generated_list: [x.c]
      - extracted_objects: {target: base@sta, sources: [base.c]}
    outputs: [out.h]
    command: [gen.py, out.h]
  - id: check@run
    type: run_target
    name: check
    command: [check.sh]
  - id: app@exe
    type: executable
    name: app
    link_with: [util@sta]
options:
  - {name: c_args, machine: host, subproject: "", value: ['-DVER="1.0"', -Wall]}
  - {name: c_std, value: c11}
  - {name: c_args, machine: build, value: [-DBUILD]}
`

func TestLoad(t *testing.T) {
	g, err := Load(strings.NewReader(mesaSnapshot))
	require.NoError(t, err)

	assert.Equal(t, "mesa", g.Project)
	assert.Equal(t, 6, g.Len())

	var ids []string
	for id := range g.All() {
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"base@sta", "util@sta", "glapi@sha", "codegen@cus", "check@run", "app@exe"}, ids)

	tgt, ok := g.Get("util@sta")
	require.True(t, ok)
	util, ok := tgt.(*StaticLibrary)
	require.True(t, ok)
	assert.Equal(t, "src/util", util.TargetSubdir())
	assert.Equal(t, []File{{Subdir: "src/util", Fname: "a.c"}, {Subdir: "src/util", Fname: "b.c"}}, util.Sources)
	assert.Equal(t, []IncludeDirs{{CurDir: "src/util", IncDirs: []string{".", "include"}}}, util.IncludeDirs)
	assert.Equal(t, []string{"gen.h", "gen.h", "gen.c"}, util.GeneratedNames())
	require.Len(t, util.LinkTargets, 2)
	assert.IsType(t, &StaticLibrary{}, util.LinkTargets[0])
	assert.IsType(t, &SharedLibrary{}, util.LinkTargets[1])

	tgt, _ = g.Get("glapi@sha")
	glapi := tgt.(*SharedLibrary)
	require.Len(t, glapi.LinkWholeTargets, 1)
	assert.Same(t, util, glapi.LinkWholeTargets[0])

	tgt, _ = g.Get("codegen@cus")
	codegen := tgt.(*CustomTarget)
	assert.Equal(t, []string{"gen.py", "out.h"}, codegen.Command)
	assert.Equal(t, []string{"out.h"}, codegen.Outputs)
	require.Len(t, codegen.Sources, 4)
	assert.Equal(t, &File{Subdir: "src/gen", Fname: "spec.json"}, codegen.Sources[0])
	assert.Same(t, util, codegen.Sources[1].(*TargetRef).Target)
	assert.Equal(t, []string{"x.c"}, codegen.Sources[2].(*GeneratedList).Outputs)
	assert.Equal(t, []string{"base.c"}, codegen.Sources[3].(*ExtractedObjects).Sources)

	assert.IsType(t, &RunTarget{}, mustGet(t, g, "check@run"))
	assert.IsType(t, &Executable{}, mustGet(t, g, "app@exe"))

	assert.Equal(t, []string{`-DVER="1.0"`, "-Wall"}, g.Options.List(HostKey("c_args")))
	assert.Equal(t, "c11", g.Options.String(HostKey("c_std")))
	assert.Equal(t, []string{"-DBUILD"}, g.Options.List(OptionKey{Name: "c_args", Machine: MachineBuild}))
	assert.Empty(t, g.Options.String(HostKey("cpp_std")))
}

func mustGet(t *testing.T, g *Graph, id string) Target {
	t.Helper()
	tgt, ok := g.Get(id)
	require.True(t, ok, "target %s not found", id)
	return tgt
}

func TestLoad_JSON(t *testing.T) {
	g, err := Load(strings.NewReader(`{"project": "p", "targets": [{"id": "a", "type": "static_library", "name": "a"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
}

func TestLoad_Empty(t *testing.T) {
	g, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		wantMsg string
	}{
		{
			name:    "malformed yaml",
			input:   "targets: [",
			wantErr: ErrInvalidSnapshot,
		},
		{
			name:    "missing name",
			input:   "targets: [{id: a, type: static_library}]",
			wantErr: ErrInvalidSnapshot,
			wantMsg: "Name",
		},
		{
			name:    "unknown type",
			input:   "targets: [{id: a, type: jar, name: a}]",
			wantErr: ErrInvalidSnapshot,
			wantMsg: "Type",
		},
		{
			name:    "bad machine",
			input:   "options: [{name: c_args, machine: target, value: []}]",
			wantErr: ErrInvalidSnapshot,
			wantMsg: "Machine",
		},
		{
			name:    "source without fname",
			input:   "targets: [{id: a, type: static_library, name: a, sources: [{subdir: x}]}]",
			wantErr: ErrInvalidSnapshot,
			wantMsg: "Fname",
		},
		{
			name:    "duplicate id",
			input:   "targets: [{id: a, type: static_library, name: a}, {id: a, type: shared_library, name: b}]",
			wantErr: ErrDuplicateTarget,
		},
		{
			name:    "unknown link",
			input:   "targets: [{id: a, type: static_library, name: a, link_with: [nope]}]",
			wantErr: ErrUnknownTarget,
			wantMsg: `"nope"`,
		},
		{
			name:    "unknown input target",
			input:   "targets: [{id: c, type: custom_target, name: c, inputs: [{target: nope}]}]",
			wantErr: ErrUnknownTarget,
		},
		{
			name:    "input with two variants",
			input:   "targets: [{id: c, type: custom_target, name: c, inputs: [{file: {fname: a}, generated_list: [b]}]}]",
			wantErr: ErrInvalidSnapshot,
			wantMsg: "exactly one",
		},
		{
			name:    "empty input",
			input:   "targets: [{id: c, type: custom_target, name: c, inputs: [{}]}]",
			wantErr: ErrInvalidSnapshot,
		},
		{
			name:    "option value mapping",
			input:   "options: [{name: c_args, value: {a: b}}]",
			wantErr: ErrInvalidSnapshot,
			wantMsg: "scalar or a list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Load(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, g)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mesaSnapshot), 0o644))

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 6, g.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestGraph_Filter(t *testing.T) {
	g, err := Load(strings.NewReader(mesaSnapshot))
	require.NoError(t, err)

	kept := g.Filter(func(tgt Target) bool { return !strings.HasPrefix(tgt.TargetSubdir(), "src/") })

	var names []string
	for _, tgt := range kept.All() {
		names = append(names, tgt.TargetName())
	}
	assert.Equal(t, []string{"glapi", "check", "app"}, names)
	assert.Equal(t, g.Options, kept.Options)
	assert.Equal(t, "mesa", kept.Project)
}

func TestGraph_AddRejectsDuplicates(t *testing.T) {
	g := NewGraph("p")
	assert.True(t, g.Add(&RunTarget{ID: "x"}))
	assert.False(t, g.Add(&StaticLibrary{BuildTarget{ID: "x"}}))
	assert.Equal(t, 1, g.Len())
}

func TestGraph_Prune(t *testing.T) {
	g, err := Load(strings.NewReader(mesaSnapshot))
	require.NoError(t, err)

	kept := g.Filter(func(tgt Target) bool { return tgt.TargetName() != "base" })

	var dropped []string
	pruned := kept.Prune(func(from, to Target) {
		dropped = append(dropped, from.TargetName()+"->"+to.TargetName())
	})
	assert.Equal(t, []string{"util->base", "codegen->base"}, dropped)
	assert.Equal(t, kept.Len(), pruned.Len())

	util := mustGet(t, pruned, "util@sta").(*StaticLibrary)
	require.Len(t, util.LinkTargets, 1)
	assert.Equal(t, "glapi", util.LinkTargets[0].TargetName())

	codegen := mustGet(t, pruned, "codegen@cus").(*CustomTarget)
	require.Len(t, codegen.Sources, 3)
	assert.IsType(t, &GeneratedList{}, codegen.Sources[2])

	// the unpruned graph keeps its edges
	orig := mustGet(t, kept, "util@sta").(*StaticLibrary)
	assert.Len(t, orig.LinkTargets, 2)
	assert.Len(t, mustGet(t, kept, "codegen@cus").(*CustomTarget).Sources, 4)
	assert.Same(t, mustGet(t, kept, "check@run"), mustGet(t, pruned, "check@run"))
}
