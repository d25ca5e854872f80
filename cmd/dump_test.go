package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/qobs-build/meson2hermetic/internal/builder"
	"github.com/qobs-build/meson2hermetic/internal/hermetic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpState(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	cfg, err := builder.ParseConfig(strings.NewReader(`
[project_config.meson_options]
platforms = "Android"
sdk = 33
`), builder.NewConfigEnv(t.TempDir()))
	require.NoError(t, err)

	state := hermetic.NewState("mesa")
	state.AddLibrary(&hermetic.Library{Name: "util", Srcs: []string{"a.c", "b.c"}, StaticLibs: []string{"base"}})
	state.AddCustomTarget(&hermetic.CustomTarget{Name: "gen", Out: []string{"x.h"}})
	state.AddScriptTarget(&hermetic.ScriptTarget{Name: "gen_g.py", Main: "g.py"})
	state.SetFlags(hermetic.Flags{CStd: "c11"})

	var buf bytes.Buffer
	dumpState(&buf, cfg, state)

	assert.Equal(t, `HermeticState:
	shared_libraries len: 0
	static_libraries len: 1
	custom_targets len: 1
	script_targets len: 1
meson options
	-Dplatforms=android
	-Dsdk=33
@StaticLibrary(util)
	srcs: a.c, b.c
	static_libs: base
CustomTarget(gen)
	out: x.h
ScriptTarget(gen_g.py)
	main: g.py
c_std: c11
`, buf.String())
}

func TestInitIn(t *testing.T) {
	dir := t.TempDir()
	initIn(dir, "drivers", "Bazel")

	path := filepath.Join(dir, builder.ConfigFilename)
	b, err := builder.NewBuilder(path)
	require.NoError(t, err)

	cfg := b.Config()
	assert.Equal(t, builder.GeneratorBazel, cfg.Generator())
	assert.Equal(t, "drivers", cfg.ProjectConfig.Name)
	assert.Equal(t, "aarch64", cfg.ProjectConfig.HostMachine.CPUFamily)
	assert.Equal(t, "x86_64", cfg.ProjectConfig.BuildMachine.CPU)
	assert.Equal(t, "release", cfg.ProjectConfig.MesonOptions["buildtype"])

	// an existing config is kept
	require.NoError(t, os.WriteFile(path, []byte(`build = "Soong"`), 0o644))
	initIn(dir, "other", "Bazel")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `build = "Soong"`, string(data))
}
