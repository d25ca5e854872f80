package gen

import (
	"testing"

	"github.com/qobs-build/meson2hermetic/internal/hermetic"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoongGen_Generate(t *testing.T) {
	g := NewSoongGen(Options{Header: Header{Project: "mesa", Revision: "0123abc"}})
	assert.Equal(t, "Android.bp", g.BuildFile())

	out, err := g.Generate(testState())
	require.NoError(t, err)

	gold := goldie.New(t)
	gold.Assert(t, "soong", []byte(out))
}

func TestSoongGen_Empty(t *testing.T) {
	out, err := NewSoongGen(Options{}).Generate(hermetic.NewState(""))
	require.NoError(t, err)
	assert.Equal(t, "// Generated by meson2hermetic for unnamed project. DO NOT EDIT.\n"+
		"\ncc_defaults {\n    name: \"hermetic_defaults\",\n}\n", out)
}

func TestSoongGen_DuplicateNames(t *testing.T) {
	state := hermetic.NewState("p")
	state.AddLibrary(&hermetic.Library{Name: "gen"})
	state.AddCustomTarget(&hermetic.CustomTarget{Name: "gen"})

	_, err := NewSoongGen(Options{}).Generate(state)
	assert.EqualError(t, err, `duplicate rule name "gen"`)
}
