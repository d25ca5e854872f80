package hermetic

import "github.com/qobs-build/meson2hermetic/internal/hostgraph"

// Convert runs one conversion pass over g. On error no state is returned:
// a partially converted graph is never safe to render.
func Convert(g *hostgraph.Graph) (*State, error) {
	state := NewState(g.Project)
	targets := Extract(g)

	for _, t := range targets.Static {
		state.AddLibrary(NormalizeLibrary(&t.BuildTarget, KindStatic))
	}
	for _, t := range targets.Shared {
		state.AddLibrary(NormalizeLibrary(&t.BuildTarget, KindShared))
	}

	for _, t := range targets.Custom {
		ct, err := NormalizeCustomTarget(t)
		if err != nil {
			return nil, err
		}
		state.AddCustomTarget(ct)

		if st := DeriveScriptTarget(ct); st != nil {
			state.AddScriptTarget(st)
		}
	}

	state.SetFlags(CollectFlags(g.Options))

	return state, nil
}
