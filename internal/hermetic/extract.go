package hermetic

import "github.com/qobs-build/meson2hermetic/internal/hostgraph"

// Targets is the host graph partitioned by the kinds the converter handles
type Targets struct {
	Static []*hostgraph.StaticLibrary
	Shared []*hostgraph.SharedLibrary
	Custom []*hostgraph.CustomTarget
}

// Extract partitions g by concrete target kind, keeping the graph's order.
// Executables and run targets are skipped.
func Extract(g *hostgraph.Graph) Targets {
	var out Targets
	for _, t := range g.All() {
		switch t := t.(type) {
		case *hostgraph.StaticLibrary:
			out.Static = append(out.Static, t)
		case *hostgraph.SharedLibrary:
			out.Shared = append(out.Shared, t)
		case *hostgraph.CustomTarget:
			out.Custom = append(out.Custom, t)
		}
	}
	return out
}
