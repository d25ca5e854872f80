package hermetic

import (
	"strings"

	"github.com/qobs-build/meson2hermetic/internal/hostgraph"
)

// option names read from the host configuration
const (
	optCArgs   = "c_args"
	optCppArgs = "cpp_args"
	optCStd    = "c_std"
	optCppStd  = "cpp_std"
)

var quoteEscaper = strings.NewReplacer(`"`, `\"`)

// EscapeFlags returns a copy of flags with every double quote escaped so each
// flag can be placed inside a string literal of a generated build file
func EscapeFlags(flags []string) []string {
	if flags == nil {
		return nil
	}
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = quoteEscaper.Replace(f)
	}
	return out
}

// CollectFlags reads the host, root-project compiler options
func CollectFlags(opts hostgraph.Options) Flags {
	return Flags{
		ConlyFlags: EscapeFlags(opts.List(hostgraph.HostKey(optCArgs))),
		CppFlags:   EscapeFlags(opts.List(hostgraph.HostKey(optCppArgs))),
		CStd:       opts.String(hostgraph.HostKey(optCStd)),
		CppStd:     opts.String(hostgraph.HostKey(optCppStd)),
	}
}
