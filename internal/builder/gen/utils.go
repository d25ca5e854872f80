package gen

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/qobs-build/meson2hermetic/internal/hermetic"
	"github.com/qobs-build/meson2hermetic/internal/msg"
)

func write(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
}
func writeln(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
	sb.WriteByte('\n')
}

func writeHeader(sb *strings.Builder, comment string, h Header) {
	for _, line := range h.lines() {
		writeln(sb, comment, " ", line)
	}
}

// quote wraps s in double quotes. Values are expected to be escaped already.
func quote(s string) string { return `"` + s + `"` }

// sourcePath returns p relative to the project root for a file declared in subdir
func sourcePath(subdir, p string) string {
	if path.IsAbs(p) {
		return p
	}
	return path.Join(subdir, p)
}

func sourcePaths(subdir string, files []string) []string {
	if len(files) == 0 {
		return nil
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = sourcePath(subdir, f)
	}
	return paths
}

// generatedOutput is a file written by a custom target
type generatedOutput struct {
	rule     string   // custom target name
	path     string   // relative to the project root
	includes []string // include dirs exported by the custom target
}

// indexOutputs maps every custom target output filename to the target producing it
func indexOutputs(state *hermetic.State) map[string]generatedOutput {
	outputs := make(map[string]generatedOutput)
	for _, ct := range state.CustomTargets {
		for _, out := range ct.Out {
			if _, ok := outputs[out]; ok {
				continue
			}
			outputs[out] = generatedOutput{
				rule:     ct.Name,
				path:     sourcePath(ct.Subdir, out),
				includes: ct.ExportIncludeDirs,
			}
		}
	}
	return outputs
}

// resolveGenerated looks up generated files by name; unknown names are reported and dropped
func resolveGenerated(outputs map[string]generatedOutput, lib *hermetic.Library, names []string) []generatedOutput {
	var resolved []generatedOutput
	for _, name := range names {
		out, ok := outputs[name]
		if !ok {
			msg.Warn("%s uses generated file %s, but no custom target produces it", lib, name)
			continue
		}
		resolved = append(resolved, out)
	}
	return resolved
}

// genruleCommand rewrites a custom target command, replacing the script, the
// inputs and the outputs with references produced by the given functions.
// Every token is escaped for a double quoted string.
func genruleCommand(ct *hermetic.CustomTarget, tool, src, out func(string) string) string {
	srcs := make(map[string]bool, len(ct.Srcs))
	for _, s := range ct.Srcs {
		srcs[s] = true
	}
	outs := make(map[string]bool, len(ct.Out))
	for _, o := range ct.Out {
		outs[o] = true
	}

	tokens := make([]string, len(ct.Cmd))
	for i, token := range ct.Cmd {
		switch {
		case ct.ScriptMain != "" && token == ct.ScriptMain:
			tokens[i] = tool(ct.ScriptTargetName)
		case srcs[token]:
			tokens[i] = src(sourcePath(ct.Subdir, token))
		case outs[token]:
			tokens[i] = out(token)
		default:
			tokens[i] = token
		}
	}
	return strings.Join(hermetic.EscapeFlags(tokens), " ")
}

// checkNames fails when two rules in one build file share a name
func checkNames(names ...[]string) error {
	seen := make(map[string]bool)
	for _, group := range names {
		for _, name := range group {
			if seen[name] {
				return fmt.Errorf("duplicate rule name %q", name)
			}
			seen[name] = true
		}
	}
	return nil
}

// ruleNames returns the name of every record in state, by kind
func ruleNames(state *hermetic.State, libName func(*hermetic.Library) string) (libs, genrules, scripts []string) {
	for _, lib := range state.Libraries() {
		libs = append(libs, libName(lib))
	}
	for _, ct := range state.CustomTargets {
		genrules = append(genrules, ct.Name)
	}
	for _, st := range state.ScriptTargets {
		scripts = append(scripts, st.Name)
	}
	return
}

// scriptSubdirs maps script target names to the subdir of their custom target
func scriptSubdirs(state *hermetic.State) map[string]string {
	subdirs := make(map[string]string)
	for _, ct := range state.CustomTargets {
		if ct.ScriptTargetName != "" {
			subdirs[ct.ScriptTargetName] = ct.Subdir
		}
	}
	return subdirs
}

// scriptSrcs returns the script sources relative to the project root, main included
func scriptSrcs(st *hermetic.ScriptTarget, subdir string) []string {
	srcs := sourcePaths(subdir, st.Srcs)
	if main := sourcePath(subdir, st.Main); !slices.Contains(srcs, main) {
		srcs = append([]string{main}, srcs...)
	}
	return srcs
}
