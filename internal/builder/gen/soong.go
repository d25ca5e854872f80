package gen

import (
	"slices"
	"strings"

	"github.com/qobs-build/meson2hermetic/internal/hermetic"
)

const soongIndent = "    "

// SoongGen renders an Android.bp. Every library shares one cc_defaults module
// carrying the global flags.
type SoongGen struct {
	opts Options
}

func NewSoongGen(opts Options) *SoongGen {
	return &SoongGen{opts: opts}
}

func (g *SoongGen) BuildFile() string { return "Android.bp" }

func defaultsName(project string) string {
	if project == "" {
		return "hermetic_defaults"
	}
	return project + "_defaults"
}

func (g *SoongGen) Generate(state *hermetic.State) (string, error) {
	defaults := defaultsName(state.Project)
	libs, genrules, scripts := ruleNames(state, func(lib *hermetic.Library) string { return lib.Name })
	if err := checkNames([]string{defaults}, libs, genrules, scripts); err != nil {
		return "", err
	}

	var sb strings.Builder
	writeHeader(&sb, "//", g.opts.Header)

	writeln(&sb)
	writeln(&sb, "cc_defaults {")
	writeSoongString(&sb, "name", defaults)
	writeSoongList(&sb, "conlyflags", state.ConlyFlags)
	writeSoongList(&sb, "cppflags", state.CppFlags)
	writeSoongString(&sb, "c_std", state.CStd)
	writeSoongString(&sb, "cpp_std", state.CppStd)
	writeln(&sb, "}")

	outputs := indexOutputs(state)
	for _, lib := range state.Libraries() {
		writeln(&sb)
		g.writeLibrary(&sb, defaults, lib, outputs)
	}

	for _, ct := range state.CustomTargets {
		writeln(&sb)
		g.writeGenrule(&sb, ct)
	}

	subdirs := scriptSubdirs(state)
	for _, st := range state.ScriptTargets {
		writeln(&sb)
		g.writePythonBinary(&sb, st, subdirs[st.Name])
	}

	return sb.String(), nil
}

func (g *SoongGen) writeLibrary(sb *strings.Builder, defaults string, lib *hermetic.Library, outputs map[string]generatedOutput) {
	module := "cc_library_static"
	if lib.Kind == hermetic.KindShared {
		module = "cc_library_shared"
	}

	// Soong lists whole-archive dependencies on their own
	var staticLibs []string
	for _, name := range lib.StaticLibs {
		if !slices.Contains(lib.WholeStaticLibs, name) {
			staticLibs = append(staticLibs, name)
		}
	}

	writeln(sb, module, " {")
	writeSoongString(sb, "name", lib.Name)
	writeSoongList(sb, "defaults", []string{defaults})
	writeSoongList(sb, "srcs", sourcePaths(lib.Subdir, lib.Srcs))
	writeSoongList(sb, "local_include_dirs", lib.LocalIncludeDirs)
	writeSoongList(sb, "generated_headers", generatedRules(resolveGenerated(outputs, lib, lib.GeneratedHeaders)))
	writeSoongList(sb, "generated_sources", generatedRules(resolveGenerated(outputs, lib, lib.GeneratedSources)))
	writeSoongList(sb, "static_libs", staticLibs)
	writeSoongList(sb, "whole_static_libs", lib.WholeStaticLibs)
	writeSoongList(sb, "shared_libs", lib.SharedLibs)
	writeln(sb, "}")
}

func (g *SoongGen) writeGenrule(sb *strings.Builder, ct *hermetic.CustomTarget) {
	cmd := genruleCommand(ct,
		func(tool string) string { return "$(location " + tool + ")" },
		func(src string) string { return "$(location " + src + ")" },
		func(out string) string { return "$(genDir)/" + out },
	)

	writeln(sb, "genrule {")
	writeSoongString(sb, "name", ct.Name)
	writeSoongList(sb, "srcs", sourcePaths(ct.Subdir, ct.Srcs))
	writeSoongList(sb, "out", ct.Out)
	writeSoongList(sb, "tools", ct.Tools)
	writeSoongString(sb, "cmd", cmd)
	writeSoongList(sb, "export_include_dirs", ct.ExportIncludeDirs)
	writeln(sb, "}")
}

func (g *SoongGen) writePythonBinary(sb *strings.Builder, st *hermetic.ScriptTarget, subdir string) {
	writeln(sb, "python_binary_host {")
	writeSoongString(sb, "name", st.Name)
	writeSoongString(sb, "main", sourcePath(subdir, st.Main))
	writeSoongList(sb, "srcs", scriptSrcs(st, subdir))
	writeln(sb, "}")
}

// generatedRules returns the distinct rules producing outs
func generatedRules(outs []generatedOutput) []string {
	var rules []string
	for _, out := range outs {
		if !slices.Contains(rules, out.rule) {
			rules = append(rules, out.rule)
		}
	}
	return rules
}

func writeSoongString(sb *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	writeln(sb, soongIndent, key, ": ", quote(value), ",")
}

func writeSoongList(sb *strings.Builder, key string, values []string) {
	switch len(values) {
	case 0:
		return
	case 1:
		writeln(sb, soongIndent, key, ": [", quote(values[0]), "],")
		return
	}

	writeln(sb, soongIndent, key, ": [")
	for _, v := range values {
		writeln(sb, soongIndent, soongIndent, quote(v), ",")
	}
	writeln(sb, soongIndent, "],")
}
