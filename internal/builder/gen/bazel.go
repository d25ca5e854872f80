package gen

import (
	"fmt"
	"slices"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/bazelbuild/buildtools/build"
	"github.com/qobs-build/meson2hermetic/internal/hermetic"
)

const bazelRules = `
{{- define "strings" -}}
[
{{- range .items }}
{{ $.indent }}    {{ quote . }},
{{- end }}
{{ .indent }}]
{{- end }}

{{- define "attr" }}
    {{ .key }} = {{ template "strings" (dict "items" .items "indent" "    ") }},
{{- end }}

{{- define "cc" -}}
{{ .Rule }}(
    name = {{ quote .Name }},
{{- with .Srcs }}{{ template "attr" (dict "key" "srcs" "items" .) }}{{ end }}
{{- with .Hdrs }}{{ template "attr" (dict "key" "hdrs" "items" .) }}{{ end }}
{{- with .Includes }}{{ template "attr" (dict "key" "includes" "items" .) }}{{ end }}
{{- if .Conlyopts }}
    conlyopts = CONLYOPTS,
{{- end }}
{{- if .Cxxopts }}
    cxxopts = CXXOPTS,
{{- end }}
{{- with .Deps }}{{ template "attr" (dict "key" "deps" "items" .) }}{{ end }}
{{- if .Alwayslink }}
    alwayslink = True,
{{- end }}
{{- if eq .Rule "cc_binary" }}
    linkshared = True,
{{- else }}
    linkstatic = True,
{{- end }}
{{- with .Compatible }}{{ template "attr" (dict "key" "target_compatible_with" "items" .) }}{{ end }}
)
{{- end }}

{{- define "genrule" -}}
genrule(
    name = {{ quote .Name }},
{{- with .Srcs }}{{ template "attr" (dict "key" "srcs" "items" .) }}{{ end }}
{{- template "attr" (dict "key" "outs" "items" .Outs) }}
{{- with .Tools }}{{ template "attr" (dict "key" "tools" "items" .) }}{{ end }}
    cmd = {{ quote .Cmd }},
)
{{- end }}

{{- define "py" -}}
py_binary(
    name = {{ quote .Name }},
{{- template "attr" (dict "key" "srcs" "items" .Srcs) }}
    main = {{ quote .Main }},
{{- with .Imports }}{{ template "attr" (dict "key" "imports" "items" .) }}{{ end }}
)
{{- end }}
`

const bazelBuild = `
{{- with .Conlyopts }}
CONLYOPTS = {{ template "strings" (dict "items" . "indent" "") }}
{{ end }}
{{- with .Cxxopts }}
CXXOPTS = {{ template "strings" (dict "items" . "indent" "") }}
{{ end }}
{{- range .Libraries }}
{{ template "cc" . }}
{{ end }}
{{- range .Genrules }}
{{ template "genrule" . }}
{{ end }}
{{- range .Scripts }}
{{ template "py" . }}
{{ end -}}
`

var bazelTemplate = template.Must(template.Must(
	template.New("rules").
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		// values arrive escaped, so sprig's quote must not escape them again
		Funcs(template.FuncMap{"quote": quote}).
		Parse(bazelRules),
).New("BUILD").Parse(bazelBuild))

type bazelLibrary struct {
	Rule       string
	Name       string
	Srcs       []string
	Hdrs       []string
	Includes   []string
	Deps       []string
	Alwayslink bool
	Compatible []string

	// set on every library when the file defines the shared option lists
	Conlyopts, Cxxopts bool
}

type bazelGenrule struct {
	Name  string
	Srcs  []string
	Outs  []string
	Tools []string
	Cmd   string
}

type bazelScript struct {
	Name    string
	Srcs    []string
	Main    string
	Imports []string
}

type bazelFile struct {
	Conlyopts []string
	Cxxopts   []string
	Libraries []bazelLibrary
	Genrules  []bazelGenrule
	Scripts   []bazelScript
}

// BazelGen renders a BUILD.bazel for the project root. Shared libraries
// become cc_binary rules named lib<name>.so.
type BazelGen struct {
	opts Options
}

func NewBazelGen(opts Options) *BazelGen {
	return &BazelGen{opts: opts}
}

func (g *BazelGen) BuildFile() string { return "BUILD.bazel" }

func bazelName(lib *hermetic.Library) string {
	if lib.Kind == hermetic.KindShared {
		return "lib" + lib.Name + ".so"
	}
	return lib.Name
}

func label(name string) string { return ":" + name }

func (g *BazelGen) compatibleWith() []string {
	var constraints []string
	if g.opts.Platform.System != "" {
		constraints = append(constraints, "@platforms//os:"+g.opts.Platform.System)
	}
	if g.opts.Platform.CPUFamily != "" {
		constraints = append(constraints, "@platforms//cpu:"+g.opts.Platform.CPUFamily)
	}
	return constraints
}

func (g *BazelGen) Generate(state *hermetic.State) (string, error) {
	libs, genrules, scripts := ruleNames(state, bazelName)
	if err := checkNames(libs, genrules, scripts); err != nil {
		return "", err
	}

	file := bazelFile{
		Conlyopts: stdFlags(state.ConlyFlags, state.CStd),
		Cxxopts:   stdFlags(state.CppFlags, state.CppStd),
	}

	// whole-archive dependencies must keep all of their objects
	alwayslink := make(map[string]bool)
	for _, lib := range state.Libraries() {
		for _, name := range lib.WholeStaticLibs {
			alwayslink[name] = true
		}
	}

	outputs := indexOutputs(state)
	compatible := g.compatibleWith()
	for _, lib := range state.Libraries() {
		bl := g.library(lib, outputs, alwayslink[lib.Name], compatible)
		bl.Conlyopts = len(file.Conlyopts) > 0
		bl.Cxxopts = len(file.Cxxopts) > 0
		file.Libraries = append(file.Libraries, bl)
	}

	for _, ct := range state.CustomTargets {
		file.Genrules = append(file.Genrules, bazelGenrule{
			Name:  ct.Name,
			Srcs:  sourcePaths(ct.Subdir, ct.Srcs),
			Outs:  sourcePaths(ct.Subdir, ct.Out),
			Tools: labels(ct.Tools),
			Cmd: genruleCommand(ct,
				func(tool string) string { return "$(execpath " + label(tool) + ")" },
				func(src string) string { return "$(location " + src + ")" },
				func(out string) string { return "$(location " + sourcePath(ct.Subdir, out) + ")" },
			),
		})
	}

	subdirs := scriptSubdirs(state)
	for _, st := range state.ScriptTargets {
		subdir := subdirs[st.Name]
		file.Scripts = append(file.Scripts, bazelScript{
			Name:    st.Name,
			Srcs:    scriptSrcs(st, subdir),
			Main:    sourcePath(subdir, st.Main),
			Imports: sourcePaths(subdir, st.Imports),
		})
	}

	var sb strings.Builder
	writeHeader(&sb, "#", g.opts.Header)
	if err := bazelTemplate.ExecuteTemplate(&sb, "BUILD", file); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", g.BuildFile(), err)
	}

	out := sb.String()
	if _, err := build.ParseBuild(g.BuildFile(), []byte(out)); err != nil {
		return "", fmt.Errorf("rendered %s does not parse: %w", g.BuildFile(), err)
	}
	return out, nil
}

func (g *BazelGen) library(lib *hermetic.Library, outputs map[string]generatedOutput, alwayslink bool, compatible []string) bazelLibrary {
	rule := "cc_library"
	if lib.Kind == hermetic.KindShared {
		rule = "cc_binary"
	}

	// generated files are found through the dirs their genrule exports
	includes := slices.Clone(lib.LocalIncludeDirs)
	addIncludes := func(out generatedOutput) {
		for _, dir := range out.includes {
			if !slices.Contains(includes, dir) {
				includes = append(includes, dir)
			}
		}
	}

	srcs := sourcePaths(lib.Subdir, lib.Srcs)
	for _, out := range resolveGenerated(outputs, lib, lib.GeneratedSources) {
		srcs = append(srcs, label(out.path))
		addIncludes(out)
	}

	var hdrs []string
	for _, out := range resolveGenerated(outputs, lib, lib.GeneratedHeaders) {
		hdrs = append(hdrs, label(out.path))
		addIncludes(out)
	}
	if rule == "cc_binary" {
		// cc_binary has no hdrs
		srcs = append(srcs, hdrs...)
		hdrs = nil
	}

	var deps []string
	for _, name := range lib.StaticLibs {
		if dep := label(name); !slices.Contains(deps, dep) {
			deps = append(deps, dep)
		}
	}
	for _, name := range lib.SharedLibs {
		srcs = append(srcs, label("lib"+name+".so"))
	}

	return bazelLibrary{
		Rule:       rule,
		Name:       bazelName(lib),
		Srcs:       srcs,
		Hdrs:       hdrs,
		Includes:   includes,
		Deps:       deps,
		Alwayslink: lib.Kind == hermetic.KindStatic && alwayslink,
		Compatible: compatible,
	}
}

// stdFlags appends the -std= option for std to flags
func stdFlags(flags []string, std string) []string {
	if std == "" || std == "none" {
		return flags
	}
	return append(slices.Clone(flags), "-std="+std)
}

func labels(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = label(name)
	}
	return out
}
