package hermetic

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/qobs-build/meson2hermetic/internal/hostgraph"
	"go.trai.ch/zerr"
)

// ScriptSuffix marks a command token or file as an interpreted script
const ScriptSuffix = ".py"

// ScriptDetector looks for the main script of a custom target. srcs are the
// normalized input filenames.
type ScriptDetector func(t *hostgraph.CustomTarget, srcs []string) (string, bool)

// ScriptDetectors are tried in order; the first match wins
var ScriptDetectors = []ScriptDetector{
	commandHead,
	firstScriptArg,
}

func isScript(s string) bool {
	return strings.HasSuffix(s, ScriptSuffix)
}

// commandHead matches when the command itself starts with a script
func commandHead(t *hostgraph.CustomTarget, _ []string) (string, bool) {
	if len(t.Command) != 0 && isScript(t.Command[0]) {
		return t.Command[0], true
	}
	return "", false
}

// firstScriptArg matches the first script among the inputs, then the outputs
func firstScriptArg(t *hostgraph.CustomTarget, srcs []string) (string, bool) {
	for _, arg := range slices.Concat(srcs, t.Outputs) {
		if isScript(arg) {
			return arg, true
		}
	}
	return "", false
}

// DetectScript runs ScriptDetectors against t
func DetectScript(t *hostgraph.CustomTarget, srcs []string) (string, bool) {
	for _, detect := range ScriptDetectors {
		if script, ok := detect(t, srcs); ok {
			return script, true
		}
	}
	return "", false
}

// ScriptTargetName returns the name of the script target derived from a
// custom target running script
func ScriptTargetName(targetName, script string) string {
	return targetName + "_" + path.Base(script)
}

// NormalizeCustomTarget converts one custom target. Inputs that are not plain
// files are an error; the caller must abandon the whole run.
func NormalizeCustomTarget(t *hostgraph.CustomTarget) (*CustomTarget, error) {
	ct := &CustomTarget{
		Name:   t.Name,
		Subdir: t.Subdir,
		Out:    slices.Clone(t.Outputs),
		Cmd:    slices.Clone(t.Command),
	}

	for _, src := range t.Sources {
		file, ok := src.(*hostgraph.File)
		if !ok {
			err := zerr.Wrap(ErrUnhandledSource, fmt.Sprintf("custom target %q: input of type %T", t.Name, src))
			err = zerr.With(err, "target", t.Name)
			return nil, zerr.With(err, "type", fmt.Sprintf("%T", src))
		}
		ct.Srcs = append(ct.Srcs, file.Fname)
	}

	if script, ok := DetectScript(t, ct.Srcs); ok {
		ct.ScriptMain = script
		ct.ScriptTargetName = ScriptTargetName(t.Name, script)
		ct.Tools = append(ct.Tools, ct.ScriptTargetName)
	}

	ct.ExportIncludeDirs = append(ct.ExportIncludeDirs, t.Subdir)

	return ct, nil
}
