package hermetic

import (
	"path"
	"slices"
)

// DeriveScriptTarget builds the script target for ct, or returns nil when ct
// has no main script. It does not modify ct and shares no slices with it.
// Imports holds path.Dir of each script input, so a bare script name yields
// "." rather than an empty string.
func DeriveScriptTarget(ct *CustomTarget) *ScriptTarget {
	if ct.ScriptMain == "" {
		return nil
	}

	st := &ScriptTarget{
		Name:              ct.ScriptTargetName,
		Main:              ct.ScriptMain,
		Out:               slices.Clone(ct.Out),
		ExportIncludeDirs: slices.Clone(ct.ExportIncludeDirs),
	}

	seen := make(map[string]struct{})
	for _, src := range ct.Srcs {
		if !isScript(src) {
			continue
		}
		st.Srcs = append(st.Srcs, src)

		dir := path.Dir(src)
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			st.Imports = append(st.Imports, dir)
		}
	}

	return st
}
