package hermetic

import "strings"

// ClassifyGenerated deduplicates generated output names and splits them into
// headers and compiled sources. Both lists keep first-encounter order.
// Outputs with an unknown or missing extension are treated as sources.
func ClassifyGenerated(names []string) (headers, sources []string) {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		switch {
		case strings.HasSuffix(name, ".h"):
			headers = append(headers, name)
		case strings.HasSuffix(name, ".c"), strings.HasSuffix(name, ".cpp"):
			sources = append(sources, name)
		default:
			sources = append(sources, name)
		}
	}
	return headers, sources
}
