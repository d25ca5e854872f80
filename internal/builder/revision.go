package builder

import (
	"github.com/go-git/go-git/v6"
	"github.com/qobs-build/meson2hermetic/internal/msg"
)

// sourceRevision returns the HEAD commit of the git work tree containing dir,
// or "" when dir is not inside one
func sourceRevision(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		msg.Debug("no git revision for %s: %v", dir, err)
		return ""
	}

	ref, err := repo.Head()
	if err != nil {
		msg.Debug("no git HEAD for %s: %v", dir, err)
		return ""
	}

	return ref.Hash().String()
}
