package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/qobs-build/meson2hermetic/internal/builder/gen"
	"github.com/qobs-build/meson2hermetic/internal/hermetic"
	"github.com/qobs-build/meson2hermetic/internal/hostgraph"
	"github.com/qobs-build/meson2hermetic/internal/msg"
	"golang.org/x/sync/errgroup"
)

var errUnknownGenerator = errors.New("unknown generator")

// Generators lists every dialect in the order "all" renders them
var Generators = []string{GeneratorSoong, GeneratorBazel}

type Builder struct {
	cfg     *Config
	basedir string
	env     ConfigEnv
}

// NewBuilder reads the config at configPath. The config directory is the
// base for ReadFile, the default output directory and the source revision.
func NewBuilder(configPath string) (*Builder, error) {
	configPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}
	basedir := filepath.Dir(configPath)

	env := NewConfigEnv(basedir)
	cfg, err := ParseConfigFromFile(configPath, env)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.ToSlash(configPath), err)
	}
	return &Builder{cfg: cfg, basedir: basedir, env: env}, nil
}

// NewBuilderInDirectory reads the default config file from path
func NewBuilderInDirectory(path string) (*Builder, error) {
	return NewBuilder(filepath.Join(path, ConfigFilename))
}

func (b *Builder) Config() *Config { return b.cfg }
func (b *Builder) Basedir() string { return b.basedir }

// skipTarget reports whether t lives in a subdir matched by [filter].skip_subdirs
func (b *Builder) skipTarget(t hostgraph.Target) bool {
	subdir := t.TargetSubdir()
	for _, pattern := range b.cfg.Filter.SkipSubdirs {
		matched, err := doublestar.Match(pattern, subdir)
		if err != nil {
			msg.Warn("bad skip_subdirs pattern %q: %v", pattern, err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// Convert loads the graph snapshot at graphPath, drops skipped subdirs and
// runs the conversion
func (b *Builder) Convert(graphPath string) (*hermetic.State, error) {
	g, err := hostgraph.LoadFile(graphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph snapshot: %w", err)
	}

	before := g.Len()
	g = g.Filter(func(t hostgraph.Target) bool {
		if b.skipTarget(t) {
			msg.Debug("skipping %s in %s", t.TargetName(), t.TargetSubdir())
			return false
		}
		return true
	})
	if skipped := before - g.Len(); skipped > 0 {
		msg.Info("skipped %d of %d targets", skipped, before)
		// kept targets must not reference rules that are never written
		g = g.Prune(func(from, to hostgraph.Target) {
			msg.Warn("%s references skipped target %s; dropping the reference", from.TargetName(), to.TargetName())
		})
	}

	if name := b.cfg.ProjectConfig.Name; name != "" {
		g.Project = name
	}

	state, err := hermetic.Convert(g)
	if err != nil {
		return nil, err
	}
	msg.Debug("%s", state)
	return state, nil
}

// createGenerator creates a generator from a string
func (b *Builder) createGenerator(name string, state *hermetic.State) (gen.Generator, error) {
	opts := gen.Options{
		Header: gen.Header{
			Project:  state.Project,
			Revision: sourceRevision(b.basedir),
		},
		Platform: gen.Platform{
			System:    b.cfg.ProjectConfig.HostMachine.System,
			CPUFamily: b.cfg.ProjectConfig.HostMachine.CPUFamily,
		},
	}

	switch name {
	case GeneratorSoong:
		return gen.NewSoongGen(opts), nil
	case GeneratorBazel:
		return gen.NewBazelGen(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownGenerator, name)
	}
}

// resolveGenerators expands "all" and falls back to the config's build dialect
func (b *Builder) resolveGenerators(generator string) []string {
	switch generator {
	case "":
		return []string{b.cfg.Generator()}
	case GeneratorAll:
		return Generators
	default:
		return []string{generator}
	}
}

func (b *Builder) outputDir(outDir string) string {
	if outDir == "" {
		return b.basedir
	}
	return outDir
}

// Render returns the build file name and its contents for one generator
func (b *Builder) Render(state *hermetic.State, generator string) (string, string, error) {
	g, err := b.createGenerator(generator, state)
	if err != nil {
		return "", "", err
	}
	out, err := g.Generate(state)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", generator, err)
	}
	return g.BuildFile(), out, nil
}

// Generate renders state with the given generator ("" for the configured
// one, "all" for every dialect) and writes the build files into outDir
func (b *Builder) Generate(state *hermetic.State, generator, outDir string) error {
	outDir = b.outputDir(outDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	return runJobs(b.resolveGenerators(generator), func(name string) error {
		buildFile, out, err := b.Render(state, name)
		if err != nil {
			return err
		}

		path := filepath.Join(outDir, buildFile)
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		msg.Info("wrote %s", filepath.ToSlash(path))
		return nil
	}, runtime.NumCPU())
}

// Diff renders state and writes a diff against the build files in outDir to w.
// It reports whether any file differs.
func (b *Builder) Diff(state *hermetic.State, generator, outDir string, w io.Writer) (bool, error) {
	outDir = b.outputDir(outDir)
	generators := b.resolveGenerators(generator)

	// rendering is concurrent, printing keeps the generator order
	diffs := make([]bytes.Buffer, len(generators))
	changed := make([]bool, len(generators))

	indexes := make([]int, len(generators))
	for i := range indexes {
		indexes[i] = i
	}

	err := runJobs(indexes, func(i int) error {
		buildFile, out, err := b.Render(state, generators[i])
		if err != nil {
			return err
		}

		path := filepath.Join(outDir, buildFile)
		old, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return err
		}

		changed[i] = writeDiff(&diffs[i], filepath.ToSlash(path), string(old), out)
		return nil
	}, runtime.NumCPU())
	if err != nil {
		return false, err
	}

	for i := range diffs {
		if _, err := diffs[i].WriteTo(w); err != nil {
			return false, err
		}
	}
	return slices.Contains(changed, true), nil
}

// runJobs runs jobs in parallel
func runJobs[T any](jobs []T, jobfunc func(job T) error, limit int) error {
	if len(jobs) == 0 {
		return nil
	}

	eg, _ := errgroup.WithContext(context.Background())
	eg.SetLimit(limit)

	for _, job := range jobs {
		eg.Go(func() error {
			return jobfunc(job)
		})
	}

	return eg.Wait()
}
