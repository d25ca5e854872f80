package hostgraph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidSnapshot is returned when a snapshot fails to decode or validate.
	ErrInvalidSnapshot = zerr.New("invalid graph snapshot")

	// ErrDuplicateTarget is returned when two targets share an id.
	ErrDuplicateTarget = zerr.New("duplicate target id")

	// ErrUnknownTarget is returned when a link or input refers to an id that is not in the snapshot.
	ErrUnknownTarget = zerr.New("unknown target")
)

// target type names used in snapshots
const (
	TypeStaticLibrary = "static_library"
	TypeSharedLibrary = "shared_library"
	TypeExecutable    = "executable"
	TypeCustomTarget  = "custom_target"
	TypeRunTarget     = "run_target"
)

type snapshot struct {
	Project string      `yaml:"project"`
	Targets []targetDTO `yaml:"targets" validate:"dive"`
	Options []optionDTO `yaml:"options" validate:"dive"`
}

type targetDTO struct {
	ID               string           `yaml:"id" validate:"required"`
	Type             string           `yaml:"type" validate:"required,oneof=static_library shared_library executable custom_target run_target"`
	Name             string           `yaml:"name" validate:"required"`
	Subdir           string           `yaml:"subdir"`
	Sources          []fileDTO        `yaml:"sources" validate:"dive"`
	IncludeDirs      []includeDirsDTO `yaml:"include_dirs"`
	GeneratedSources []string         `yaml:"generated_sources" validate:"dive,required"`
	LinkWith         []string         `yaml:"link_with"`
	LinkWhole        []string         `yaml:"link_whole"`
	Inputs           []inputDTO       `yaml:"inputs" validate:"dive"`
	Outputs          []string         `yaml:"outputs"`
	Command          []string         `yaml:"command"`
}

type fileDTO struct {
	Subdir string `yaml:"subdir"`
	Fname  string `yaml:"fname" validate:"required"`
}

type includeDirsDTO struct {
	CurDir string   `yaml:"curdir"`
	Dirs   []string `yaml:"dirs"`
}

// inputDTO sets exactly one of its fields
type inputDTO struct {
	File             *fileDTO             `yaml:"file"`
	Target           string               `yaml:"target"`
	GeneratedList    []string             `yaml:"generated_list"`
	ExtractedObjects *extractedObjectsDTO `yaml:"extracted_objects"`
}

type extractedObjectsDTO struct {
	Target  string   `yaml:"target" validate:"required"`
	Sources []string `yaml:"sources"`
}

type optionDTO struct {
	Name       string      `yaml:"name" validate:"required"`
	Subproject string      `yaml:"subproject"`
	Machine    string      `yaml:"machine" validate:"omitempty,oneof=host build"`
	Value      optionValue `yaml:"value"`
}

// optionValue accepts either a scalar or a sequence of scalars
type optionValue []string

func (v *optionValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*v = optionValue{s}
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*v = list
	default:
		return fmt.Errorf("line %d: option value must be a scalar or a list", node.Line)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load decodes, validates and resolves a graph snapshot
func Load(rdr io.Reader) (*Graph, error) {
	var snap snapshot
	dec := yaml.NewDecoder(rdr)
	if err := dec.Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return NewGraph(""), nil
		}
		return nil, zerr.Wrap(ErrInvalidSnapshot, err.Error())
	}

	if err := validate.Struct(&snap); err != nil {
		return nil, zerr.Wrap(ErrInvalidSnapshot, err.Error())
	}

	return snap.resolve()
}

// LoadFile loads a snapshot from a path
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := Load(bufio.NewReader(f))
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return g, nil
}

func (s *snapshot) resolve() (*Graph, error) {
	g := NewGraph(s.Project)

	// pass 1: create every target so references can point forward
	for _, dto := range s.Targets {
		if !g.Add(dto.newTarget()) {
			return nil, zerr.With(zerr.Wrap(ErrDuplicateTarget, fmt.Sprintf("target %q", dto.ID)), "id", dto.ID)
		}
	}

	// pass 2: links and custom target inputs
	for _, dto := range s.Targets {
		t, _ := g.Get(dto.ID)
		switch t := t.(type) {
		case *StaticLibrary:
			if err := dto.resolveLinks(g, &t.BuildTarget); err != nil {
				return nil, err
			}
		case *SharedLibrary:
			if err := dto.resolveLinks(g, &t.BuildTarget); err != nil {
				return nil, err
			}
		case *Executable:
			if err := dto.resolveLinks(g, &t.BuildTarget); err != nil {
				return nil, err
			}
		case *CustomTarget:
			sources, err := dto.resolveInputs(g)
			if err != nil {
				return nil, err
			}
			t.Sources = sources
		}
	}

	for _, opt := range s.Options {
		machine := Machine(opt.Machine)
		if machine == "" {
			machine = MachineHost
		}
		key := OptionKey{Name: opt.Name, Subproject: opt.Subproject, Machine: machine}
		g.Options[key] = []string(opt.Value)
	}

	return g, nil
}

func (dto *targetDTO) newTarget() Target {
	switch dto.Type {
	case TypeStaticLibrary:
		return &StaticLibrary{dto.buildTarget()}
	case TypeSharedLibrary:
		return &SharedLibrary{dto.buildTarget()}
	case TypeExecutable:
		return &Executable{dto.buildTarget()}
	case TypeCustomTarget:
		return &CustomTarget{
			ID:      dto.ID,
			Name:    dto.Name,
			Subdir:  dto.Subdir,
			Outputs: dto.Outputs,
			Command: dto.Command,
		}
	case TypeRunTarget:
		return &RunTarget{
			ID:      dto.ID,
			Name:    dto.Name,
			Subdir:  dto.Subdir,
			Command: dto.Command,
		}
	default:
		panic("newTarget: unreachable")
	}
}

func (dto *targetDTO) buildTarget() BuildTarget {
	bt := BuildTarget{
		ID:     dto.ID,
		Name:   dto.Name,
		Subdir: dto.Subdir,
	}
	for _, src := range dto.Sources {
		bt.Sources = append(bt.Sources, File{Subdir: src.Subdir, Fname: src.Fname})
	}
	for _, inc := range dto.IncludeDirs {
		bt.IncludeDirs = append(bt.IncludeDirs, IncludeDirs{CurDir: inc.CurDir, IncDirs: inc.Dirs})
	}
	for _, name := range dto.GeneratedSources {
		bt.GeneratedSources = append(bt.GeneratedSources, GeneratedSource{Name: name})
	}
	return bt
}

func (dto *targetDTO) resolveLinks(g *Graph, bt *BuildTarget) error {
	var err error
	if bt.LinkTargets, err = dto.lookupAll(g, dto.LinkWith); err != nil {
		return err
	}
	if bt.LinkWholeTargets, err = dto.lookupAll(g, dto.LinkWhole); err != nil {
		return err
	}
	return nil
}

func (dto *targetDTO) lookupAll(g *Graph, ids []string) ([]Target, error) {
	var out []Target
	for _, id := range ids {
		t, err := dto.lookup(g, id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (dto *targetDTO) lookup(g *Graph, id string) (Target, error) {
	t, ok := g.Get(id)
	if !ok {
		err := zerr.Wrap(ErrUnknownTarget, fmt.Sprintf("target %q refers to %q", dto.ID, id))
		return nil, zerr.With(err, "id", id)
	}
	return t, nil
}

func (dto *targetDTO) resolveInputs(g *Graph) ([]Source, error) {
	sources := make([]Source, 0, len(dto.Inputs))
	for i, in := range dto.Inputs {
		set := 0
		var src Source
		if in.File != nil {
			set++
			src = &File{Subdir: in.File.Subdir, Fname: in.File.Fname}
		}
		if in.Target != "" {
			set++
			t, err := dto.lookup(g, in.Target)
			if err != nil {
				return nil, err
			}
			src = &TargetRef{Target: t}
		}
		if in.GeneratedList != nil {
			set++
			src = &GeneratedList{Outputs: in.GeneratedList}
		}
		if in.ExtractedObjects != nil {
			set++
			t, err := dto.lookup(g, in.ExtractedObjects.Target)
			if err != nil {
				return nil, err
			}
			src = &ExtractedObjects{Target: t, Sources: in.ExtractedObjects.Sources}
		}
		if set != 1 {
			msg := fmt.Sprintf("target %q: input %d must set exactly one of file, target, generated_list, extracted_objects", dto.ID, i)
			return nil, zerr.Wrap(ErrInvalidSnapshot, msg)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
