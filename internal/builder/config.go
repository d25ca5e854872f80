package builder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"
)

const (
	GeneratorSoong = "soong"
	GeneratorBazel = "bazel"
	GeneratorAll   = "all"
)

// ConfigFilename is looked up in the working directory when no config path is given
const ConfigFilename = "meson2hermetic.toml"

type Config struct {
	Build         string               `toml:"build"`
	ProjectConfig ProjectConfigSection `toml:"project_config"`
	Filter        FilterSection        `toml:"filter"`
}

// ProjectConfigSection defines the [project_config] section
type ProjectConfigSection struct {
	Name          string         `toml:"name"`
	HostMachine   MachineInfo    `toml:"host_machine"`
	BuildMachine  MachineInfo    `toml:"build_machine"`
	TargetMachine MachineInfo    `toml:"target_machine"`
	MesonOptions  map[string]any `toml:"meson_options"`
}

// MachineInfo defines the [project_config.*_machine] sections
type MachineInfo struct {
	System    string `toml:"system"`
	CPUFamily string `toml:"cpu_family"`
	CPU       string `toml:"cpu"`
	Endian    string `toml:"endian"`
}

func (m MachineInfo) IsZero() bool {
	return m == MachineInfo{}
}

// FilterSection defines the [filter(.*)] section
type FilterSection struct {
	SkipSubdirs []string `toml:"skip_subdirs"`
}

// Generator returns the lowercased build dialect, "soong" if unset
func (c Config) Generator() string {
	if c.Build == "" {
		return GeneratorSoong
	}
	return strings.ToLower(c.Build)
}

// ProjectOptions returns the meson options as key=value pairs sorted by key,
// with values lowercased the way the host exporter expects them
func (c Config) ProjectOptions() []string {
	keys := slices.Sorted(maps.Keys(c.ProjectConfig.MesonOptions))
	opts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := strings.ToLower(fmt.Sprint(c.ProjectConfig.MesonOptions[key]))
		opts = append(opts, key+"="+value)
	}
	return opts
}

// mergeValues merges src into dst, which must point to a struct or a map of
// the same type as src
func mergeValues(dst, src any) error {
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Pointer {
		return fmt.Errorf("dst must be a pointer")
	}

	dstElem := dstVal.Elem()
	srcVal := reflect.Indirect(reflect.ValueOf(src))

	if dstElem.Type() != srcVal.Type() {
		return fmt.Errorf("dst and src must be of the same type")
	}

	switch dstElem.Kind() {
	case reflect.Map:
		mergeField(dstElem, srcVal)
	case reflect.Struct:
		for i := range srcVal.NumField() {
			dstField := dstElem.Field(i)
			if !dstField.CanSet() {
				continue
			}
			mergeField(dstField, srcVal.Field(i))
		}
	default:
		return fmt.Errorf("cannot merge values of kind %s", dstElem.Kind())
	}

	return nil
}

func mergeField(dstField, srcField reflect.Value) {
	switch dstField.Kind() {
	case reflect.Slice:
		if !srcField.IsNil() {
			dstField.Set(reflect.AppendSlice(dstField, srcField))
		}
	case reflect.Map:
		if !srcField.IsNil() {
			if dstField.IsNil() {
				dstField.Set(reflect.MakeMap(dstField.Type()))
			}
			for _, key := range srcField.MapKeys() {
				dstField.SetMapIndex(key, srcField.MapIndex(key))
			}
		}
	case reflect.Bool:
		dstField.SetBool(dstField.Bool() || srcField.Bool())
	default:
		if !srcField.IsZero() {
			dstField.Set(srcField)
		}
	}
}

func mustMarshal(v any) string {
	b, err := toml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// unmarshalSection is a helper to parse sections without conditional logic
func unmarshalSection(rawCfg map[string]any, name string, dst any) error {
	if data, ok := rawCfg[name]; ok {
		if err := toml.Unmarshal([]byte(mustMarshal(data)), dst); err != nil {
			return fmt.Errorf("failed to parse [%s] section: %w", name, err)
		}
	}
	return nil
}

// unmarshalConditionalSection is a helper to parse, evaluate and merge multiple sections with conditional logic.
// Conditional sub-sections are applied in lexical order of their expressions.
func unmarshalConditionalSection[T any](rawCfg map[string]any, name string, dst *T, env ConfigEnv) error {
	sectionData, ok := rawCfg[name]
	if !ok {
		return nil
	}

	sectionMap, ok := sectionData.(map[string]any)
	if !ok {
		return fmt.Errorf("invalid [%s] section format: expected a table", name)
	}

	baseFields := make(map[string]any)
	conditionalFields := make(map[string]map[string]any)

	for key, val := range sectionMap {
		if subMap, ok := val.(map[string]any); ok {
			_, err := expr.Compile(key, expr.Env(env))
			if err == nil {
				conditionalFields[key] = subMap
			} else {
				baseFields[key] = val
			}
		} else {
			baseFields[key] = val
		}
	}

	if len(baseFields) > 0 {
		if err := toml.Unmarshal([]byte(mustMarshal(baseFields)), dst); err != nil {
			return fmt.Errorf("failed to parse base [%s] section: %w", name, err)
		}
	}

	for _, expression := range slices.Sorted(maps.Keys(conditionalFields)) {
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return fmt.Errorf("failed to compile expression for [%s.%q]: %w", name, expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return fmt.Errorf("failed to run expression for [%s.%q]: %w", name, expression, err)
		}

		// merge sections if the result is true
		if matched, ok := result.(bool); !ok || !matched {
			continue
		}

		var condSection T
		if err := toml.Unmarshal([]byte(mustMarshal(conditionalFields[expression])), &condSection); err != nil {
			return fmt.Errorf("failed to parse conditional section [%s.%q]: %w", name, expression, err)
		}
		if err := mergeValues(dst, condSection); err != nil {
			return fmt.Errorf("failed to merge conditional section [%s.%q]: %w", name, expression, err)
		}
	}

	return nil
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evaluateString finds and evaluates all {{...}} expressions in a string
func evaluateString(s string, env ConfigEnv) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var builder strings.Builder
	lastIndex := 0

	for _, matchIndexes := range matches {
		fullMatchStart := matchIndexes[0]
		fullMatchEnd := matchIndexes[1]
		expressionStart := matchIndexes[2]
		expressionEnd := matchIndexes[3]

		builder.WriteString(s[lastIndex:fullMatchStart])

		expression := strings.TrimSpace(s[expressionStart:expressionEnd])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		builder.WriteString(fmt.Sprintf("%v", result))
		lastIndex = fullMatchEnd
	}

	builder.WriteString(s[lastIndex:])

	return builder.String(), nil
}

// processExpressions recursively walks the parsed TOML data and evaluates expressions in strings
func processExpressions(data any, env ConfigEnv) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			processedVal, err := processExpressions(val, env)
			if err != nil {
				return nil, err
			}
			v[key] = processedVal
		}
		return v, nil
	case []any:
		for i, item := range v {
			processedItem, err := processExpressions(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = processedItem
		}
		return v, nil
	case string:
		return evaluateString(v, env)
	default:
		return data, nil
	}
}

func ParseConfig(rdr io.Reader, env ConfigEnv) (*Config, error) {
	var rawConfig map[string]any
	dec := toml.NewDecoder(rdr)
	if err := dec.Decode(&rawConfig); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}
	if rawConfig == nil {
		rawConfig = make(map[string]any)
	}

	processedConfig, err := processExpressions(rawConfig, env)
	if err != nil {
		return nil, fmt.Errorf("error processing expressions in config: %w", err)
	}
	rawConfig = processedConfig.(map[string]any)

	cfg := new(Config)

	if build, ok := rawConfig["build"]; ok {
		s, ok := build.(string)
		if !ok {
			return nil, fmt.Errorf("build must be a string, got %T", build)
		}
		cfg.Build = s
	}
	switch cfg.Generator() {
	case GeneratorSoong, GeneratorBazel:
	default:
		return nil, fmt.Errorf("unknown build %q, expected Soong or Bazel", cfg.Build)
	}

	if projectData, ok := rawConfig["project_config"]; ok {
		project, ok := projectData.(map[string]any)
		if !ok {
			return nil, errors.New("invalid [project_config] section format: expected a table")
		}
		rest := maps.Clone(project)
		delete(rest, "meson_options")

		if err := unmarshalSection(map[string]any{"project_config": rest}, "project_config", &cfg.ProjectConfig); err != nil {
			return nil, err
		}
		if err := unmarshalConditionalSection(project, "meson_options", &cfg.ProjectConfig.MesonOptions, env); err != nil {
			return nil, err
		}
	}

	if err := unmarshalConditionalSection(rawConfig, "filter", &cfg.Filter, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseConfigFromFile parses and validates a config file from a filepath
func ParseConfigFromFile(path string, env ConfigEnv) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseConfig(bufio.NewReader(f), env)
}

//
// expr-lang helpers
//

type ConfigEnv struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`
	basedir    string
}

func NewConfigEnv(basedir string) ConfigEnv {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if i := strings.Index(e, "="); i >= 0 {
			environ[e[:i]] = e[i+1:]
		}
	}

	return ConfigEnv{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Environ:    environ,
		basedir:    basedir,
	}
}

// ReadFile returns the trimmed contents of a file below the config directory
func (env ConfigEnv) ReadFile(path string) (string, error) {
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("path %q is outside of config directory %q", path, env.basedir)
	}

	data, err := os.ReadFile(filepath.Join(env.basedir, path))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}
