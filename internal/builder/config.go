package builder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"
)

// ConfigFilename is the package file looked up in every package directory
const ConfigFilename = "Glue.toml"

type Config struct {
	Package  PackageSection  `toml:"package"`
	Tests    TestsSection    `toml:"tests"`
	Messages MessagesSection `toml:"messages"`
	Binary   BinarySection   `toml:"binary"`
}

// PackageSection defines the [package] section
type PackageSection struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// TestsSection defines the [tests] section
type TestsSection struct {
	Suites []string `toml:"suites"`
	Output string   `toml:"output"`
}

// MessagesSection defines the [messages] section
type MessagesSection struct {
	Component string   `toml:"component"`
	Name      string   `toml:"name"`
	Sources   []string `toml:"sources"`
	Headers   []string `toml:"headers"`
}

// BinarySection defines the [binary] section
type BinarySection struct {
	Toolchain string            `toml:"toolchain"`
	OS        string            `toml:"os"`
	Arch      string            `toml:"arch"`
	Output    string            `toml:"output"`
	Lib       bool              `toml:"lib"`
	Defines   map[string]string `toml:"defines"`
	Args      []string          `toml:"args"`
}

func (c *Config) applyDefaults(env ConfigEnv) {
	if c.Tests.Output == "" {
		c.Tests.Output = filepath.Join("build", "testsuite")
	}
	if c.Messages.Component == "" {
		c.Messages.Component = "main"
	}
	if c.Messages.Name == "" {
		c.Messages.Name = "mc"
	}
	if c.Binary.Toolchain == "" {
		c.Binary.Toolchain = "visualCpp"
	}
	if c.Binary.OS == "" {
		c.Binary.OS = env.TargetOS
	}
	if c.Binary.Arch == "" {
		c.Binary.Arch = env.TargetArch
	}
	if c.Binary.Output == "" {
		c.Binary.Output = "build"
	}
}

// mergeStructs folds src into dst: slices append, maps merge, bools OR and
// any other non-zero field replaces the destination value
func mergeStructs(dst, src any) error {
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Pointer || dv.Elem().Kind() != reflect.Struct {
		return errors.New("dst must be a pointer to a struct")
	}
	dv = dv.Elem()

	sv := reflect.Indirect(reflect.ValueOf(src))
	if sv.Kind() != reflect.Struct {
		return errors.New("src must be a struct or a pointer to a struct")
	}
	if dv.Type() != sv.Type() {
		return fmt.Errorf("cannot merge %s into %s", sv.Type(), dv.Type())
	}

	for i := range sv.NumField() {
		from, to := sv.Field(i), dv.Field(i)
		if !to.CanSet() {
			continue
		}

		switch to.Kind() {
		case reflect.Slice:
			if !from.IsNil() {
				to.Set(reflect.AppendSlice(to, from))
			}
		case reflect.Map:
			if from.IsNil() {
				continue
			}
			if to.IsNil() {
				to.Set(reflect.MakeMap(to.Type()))
			}
			iter := from.MapRange()
			for iter.Next() {
				to.SetMapIndex(iter.Key(), iter.Value())
			}
		case reflect.Bool:
			to.SetBool(to.Bool() || from.Bool())
		default:
			if !from.IsZero() {
				to.Set(from)
			}
		}
	}
	return nil
}

// decodeInto round-trips a raw TOML table through the encoder so it can be
// decoded into a typed section
func decodeInto(raw any, dst any) error {
	data, err := toml.Marshal(raw)
	if err != nil {
		return err
	}
	return toml.Unmarshal(data, dst)
}

// decodeSection parses a plain section without conditional sub-tables
func decodeSection(raw map[string]any, name string, dst any) error {
	data, ok := raw[name]
	if !ok {
		return nil
	}
	if err := decodeInto(data, dst); err != nil {
		return fmt.Errorf("failed to parse [%s] section: %w", name, err)
	}
	return nil
}

// decodeConditionalSection parses a section whose sub-tables may be keyed by
// an expression, e.g. [binary.'target_os == "windows"']. Sub-tables whose
// expression evaluates to true are merged over the base fields.
func decodeConditionalSection[T any](raw map[string]any, name string, dst *T, env ConfigEnv) error {
	data, ok := raw[name]
	if !ok {
		return nil
	}
	table, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("invalid [%s] section: expected a table", name)
	}

	base := make(map[string]any)
	conditional := make(map[string]map[string]any)
	for key, val := range table {
		sub, isTable := val.(map[string]any)
		if isTable {
			// plain keys like "defines" don't compile against the env
			if _, err := expr.Compile(key, expr.Env(env), expr.AsBool()); err == nil {
				conditional[key] = sub
				continue
			}
		}
		base[key] = val
	}

	if len(base) > 0 {
		if err := decodeInto(base, dst); err != nil {
			return fmt.Errorf("failed to parse [%s] section: %w", name, err)
		}
	}

	for condition, sub := range conditional {
		matched, err := evalExpr(condition, env)
		if err != nil {
			return fmt.Errorf("failed to evaluate [%s.%q]: %w", name, condition, err)
		}
		if ok, _ := matched.(bool); !ok {
			continue
		}

		var section T
		if err := decodeInto(sub, &section); err != nil {
			return fmt.Errorf("failed to parse [%s.%q]: %w", name, condition, err)
		}
		if err := mergeStructs(dst, section); err != nil {
			return fmt.Errorf("failed to merge [%s.%q]: %w", name, condition, err)
		}
	}
	return nil
}

func evalExpr(code string, env ConfigEnv) (any, error) {
	program, err := expr.Compile(code, expr.Env(env))
	if err != nil {
		return nil, err
	}
	return expr.Run(program, env)
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// interpolate replaces every {{ expression }} in s with its value
func interpolate(s string, env ConfigEnv) (string, error) {
	var evalErr error
	out := exprRegex.ReplaceAllStringFunc(s, func(m string) string {
		if evalErr != nil {
			return m
		}
		code := strings.TrimSpace(m[2 : len(m)-2])
		result, err := evalExpr(code, env)
		if err != nil {
			evalErr = fmt.Errorf("failed to evaluate %q: %w", code, err)
			return m
		}
		return fmt.Sprint(result)
	})
	return out, evalErr
}

// interpolateAll walks decoded TOML and interpolates every string in place
func interpolateAll(data any, env ConfigEnv) (any, error) {
	var err error
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			if v[key], err = interpolateAll(val, env); err != nil {
				return nil, err
			}
		}
	case []any:
		for i, item := range v {
			if v[i], err = interpolateAll(item, env); err != nil {
				return nil, err
			}
		}
	case string:
		return interpolate(v, env)
	}
	return data, nil
}

func ParseConfig(r io.Reader, env ConfigEnv) (*Config, error) {
	var raw map[string]any
	if err := toml.NewDecoder(r).Decode(&raw); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}

	if _, err := interpolateAll(raw, env); err != nil {
		return nil, fmt.Errorf("error processing expressions in config: %w", err)
	}

	cfg := new(Config)
	if err := decodeSection(raw, "package", &cfg.Package); err != nil {
		return nil, err
	}
	if err := decodeConditionalSection(raw, "tests", &cfg.Tests, env); err != nil {
		return nil, err
	}
	if err := decodeConditionalSection(raw, "messages", &cfg.Messages, env); err != nil {
		return nil, err
	}
	if err := decodeConditionalSection(raw, "binary", &cfg.Binary, env); err != nil {
		return nil, err
	}
	cfg.applyDefaults(env)

	if cfg.Package.Name == "" {
		return nil, errors.New("[package] name is required")
	}
	return cfg, nil
}

// ParseConfigFromFile parses the config file at path
func ParseConfigFromFile(path string, env ConfigEnv) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseConfig(f, env)
}

// ConfigEnv is the environment visible to config expressions
type ConfigEnv struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`
	basedir    string
}

func NewConfigEnv(basedir string) ConfigEnv {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			environ[k] = v
		}
	}

	return ConfigEnv{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Environ:    environ,
		basedir:    basedir,
	}
}

// ReadFile is callable from expressions, e.g. {{ ReadFile("VERSION") }}.
// Paths are resolved relative to the package directory and may not leave it.
func (env ConfigEnv) ReadFile(path string) (string, error) {
	full := filepath.Join(env.basedir, path)
	rel, err := filepath.Rel(env.basedir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside of package directory %q", path, env.basedir)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
