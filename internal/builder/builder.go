package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/qobs-build/buildglue/internal/builder/gen"
	"github.com/qobs-build/buildglue/internal/launcher"
	"github.com/qobs-build/buildglue/internal/mc"
	"github.com/qobs-build/buildglue/internal/msg"
)

const (
	GeneratorNative = "native"
	GeneratorNinja  = "ninja"
)

var errNoMessages = errors.New("package has no message sources ([messages] sources is empty)")

type Builder struct {
	cfg     *Config
	basedir string
	env     ConfigEnv
}

// NewBuilderInDirectory loads Glue.toml from path. A non-empty targetOS
// overrides the host OS seen by config expressions.
func NewBuilderInDirectory(path, targetOS string) (*Builder, error) {
	var err error
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	env := NewConfigEnv(path)
	if targetOS != "" {
		env.TargetOS = targetOS
	}
	cfg, err := ParseConfigFromFile(filepath.Join(path, ConfigFilename), env)
	if err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, basedir: path, env: env}, nil
}

func (b *Builder) Config() *Config { return b.cfg }

// collectFiles resolves glob patterns relative to the package directory.
// With dirsOnly set, matched files are replaced by their parent directory.
func (b *Builder) collectFiles(patterns []string, dirsOnly bool) ([]string, error) {
	var files []string
	dirs := make(map[string]struct{})
	fsys := os.DirFS(b.basedir)

	var opts []doublestar.GlobOption
	if !dirsOnly {
		opts = append(opts, doublestar.WithFilesOnly())
	}

	for _, pat := range patterns {
		if filepath.IsAbs(pat) {
			files = append(files, filepath.Clean(pat))
			continue
		}
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pat), opts...)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pat, err)
		}
		for _, match := range matches {
			abs := filepath.Join(b.basedir, filepath.FromSlash(match))
			if !dirsOnly {
				files = append(files, abs)
				continue
			}
			if stat, err := os.Stat(abs); err == nil && !stat.IsDir() {
				abs = filepath.Dir(abs)
			}
			dirs[abs] = struct{}{}
		}
	}

	for dir := range dirs {
		files = append(files, dir)
	}
	return files, nil
}

func (b *Builder) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.basedir, path)
}

// GenerateLaunchers writes a CppUnit launcher for every configured suite
func (b *Builder) GenerateLaunchers(ctx context.Context) ([]string, error) {
	suites := make([]launcher.TestSuite, 0, len(b.cfg.Tests.Suites))
	for _, name := range b.cfg.Tests.Suites {
		suites = append(suites, launcher.TestSuite{Name: name})
	}
	return launcher.GenerateAll(ctx, suites, b.resolve(b.cfg.Tests.Output))
}

// Binary describes the configured target binary
func (b *Builder) Binary() *mc.Binary {
	bin := b.cfg.Binary
	return &mc.Binary{
		ToolchainID:     bin.Toolchain,
		Platform:        mc.Platform{OS: bin.OS, Arch: bin.Arch},
		OutputRootDir:   b.resolve(bin.Output),
		IsStaticArchive: bin.Lib,
		Macros:          bin.Defines,
		Args:            bin.Args,
	}
}

// SourceSet collects the configured message sources and header dirs
func (b *Builder) SourceSet() (*mc.SourceSet, error) {
	m := b.cfg.Messages
	sources, err := b.collectFiles(m.Sources, false)
	if err != nil {
		return nil, fmt.Errorf("failed to collect message sources: %w", err)
	}
	headers, err := b.collectFiles(m.Headers, true)
	if err != nil {
		return nil, fmt.Errorf("failed to collect header dirs: %w", err)
	}
	return mc.NewSourceSet(m.Component, m.Name, sources, headers), nil
}

// PlanMessages configures the message compile for the package binary.
// The plan is nil when the binary does not target Windows.
func (b *Builder) PlanMessages() (*mc.Plan, *mc.Binary, error) {
	bin := b.Binary()
	if !bin.IsWindowsTarget() {
		return nil, bin, nil
	}
	if len(b.cfg.Messages.Sources) == 0 {
		return nil, nil, errNoMessages
	}
	set, err := b.SourceSet()
	if err != nil {
		return nil, nil, err
	}
	plan, err := mc.Configure(set, bin, mc.DefaultNaming)
	if err != nil {
		return nil, nil, err
	}
	return plan, bin, nil
}

func createGenerator(generator string) gen.Generator {
	switch generator {
	case GeneratorNinja:
		return &gen.NinjaGen{}
	case GeneratorNative:
		return gen.NewNativeGen()
	default:
		panic("createGenerator: unreachable")
	}
}

// BuildMessages plans the message compile and hands it to the generator
func (b *Builder) BuildMessages(ctx context.Context, generator string) error {
	plan, bin, err := b.PlanMessages()
	if err != nil {
		return err
	}
	if plan == nil {
		msg.Info("skipping message compile: %s is not a Windows target", bin.Platform)
		return nil
	}

	buildDir := bin.OutputRootDir
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return err
	}

	g := createGenerator(generator)
	g.SetCompiler(mc.FindCompiler())
	g.AddPlan(b.cfg.Package.Name, plan)

	if out := g.Generate(); out != "" {
		buildFile := filepath.Join(buildDir, g.BuildFile())
		if err := os.WriteFile(buildFile, []byte(out), 0644); err != nil {
			return err
		}
	}

	return g.Invoke(ctx, buildDir)
}
