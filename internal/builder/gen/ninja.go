package gen

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/qobs-build/buildglue/internal/mc"
	"github.com/qobs-build/buildglue/internal/msg"
)

type NinjaGen struct {
	compiler string
	plans    map[string]*mc.Plan
}

func (g *NinjaGen) SetCompiler(compiler string) { g.compiler = compiler }

func (g *NinjaGen) BuildFile() string { return "build.ninja" }

var ninjaPathEscaper = strings.NewReplacer("$", "$$", ":", "$:", " ", "$ ")

// quote escapes a path for a build line
func quote(s string) string { return ninjaPathEscaper.Replace(filepath.ToSlash(s)) }

// shellVar renders words as a variable value that ends up in a command:
// shell quoted, then with $ escaped for ninja
func shellVar(words ...string) string {
	return strings.ReplaceAll(shellquote.Join(words...), "$", "$$")
}

func quoteAll(s []string) []string {
	out := make([]string, len(s))
	for i, str := range s {
		out[i] = quote(str)
	}
	return out
}

// AddPlan adds a message compile plan under a unique name
func (g *NinjaGen) AddPlan(name string, plan *mc.Plan) {
	if g.plans == nil {
		g.plans = make(map[string]*mc.Plan)
	}
	if _, exists := g.plans[name]; exists {
		msg.Warn("replacing message compile plan %s", name)
	}
	g.plans[name] = plan
}

func (g *NinjaGen) Generate() string {
	var sb strings.Builder

	compiler := g.compiler
	if compiler == "" {
		compiler = "mc"
	}

	writeln(&sb, "ninja_required_version = 1.1")
	writeln(&sb, "mc = ", shellVar(filepath.ToSlash(compiler)))
	writeln(&sb)
	write(&sb,
		`rule mc
  command = $mc $mcflags -h $outdir -r $outdir $in
  description = MC $in
`)
	writeln(&sb)

	names := make([]string, 0, len(g.plans))
	for name := range g.plans {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		plan := g.plans[name]
		writeln(&sb, "# ", name)
		for _, src := range plan.SourceFiles {
			outs := quoteAll(plan.OutputsFor(src))
			writeln(&sb, "build ", strings.Join(outs, " "), ": mc ", quote(src))
			if len(plan.Args) > 0 {
				writeln(&sb, "  mcflags = ", shellVar(plan.Args...))
			}
			writeln(&sb, "  outdir = ", shellVar(filepath.ToSlash(plan.OutputDir)))
		}
		writeln(&sb)
	}

	return sb.String()
}

func (g *NinjaGen) Invoke(ctx context.Context, buildDir string) error {
	cmd := exec.CommandContext(ctx, "ninja", "-C", buildDir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
