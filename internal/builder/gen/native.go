package gen

import (
	"context"
	"fmt"
	"slices"

	"github.com/qobs-build/buildglue/internal/mc"
)

// NativeGen runs the message compiler directly, no build file is written
type NativeGen struct {
	compiler string
	plans    map[string]*mc.Plan
	Jobs     int
}

func NewNativeGen() *NativeGen {
	return &NativeGen{plans: make(map[string]*mc.Plan)}
}

func (g *NativeGen) SetCompiler(compiler string) { g.compiler = compiler }

func (g *NativeGen) BuildFile() string { return "" }

func (g *NativeGen) AddPlan(name string, plan *mc.Plan) { g.plans[name] = plan }

func (g *NativeGen) Generate() string {
	return "" // nothing to write
}

func (g *NativeGen) Invoke(ctx context.Context, buildDir string) error {
	names := make([]string, 0, len(g.plans))
	for name := range g.plans {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		opts := mc.RunOptions{Compiler: g.compiler, Jobs: g.Jobs}
		if err := mc.Run(ctx, g.plans[name], opts); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
