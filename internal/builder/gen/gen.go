package gen

import (
	"context"

	"github.com/qobs-build/buildglue/internal/mc"
)

// Generator turns message compile plans into either a build file for an
// external tool or a direct compiler invocation
type Generator interface {
	SetCompiler(mc string)
	AddPlan(name string, plan *mc.Plan)
	Generate() string
	BuildFile() string
	Invoke(ctx context.Context, buildDir string) error
}
