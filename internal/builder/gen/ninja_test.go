package gen

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"
	"github.com/qobs-build/buildglue/internal/mc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func windowsPlan(t *testing.T, root string, sources ...string) *mc.Plan {
	t.Helper()
	bin := &mc.Binary{
		Platform:      mc.Platform{OS: "windows", Arch: "amd64"},
		OutputRootDir: root,
		Args:          []string{"-u"},
	}
	plan, err := mc.Configure(mc.NewSourceSet("main", "mc", sources, nil), bin, nil)
	require.NoError(t, err)
	require.NotNil(t, plan)
	return plan
}

// ninjaWords finds the line starting with prefix, undoes ninja's $ escaping
// and splits the value the way the shell will
func ninjaWords(t *testing.T, out, prefix string) []string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if value, ok := strings.CutPrefix(line, prefix); ok {
			words, err := shellquote.Split(strings.ReplaceAll(value, "$$", "$"))
			require.NoError(t, err)
			return words
		}
	}
	t.Fatalf("no line starting with %q in:\n%s", prefix, out)
	return nil
}

func TestNinjaGenerate(t *testing.T) {
	g := &NinjaGen{}
	g.SetCompiler("C:/Program Files/mc.exe")
	g.AddPlan("Foundation", windowsPlan(t, "/build", "/src/pocomsg.mc", "/src/other.mc"))

	out := g.Generate()

	assert.Equal(t, []string{"C:/Program Files/mc.exe"}, ninjaWords(t, out, "mc = "))
	assert.Contains(t, out, "rule mc\n  command = $mc $mcflags -h $outdir -r $outdir $in\n")

	objs := filepath.ToSlash(filepath.Join("/build", "objs", "mainMc"))
	assert.Contains(t, out,
		"build "+objs+"/pocomsg.h "+objs+"/pocomsg.rc "+objs+"/pocomsg.msg: mc /src/pocomsg.mc\n"+
			"  mcflags = -u\n"+
			"  outdir = "+objs+"\n")
	assert.Equal(t, 2, strings.Count(out, ": mc "))
}

func TestNinjaGenerateIsSorted(t *testing.T) {
	g := &NinjaGen{}
	g.AddPlan("Net", windowsPlan(t, "/build/net", "/net/a.mc"))
	g.AddPlan("Data", windowsPlan(t, "/build/data", "/data/a.mc"))

	out := g.Generate()
	assert.Contains(t, out, "mc = mc\n")
	assert.Less(t, strings.Index(out, "# Data"), strings.Index(out, "# Net"))
	assert.Equal(t, out, g.Generate())
	assert.Equal(t, "build.ninja", g.BuildFile())
}

func TestNativeGenReportsPlan(t *testing.T) {
	g := NewNativeGen()
	g.SetCompiler(filepath.Join(t.TempDir(), "does-not-exist"))
	g.AddPlan("Foundation", windowsPlan(t, t.TempDir(), "a.mc"))

	assert.Empty(t, g.Generate())
	err := g.Invoke(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Foundation: "))
}

func TestNinjaQuotesCommandWords(t *testing.T) {
	plan := windowsPlan(t, "/build dir", "/src/pocomsg.mc")
	plan.Args = []string{"-x$dbg", "-z", "my base", "-u"}

	g := &NinjaGen{}
	g.SetCompiler("/opt/win sdk/mc")
	g.AddPlan("Foundation", plan)
	out := g.Generate()

	assert.Equal(t, []string{"/opt/win sdk/mc"}, ninjaWords(t, out, "mc = "))
	assert.Equal(t, plan.Args, ninjaWords(t, out, "  mcflags = "))
	assert.Equal(t, []string{filepath.ToSlash(plan.OutputDir)}, ninjaWords(t, out, "  outdir = "))
	assert.NotContains(t, out, "mcflags = -x$dbg")
}
