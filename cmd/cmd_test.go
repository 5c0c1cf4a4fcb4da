package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/qobs-build/buildglue/internal/builder"
	"github.com/qobs-build/buildglue/internal/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumValue(t *testing.T) {
	e := NewEnumValue("native", map[string]string{"native": "", "ninja": ""})
	assert.Equal(t, "native", e.Value())
	assert.Equal(t, "[native, ninja]", e.HelpString())

	require.NoError(t, e.Set("ninja"))
	assert.Equal(t, "ninja", e.String())

	assert.EqualError(t, e.Set("make"), "must be one of: native, ninja")
	assert.Equal(t, "ninja", e.Value())

	assert.Panics(t, func() { NewEnumValue("make", map[string]string{"ninja": ""}) })
}

func TestInitCreatesUsablePackage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Foundation")
	mkdir(dir)
	initIn(dir, "Foundation")

	b, err := builder.NewBuilderInDirectory(dir, "windows")
	require.NoError(t, err)

	plan, bin, err := b.PlanMessages()
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, []string{filepath.Join(dir, "src", "foundation.mc")}, plan.SourceFiles)
	assert.Equal(t, []string{"-u"}, plan.Args)
	assert.Equal(t, plan.GeneratedResourceFiles, bin.ExtraLinkFiles())

	paths, err := b.GenerateLaunchers(context.Background())
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, launcher.Filename, filepath.Base(paths[0]))

	_, err = os.Stat(filepath.Join(dir, "testsuite", "src", "FoundationTestSuite.h"))
	assert.NoError(t, err)
}
