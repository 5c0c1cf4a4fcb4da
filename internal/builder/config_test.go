package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T, targetOS string) ConfigEnv {
	return ConfigEnv{
		TargetOS:   targetOS,
		TargetArch: "amd64",
		Environ:    map[string]string{"POCO_BASE": "/src/poco"},
		basedir:    t.TempDir(),
	}
}

const sampleConfig = `
[package]
name = "Foundation"

[tests]
suites = ["FoundationTestSuite"]

[messages]
sources = ["src/*.mc"]
headers = ["include/**"]

[binary]
lib = true
args = ["-u"]

[binary.defines]
POCO_STATIC = ""

[binary.'target_os == "windows"']
args = ["-U"]

[binary.'target_os == "windows"'.defines]
WINVER = "0x0600"
`

func TestParseConfigWindows(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(sampleConfig), testEnv(t, "windows"))
	require.NoError(t, err)

	assert.Equal(t, "Foundation", cfg.Package.Name)
	assert.Equal(t, []string{"FoundationTestSuite"}, cfg.Tests.Suites)
	assert.Equal(t, filepath.Join("build", "testsuite"), cfg.Tests.Output)
	assert.Equal(t, "main", cfg.Messages.Component)
	assert.Equal(t, "mc", cfg.Messages.Name)

	assert.True(t, cfg.Binary.Lib)
	assert.Equal(t, "windows", cfg.Binary.OS)
	assert.Equal(t, "amd64", cfg.Binary.Arch)
	assert.Equal(t, "visualCpp", cfg.Binary.Toolchain)
	assert.Equal(t, []string{"-u", "-U"}, cfg.Binary.Args)
	assert.Equal(t, map[string]string{"POCO_STATIC": "", "WINVER": "0x0600"}, cfg.Binary.Defines)
}

func TestParseConfigSkipsFalseConditions(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(sampleConfig), testEnv(t, "linux"))
	require.NoError(t, err)

	assert.Equal(t, "linux", cfg.Binary.OS)
	assert.Equal(t, []string{"-u"}, cfg.Binary.Args)
	assert.Equal(t, map[string]string{"POCO_STATIC": ""}, cfg.Binary.Defines)
}

func TestParseConfigInterpolation(t *testing.T) {
	env := testEnv(t, "windows")
	require.NoError(t, os.WriteFile(filepath.Join(env.basedir, "VERSION"), []byte("1.14.0\n"), 0644))

	cfg, err := ParseConfig(strings.NewReader(`
[package]
name = "Net"
description = "Poco {{ ReadFile(\"VERSION\") }} for {{ target_os }}"

[binary]
output = "{{ environ.POCO_BASE }}/out"
`), env)
	require.NoError(t, err)

	assert.Equal(t, "Poco 1.14.0 for windows", cfg.Package.Description)
	assert.Equal(t, "/src/poco/out", cfg.Binary.Output)
}

func TestParseConfigErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"missing name": "[package]\ndescription = \"x\"\n",
		"bad toml":     "[package\n",
		"bad expr":     "[package]\nname = \"{{ nope( }}\"\n",
		"escape":       "[package]\nname = \"{{ ReadFile(\\\"../secret\\\") }}\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig(strings.NewReader(doc), testEnv(t, "windows"))
			assert.Error(t, err)
		})
	}
}

func TestMergeStructs(t *testing.T) {
	dst := BinarySection{OS: "linux", Args: []string{"a"}}
	src := BinarySection{Arch: "arm64", Lib: true, Args: []string{"b"}, Defines: map[string]string{"X": "1"}}

	require.NoError(t, mergeStructs(&dst, src))
	assert.Equal(t, BinarySection{
		OS:      "linux",
		Arch:    "arm64",
		Lib:     true,
		Args:    []string{"a", "b"},
		Defines: map[string]string{"X": "1"},
	}, dst)

	assert.Error(t, mergeStructs(dst, src))
	assert.Error(t, mergeStructs(&dst, TestsSection{}))
}
