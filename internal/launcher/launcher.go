// Package launcher writes the CppUnit entry point that wires a test suite
// header into the Poco test runner.
package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/qobs-build/buildglue/internal/fault"
	"golang.org/x/sync/errgroup"
)

const (
	// Filename is the fixed name of the generated launcher source
	Filename = "qobs_cppunit_main.cpp"
	// RunnerHeader is included before the suite header
	RunnerHeader = "Poco/CppUnit/TestRunner.h"
	// RunnerMacro is invoked with the suite name
	RunnerMacro = "CppUnitMain"
)

var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TestSuite identifies the suite a launcher is generated for
type TestSuite struct {
	Name string
}

func (s TestSuite) validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("%w: empty test suite name", fault.ErrInvalidInput)
	case strings.ContainsAny(s.Name, `/\`):
		return fmt.Errorf("%w: test suite name %q contains a path separator", fault.ErrInvalidInput, s.Name)
	case !identRegex.MatchString(s.Name):
		return fmt.Errorf("%w: test suite name %q is not an identifier", fault.ErrInvalidInput, s.Name)
	}
	return nil
}

// Source renders the launcher for suite
func Source(suite TestSuite) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#include %q\n", RunnerHeader)
	fmt.Fprintf(&sb, "#include %q\n", suite.Name+".h")
	fmt.Fprintf(&sb, "%s(%s)\n", RunnerMacro, suite.Name)
	return sb.String()
}

// Generate writes the launcher for suite into outputDir, replacing any
// previous one, and returns the path written
func Generate(suite TestSuite, outputDir string) (string, error) {
	if err := suite.validate(); err != nil {
		return "", err
	}

	stat, err := os.Stat(outputDir)
	if err != nil {
		return "", fmt.Errorf("%w: output directory: %v", fault.ErrIO, err)
	}
	if !stat.IsDir() {
		return "", fmt.Errorf("%w: output path %s is not a directory", fault.ErrIO, outputDir)
	}

	path := filepath.Join(outputDir, Filename)
	if err := writeFileAtomic(path, []byte(Source(suite))); err != nil {
		return "", fmt.Errorf("%w: %v", fault.ErrIO, err)
	}
	return path, nil
}

// writeFileAtomic never leaves a partially written file at path
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// GenerateAll writes one launcher per suite, each into its own
// rootDir/<name> directory, and returns the written paths in suite order
func GenerateAll(ctx context.Context, suites []TestSuite, rootDir string) ([]string, error) {
	seen := make(map[string]bool, len(suites))
	for _, suite := range suites {
		if err := suite.validate(); err != nil {
			return nil, err
		}
		if seen[suite.Name] {
			return nil, fmt.Errorf("%w: duplicate test suite %q", fault.ErrInvalidInput, suite.Name)
		}
		seen[suite.Name] = true
	}

	paths := make([]string, len(suites))
	eg, ctx := errgroup.WithContext(ctx)
	for i, suite := range suites {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dir := filepath.Join(rootDir, suite.Name)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("%w: %v", fault.ErrIO, err)
			}
			path, err := Generate(suite, dir)
			if err != nil {
				return fmt.Errorf("test suite %s: %w", suite.Name, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
