package mc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"github.com/qobs-build/buildglue/internal/msg"
	"golang.org/x/sync/errgroup"
)

// windmc is the binutils spelling, found on mingw cross toolchains
var commonMessageCompilers = []string{"mc", "windmc"}

var errNoCompiler = errors.New("no message compiler found (set MC or put mc/windmc on PATH)")

// FindCompiler looks for a message compiler: $MC first, then PATH
func FindCompiler() string {
	if mc := os.Getenv("MC"); mc != "" {
		return mc
	}
	for _, compiler := range commonMessageCompilers {
		path, err := exec.LookPath(compiler)
		if err == nil {
			return path
		}
	}
	return ""
}

// Command returns the argv that compiles src. Both the header and the
// resource script land in the plan's output directory.
func (p *Plan) Command(compiler, src string) []string {
	argv := make([]string, 0, len(p.Args)+6)
	argv = append(argv, compiler)
	argv = append(argv, p.Args...)
	argv = append(argv, "-h", p.OutputDir, "-r", p.OutputDir, src)
	return argv
}

type RunOptions struct {
	// Compiler overrides FindCompiler
	Compiler string
	// Jobs limits parallel compiler processes, defaults to runtime.NumCPU()
	Jobs int
	// Output receives compiler output, defaults to os.Stdout
	Output io.Writer
}

// lockedWriter serializes writes coming from parallel jobs
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Run invokes the message compiler once per source of plan
func Run(ctx context.Context, plan *Plan, opts RunOptions) error {
	compiler := opts.Compiler
	if compiler == "" {
		compiler = FindCompiler()
	}
	if compiler == "" {
		return errNoCompiler
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	out = &lockedWriter{w: out}

	if err := os.MkdirAll(plan.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)

	for _, src := range plan.SourceFiles {
		eg.Go(func() error {
			argv := plan.Command(compiler, src)
			cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
			w := &msg.IndentWriter{Indent: "    ", W: out}
			cmd.Stdout = w
			cmd.Stderr = w

			msg.Step("MC", "%s", src)
			if err := cmd.Run(); err != nil {
				return fmt.Errorf("message compiler failed on %s: %w", src, err)
			}
			return nil
		})
	}

	return eg.Wait()
}
