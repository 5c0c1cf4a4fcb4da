// Package mc plans Windows message compiler runs for a binary and feeds the
// generated resources back into that binary's link inputs.
package mc

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/qobs-build/buildglue/internal/fault"
)

const (
	// ObjsCategory is the output category passed to the naming policy
	ObjsCategory = "objs"
	// ResourceSuffix marks the declared outputs that are linked into the binary
	ResourceSuffix = ".msg"
	// SourceSuffix is the message definition file extension
	SourceSuffix = ".mc"
)

// NamingPolicy maps (root dir, category, scoped name) to an output directory
type NamingPolicy func(rootDir, category, scopeName string) string

// DefaultNaming lays outputs out as rootDir/category/scopeName
func DefaultNaming(rootDir, category, scopeName string) string {
	return filepath.Join(rootDir, category, scopeName)
}

// SourceSet is a group of message definition files of one component.
// Header dirs may still be added after a plan has been configured.
type SourceSet struct {
	Component   string
	Name        string
	SourceFiles []string
	headerDirs  []string
}

func NewSourceSet(component, name string, sources, headerDirs []string) *SourceSet {
	set := &SourceSet{Component: component, Name: name, SourceFiles: slices.Clone(sources)}
	set.AddHeaderDirs(headerDirs...)
	return set
}

// AddHeaderDirs exports more header directories to dependents
func (s *SourceSet) AddHeaderDirs(dirs ...string) {
	s.headerDirs = append(s.headerDirs, dirs...)
}

// HeaderDirs returns the exported header directories, deduplicated and sorted
func (s *SourceSet) HeaderDirs() []string {
	return uniqueSorted(s.headerDirs)
}

// ScopedName joins component and set name in lower camel case: main + mc = mainMc
func (s *SourceSet) ScopedName() string {
	if s.Component == "" {
		return s.Name
	}
	r, size := utf8.DecodeRuneInString(s.Name)
	if size == 0 {
		return s.Component
	}
	return s.Component + string(unicode.ToUpper(r)) + s.Name[size:]
}

// Platform describes the machine a binary is built for
type Platform struct {
	OS   string
	Arch string
}

func (p Platform) IsWindows() bool { return strings.EqualFold(p.OS, "windows") }

func (p Platform) String() string { return p.OS + "/" + p.Arch }

// Binary is a target binary that message resources get linked into
type Binary struct {
	ToolchainID     string
	Platform        Platform
	OutputRootDir   string
	IsStaticArchive bool
	Macros          map[string]string
	Args            []string

	inputs         []string
	extraLinkFiles []string
}

func (b *Binary) IsWindowsTarget() bool { return b.Platform.IsWindows() }

// AddInputs registers additional files to be linked into the binary
func (b *Binary) AddInputs(files ...string) { b.inputs = append(b.inputs, files...) }

// AddExtraLinkFiles registers files consumers of a static archive must link
func (b *Binary) AddExtraLinkFiles(files ...string) {
	b.extraLinkFiles = append(b.extraLinkFiles, files...)
}

func (b *Binary) Inputs() []string { return uniqueSorted(b.inputs) }

func (b *Binary) ExtraLinkFiles() []string { return uniqueSorted(b.extraLinkFiles) }

// Plan describes one message compile task. It is consumed by whoever runs
// the compiler (see Run and the ninja generator).
type Plan struct {
	SourceFiles            []string
	OutputDir              string
	Macros                 map[string]string
	Args                   []string
	GeneratedResourceFiles []string

	set *SourceSet
}

// IncludeDirs reads the source set's header dirs at call time, so dirs added
// after Configure are included
func (p *Plan) IncludeDirs() []string {
	return p.set.HeaderDirs()
}

// OutputsFor lists the header, resource script and message resource the
// compiler produces for src
func (p *Plan) OutputsFor(src string) []string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return []string{
		filepath.Join(p.OutputDir, base+".h"),
		filepath.Join(p.OutputDir, base+".rc"),
		filepath.Join(p.OutputDir, base+ResourceSuffix),
	}
}

// DeclaredOutputs lists the outputs of every source
func (p *Plan) DeclaredOutputs() []string {
	var outputs []string
	for _, src := range p.SourceFiles {
		outputs = append(outputs, p.OutputsFor(src)...)
	}
	return uniqueSorted(outputs)
}

// Configure plans the message compile for set into bin. Non-Windows targets
// return a nil plan and leave bin untouched. On success the generated
// resources are registered as inputs of bin, and also as extra link files
// when bin is a static archive.
func Configure(set *SourceSet, bin *Binary, naming NamingPolicy) (*Plan, error) {
	if set == nil || bin == nil {
		return nil, fmt.Errorf("%w: nil source set or binary", fault.ErrInvalidInput)
	}
	if !bin.IsWindowsTarget() {
		return nil, nil
	}
	if len(set.SourceFiles) == 0 {
		return nil, fmt.Errorf("%w: message source set %q has no source files", fault.ErrInvalidInput, set.ScopedName())
	}
	if err := checkOutputClashes(set); err != nil {
		return nil, err
	}
	if naming == nil {
		naming = DefaultNaming
	}

	plan := &Plan{
		SourceFiles: uniqueSorted(set.SourceFiles),
		OutputDir:   naming(bin.OutputRootDir, ObjsCategory, set.ScopedName()),
		Macros:      maps.Clone(bin.Macros),
		Args:        slices.Clone(bin.Args),
		set:         set,
	}
	for _, out := range plan.DeclaredOutputs() {
		if strings.HasSuffix(out, ResourceSuffix) {
			plan.GeneratedResourceFiles = append(plan.GeneratedResourceFiles, out)
		}
	}

	bin.AddInputs(plan.GeneratedResourceFiles...)
	if bin.IsStaticArchive {
		bin.AddExtraLinkFiles(plan.GeneratedResourceFiles...)
	}
	return plan, nil
}

// checkOutputClashes rejects sources that share a base name, since the
// compiler writes all outputs of a plan into one directory
func checkOutputClashes(set *SourceSet) error {
	owners := make(map[string]string)
	for _, src := range uniqueSorted(set.SourceFiles) {
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		if prev, ok := owners[base]; ok {
			return fmt.Errorf("%w: message sources %s and %s both produce %s outputs in %q",
				fault.ErrInvalidInput, prev, src, base, set.ScopedName())
		}
		owners[base] = src
	}
	return nil
}

func uniqueSorted(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := slices.Clone(s)
	slices.Sort(out)
	return slices.Compact(out)
}
