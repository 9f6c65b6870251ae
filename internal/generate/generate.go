// Package generate folds constant classnames.Concat calls into Go consts.
//
// A package opts in by annotating a package-level var with a directive:
//
//	//classnames:const ButtonClass
//	var buttonClass = classnames.Concat(BaseStyle, "  lg ", ThemePrimary)
//
// Every argument must be a compile-time constant string. The generator
// writes <pkg>_classnames.go with `const ButtonClass = "btn lg primary"`,
// computed by the same classnames.Concat used at run time. Arguments that
// cannot be resolved are reported as *Diagnostic errors naming the argument.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/build"
	"go/format"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultImportPath is the import path of the classnames library.
const DefaultImportPath = "github.com/hyperjump/classnames/pkg/classnames"

// Options configures a Generator.
type Options struct {
	Directive    string // comment directive without the leading "//"
	OutputSuffix string // appended to the package name to form the output file name
	ImportPath   string // import path whose Concat is folded
	Check        bool   // compare instead of writing

	// BuildContext selects the files of a package (build tags, GOOS,
	// GOARCH). Nil means build.Default, the context of the running tool.
	BuildContext *build.Context
}

// Const is one folded constant.
type Const struct {
	Name  string         `json:"name"`
	Value string         `json:"value"`
	Pos   token.Position `json:"pos"`
}

// Result describes one generation run over a package directory.
type Result struct {
	Dir     string  `json:"dir"`
	Package string  `json:"package"`
	Output  string  `json:"output"`
	Consts  []Const `json:"consts"`
	Written bool    `json:"written"`
	Removed bool    `json:"removed"`

	// Excluded lists files left out by build constraints; the consts were
	// folded for the generator's GOOS/GOARCH and tags only.
	Excluded []string `json:"excluded,omitempty"`
}

// Generator folds directives for one package directory at a time.
type Generator struct {
	opts   Options
	logger *zap.Logger
}

// New returns a generator. Zero option fields get defaults; logger may be nil.
func New(opts Options, logger *zap.Logger) *Generator {
	if opts.Directive == "" {
		opts.Directive = "classnames:const"
	}
	if opts.OutputSuffix == "" {
		opts.OutputSuffix = "_classnames.go"
	}
	if opts.ImportPath == "" {
		opts.ImportPath = DefaultImportPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{opts: opts, logger: logger}
}

// Generate scans dir, folds every directive and writes (or, in check mode,
// verifies) the output file. When diagnostics are found nothing is written
// and the returned error combines all of them.
func (g *Generator) Generate(ctx context.Context, dir string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid dir: %w", err)
	}

	src, err := g.parseDir(abs)
	if err != nil {
		return nil, err
	}
	output := filepath.Join(abs, src.name+g.opts.OutputSuffix)
	res := &Result{Dir: abs, Package: src.name, Output: output, Excluded: src.excluded}

	g.typeCheck(src)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	directives, errs := g.findDirectives(src)
	seen := make(map[string]bool, len(directives))
	for _, d := range directives {
		if seen[d.name] {
			errs = multierr.Append(errs, &Diagnostic{
				Pos: src.fset.Position(d.pos), Name: d.name, Msg: "declared more than once",
			})
			continue
		}
		seen[d.name] = true
		if src.pkg != nil && src.pkg.Scope().Lookup(d.name) != nil {
			errs = multierr.Append(errs, &Diagnostic{
				Pos: src.fset.Position(d.pos), Name: d.name, Msg: "already declared in package " + src.name,
			})
			continue
		}
		value, err := g.fold(src, d)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		res.Consts = append(res.Consts, Const{Name: d.name, Value: value, Pos: src.fset.Position(d.pos)})
	}
	if errs != nil {
		return nil, errs
	}

	g.logger.Debug("folded directives",
		zap.String("dir", abs),
		zap.String("package", src.name),
		zap.Int("consts", len(res.Consts)),
	)

	if len(res.Consts) == 0 {
		return res, g.removeStale(res)
	}

	content, err := render(src.name, abs, res.Consts)
	if err != nil {
		return nil, err
	}
	return res, g.writeOrCheck(res, content)
}

// GenerateAll runs Generate for every dir in order. Errors from individual
// directories are combined; results of the directories that succeeded are
// still returned.
func (g *Generator) GenerateAll(ctx context.Context, dirs []string) ([]*Result, error) {
	var results []*Result
	var errs error
	for _, dir := range dirs {
		res, err := g.Generate(ctx, dir)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return results, multierr.Append(errs, ctxErr)
			}
			errs = multierr.Append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// PackageDirs returns root and, when recursive, every directory below it
// holding non-test Go files. Directories the go tool ignores (testdata,
// vendor, names starting with "." or "_") are skipped.
func PackageDirs(root string, recursive bool) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid dir: %w", err)
	}
	if !recursive {
		return []string{abs}, nil
	}
	var dirs []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != abs && (name == "testdata" || name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			return filepath.SkipDir
		}
		if hasGoFiles(path) {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}

func hasGoFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			return true
		}
	}
	return false
}

func (g *Generator) writeOrCheck(res *Result, content []byte) error {
	existing, err := os.ReadFile(res.Output)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", res.Output, err)
	}
	if err == nil && bytes.Equal(existing, content) {
		return nil
	}
	if g.opts.Check {
		return fmt.Errorf("%s: %w", res.Output, ErrStale)
	}
	if err := os.WriteFile(res.Output, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", res.Output, err)
	}
	res.Written = true
	g.logger.Info("generated", zap.String("file", res.Output), zap.Int("consts", len(res.Consts)))
	return nil
}

// removeStale deletes an output file left over from directives that no
// longer exist.
func (g *Generator) removeStale(res *Result) error {
	if _, err := os.Stat(res.Output); err != nil {
		return nil
	}
	if g.opts.Check {
		return fmt.Errorf("%s: %w", res.Output, ErrStale)
	}
	if err := os.Remove(res.Output); err != nil {
		return fmt.Errorf("failed to remove %s: %w", res.Output, err)
	}
	res.Removed = true
	g.logger.Info("removed stale output", zap.String("file", res.Output))
	return nil
}

func render(pkg, dir string, consts []Const) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("// Code generated by classnames generate. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	buf.WriteString("const (\n")
	for _, c := range consts {
		rel, err := filepath.Rel(dir, c.Pos.Filename)
		if err != nil {
			rel = filepath.Base(c.Pos.Filename)
		}
		fmt.Fprintf(&buf, "\t// %s is folded from %s:%d.\n", c.Name, filepath.ToSlash(rel), c.Pos.Line)
		fmt.Fprintf(&buf, "\t%s = %s\n", c.Name, strconv.Quote(c.Value))
	}
	buf.WriteString(")\n")

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code: %w", err)
	}
	return out, nil
}
