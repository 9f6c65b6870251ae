package generate

import (
	"fmt"
	"go/ast"
	"go/build"
	"go/constant"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/classnames/internal/suggest"
	"github.com/hyperjump/classnames/pkg/classnames"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// directive is one //classnames:const annotation found in the source.
type directive struct {
	name string
	pos  token.Pos
	call *ast.CallExpr
	file *ast.File
}

// pkgSource is a parsed, type-checked package directory.
type pkgSource struct {
	name  string
	fset  *token.FileSet
	files []*ast.File
	pkg   *types.Package
	info  *types.Info

	excluded []string // file names rejected by the build context
}

// parseDir parses the non-test, non-generated Go files of dir that the build
// context selects, so build tags and GOOS/GOARCH suffixes are honored.
// Previous output is skipped by suffix.
func (g *Generator) parseDir(dir string) (*pkgSource, error) {
	ctxt := g.opts.BuildContext
	if ctxt == nil {
		ctxt = &build.Default
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read package dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	var excluded []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if strings.HasSuffix(name, g.opts.OutputSuffix) {
			continue
		}
		match, err := ctxt.MatchFile(dir, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read build constraints of %s: %w", name, err)
		}
		if !match {
			g.logger.Debug("skipping file excluded by build constraints", zap.String("file", filepath.Join(dir, name)))
			excluded = append(excluded, name)
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	sort.Strings(excluded)
	src := &pkgSource{fset: token.NewFileSet(), excluded: excluded}
	for _, name := range names {
		path := filepath.Join(dir, name)
		f, err := parser.ParseFile(src.fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		if ast.IsGenerated(f) {
			g.logger.Debug("skipping generated file", zap.String("file", path))
			continue
		}
		if src.name == "" {
			src.name = f.Name.Name
		} else if f.Name.Name != src.name {
			return nil, fmt.Errorf("multiple packages in %s: %s and %s", dir, src.name, f.Name.Name)
		}
		src.files = append(src.files, f)
	}
	if len(src.files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoGoFiles)
	}
	return src, nil
}

// typeCheck records constant values for every expression in the package.
// Type errors are tolerated: unresolved imports only matter if a directive
// argument depends on them, and that is reported as a diagnostic.
func (g *Generator) typeCheck(src *pkgSource) {
	src.info = &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
	}
	conf := types.Config{
		Importer: importer.ForCompiler(src.fset, "source", nil),
		Error: func(err error) {
			g.logger.Debug("type check", zap.Error(err))
		},
	}
	src.pkg, _ = conf.Check(src.name, src.fset, src.files, src.info)
}

// findDirectives collects annotated var specs in source order.
func (g *Generator) findDirectives(src *pkgSource) ([]directive, error) {
	var out []directive
	var errs error
	for _, f := range src.files {
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.VAR {
				continue
			}
			for _, spec := range gd.Specs {
				vs := spec.(*ast.ValueSpec)
				doc := vs.Doc
				if doc == nil && !gd.Lparen.IsValid() {
					doc = gd.Doc
				}
				name, pos, found := g.parseDirective(doc)
				if !found {
					g.warnMisspelled(src, doc)
					continue
				}
				d, err := g.directiveFor(src, f, vs, name, pos)
				if err != nil {
					errs = multierr.Append(errs, err)
					continue
				}
				out = append(out, d)
			}
		}
	}
	return out, errs
}

// parseDirective looks for "//<directive> Name" in a comment group.
func (g *Generator) parseDirective(doc *ast.CommentGroup) (string, token.Pos, bool) {
	if doc == nil {
		return "", token.NoPos, false
	}
	prefix := "//" + g.opts.Directive
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, prefix) {
			continue
		}
		rest := c.Text[len(prefix):]
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}
		fields := strings.Fields(rest)
		name := ""
		if len(fields) > 0 {
			name = fields[0]
		}
		return name, c.Slash, true
	}
	return "", token.NoPos, false
}

// warnMisspelled logs comments that look like a mistyped directive. They are
// not errors: the var may simply not be meant for folding.
func (g *Generator) warnMisspelled(src *pkgSource, doc *ast.CommentGroup) {
	if doc == nil {
		return
	}
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, "//") || strings.HasPrefix(c.Text, "// ") {
			continue
		}
		fields := strings.Fields(c.Text[2:])
		if len(fields) == 0 {
			continue
		}
		if _, ok := suggest.Closest(fields[0], []string{g.opts.Directive}, 2); ok {
			g.logger.Warn("comment looks like a misspelled directive",
				zap.String("pos", src.fset.Position(c.Slash).String()),
				zap.String("found", fields[0]),
				zap.String("want", g.opts.Directive),
			)
		}
	}
}

func (g *Generator) directiveFor(src *pkgSource, f *ast.File, vs *ast.ValueSpec, name string, pos token.Pos) (directive, error) {
	diag := func(msg string) error {
		return &Diagnostic{Pos: src.fset.Position(pos), Name: name, Msg: msg}
	}
	if name == "" {
		return directive{}, diag("missing constant name after directive")
	}
	if !token.IsIdentifier(name) {
		return directive{}, diag(fmt.Sprintf("%q is not a valid Go identifier", name))
	}
	if len(vs.Names) != 1 || len(vs.Values) != 1 {
		return directive{}, diag("directive must annotate a single name with a single value")
	}
	call, ok := ast.Unparen(vs.Values[0]).(*ast.CallExpr)
	if !ok || !g.isConcat(f, call.Fun) {
		return directive{}, diag("value must be a call to classnames.Concat")
	}
	if call.Ellipsis.IsValid() {
		return directive{}, &Diagnostic{
			Pos:  src.fset.Position(call.Ellipsis),
			Name: name,
			Msg:  "spread arguments cannot be resolved at build time",
		}
	}
	return directive{name: name, pos: pos, call: call, file: f}, nil
}

// isConcat reports whether fun refers to Concat in the classnames package as
// imported by f.
func (g *Generator) isConcat(f *ast.File, fun ast.Expr) bool {
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != g.opts.ImportPath {
			continue
		}
		local := filepath.Base(path)
		if imp.Name != nil {
			local = imp.Name.Name
		}
		switch fn := ast.Unparen(fun).(type) {
		case *ast.SelectorExpr:
			x, ok := fn.X.(*ast.Ident)
			if ok && x.Name == local && fn.Sel.Name == "Concat" {
				return true
			}
		case *ast.Ident:
			if local == "." && fn.Name == "Concat" {
				return true
			}
		}
	}
	return false
}

// fold evaluates every argument of d as a constant string and runs them
// through classnames.Concat.
func (g *Generator) fold(src *pkgSource, d directive) (string, error) {
	var errs error
	parts := make([]string, 0, len(d.call.Args))
	for i, arg := range d.call.Args {
		tv, ok := src.info.Types[arg]
		if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
			errs = multierr.Append(errs, &Diagnostic{
				Pos:  src.fset.Position(arg.Pos()),
				Name: d.name,
				Arg:  i + 1,
				Expr: types.ExprString(arg),
				Msg:  "is not a compile-time constant string",
			})
			continue
		}
		parts = append(parts, constant.StringVal(tv.Value))
	}
	if errs != nil {
		return "", errs
	}
	return classnames.Concat(parts...), nil
}
