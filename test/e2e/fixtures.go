package e2e

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ImportPath is the classnames library import path used in fixture packages.
const ImportPath = "github.com/hyperjump/classnames/pkg/classnames"

// ConstName is the folded constant name of a case.
func ConstName(c Case) string {
	return c.Name + "Class"
}

// PackageSource renders a Go package with one //classnames:const directive
// per case. Every other fragment goes through a named constant so the
// generator has to resolve identifiers as well as literals.
func PackageSource(pkg string, cases []Case) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	fmt.Fprintf(&buf, "import %q\n\n", ImportPath)
	for i, c := range cases {
		var args []string
		for j, p := range c.Parts {
			if j%2 == 1 {
				name := fmt.Sprintf("part%d_%d", i, j)
				fmt.Fprintf(&buf, "const %s = %s\n", name, strconv.Quote(p))
				args = append(args, name)
				continue
			}
			args = append(args, strconv.Quote(p))
		}
		fmt.Fprintf(&buf, "\n//classnames:const %s\n", ConstName(c))
		fmt.Fprintf(&buf, "var v%d = classnames.Concat(", i)
		for k, a := range args {
			if k > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(a)
		}
		buf.WriteString(")\n\n")
	}
	return buf.Bytes()
}

// WritePackage writes PackageSource for cases into dir/<pkg>.go, creating dir.
func WritePackage(dir, pkg string, cases []Case) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, pkg+".go")
	if err := os.WriteFile(path, PackageSource(pkg, cases), 0644); err != nil {
		return "", err
	}
	return path, nil
}
