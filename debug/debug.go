// Package debug contains helpers for debugging and testing the
// dominance analyses on small programs.
package debug

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// BuildSSA parses, type-checks and builds SSA form for a single-file
// Go package from a string. The package may only import packages
// known to the default importer.
func BuildSSA(src string, mode ssa.BuilderMode) (*ssa.Package, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "foo.go", src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}
	pkg := types.NewPackage("foo", f.Name.Name)
	tcfg := &types.Config{
		Importer: importer.Default(),
	}
	ssapkg, _, err := ssautil.BuildPackage(tcfg, fset, pkg, []*ast.File{f}, mode)
	if err != nil {
		return nil, err
	}
	return ssapkg, nil
}
