package domcmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"honnef.co/go/domfront/cfgtext"
	"honnef.co/go/domfront/dom"
	"honnef.co/go/domfront/gonumcfg"
	"honnef.co/go/domfront/ssacfg"
)

// A runner analyzes the inputs of a single run of the command.
type runner struct {
	cmd  *Command
	dir  string
	opts *options
	f    cfgtext.Formatter

	// failed is set once an input could not be analyzed. The
	// remaining inputs are still processed.
	failed bool
}

func (r *runner) fail(name string, err error) {
	r.failed = true
	var serr *cfgtext.SyntaxError
	if errors.As(err, &serr) {
		r.cmd.log.Printf("%s:%s", name, serr)
	} else {
		r.cmd.log.Printf("%s: %s", name, err)
	}
}

// files analyzes textual graphs read from the named files, or from
// standard input if there are none.
func (r *runner) files(paths []string) {
	if len(paths) == 0 {
		r.file("<stdin>", "", "")
		return
	}
	for _, path := range paths {
		name := path
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.dir, path)
		}
		r.file(name, name, path)
	}
}

// file analyzes a single textual graph read from path, or from
// standard input if path is empty. The result is reported under name
// and errors under display.
func (r *runner) file(display, name, path string) {
	in := r.cmd.stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			r.fail(display, err)
			return
		}
		defer f.Close()
		in = f
	}
	g, err := cfgtext.Parse(in, r.opts.orientation)
	if err != nil {
		r.fail(display, err)
		return
	}
	if err := r.analyze(name, g, r.opts.entry, nil); err != nil {
		r.fail(display, err)
	}
}

// analyze runs the dominance analysis on g and writes the result. If
// fn is not nil, g was built from it.
func (r *runner) analyze(name string, g dom.Graph, entry dom.Node, fn *ssa.Function) error {
	a, err := r.opts.solver.Analyze(g, entry)
	if err != nil {
		return err
	}
	if r.cmd.flags.debugVerify {
		if err := gonumcfg.Verify(g, entry, a.Idom); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		if fn != nil {
			if err := ssacfg.Verify(fn, a.Idom); err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}
		}
	}
	return r.f.Format(cfgtext.Result{Name: name, Analysis: a})
}

// packages analyzes every function of the named Go packages.
func (r *runner) packages(patterns []string) error {
	cfg := &packages.Config{
		Mode:  packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles | packages.NeedImports | packages.NeedDeps | packages.NeedTypes | packages.NeedTypesSizes | packages.NeedSyntax | packages.NeedTypesInfo,
		Tests: r.cmd.flags.tests,
		Dir:   r.dir,
	}
	if len(r.opts.tags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(r.opts.tags, ",")}
	}

	// Load, parse and type-check the initial packages.
	initial, err := packages.Load(cfg, patterns...)
	if err != nil {
		return err
	}
	if len(initial) == 0 {
		return fmt.Errorf("no packages")
	}
	if n := printErrors(r.cmd, initial); n > 0 {
		return fmt.Errorf("packages contain errors")
	}

	// Create SSA-form program representation.
	_, pkgs := ssautil.Packages(initial, ssa.BuilderMode(0))
	for i, p := range pkgs {
		if p == nil {
			return fmt.Errorf("cannot build SSA for package %s", initial[i])
		}
	}
	for _, p := range pkgs {
		p.Build()
	}

	for _, p := range pkgs {
		for _, fn := range ssacfg.Functions(p) {
			name := fn.String()
			if r.opts.run != nil && !r.opts.run.MatchString(name) {
				continue
			}
			if len(fn.Blocks) == 0 {
				continue
			}
			if err := r.analyze(name, ssacfg.Graph(fn), 0, fn); err != nil {
				r.fail(name, err)
			}
		}
	}
	return nil
}

// printErrors prints the errors of pkgs and their dependencies and
// returns their number.
func printErrors(cmd *Command, pkgs []*packages.Package) int {
	var n int
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, err := range pkg.Errors {
			cmd.log.Print(err)
			n++
		}
	})
	return n
}
