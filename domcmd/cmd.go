// Package domcmd implements the frontend of the domfront command.
//
// The command reads control flow graphs, either in the textual format
// of package cfgtext or as the functions of Go packages, computes their
// dominance information and prints it.
package domcmd

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"reflect"
	"regexp"
	"runtime/pprof"
	"strings"

	"golang.org/x/tools/go/buildutil"

	"honnef.co/go/domfront/cfgtext"
	"honnef.co/go/domfront/config"
	"honnef.co/go/domfront/dom"
	"honnef.co/go/domfront/version"
)

// Command represents the domfront command line tool.
type Command struct {
	name string

	// dir is the directory that relative paths and configuration
	// files are resolved against. The working directory is used if
	// it is empty.
	dir    string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *log.Logger

	flags struct {
		fs *flag.FlagSet

		entry        int
		succ         bool
		schedule     string
		maxPasses    int
		format       string
		pkg          bool
		run          string
		tags         string
		tests        bool
		printVersion bool

		debugCpuprofile string
		debugVersion    bool
		debugVerify     bool
		debugTrace      bool
	}
}

// NewCommand returns a new Command that uses the process's standard
// streams.
func NewCommand(name string) *Command {
	cmd := &Command{
		name:   name,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	cmd.log = log.New(cmd.stderr, name+": ", 0)
	cmd.initFlagSet(name)
	return cmd
}

// FlagSet returns the command's flag set.
func (cmd *Command) FlagSet() *flag.FlagSet {
	return cmd.flags.fs
}

func (cmd *Command) initFlagSet(name string) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(cmd.stderr)
	cmd.flags.fs = flags
	flags.Usage = usage(name, flags)

	flags.IntVar(&cmd.flags.entry, "entry", 0, "Entry `node` of textual graphs")
	flags.BoolVar(&cmd.flags.succ, "succ", false, "Textual graphs list successors instead of predecessors")
	flags.StringVar(&cmd.flags.schedule, "schedule", "round-robin", "Solver `schedule` (valid choices are 'round-robin' and 'worklist')")
	flags.IntVar(&cmd.flags.maxPasses, "max-passes", 0, "Give up after `n` solver passes (0 picks a bound based on the graph's size)")
	flags.StringVar(&cmd.flags.format, "f", "text", "Output `format` (valid choices are 'text', 'json' and 'dot')")
	flags.BoolVar(&cmd.flags.pkg, "pkg", false, "Arguments are Go packages; analyze all of their functions")
	flags.StringVar(&cmd.flags.run, "run", "", "Only analyze functions whose names match `regexp` (with -pkg)")
	flags.StringVar(&cmd.flags.tags, "tags", "", "List of `build tags` (with -pkg)")
	flags.BoolVar(&cmd.flags.tests, "tests", true, "Include tests (with -pkg)")
	flags.BoolVar(&cmd.flags.printVersion, "version", false, "Print version and exit")

	flags.StringVar(&cmd.flags.debugCpuprofile, "debug.cpuprofile", "", "Write CPU profile to `file`")
	flags.BoolVar(&cmd.flags.debugVersion, "debug.version", false, "Print detailed version information about this program")
	flags.BoolVar(&cmd.flags.debugVerify, "debug.verify", false, "Cross-check immediate dominators with the Lengauer-Tarjan algorithm")
	flags.BoolVar(&cmd.flags.debugTrace, "debug.trace", false, "Log the progress of the solver")
}

// ParseFlags parses command line flags.
// It must be called before calling Run.
//
// Example:
//
//	if err := cmd.ParseFlags(os.Args[1:]); err != nil {
//		os.Exit(2)
//	}
func (cmd *Command) ParseFlags(args []string) error {
	return cmd.flags.fs.Parse(args)
}

// options are the settings of a run, after merging configuration
// files and flags.
type options struct {
	orientation cfgtext.Orientation
	entry       dom.Node
	solver      dom.Solver
	format      string
	run         *regexp.Regexp
	tags        []string
}

// Exit statuses.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// Run analyzes the graphs named by the command line arguments and
// prints the results. It returns the exit status: 0 on success, 1 if
// any input could not be read or analyzed and 2 for invalid usage.
func (cmd *Command) Run() int {
	exit := func(code int) int {
		if cmd.flags.debugCpuprofile != "" {
			pprof.StopCPUProfile()
		}
		return code
	}
	if path := cmd.flags.debugCpuprofile; path != "" {
		f, err := os.Create(path)
		if err != nil {
			cmd.log.Print(err)
			return exitFailure
		}
		defer f.Close()
		pprof.StartCPUProfile(f)
	}

	if cmd.flags.debugVersion {
		version.Verbose(cmd.stdout)
		return exit(exitOK)
	}
	if cmd.flags.printVersion {
		version.Print(cmd.stdout)
		return exit(exitOK)
	}

	dir := cmd.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			cmd.log.Print(err)
			return exit(exitFailure)
		}
		dir = wd
	}
	cfg, err := config.Load(dir)
	if err != nil {
		cmd.log.Print(err)
		return exit(exitFailure)
	}
	opts, err := cmd.options(cfg)
	if err != nil {
		cmd.log.Print(err)
		return exit(exitUsage)
	}

	f, err := cfgtext.NewFormatter(opts.format, cmd.stdout)
	if err != nil {
		cmd.log.Print(err)
		return exit(exitUsage)
	}

	r := &runner{
		cmd:  cmd,
		dir:  dir,
		opts: opts,
		f:    f,
	}
	if cmd.flags.pkg {
		if cmd.flags.fs.NArg() == 0 {
			cmd.flags.fs.Usage()
			return exit(exitUsage)
		}
		if err := r.packages(cmd.flags.fs.Args()); err != nil {
			cmd.log.Print(err)
			return exit(exitFailure)
		}
	} else {
		r.files(cmd.flags.fs.Args())
	}
	if r.failed {
		return exit(exitFailure)
	}
	return exit(exitOK)
}

// options merges the configuration with the flags that were set on
// the command line.
func (cmd *Command) options(cfg config.Config) (*options, error) {
	set := map[string]bool{}
	cmd.flags.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["entry"] {
		cfg.Input.Entry = cmd.flags.entry
	}
	if set["succ"] {
		if cmd.flags.succ {
			cfg.Input.Orientation = cfgtext.Successors.String()
		} else {
			cfg.Input.Orientation = cfgtext.Predecessors.String()
		}
	}
	if set["schedule"] {
		cfg.Solver.Schedule = cmd.flags.schedule
	}
	if set["max-passes"] {
		cfg.Solver.MaxPasses = cmd.flags.maxPasses
	}
	if set["f"] {
		cfg.Output.Format = cmd.flags.format
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	orient, err := cfgtext.ParseOrientation(cfg.Input.Orientation)
	if err != nil {
		return nil, err
	}
	sched, err := dom.ParseSchedule(cfg.Solver.Schedule)
	if err != nil {
		return nil, err
	}
	opts := &options{
		orientation: orient,
		entry:       dom.Node(cfg.Input.Entry),
		solver: dom.Solver{
			Schedule:  sched,
			MaxPasses: cfg.Solver.MaxPasses,
		},
		format: cfg.Output.Format,
	}
	if cmd.flags.debugTrace {
		opts.solver.Logf = func(format string, args ...any) {
			cmd.log.Printf("solver: "+format, args...)
		}
	}
	if cmd.flags.run != "" {
		re, err := regexp.Compile(cmd.flags.run)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for flag -run: %s", cmd.flags.run, err)
		}
		opts.run = re
	}

	// Validate that the tags argument is well-formed. go/packages
	// doesn't detect malformed build flags and returns unhelpful
	// errors.
	tf := buildutil.TagsFlag{}
	if err := tf.Set(cmd.flags.tags); err != nil {
		return nil, fmt.Errorf("invalid value %q for flag -tags: %s", cmd.flags.tags, err)
	}
	opts.tags = tf
	return opts, nil
}

func usage(name string, fs *flag.FlagSet) func() {
	return func() {
		w := fs.Output()
		fmt.Fprintf(w, "Usage: %s [flags] [file.cfg ...]\n", name)
		fmt.Fprintf(w, "       %s -pkg [flags] packages...\n", name)

		fmt.Fprintln(w)
		fmt.Fprintln(w, "Without arguments, a graph is read from standard input.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		printDefaults(fs)

		fmt.Fprintln(w)
		fmt.Fprintln(w, "For help about specifying packages, see 'go help packages'")
	}
}

// isZeroValue determines whether the string represents the zero
// value for a flag.
//
// this function has been copied from the Go standard library's 'flag' package.
func isZeroValue(f *flag.Flag, value string) bool {
	// Build a zero value of the flag's Value type, and see if the
	// result of calling its String method equals the value passed in.
	// This works unless the Value type is itself an interface type.
	typ := reflect.TypeOf(f.Value)
	var z reflect.Value
	if typ.Kind() == reflect.Ptr {
		z = reflect.New(typ.Elem())
	} else {
		z = reflect.Zero(typ)
	}
	return value == z.Interface().(flag.Value).String()
}

// this function has been copied from the Go standard library's 'flag' package and modified to skip debug flags.
func printDefaults(fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		// Don't print debug flags
		if strings.HasPrefix(f.Name, "debug.") {
			return
		}

		var b strings.Builder
		fmt.Fprintf(&b, "  -%s", f.Name) // Two spaces before -; see next two comments.
		name, usage := flag.UnquoteUsage(f)
		if len(name) > 0 {
			b.WriteString(" ")
			b.WriteString(name)
		}
		// Boolean flags of one ASCII letter are so common we
		// treat them specially, putting their usage on the same line.
		if b.Len() <= 4 { // space, space, '-', 'x'.
			b.WriteString("\t")
		} else {
			// Four spaces before the tab triggers good alignment
			// for both 4- and 8-space tab stops.
			b.WriteString("\n    \t")
		}
		b.WriteString(strings.ReplaceAll(usage, "\n", "\n    \t"))

		if !isZeroValue(f, f.DefValue) {
			if T := reflect.TypeOf(f.Value); T.Name() == "*stringValue" && T.PkgPath() == "flag" {
				// put quotes on the value
				fmt.Fprintf(&b, " (default %q)", f.DefValue)
			} else {
				fmt.Fprintf(&b, " (default %v)", f.DefValue)
			}
		}
		fmt.Fprint(fs.Output(), b.String(), "\n")
	})
}
