// Package config loads domfront.conf files.
//
// Configuration files are looked up in a directory and all of its
// parents. Settings in files closer to the directory override those
// further away, which in turn override the defaults. Only settings
// that a file actually defines take part in the override.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"honnef.co/go/domfront/cfgtext"
	"honnef.co/go/domfront/dom"
)

type config struct {
	path string
	cfg  Config
	meta toml.MetaData
}

func (cfg config) Merge(ocfg config) config {
	if ocfg.meta.IsDefined("input", "orientation") {
		cfg.cfg.Input.Orientation = ocfg.cfg.Input.Orientation
	}
	if ocfg.meta.IsDefined("input", "entry") {
		cfg.cfg.Input.Entry = ocfg.cfg.Input.Entry
	}

	if ocfg.meta.IsDefined("solver", "schedule") {
		cfg.cfg.Solver.Schedule = ocfg.cfg.Solver.Schedule
	}
	if ocfg.meta.IsDefined("solver", "max_passes") {
		cfg.cfg.Solver.MaxPasses = ocfg.cfg.Solver.MaxPasses
	}

	if ocfg.meta.IsDefined("output", "format") {
		cfg.cfg.Output.Format = ocfg.cfg.Output.Format
	}
	return cfg
}

type Config struct {
	Input  InputConfig  `toml:"input"`
	Solver SolverConfig `toml:"solver"`
	Output OutputConfig `toml:"output"`
}

type InputConfig struct {
	// Orientation is either "predecessors" or "successors" and says
	// which edges the adjacency lists of textual graphs describe.
	Orientation string `toml:"orientation"`
	Entry       int    `toml:"entry"`
}

type SolverConfig struct {
	// Schedule is either "round-robin" or "worklist".
	Schedule string `toml:"schedule"`
	// MaxPasses bounds the number of solver passes. Zero picks a
	// bound based on the size of the graph.
	MaxPasses int `toml:"max_passes"`
}

type OutputConfig struct {
	Format string `toml:"format"`
}

var defaultConfig = Config{
	Input:  defaultInputConfig,
	Solver: defaultSolverConfig,
	Output: defaultOutputConfig,
}

var defaultInputConfig = InputConfig{
	Orientation: "predecessors",
	Entry:       0,
}

var defaultSolverConfig = SolverConfig{
	Schedule:  "round-robin",
	MaxPasses: 0,
}

var defaultOutputConfig = OutputConfig{
	Format: "text",
}

// Default returns the configuration used in the absence of any
// configuration files.
func Default() Config { return defaultConfig }

const configName = "domfront.conf"

func parseConfigs(dir string) ([]config, error) {
	var out []config

	for dir != "" {
		path := filepath.Join(dir, configName)
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			ndir := filepath.Dir(dir)
			if ndir == dir {
				break
			}
			dir = ndir
			continue
		}
		if err != nil {
			return nil, err
		}
		cfg, err := parse(path, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
		ndir := filepath.Dir(dir)
		if ndir == dir {
			break
		}
		dir = ndir
	}
	out = append(out, config{
		cfg:  defaultConfig,
		meta: toml.MetaData{}, // meta of the base config should never be accessed
	})
	if len(out) < 2 {
		return out, nil
	}
	for i := 0; i < len(out)/2; i++ {
		out[i], out[len(out)-1-i] = out[len(out)-1-i], out[i]
	}
	return out, nil
}

func parse(path string, r io.Reader) (config, error) {
	var cfg Config
	meta, err := toml.DecodeReader(r, &cfg)
	if err != nil {
		return config{}, fmt.Errorf("%s: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return config{}, fmt.Errorf("%s: unknown setting %q", path, undec[0].String())
	}
	return config{path, cfg, meta}, nil
}

func mergeConfigs(confs []config) Config {
	if len(confs) == 0 {
		// This shouldn't happen because we always have at least a
		// default config.
		panic("trying to merge zero configs")
	}
	if len(confs) == 1 {
		return confs[0].cfg
	}
	conf := confs[0]
	for _, oconf := range confs[1:] {
		conf = conf.Merge(oconf)
	}
	return conf.cfg
}

// Validate checks that all settings have meaningful values.
func (c Config) Validate() error {
	if _, err := cfgtext.ParseOrientation(c.Input.Orientation); err != nil {
		return fmt.Errorf("input.orientation: %w", err)
	}
	if c.Input.Entry < 0 {
		return fmt.Errorf("input.entry: negative node id %d", c.Input.Entry)
	}
	if _, err := dom.ParseSchedule(c.Solver.Schedule); err != nil {
		return fmt.Errorf("solver.schedule: %w", err)
	}
	if c.Solver.MaxPasses < 0 {
		return fmt.Errorf("solver.max_passes: negative bound %d", c.Solver.MaxPasses)
	}
	if _, err := cfgtext.NewFormatter(c.Output.Format, io.Discard); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	return nil
}

// Load returns the configuration that applies to dir.
func Load(dir string) (Config, error) {
	confs, err := parseConfigs(dir)
	if err != nil {
		return Config{}, err
	}
	conf := mergeConfigs(confs)
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}
