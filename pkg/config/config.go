package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml"
)

type Feature int

const (
	FeatCComments Feature = iota
	FeatDirectives
	FeatPermissiveConvert
	FeatCount
)

type Warning int

const (
	WarnUnrecognizedEscape Warning = iota
	WarnOverflow
	WarnNoReturn
	WarnNonNumericCond
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

// Config carries the per-invocation compiler settings. Every compilation
// owns its own Config; there are no package-level toggles.
type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning

	// Target properties for the 32-bit stack machine.
	WordSize int
	OutFile  string
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
		WordSize:   4,
	}

	features := map[Feature]Info{
		FeatCComments:         {"c-comments", true, "Recognize '//' line comments."},
		FeatDirectives:        {"directives", true, "Discard '#'-prefixed preprocessor lines instead of rejecting them."},
		FeatPermissiveConvert: {"permissive-convert", true, "Allow conversion between any two numeric types and void* to anything."},
	}

	warnings := map[Warning]Info{
		WarnUnrecognizedEscape: {"u-esc", true, "Warn on unrecognized character escape sequences."},
		WarnOverflow:           {"overflow", true, "Warn when an integer constant is out of range."},
		WarnNoReturn:           {"no-return", true, "Warn when a non-void function returns without a value."},
		WarnNonNumericCond:     {"non-numeric-cond", true, "Warn when a condition has a non-numeric type."},
		WarnExtra:              {"extra", false, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}
	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// applyFlag understands -W<name>, -Wno-<name>, -F<name> and -Fno-<name>
// spellings with the leading dash already stripped.
func (c *Config) applyFlag(flag string) {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool
	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
	default:
		name = trimmed
		isWarning = true
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, enable)
		}
		return
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
		}
	} else {
		if f, ok := c.FeatureMap[name]; ok {
			c.SetFeature(f, enable)
		}
	}
}

// ApplyFlags applies a list of -W/-F style toggles in order.
func (c *Config) ApplyFlags(flags []string) {
	for _, flag := range flags {
		c.applyFlag(flag)
	}
}

// projectFile is the on-disk shape of an optional compi.toml next to the
// sources, carrying default settings for the project.
type projectFile struct {
	Output   string          `toml:"output"`
	Warnings map[string]bool `toml:"warnings"`
	Features map[string]bool `toml:"features"`
}

// ProjectFileName is looked up in the working directory unless an explicit
// path is given.
const ProjectFileName = "compi.toml"

// LoadProjectFile reads a TOML project file and folds its settings into the
// config. A missing file at the default path is not an error.
func (c *Config) LoadProjectFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ProjectFileName
	}
	buff, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("unable to open project file at %q: %w", path, err)
	}

	pf := &projectFile{}
	if err := toml.Unmarshal(buff, pf); err != nil {
		return fmt.Errorf("error parsing project file at %q: %w", path, err)
	}

	if pf.Output != "" {
		c.OutFile = pf.Output
	}
	for name, enabled := range pf.Warnings {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enabled)
		} else {
			return fmt.Errorf("unknown warning %q in %s", name, path)
		}
	}
	for name, enabled := range pf.Features {
		if f, ok := c.FeatureMap[name]; ok {
			c.SetFeature(f, enabled)
		} else {
			return fmt.Errorf("unknown feature %q in %s", name, path)
		}
	}
	return nil
}
