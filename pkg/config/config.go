package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xplshn/brc/pkg/cli"
)

type Feature int

const (
	FeatComments Feature = iota
	FeatChainAnd
	FeatStrictAssign
	FeatStrictPrimary
	FeatArrayIndex
	FeatCount
)

type Warning int

const (
	WarnRedeclare Warning = iota
	WarnFlatChain
	WarnFloatPrint
	WarnShortInit
	WarnExtra
	WarnCount
)

// DefaultStringCap is the number of bytes allocated for every string variable.
const DefaultStringCap = 256

var validate = validator.New()

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning
	StdName    string `validate:"omitempty,oneof=classic strict"`
	StringCap  int    `validate:"min=2,max=1048576"`
}

func NewConfig() *Config {
	cfg := &Config{
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
		StringCap:  DefaultStringCap,
	}

	features := map[Feature]Info{
		FeatComments:      {"comments", true, "Recognize '#' line comments."},
		FeatChainAnd:      {"chain-and", false, "Translate 'a < b < c' as '(a < b) && (b < c)' instead of a flat chain."},
		FeatStrictAssign:  {"strict-assign", true, "Require a prior 'ON GYATT' declaration before plain assignment."},
		FeatStrictPrimary: {"strict-primary", true, "Accept declared boolean identifiers inside expressions and reject strings with a type error."},
		FeatArrayIndex:    {"array-index", true, "Allow 'name[expr]' element reads and writes on integer arrays."},
	}

	warnings := map[Warning]Info{
		WarnRedeclare:  {"redeclare", true, "Warn when 'ON GYATT' declares a name that already exists."},
		WarnFlatChain:  {"flat-chain", false, "Warn when a comparison chains more than one operator without -Fchain-and."},
		WarnFloatPrint: {"float-print", false, "Warn when an expression is printed with the float format."},
		WarnShortInit:  {"short-init", true, "Warn when an array initializer has fewer values than the array size."},
		WarnExtra:      {"extra", true, "Warn when classic mode assigns to a name that was never declared."},
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

// ApplyStd selects a language standard. "classic" keeps the historical
// behavior where plain assignment and boolean operands go unchecked;
// "strict" closes those holes.
func (c *Config) ApplyStd(stdName string) error {
	type stdSettings struct {
		feature      Feature
		classicValue bool
		strictValue  bool
	}

	settings := []stdSettings{
		{FeatStrictAssign, false, true},
		{FeatStrictPrimary, false, true},
		{FeatArrayIndex, false, true},
		{FeatChainAnd, false, false},
	}

	switch stdName {
	case "classic":
		for _, s := range settings {
			c.SetFeature(s.feature, s.classicValue)
		}
		c.SetWarning(WarnFlatChain, false)
	case "strict":
		for _, s := range settings {
			c.SetFeature(s.feature, s.strictValue)
		}
		c.SetWarning(WarnFlatChain, true)
	default:
		return fmt.Errorf("unsupported standard '%s'. Supported: 'classic', 'strict'", stdName)
	}
	c.StdName = stdName
	return nil
}

// SetStringCap stores the per-variable string buffer size. Out of range
// values are rejected and leave the previous size in place.
func (c *Config) SetStringCap(n int) error {
	prev := c.StringCap
	c.StringCap = n
	if err := c.Validate(); err != nil {
		c.StringCap = prev
		return err
	}
	return nil
}

// Validate checks the scalar settings against their allowed ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ApplyFlag applies a single -W/-F style flag such as "-Wno-redeclare" or
// "-Fchain-and". Unknown names are reported as errors.
func (c *Config) ApplyFlag(flag string) error {
	trimmed := strings.TrimPrefix(flag, "-")
	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name, isWarning = strings.TrimPrefix(trimmed, "W"), true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
	default:
		return fmt.Errorf("unrecognized flag '%s'", flag)
	}

	enable := !strings.HasPrefix(name, "no-")
	name = strings.TrimPrefix(name, "no-")

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, enable)
		}
		return nil
	}

	if isWarning {
		w, ok := c.WarningMap[name]
		if !ok {
			return fmt.Errorf("unknown warning '%s'", name)
		}
		c.SetWarning(w, enable)
		return nil
	}
	f, ok := c.FeatureMap[name]
	if !ok {
		return fmt.Errorf("unknown feature '%s'", name)
	}
	c.SetFeature(f, enable)
	return nil
}

// SetupFlagGroups registers -W<name>/-Wno-<name> and -F<name>/-Fno-<name>
// flags for every warning and feature. The returned entries are indexed by
// Warning and Feature respectively.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) (warningFlags, featureFlags []cli.FlagGroupEntry) {
	warningFlags = make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warningFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool),
		}
	}
	fs.AddFlagGroup("Warning Flags", "Enable or disable individual diagnostics.", "warning", "Available Warnings:", warningFlags)

	featureFlags = make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		featureFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool),
		}
	}
	fs.AddFlagGroup("Feature Flags", "Enable or disable language features.", "feature", "Available Features:", featureFlags)

	return warningFlags, featureFlags
}

// ApplyFlagGroups copies parsed flag-group values into the tables. Explicit
// -Wno-/-Fno- flags win over their enabling counterparts.
func (c *Config) ApplyFlagGroups(warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}
