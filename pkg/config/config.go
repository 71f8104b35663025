// Package config decides which linters run on which classes, which findings
// are suppressed, and which packages count as platform code.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/715d/classlint/pkg/lint"
	"github.com/715d/classlint/pkg/platform"
	"github.com/715d/classlint/pkg/suppress"
)

//go:embed default.yaml
var defaultConfig []byte

// AllLinters as a rule name selects every registered linter.
const AllLinters = "*"

// Format is a config file syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
	// FormatLines is the plain "Linter: target, target" syntax.
	FormatLines
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "lines"
	}
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatLines
	}
}

// Config is a complete run configuration.
type Config struct {
	Linters  []LinterRule    `yaml:"linters" toml:"linters" validate:"dive"`
	Suppress []suppress.Rule `yaml:"suppress" toml:"suppress"`
	Platform Platform        `yaml:"platform" toml:"platform"`
}

// LinterRule runs one linter against a set of targets. Classes and packages
// accept internal or dotted names.
type LinterRule struct {
	Name     string   `yaml:"name" toml:"name" validate:"required,linter"`
	All      bool     `yaml:"all" toml:"all"`
	Classes  []string `yaml:"classes" toml:"classes" validate:"dive,required"`
	Packages []string `yaml:"packages" toml:"packages" validate:"dive,required"`
}

// Platform configures the packages treated as platform code.
type Platform struct {
	Prefixes []string `yaml:"prefixes" toml:"prefixes" validate:"dive,required"`
}

// Namespaces returns the configured platform namespaces.
func (c *Config) Namespaces() *platform.Namespaces {
	return platform.New(c.Platform.Prefixes...)
}

// Default returns the embedded configuration.
func Default() *Config {
	cfg, err := Parse(defaultConfig, FormatYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded config: %v", err))
	}
	return cfg
}

// ForLinters returns a configuration running names on every class.
func ForLinters(names ...string) *Config {
	cfg := &Config{Platform: Default().Platform}
	for _, n := range names {
		cfg.Linters = append(cfg.Linters, LinterRule{Name: n, All: true})
	}
	return cfg
}

// Load reads path in the format its extension selects.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data. Unknown keys are errors.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing yaml config: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing toml config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing toml config: unknown key %s", undecoded[0])
		}
	default:
		lc, err := parseLines(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		cfg = *lc
	}
	return &cfg, nil
}

// Validate checks cfg against reg. Every problem is reported.
func (c *Config) Validate(reg *lint.Registry) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := registerLinterTag(v, "linter", reg); err != nil {
		return err
	}
	v.RegisterStructValidation(validateTargets, LinterRule{})

	err := v.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, describe(fe))
	}
	return errors.Join(errs...)
}

// registerLinterTag adds a tag accepting AllLinters and names known to reg.
func registerLinterTag(v *validator.Validate, tag string, reg *lint.Registry) error {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return name == AllLinters || reg.Has(name)
	})
	if err != nil {
		return fmt.Errorf("registering %q validation: %w", tag, err)
	}
	return nil
}

func validateTargets(sl validator.StructLevel) {
	r := sl.Current().Interface().(LinterRule)
	if !r.All && len(r.Classes) == 0 && len(r.Packages) == 0 {
		sl.ReportError(r.Classes, "Classes", "classes", "targets", "")
	}
}

func describe(fe validator.FieldError) error {
	switch fe.Tag() {
	case "linter":
		return &lint.UnknownLinterError{Name: fmt.Sprint(fe.Value())}
	case "targets":
		return fmt.Errorf("%s: rule needs classes, packages or all: true", fe.Namespace())
	case "required":
		return fmt.Errorf("%s: must not be empty", fe.Namespace())
	default:
		return fmt.Errorf("%s: failed %q validation", fe.Namespace(), fe.Tag())
	}
}

// linterNames expands the rule name against reg.
func (r LinterRule) linterNames(reg *lint.Registry) []string {
	if r.Name == AllLinters {
		return reg.Names()
	}
	return []string{r.Name}
}

// LinterNames returns the distinct linter names the config may run, sorted.
func (c *Config) LinterNames(reg *lint.Registry) []string {
	var names []string
	for _, r := range c.Linters {
		names = append(names, r.linterNames(reg)...)
	}
	slices.Sort(names)
	return slices.Compact(names)
}
