// Package config loads the qfactor.yaml run configuration and validates it
// against an embedded CUE schema. Defaults are applied before validation, so
// a partial file (or no file at all) yields a complete, checked config.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/qfactor/internal/compose"
	"github.com/roach88/qfactor/internal/search"
)

//go:embed schema.cue
var schemaSource string

// Validation error codes (E200-E299)
const (
	ErrCodeRead   = "E200" // config file unreadable
	ErrCodeSyntax = "E201" // YAML syntax error
	ErrCodeSchema = "E202" // schema violation
)

// ValidationError is one schema violation, with the YAML field path.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Duration is a time.Duration that unmarshals from YAML duration strings
// ("30s", "5m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard-library value.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Layout mirrors compose.RegisterLayout with YAML tags.
type Layout struct {
	MeasureSlots uint32 `yaml:"measure_slots"`
	OffsetBase   uint32 `yaml:"offset_base"`
	OffsetLimbs  int    `yaml:"offset_limbs"`
	ModulusBase  uint32 `yaml:"modulus_base"`
}

// Config is the full run configuration.
type Config struct {
	Engine     string   `yaml:"engine"`
	Depth      int      `yaml:"depth"`
	Workers    int      `yaml:"workers"`
	Iterations int      `yaml:"iterations"`
	Timeout    Duration `yaml:"timeout"`
	Grace      Duration `yaml:"grace"`
	MaxChunks  int      `yaml:"max_chunks"`
	DB         string   `yaml:"db,omitempty"`
	Layout     *Layout  `yaml:"layout,omitempty"`
}

// Default returns the configuration used when no file is given. The engine
// path has no sensible default and stays empty.
func Default() Config {
	return Config{
		Depth:      8,
		Workers:    4,
		Iterations: 1,
		Timeout:    Duration(5 * time.Minute),
		Grace:      Duration(2 * time.Second),
		MaxChunks:  compose.DefaultMaxChunks,
	}
}

// Load reads a YAML config file, fills unset fields from Default, and
// validates the result. Returns all violations found, not just the first.
func Load(path string) (*Config, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{ValidationError{Code: ErrCodeRead, Message: err.Error()}}
	}
	return Parse(data)
}

// Parse is Load for in-memory YAML.
func Parse(data []byte) (*Config, []error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, []error{ValidationError{Code: ErrCodeSyntax, Message: err.Error()}}
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// Validate checks the config against the embedded schema.
func (c *Config) Validate() []error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return []error{ValidationError{Code: ErrCodeSchema, Message: fmt.Sprintf("compiling schema: %v", err)}}
	}

	doc := ctx.Encode(c.document())
	if err := doc.Err(); err != nil {
		return []error{ValidationError{Code: ErrCodeSchema, Message: fmt.Sprintf("encoding config: %v", err)}}
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(); err != nil {
		var errs []error
		for _, e := range cueerrors.Errors(err) {
			errs = append(errs, ValidationError{
				Field:   strings.Join(e.Path(), "."),
				Message: e.Error(),
				Code:    ErrCodeSchema,
			})
		}
		return errs
	}
	return nil
}

// document is the schema-shaped view of the config: durations as strings,
// optional fields omitted when unset.
func (c *Config) document() map[string]any {
	doc := map[string]any{
		"engine":     c.Engine,
		"depth":      c.Depth,
		"workers":    c.Workers,
		"iterations": c.Iterations,
		"timeout":    c.Timeout.Std().String(),
		"grace":      c.Grace.Std().String(),
		"max_chunks": c.MaxChunks,
	}
	if c.DB != "" {
		doc["db"] = c.DB
	}
	if c.Layout != nil {
		doc["layout"] = map[string]any{
			"measure_slots": c.Layout.MeasureSlots,
			"offset_base":   c.Layout.OffsetBase,
			"offset_limbs":  c.Layout.OffsetLimbs,
			"modulus_base":  c.Layout.ModulusBase,
		}
	}
	return doc
}

// SearchConfig converts the file config into a scheduler config.
func (c *Config) SearchConfig() search.Config {
	sc := search.Config{
		EnginePath: c.Engine,
		Depth:      c.Depth,
		Workers:    c.Workers,
		Iterations: c.Iterations,
		MaxChunks:  c.MaxChunks,
		Timeout:    c.Timeout.Std(),
		Grace:      c.Grace.Std(),
	}
	if c.Layout != nil {
		sc.Layout = compose.RegisterLayout{
			MeasureSlots: c.Layout.MeasureSlots,
			OffsetBase:   c.Layout.OffsetBase,
			OffsetLimbs:  c.Layout.OffsetLimbs,
			ModulusBase:  c.Layout.ModulusBase,
		}
	}
	return sc
}
