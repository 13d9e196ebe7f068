package sql

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gustavorviana/sharporm/dialect"
)

// Config configures a Grammar.
//
// A configuration file looks like:
//
//	dialect: sqlserver
//	placeholder: at
//	max_params: 2099
//	max_rows: 1000
//	legacy_pagination: true
type Config struct {
	// Dialect is the dialect family or driver name ("mysql", "mssql", ...).
	Dialect string `yaml:"dialect"`
	// Placeholder is the parameter marker style. Defaults per dialect.
	Placeholder Placeholder `yaml:"placeholder"`
	// Limits bounds multi-row INSERT and upsert statements. Zero values
	// take the dialect default.
	Limits BatchLimits `yaml:",inline"`
	// LegacyPagination emulates OFFSET with ROW_NUMBER() on SQL Server.
	LegacyPagination bool `yaml:"legacy_pagination"`
	// SkipIdentifierValidation quotes names without checking them.
	SkipIdentifierValidation bool `yaml:"skip_identifier_validation"`
	// SoftDeleteColumn is the default soft-delete flag column.
	SoftDeleteColumn string `yaml:"soft_delete_column"`
	// SoftDeleteDateColumn is the default soft-delete timestamp column.
	SoftDeleteDateColumn string `yaml:"soft_delete_date_column"`
	// Now returns the soft-delete timestamp. Defaults to time.Now.
	Now func() time.Time `yaml:"-"`
}

// Soft-delete column defaults.
const (
	DefaultSoftDeleteColumn     = "deleted"
	DefaultSoftDeleteDateColumn = "deleted_at"
)

// dialectDefaults holds the per-dialect defaults for unset values.
var dialectDefaults = map[string]Config{
	dialect.MySQL: {
		Placeholder: AtNumbered,
		Limits:      BatchLimits{MaxParams: 65535},
	},
	dialect.SQLServer: {
		Placeholder: AtNumbered,
		Limits:      BatchLimits{MaxParams: 2099, MaxRows: 1000},
	},
	dialect.Firebird: {
		Placeholder: Question,
		Limits:      BatchLimits{MaxParams: 32767, MaxRows: 1},
	},
}

// ConfigError is returned for an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("dialect/sql: invalid config %s: %s", e.Field, e.Message)
}

// Option configures a Config.
type Option func(*Config)

// WithPlaceholder sets the parameter marker style.
func WithPlaceholder(p Placeholder) Option {
	return func(c *Config) {
		c.Placeholder = p
	}
}

// WithBatchLimits sets the parameter and row ceilings of multi-row
// statements. A zero keeps the dialect default for that ceiling.
func WithBatchLimits(maxParams, maxRows int) Option {
	return func(c *Config) {
		c.Limits = BatchLimits{MaxParams: maxParams, MaxRows: maxRows}
	}
}

// WithLegacyPagination enables ROW_NUMBER() pagination on SQL Server.
func WithLegacyPagination() Option {
	return func(c *Config) {
		c.LegacyPagination = true
	}
}

// WithoutIdentifierValidation disables identifier validation.
func WithoutIdentifierValidation() Option {
	return func(c *Config) {
		c.SkipIdentifierValidation = true
	}
}

// WithSoftDeleteColumns sets the default soft-delete columns.
func WithSoftDeleteColumns(column, dateColumn string) Option {
	return func(c *Config) {
		c.SoftDeleteColumn = column
		c.SoftDeleteDateColumn = dateColumn
	}
}

// WithClock sets the function returning soft-delete timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// NewConfig returns a validated configuration for the given dialect.
func NewConfig(name string, opts ...Option) (Config, error) {
	c := Config{Dialect: name}
	for _, opt := range opts {
		opt(&c)
	}
	return c.normalize()
}

// ParseConfig decodes a YAML configuration. Options are applied after decoding.
func ParseConfig(data []byte, opts ...Option) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("dialect/sql: parse config: %w", err)
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c.normalize()
}

// LoadConfig reads and decodes a YAML configuration file.
func LoadConfig(path string, opts ...Option) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("dialect/sql: load config: %w", err)
	}
	return ParseConfig(data, opts...)
}

// normalize resolves the dialect family, validates values and fills defaults.
func (c Config) normalize() (Config, error) {
	name, ok := dialect.Family(c.Dialect)
	if !ok {
		return Config{}, &ConfigError{Field: "dialect", Message: fmt.Sprintf("unsupported dialect %q", c.Dialect)}
	}
	c.Dialect = name
	if c.Limits.MaxParams < 0 {
		return Config{}, &ConfigError{Field: "max_params", Message: "must not be negative"}
	}
	if c.Limits.MaxRows < 0 {
		return Config{}, &ConfigError{Field: "max_rows", Message: "must not be negative"}
	}
	def := dialectDefaults[name]
	if c.Placeholder == PlaceholderDefault {
		c.Placeholder = def.Placeholder
	}
	if c.Limits.MaxParams == 0 {
		c.Limits.MaxParams = def.Limits.MaxParams
	}
	if c.Limits.MaxRows == 0 {
		c.Limits.MaxRows = def.Limits.MaxRows
	}
	if c.SoftDeleteColumn == "" {
		c.SoftDeleteColumn = DefaultSoftDeleteColumn
	}
	if c.SoftDeleteDateColumn == "" {
		c.SoftDeleteDateColumn = DefaultSoftDeleteDateColumn
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Placeholder) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := ParsePlaceholder(s)
	if err != nil {
		return &ConfigError{Field: "placeholder", Message: err.Error()}
	}
	*p = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p Placeholder) MarshalYAML() (any, error) {
	return p.String(), nil
}
