package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/huangsam/foothold/schema"
)

// Default values for configuration.
const (
	DefaultPrecision = 2
	DefaultLogLevel  = "warn"
	MaxWorkers       = 256
)

// SupportedExtensions lists the source formats the ingest layer understands.
var SupportedExtensions = []string{".xlsx", ".csv", ".tsv"}

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a ranking request.
// This struct remains the "final, validated" config.
type Config struct {
	SourcePath   string
	Sheet        string
	Entities     []string // Selected entities; empty means all
	Variant      schema.RankVariant
	AnchorOrigin bool // Append the all-zero origin entity before normalizing
	Workers      int

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Explain    bool // Print ranking factor breakdown
	Detail     bool // Print the gap-filled vector per entity
	Audit      bool // Print the criteria reconstructed by gap filling
	Width      int  // Terminal width override (0 = auto-detect)
	UseColors  bool
	Layout     schema.ChartLayout
	LogLevel   string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunBackend   schema.DatabaseBackend
	RunDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	SourcePathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Sheet          string `mapstructure:"sheet"`
	Cities         string `mapstructure:"cities"`
	Variant        string `mapstructure:"variant"`
	AnchorOrigin   bool   `mapstructure:"anchor-origin"`
	Workers        int    `mapstructure:"workers"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Precision      int    `mapstructure:"precision"`
	Detail         bool   `mapstructure:"detail"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	LogLevel       string `mapstructure:"log-level"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	RunBackend     string `mapstructure:"run-backend"`
	RunDBConnect   string `mapstructure:"run-db-connect"`

	// --- Fields from rankCmd.Flags() ---
	Explain bool `mapstructure:"explain"`
	Audit   bool `mapstructure:"audit"`

	// --- Fields from chartCmd.Flags() ---
	Layout string `mapstructure:"layout"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Entities = slices.Clone(c.Entities)
	return &clone
}

// CloneWithSelection creates a copy of the Config restricted to the given entities.
func (c *Config) CloneWithSelection(entities []string) *Config {
	clone := c.Clone()
	clone.Entities = slices.Clone(entities)
	return clone
}

// Source returns the ingest parameters of the configured input.
func (c *Config) Source() Source {
	return Source{Path: c.SourcePath, Sheet: c.Sheet, AnchorOrigin: c.AnchorOrigin}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processSelection(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return resolveSourcePath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and run backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Run Backend Validation ---
	cfg.RunBackend = schema.DatabaseBackend(strings.ToLower(input.RunBackend))
	if cfg.RunBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunBackend]; !ok {
		return fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", input.RunBackend)
	}
	cfg.RunDBConnect = input.RunDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunBackend, cfg.RunDBConnect); err != nil {
		return err
	}

	// Cache and run history must not share one SQLite file.
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		runDBPath := cfg.RunDBConnect
		if runDBPath == "" {
			runDBPath = GetRunDBFilePath()
		}
		if cacheDBPath == runDBPath {
			return fmt.Errorf("cache and run storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.Sheet = strings.TrimSpace(input.Sheet)
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Explain = input.Explain
	cfg.Audit = input.Audit
	cfg.Width = input.Width
	cfg.AnchorOrigin = input.AnchorOrigin

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 || input.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d (received %d)", MaxWorkers, input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Variant Validation ---
	variant, err := ParseVariant(input.Variant)
	if err != nil {
		return err
	}
	cfg.Variant = variant

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet, xlsx", input.Output)
	}
	if (cfg.Output == schema.ParquetOut || cfg.Output == schema.XLSXOut) && cfg.OutputFile == "" {
		return fmt.Errorf("%s output requires --output-file", cfg.Output)
	}

	// --- 4. Chart Layout Validation ---
	cfg.Layout = schema.ChartLayout(strings.ToLower(input.Layout))
	if cfg.Layout == "" {
		cfg.Layout = schema.EqualLayout
	}
	if _, ok := schema.ValidChartLayouts[cfg.Layout]; !ok {
		return fmt.Errorf("invalid layout '%s'. must be equal or sphere", input.Layout)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(input.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	return nil
}

// processSelection splits the comma-separated entity list, dropping blanks and duplicates.
// The minimum selection size is enforced by ranking, since scoring accepts any size.
func processSelection(cfg *Config, input *ConfigRawInput) error {
	cfg.Entities = ParseSelection(input.Cities)
	return nil
}

// ParseSelection splits a comma-separated city list, keeping first occurrences.
func ParseSelection(raw string) []string {
	var entities []string
	seen := make(map[string]struct{})
	for part := range strings.SplitSeq(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		entities = append(entities, name)
	}
	return entities
}

// ParseVariant accepts "1", "2" and their "v"-prefixed forms.
func ParseVariant(raw string) (schema.RankVariant, error) {
	variant := schema.RankVariant(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "v"))
	if _, ok := schema.ValidRankVariants[variant]; !ok {
		return "", fmt.Errorf("invalid variant '%s'. must be 1 or 2", raw)
	}
	return variant, nil
}

// resolveSourcePath makes the source path absolute. An empty path is allowed for
// commands that receive their source per request (the MCP server).
func resolveSourcePath(cfg *Config, input *ConfigRawInput) error {
	cfg.SourcePath = ""
	if strings.TrimSpace(input.SourcePathStr) == "" {
		return nil
	}
	path, err := ResolveSourcePath(input.SourcePathStr)
	if err != nil {
		return err
	}
	cfg.SourcePath = path
	return nil
}

// ResolveSourcePath returns the absolute path of a readable file of a supported format.
func ResolveSourcePath(raw string) (string, error) {
	abs, err := filepath.Abs(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access source %q: %w", raw, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("source %q is a directory", raw)
	}
	ext := strings.ToLower(filepath.Ext(abs))
	if !slices.Contains(SupportedExtensions, ext) {
		return "", fmt.Errorf("unsupported source format %q. must be one of %s", ext, strings.Join(SupportedExtensions, ", "))
	}
	return filepath.Clean(abs), nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix == "" {
		return nil
	}
	if strings.ContainsAny(profilePrefix, "\x00") {
		return fmt.Errorf("invalid profile prefix %q", profilePrefix)
	}
	profile.Enabled = true
	profile.Prefix = profilePrefix
	return nil
}
