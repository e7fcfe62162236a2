// =============================================================================
// Conciliador - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a YAML file and the
// process environment.
//
// LOADING ORDER:
//   1. Built-in defaults
//   2. The YAML file (a missing file is not an error)
//   3. CONCILIADOR_* environment variables
//   4. Validation
//
// The CLI loads a .env file into the environment before step 3, so the
// environment overrides can also live in .env.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/conciliador/internal/validation"
)

// Environment variables that override the file.
const (
	EnvInputDir     = "CONCILIADOR_INPUT_DIR"
	EnvOutputDir    = "CONCILIADOR_OUTPUT_DIR"
	EnvTemplatesDir = "CONCILIADOR_TEMPLATES_DIR"
	EnvLogLevel     = "CONCILIADOR_LOG_LEVEL"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned by the batch process command.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the generated sheets and logs.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after successful processing when
	// ArchiveInput is set.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// TemplatesDir holds the saved output templates (JSON).
	// Default: "./data/templates"
	TemplatesDir string `yaml:"templates_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "console" or "json".
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFileFormat is the output file name pattern. Placeholders:
	//   {timestamp} - YYYYMMDD_HHMMSS
	//   {uuid}      - a random UUID
	//   {input}     - the input file name without extension
	//   {template}  - the template slug
	// The extension selects the writer: .xlsx, .csv or .xml.
	// Default: "conciliacao_{timestamp}.xlsx"
	OutputFileFormat string `yaml:"output_file_format"`

	// WriteErrorLog writes rejected rows to an error log next to the output.
	// Default: true
	WriteErrorLog *bool `yaml:"write_error_log"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files processed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// RowWorkers is the number of rows validated concurrently per file.
	// Default: 1
	RowWorkers int `yaml:"row_workers"`

	// ArchiveInput moves processed input files to InputArchiveDir.
	// Default: false
	ArchiveInput bool `yaml:"archive_input"`

	// CSV controls how CSV input is decoded.
	CSV CSVSettings `yaml:"csv"`

	// Normalizer tunes header detection and merged-cell filling.
	Normalizer NormalizerSettings `yaml:"normalizer"`

	// Synonyms replaces the column keyword sets when a list is non-empty.
	Synonyms SynonymSettings `yaml:"synonyms"`

	// PaymentTypes adds payment type spellings: variant -> canonical token.
	PaymentTypes map[string]string `yaml:"payment_types"`
}

// CSVSettings contains settings for reading and writing CSV files.
type CSVSettings struct {
	// Delimiter is ",", ";", "|" or "tab".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding is "UTF-8", "ISO-8859-1" or "Windows-1252".
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// NormalizerSettings mirrors sheet.Options.
type NormalizerSettings struct {
	// HeaderFillRatio is the minimum non-empty fraction of a header row.
	// Default: 0.70
	HeaderFillRatio float64 `yaml:"header_fill_ratio"`

	// MaxFillGap is the longest run of empty cells filled from above.
	// Default: 10
	MaxFillGap *int `yaml:"max_fill_gap"`

	// PlaceholderMarker identifies labels of blank header cells.
	// Default: "Unnamed"
	PlaceholderMarker string `yaml:"placeholder_marker"`
}

// SynonymSettings holds replacement keyword sets for column resolution.
type SynonymSettings struct {
	Date        []string `yaml:"date"`
	PaymentType []string `yaml:"payment_type"`
	Amount      []string `yaml:"amount"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	var cfg MainConfig
	applyMainConfigDefaults(&cfg)
	return &cfg
}

// LoadMainConfig loads the main configuration.
//
// PARAMETERS:
//   - configPath: The path to the YAML file. A missing file yields defaults.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be parsed or the result is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var cfg MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyMainConfigDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyMainConfigDefaults sets default values for any unset option.
func applyMainConfigDefaults(cfg *MainConfig) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.InputArchiveDir == "" {
		cfg.InputArchiveDir = "./input_archive"
	}
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = filepath.Join("data", "templates")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}
	if cfg.OutputFileFormat == "" {
		cfg.OutputFileFormat = "conciliacao_{timestamp}.xlsx"
	}
	if cfg.WriteErrorLog == nil {
		enabled := true
		cfg.WriteErrorLog = &enabled
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.RowWorkers == 0 {
		cfg.RowWorkers = 1
	}
	if cfg.CSV.Delimiter == "" {
		cfg.CSV.Delimiter = ","
	}
	if cfg.CSV.Encoding == "" {
		cfg.CSV.Encoding = "UTF-8"
	}
	if cfg.Normalizer.HeaderFillRatio == 0 {
		cfg.Normalizer.HeaderFillRatio = 0.70
	}
	if cfg.Normalizer.MaxFillGap == nil {
		gap := 10
		cfg.Normalizer.MaxFillGap = &gap
	}
	if cfg.Normalizer.PlaceholderMarker == "" {
		cfg.Normalizer.PlaceholderMarker = "Unnamed"
	}
}

// applyEnvOverrides replaces file values with non-empty environment values.
func applyEnvOverrides(cfg *MainConfig) {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvInputDir, &cfg.InputDir},
		{EnvOutputDir, &cfg.OutputDir},
		{EnvTemplatesDir, &cfg.TemplatesDir},
		{EnvLogLevel, &cfg.LogLevel},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.target = v
		}
	}
}

// Validate checks value ranges and enumerations.
func (c *MainConfig) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("log_format %q is not one of console, json", c.LogFormat)
	}

	switch strings.ToLower(filepath.Ext(c.OutputFileFormat)) {
	case ".xlsx", ".csv", ".xml":
	default:
		return fmt.Errorf("output_file_format %q must end in .xlsx, .csv or .xml", c.OutputFileFormat)
	}

	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", c.MaxConcurrency)
	}
	if c.RowWorkers < 1 {
		return fmt.Errorf("row_workers must be at least 1, got %d", c.RowWorkers)
	}

	if r := c.Normalizer.HeaderFillRatio; r <= 0 || r > 1 {
		return fmt.Errorf("normalizer.header_fill_ratio must be in (0, 1], got %v", r)
	}
	if c.Normalizer.MaxFillGap != nil && *c.Normalizer.MaxFillGap < 0 {
		return fmt.Errorf("normalizer.max_fill_gap must not be negative, got %d", *c.Normalizer.MaxFillGap)
	}

	for variant, canonical := range c.PaymentTypes {
		if !validation.IsCanonicalPaymentType(canonical) {
			return fmt.Errorf("payment_types[%q]: %q is not one of %s",
				variant, canonical, strings.Join(validation.CanonicalPaymentTypes, ", "))
		}
	}

	if _, err := c.CSV.Comma(); err != nil {
		return err
	}
	switch strings.ToUpper(c.CSV.Encoding) {
	case "UTF-8", "UTF8", "ISO-8859-1", "LATIN1", "WINDOWS-1252", "CP1252":
	default:
		return fmt.Errorf("csv.encoding %q is not supported", c.CSV.Encoding)
	}

	return nil
}

// Comma returns the delimiter rune for the configured delimiter.
func (s CSVSettings) Comma() (rune, error) {
	switch s.Delimiter {
	case "", ",":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe", "PIPE":
		return '|', nil
	case "\\t", "\t", "tab", "TAB":
		return '\t', nil
	}
	r := []rune(s.Delimiter)
	if len(r) != 1 || r[0] == '"' || r[0] == '\r' || r[0] == '\n' {
		return 0, fmt.Errorf("csv.delimiter %q is not a single usable character", s.Delimiter)
	}
	return r[0], nil
}
