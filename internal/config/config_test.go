package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/conciliador/internal/validation"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMainConfig_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "conciliacao_{timestamp}.xlsx", cfg.OutputFileFormat)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, 1, cfg.RowWorkers)
	assert.True(t, *cfg.WriteErrorLog)
	assert.False(t, cfg.ArchiveInput)

	opts := cfg.NormalizerOptions()
	assert.InDelta(t, 0.70, opts.HeaderFillRatio, 1e-9)
	assert.Equal(t, 10, opts.MaxFillGap)
	assert.Equal(t, "Unnamed", opts.PlaceholderMarker)
}

func TestLoadMainConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
input_dir: ./in
output_dir: ./out
log_level: debug
log_format: json
output_file_format: "{input}_{timestamp}.csv"
write_error_log: false
row_workers: 8
csv:
  delimiter: ";"
  encoding: Windows-1252
normalizer:
  header_fill_ratio: 0.5
  max_fill_gap: 0
synonyms:
  amount: ["importe"]
payment_types:
  cartao: CRÉDITO
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "./in", cfg.InputDir)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, *cfg.WriteErrorLog)
	assert.Equal(t, 8, cfg.RowWorkers)

	comma, err := cfg.CSV.Comma()
	require.NoError(t, err)
	assert.Equal(t, ';', comma)

	opts := cfg.NormalizerOptions()
	assert.InDelta(t, 0.5, opts.HeaderFillRatio, 1e-9)
	assert.Equal(t, 0, opts.MaxFillGap, "explicit zero gap is kept")

	syn := cfg.ResolverSynonyms()
	assert.Equal(t, []string{"importe"}, syn.Amount)
	assert.Contains(t, syn.Date, "data")

	table, err := cfg.PaymentTable()
	require.NoError(t, err)
	got, err := table.Canonicalize("Cartão")
	require.NoError(t, err)
	assert.Equal(t, validation.PaymentCredit, got)
}

func TestLoadMainConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "input_dir: ./from-file\nlog_level: info\n")

	t.Setenv(EnvInputDir, "/tmp/from-env")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvOutputDir, "  ")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env", cfg.InputDir)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "./output", cfg.OutputDir, "blank env values are ignored")
}

func TestLoadMainConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":         "input_dir: [",
		"log level":        "log_level: verbose",
		"log format":       "log_format: xml",
		"output extension": "output_file_format: out.pdf",
		"concurrency":      "max_concurrency: -1",
		"ratio":            "normalizer:\n  header_fill_ratio: 1.5",
		"gap":              "normalizer:\n  max_fill_gap: -2",
		"payment":          "payment_types:\n  boleto: BOLETO",
		"delimiter":        "csv:\n  delimiter: ab",
		"encoding":         "csv:\n  encoding: EBCDIC",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadMainConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestCSVSettings_Comma(t *testing.T) {
	for in, want := range map[string]rune{",": ',', "tab": '\t', "|": '|', "semicolon": ';', "#": '#'} {
		got, err := CSVSettings{Delimiter: in}.Comma()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
