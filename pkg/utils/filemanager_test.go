package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOutputFileName(t *testing.T) {
	now := time.Date(2025, 10, 6, 14, 30, 22, 0, time.Local)

	tests := []struct {
		name   string
		format string
		params map[string]string
		want   string
	}{
		{name: "default", format: "conciliacao_{timestamp}.xlsx", want: "conciliacao_20251006_143022.xlsx"},
		{name: "input", format: "{input}_{date}.csv", params: map[string]string{"input": "extrato azul"}, want: "extrato_azul_20251006.csv"},
		{name: "unsafe", format: "{template}.xml", params: map[string]string{"template": "a/b:c"}, want: "a_b_c.xml"},
		{name: "unknown placeholder kept", format: "{dept}.xlsx", want: "{dept}.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateOutputFileName(tt.format, tt.params, now))
		})
	}

	withID := GenerateOutputFileName("out_{uuid}.xlsx", nil, now)
	assert.Regexp(t, regexp.MustCompile(`^out_[0-9a-f-]{36}\.xlsx$`), withID)
}

func TestReserveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conciliacao_20251006_143022.xlsx")

	first, err := ReserveFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, first)

	second, err := ReserveFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "conciliacao_20251006_143022_1.xlsx"), second)

	third, err := ReserveFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "conciliacao_20251006_143022_2.xlsx"), third)

	_, err = ReserveFile(filepath.Join(dir, "missing", "out.xlsx"))
	assert.Error(t, err)
}

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "a.CSV", "c.xls", "notes.txt", "~$b.xlsx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.xlsx"), 0o755))

	fm := NewFileManager(dir, "", "")
	files, err := fm.DiscoverInputFiles([]string{".xlsx", ".xlsm", ".csv"})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "a.CSV"), filepath.Join(dir, "b.xlsx")}, files)

	_, err = NewFileManager(filepath.Join(dir, "nope"), "", "").DiscoverInputFiles(nil)
	assert.Error(t, err)
}

func TestArchiveInputFile(t *testing.T) {
	root := t.TempDir()
	fm := NewFileManager(filepath.Join(root, "in"), filepath.Join(root, "out"), filepath.Join(root, "archive"))
	require.NoError(t, fm.EnsureDirectories())

	src := filepath.Join(fm.InputDir, "extrato.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	archived, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.InputArchiveDir, "extrato.xlsx"), archived)
	assert.False(t, FileExists(src))
	assert.True(t, FileExists(archived))
}

func TestArchivePath_TimestampSubdirs(t *testing.T) {
	fm := &FileManager{InputArchiveDir: "archive", UseTimestampSubdirs: true}
	got := fm.archivePath("in/extrato.xlsx", time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, filepath.Join("archive", "2025", "10", "06", "extrato.xlsx"), got)
}

func TestWriteErrorLog(t *testing.T) {
	out := filepath.Join(t.TempDir(), "conciliacao.xlsx")
	logPath := ErrorLogPath(out)
	assert.Equal(t, filepath.Join(filepath.Dir(out), "conciliacao_erros.txt"), logPath)

	path, err := WriteErrorLog(logPath, "extrato.xlsx", nil)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.False(t, FileExists(logPath))

	path, err = WriteErrorLog(logPath, "extrato.xlsx", []ErrorLogEntry{
		{RowNumber: 3, FieldName: "amount", FieldValue: "-1.00", ErrorMessage: "must not be negative"},
		{RowNumber: 5, ErrorMessage: "broken"},
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Input File:   extrato.xlsx")
	assert.Contains(t, string(raw), "Rejected Rows: 2")
	assert.Contains(t, string(raw), "Row 3\n  Field:   amount\n  Value:   \"-1.00\"\n")
	assert.Contains(t, string(raw), "Row 5\n  Message: broken\n")
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2025, 10, 6, 10, 0, 0, 0, time.Local)

	path, err := WriteSummaryLog(ProcessingSummary{
		StartTime:         start,
		EndTime:           start.Add(2 * time.Second),
		TotalFiles:        2,
		SuccessfulFiles:   1,
		FailedFiles:       1,
		TotalTransactions: 7,
		RejectedRows:      1,
		ProcessedFiles:    []ProcessedFileInfo{{InputFile: "a.xlsx", OutputFile: "out.xlsx", Transactions: 7, RejectedRows: 1}},
		FailedFilesList:   []FailedFileInfo{{InputFile: "b.csv", ErrorMessage: "required columns not found: amount"}},
	}, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "processing_summary_20251006_100002.txt"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Duration:       2s")
	assert.Contains(t, string(raw), "Total Transactions: 7")
	assert.Contains(t, string(raw), "Error: required columns not found: amount")
}
