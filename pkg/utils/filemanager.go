// =============================================================================
// Conciliador - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a pipeline run:
//   - Input discovery for batch runs
//   - Input archival after a successful run
//   - Output file naming
//   - Row error logs and batch summary logs
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after successful processing
//   - Failed files remain in their original location
//   - Logs are written to the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the layout of the {timestamp} placeholder.
const TimestampLayout = "20060102_150405"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the pipeline.
type FileManager struct {
	// InputDir is the directory scanned for input sheets.
	InputDir string

	// OutputDir is the directory where output sheets and logs are placed.
	OutputDir string

	// InputArchiveDir is the directory for archived input files.
	InputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2025/10/06/extrato.xlsx
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:        inputDir,
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the managed directories plus any extra ones.
//
// RETURNS:
//   - An error if any directory cannot be created.
func (fm *FileManager) EnsureDirectories(extra ...string) error {
	dirs := append([]string{fm.InputDir, fm.OutputDir, fm.InputArchiveDir}, extra...)

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the regular files of the input directory whose
// extension is in extensions (case-insensitive), sorted by name.
//
// PARAMETERS:
//   - extensions: Accepted extensions with the leading dot, e.g. ".xlsx".
//
// RETURNS:
//   - A slice of file paths.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles(extensions []string) ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	accepted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		accepted[strings.ToLower(ext)] = true
	}

	var result []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		if accepted[strings.ToLower(filepath.Ext(entry.Name()))] {
			result = append(result, filepath.Join(fm.InputDir, entry.Name()))
		}
	}
	sort.Strings(result)

	return result, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath := fm.archivePath(filePath, time.Now())

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

func (fm *FileManager) archivePath(filePath string, now time.Time) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		return filepath.Join(
			fm.InputArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.InputArchiveDir, fileName)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands the placeholders of an output name pattern.
//
// PARAMETERS:
//   - format: The pattern. Built-in placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - now as YYYYMMDD_HHMMSS
//               {date}      - now as YYYYMMDD
//   - params: Additional placeholder values, e.g. {"input": "extrato"}.
//             Values are made file-name safe.
//   - now: The time used for {timestamp} and {date}.
//
// RETURNS:
//   - The generated file name. The extension of format is kept as is.
//
// EXAMPLE:
//   format: "conciliacao_{input}_{timestamp}.xlsx"
//   params: {"input": "extrato azul"}
//   output: "conciliacao_extrato_azul_20251006_143022.xlsx"
func GenerateOutputFileName(format string, params map[string]string, now time.Time) string {
	pairs := []string{
		"{timestamp}", now.Format(TimestampLayout),
		"{date}", now.Format("20060102"),
	}
	if strings.Contains(format, "{uuid}") {
		pairs = append(pairs, "{uuid}", uuid.New().String())
	}
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", SafeFileName(value))
	}

	return strings.NewReplacer(pairs...).Replace(format)
}

// maxReserveAttempts bounds the numbered suffixes ReserveFile tries.
const maxReserveAttempts = 1000

// ReserveFile creates an empty file at path without touching an existing
// one. When path is taken it tries "name_1.ext", "name_2.ext" and so on.
//
// PARAMETERS:
//   - path: The preferred file path. Its directory must exist.
//
// RETURNS:
//   - The path that was created.
//   - An error if no free name was found or the file could not be created.
func ReserveFile(path string) (string, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	candidate := path
	for i := 1; i <= maxReserveAttempts; i++ {
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return candidate, f.Close()
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("failed to reserve %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}

	return "", fmt.Errorf("failed to reserve %s: no free name after %d attempts", path, maxReserveAttempts)
}

// SafeFileName replaces path separators, spaces and characters rejected by
// common file systems with underscores.
func SafeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry is one rejected row.
type ErrorLogEntry struct {
	// RowNumber is the 1-based data row number in the normalized sheet.
	RowNumber int

	// FieldName is the failing canonical field, if known.
	FieldName string

	// FieldValue is the rejected value, if known.
	FieldValue string

	// ErrorMessage is the validation message.
	ErrorMessage string
}

// ErrorLogPath returns the error log path belonging to an output file:
// the output name with its extension replaced by "_erros.txt".
func ErrorLogPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "_erros.txt"
}

// WriteErrorLog writes the rejected rows of one input file.
//
// PARAMETERS:
//   - logPath: Destination path; see ErrorLogPath.
//   - inputFile: The input file the rows came from.
//   - entries: The rejected rows.
//
// RETURNS:
//   - The path to the error log file, or "" when there is nothing to log.
//   - An error if writing fails.
func WriteErrorLog(logPath, inputFile string, entries []ErrorLogEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Conciliador - Error Log\n"+
		"Generated:    %s\n"+
		"Input File:   %s\n"+
		"Rejected Rows: %d\n"+
		"================================================================================\n\n",
		time.Now().Format("2006-01-02 15:04:05"),
		inputFile,
		len(entries))

	for _, entry := range entries {
		fmt.Fprintf(writer, "Row %d\n", entry.RowNumber)
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:   %s\n", entry.FieldName)
			fmt.Fprintf(writer, "  Value:   %q\n", entry.FieldValue)
		}
		fmt.Fprintf(writer, "  Message: %s\n\n", entry.ErrorMessage)
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a batch run.
type ProcessingSummary struct {
	StartTime         time.Time
	EndTime           time.Time
	TotalFiles        int
	SuccessfulFiles   int
	FailedFiles       int
	TotalTransactions int
	RejectedRows      int
	ProcessedFiles    []ProcessedFileInfo
	FailedFilesList   []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile    string
	OutputFile   string
	Transactions int
	RejectedRows int
	ProcessTime  time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a batch summary to the output directory.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir,
		fmt.Sprintf("processing_summary_%s.txt", summary.EndTime.Format(TimestampLayout)))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Conciliador - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Files:        %d\n"+
		"  Successful:         %d\n"+
		"  Failed:             %d\n"+
		"  Total Transactions: %d\n"+
		"  Rejected Rows:      %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalTransactions,
		summary.RejectedRows)

	if len(summary.ProcessedFiles) > 0 {
		writer.WriteString("Successful Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(writer, "  Input:         %s\n", pf.InputFile)
			fmt.Fprintf(writer, "  Output:        %s\n", pf.OutputFile)
			fmt.Fprintf(writer, "  Transactions:  %d\n", pf.Transactions)
			fmt.Fprintf(writer, "  Rejected Rows: %d\n", pf.RejectedRows)
			fmt.Fprintf(writer, "  Process Time:  %s\n\n", pf.ProcessTime.String())
		}
	}

	if len(summary.FailedFilesList) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(writer, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(writer, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
