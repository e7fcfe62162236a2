// =============================================================================
// Conciliador - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the pipeline on one
// file or on every supported file of the input directory.
//
// COMMAND USAGE:
//   conciliador process [flags]
//
// FLAGS:
//   --file, -f      : Process a single file instead of the input directory
//   --template, -t  : Output template name (default: the built-in template)
//
// BATCH PROCESSING:
//   1. Discover .xlsx, .xlsm and .csv files in the input directory
//   2. Process the files concurrently, at most max_concurrency at a time
//   3. Print one line per file and write a summary log
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/conciliador/internal/converter"
	"github.com/ginjaninja78/conciliador/internal/logger"
	"github.com/ginjaninja78/conciliador/internal/sheetio"
	"github.com/ginjaninja78/conciliador/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// filePath is the path to a specific file to process.
var filePath string

// templateName selects the output template.
var templateName string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Normalize statements and write them through an output template",
	Long: `The process command reads bank statement sheets, maps their columns,
validates every row and writes the accepted transactions through the chosen
output template.

Without --file every supported file in the input directory is processed.
Files are independent: a failure in one does not stop the others.

On success:
  - The output sheet is placed in the output directory
  - Rejected rows are listed in an error log next to it
  - The input is moved to the input archive when archive_input is set

On error:
  - The input remains in the input directory
  - The error is printed and recorded in the summary log`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		ctx = logger.WithContext(ctx, log)

		if filePath != "" {
			return runSingle(ctx, cmd.OutOrStdout())
		}
		return runBatch(ctx, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(
		&filePath,
		"file",
		"f",
		"",
		"Path to a specific file to process",
	)

	processCmd.Flags().StringVarP(
		&templateName,
		"template",
		"t",
		"",
		"Output template name (default is the built-in template)",
	)
}

// =============================================================================
// PROCESSING FUNCTIONS
// =============================================================================

// newConverter builds a converter from the loaded configuration.
func newConverter(ctx context.Context) (*converter.Converter, error) {
	return converter.New(appConfig,
		converter.WithLogger(logger.FromContext(ctx)),
		converter.WithStore(templateStore()),
	)
}

// runSingle processes one file and prints its outcome.
func runSingle(ctx context.Context, out io.Writer) error {
	conv, err := newConverter(ctx)
	if err != nil {
		return err
	}

	result, err := conv.Run(ctx, filePath, templateName)
	if err != nil {
		return err
	}

	printResult(out, result)
	return nil
}

// runBatch processes every supported file of the input directory.
func runBatch(ctx context.Context, out io.Writer) error {
	startTime := time.Now()

	conv, err := newConverter(ctx)
	if err != nil {
		return err
	}

	files := conv.Files()
	if err := files.EnsureDirectories(); err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles, err := files.DiscoverInputFiles(sheetio.ReadExtensions)
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}

	if len(inputFiles) == 0 {
		fmt.Fprintf(out, "No input files found in %s\n", files.InputDir)
		return nil
	}

	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))

	// =========================================================================
	// STEP 2: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// One goroutine per file; the semaphore bounds how many run at once.

	type outcome struct {
		result converter.Result
		err    error
	}

	var wg sync.WaitGroup
	results := make(chan outcome, len(inputFiles))
	sem := make(chan struct{}, appConfig.MaxConcurrency)

	for _, file := range inputFiles {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := conv.Run(ctx, path, templateName)
			results <- outcome{result: result, err: err}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// =========================================================================
	// STEP 3: COLLECT RESULTS AND WRITE SUMMARY
	// =========================================================================

	summary := utils.ProcessingSummary{StartTime: startTime, TotalFiles: len(inputFiles)}

	for o := range results {
		name := filepath.Base(o.result.InputPath)
		summary.RejectedRows += o.result.ErrorCount

		if o.err != nil {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    name,
				ErrorMessage: o.err.Error(),
			})
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, o.err)
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalTransactions += o.result.TransactionCount
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:    name,
			OutputFile:   o.result.OutputPath,
			Transactions: o.result.TransactionCount,
			RejectedRows: o.result.ErrorCount,
			ProcessTime:  o.result.Duration,
		})
		fmt.Fprintf(out, "  ✓ %s -> %s (%d transactions, %d rejected)\n",
			name, o.result.OutputPath, o.result.TransactionCount, o.result.ErrorCount)
	}

	summary.EndTime = time.Now()

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	summaryPath, err := utils.WriteSummaryLog(summary, files.OutputDir)
	if err != nil {
		log.Warn().Err(err).Msg("failed to write summary log")
	} else {
		fmt.Fprintf(out, "Summary:         %s\n", summaryPath)
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// printResult prints the outcome of a single run.
func printResult(out io.Writer, result converter.Result) {
	fmt.Fprintf(out, "Template:      %s\n", result.TemplateName)
	fmt.Fprintf(out, "Output:        %s\n", result.OutputPath)
	fmt.Fprintf(out, "Transactions:  %d\n", result.TransactionCount)
	fmt.Fprintf(out, "Rejected rows: %d\n", result.ErrorCount)
	if result.ErrorLogPath != "" {
		fmt.Fprintf(out, "Error log:     %s\n", result.ErrorLogPath)
	}
	if result.ArchivePath != "" {
		fmt.Fprintf(out, "Archived to:   %s\n", result.ArchivePath)
	}
}
