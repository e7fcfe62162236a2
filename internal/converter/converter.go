// =============================================================================
// Conciliador - Converter Module
// =============================================================================
//
// This module orchestrates the pipeline for a single input sheet, from
// reading the file to writing the projected output.
//
// PIPELINE:
//   1. Resolve the output template (stored or built-in)
//   2. Read the input sheet into a raw grid
//   3. Normalize the grid (header, empty rows/columns, merged cells)
//   4. Extract transactions; invalid rows become row errors
//   5. Project the transactions through the template
//   6. Write the output sheet
//   7. Write the row error log, when enabled
//   8. Archive the input file, when enabled
//
// Steps 1-6 are fatal on failure. Row errors never abort a run, and failures
// of steps 7 and 8 are only logged.
//
// CONCURRENCY:
//   A Converter holds no per-run state, so one instance can serve several
//   files at once.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/conciliador/internal/config"
	"github.com/ginjaninja78/conciliador/internal/csvparser"
	"github.com/ginjaninja78/conciliador/internal/mapper"
	"github.com/ginjaninja78/conciliador/internal/sheet"
	"github.com/ginjaninja78/conciliador/internal/sheetio"
	"github.com/ginjaninja78/conciliador/internal/template"
	"github.com/ginjaninja78/conciliador/internal/validation"
	"github.com/ginjaninja78/conciliador/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// InputPath is the path to the input file that was processed.
	InputPath string

	// OutputPath is the path to the generated sheet.
	// This is empty if processing failed.
	OutputPath string

	// TemplateName is the name of the template the output follows.
	TemplateName string

	// TransactionCount is the number of rows accepted as transactions.
	TransactionCount int

	// ErrorCount is the number of rows rejected by validation.
	ErrorCount int

	// RowErrors lists the rejected rows in sheet order.
	RowErrors []mapper.RowError

	// ErrorLogPath is the path to the row error log, if one was written.
	ErrorLogPath string

	// ArchivePath is where the input file was moved, if it was archived.
	ArchivePath string

	// Duration is the time taken to process the file.
	Duration time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the pipeline with a fixed configuration.
type Converter struct {
	cfg        *config.MainConfig
	store      *template.Store
	files      *utils.FileManager
	normalizer *sheet.Normalizer
	extractor  *mapper.Extractor
	ioOptions  sheetio.Options
	logger     zerolog.Logger
	now        func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. Default: a disabled logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithStore sets the template store. Default: a store on cfg.TemplatesDir.
func WithStore(s *template.Store) Option {
	return func(c *Converter) {
		if s != nil {
			c.store = s
		}
	}
}

// WithClock sets the time source used for output names.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		if now != nil {
			c.now = now
		}
	}
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a Converter.
//
// PARAMETERS:
//   - cfg: The application configuration; nil means config.Default().
//   - opts: Optional logger, store and clock.
//
// RETURNS:
//   - A new Converter.
//   - An error if the payment type table or CSV settings are invalid.
func New(cfg *config.MainConfig, opts ...Option) (*Converter, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	payments, err := cfg.PaymentTable()
	if err != nil {
		return nil, fmt.Errorf("invalid payment types: %w", err)
	}

	comma, err := cfg.CSV.Comma()
	if err != nil {
		return nil, err
	}

	ioOptions := sheetio.DefaultOptions()
	ioOptions.CSV = csvparser.Settings{Comma: comma, Encoding: cfg.CSV.Encoding}

	c := &Converter{
		cfg:        cfg,
		store:      template.NewStore(cfg.TemplatesDir),
		files:      utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir),
		normalizer: sheet.NewNormalizer(cfg.NormalizerOptions()),
		extractor: mapper.NewExtractor(
			mapper.WithResolver(mapper.NewResolver(cfg.ResolverSynonyms())),
			mapper.WithPaymentTypes(payments),
			mapper.WithWorkers(cfg.RowWorkers),
		),
		ioOptions: ioOptions,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Store returns the template store used by the converter.
func (c *Converter) Store() *template.Store { return c.store }

// Files returns the file manager used by the converter.
func (c *Converter) Files() *utils.FileManager { return c.files }

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for one input file.
//
// PARAMETERS:
//   - ctx: Checked between stages; a cancelled context stops the run.
//   - inputPath: The input sheet (.xlsx, .xlsm or .csv).
//   - templateName: A stored template name; "" selects the built-in one.
//
// RETURNS:
//   - The Result. On failure it still carries whatever was known, such as
//     the row errors when no row was valid.
//   - An error if any fatal stage fails.
func (c *Converter) Run(ctx context.Context, inputPath, templateName string) (Result, error) {
	start := time.Now()
	result := Result{InputPath: inputPath}
	log := c.logger.With().Str("file", filepath.Base(inputPath)).Logger()

	finish := func(err error) (Result, error) {
		result.Duration = time.Since(start)
		if err != nil {
			log.Error().Err(err).Dur("duration", result.Duration).Msg("processing failed")
		}
		return result, err
	}

	// =========================================================================
	// STEP 1: RESOLVE TEMPLATE
	// =========================================================================

	tpl, err := c.store.Resolve(templateName)
	if err != nil {
		return finish(fmt.Errorf("failed to resolve template: %w", err))
	}
	result.TemplateName = tpl.Name()
	log.Debug().Str("template", tpl.Name()).Strs("columns", tpl.Columns()).Msg("template resolved")

	// =========================================================================
	// STEP 2: READ INPUT
	// =========================================================================

	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	raw, err := sheetio.ReadWith(inputPath, c.ioOptions)
	if err != nil {
		return finish(fmt.Errorf("failed to read input: %w", err))
	}
	log.Debug().Int("rows", raw.Len()).Int("columns", len(raw.Columns)).Msg("input read")

	// =========================================================================
	// STEP 3: NORMALIZE
	// =========================================================================

	g := c.normalizer.Normalize(raw)
	log.Debug().Int("rows", g.Len()).Strs("columns", g.Columns).Msg("sheet normalized")

	// =========================================================================
	// STEP 4: EXTRACT TRANSACTIONS
	// =========================================================================

	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	txs, rowErrs, err := c.extractor.Extract(g)
	if err != nil {
		return finish(fmt.Errorf("failed to map columns: %w", err))
	}
	result.TransactionCount = len(txs)
	result.ErrorCount = len(rowErrs)
	result.RowErrors = rowErrs

	for _, re := range rowErrs {
		log.Warn().Int("row", re.Row+1).Err(re.Err).Msg("row rejected")
	}
	log.Debug().Int("transactions", len(txs)).Int("rejected", len(rowErrs)).Msg("transactions extracted")

	// =========================================================================
	// STEP 5: PROJECT
	// =========================================================================

	out, err := Project(txs, tpl)
	if err != nil {
		if errors.Is(err, ErrNoTransactions) && len(rowErrs) > 0 {
			c.writeErrorLog(log, &result, inputPath, c.outputPath(inputPath, tpl))
		}
		return finish(fmt.Errorf("failed to project transactions: %w", err))
	}

	// =========================================================================
	// STEP 6: WRITE OUTPUT
	// =========================================================================

	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	// A taken name gets a numbered suffix; outputs are never replaced.
	target, err := c.reserve(c.outputPath(inputPath, tpl))
	if err != nil {
		return finish(fmt.Errorf("failed to write output: %w", err))
	}

	opts := c.ioOptions
	opts.NumberFormats = tpl.Formatting()
	outputPath, err := sheetio.Write(out, target, opts)
	if err != nil {
		_ = os.Remove(target)
		return finish(fmt.Errorf("failed to write output: %w", err))
	}
	result.OutputPath = outputPath

	// =========================================================================
	// STEP 7: ERROR LOG
	// =========================================================================

	c.writeErrorLog(log, &result, inputPath, outputPath)

	// =========================================================================
	// STEP 8: ARCHIVE INPUT
	// =========================================================================

	if c.cfg.ArchiveInput {
		archived, err := c.files.ArchiveInputFile(inputPath)
		if err != nil {
			log.Warn().Err(err).Msg("failed to archive input file")
		} else {
			result.ArchivePath = archived
		}
	}

	result.Duration = time.Since(start)
	log.Info().
		Str("output", outputPath).
		Int("transactions", result.TransactionCount).
		Int("rejected", result.ErrorCount).
		Dur("duration", result.Duration).
		Msg("file processed")

	return result, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// outputPath builds the output file path from the configured name pattern.
func (c *Converter) outputPath(inputPath string, tpl *template.Template) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	name := utils.GenerateOutputFileName(c.cfg.OutputFileFormat, map[string]string{
		"input":    stem,
		"template": template.Slug(tpl.Name()),
	}, c.now())
	return filepath.Join(c.cfg.OutputDir, name)
}

// reserve creates the directory of path and claims a free file name there.
func (c *Converter) reserve(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	return utils.ReserveFile(path)
}

// writeErrorLog records the rejected rows next to outputPath.
func (c *Converter) writeErrorLog(log zerolog.Logger, result *Result, inputPath, outputPath string) {
	if c.cfg.WriteErrorLog == nil || !*c.cfg.WriteErrorLog || len(result.RowErrors) == 0 {
		return
	}

	entries := make([]utils.ErrorLogEntry, 0, len(result.RowErrors))
	for _, re := range result.RowErrors {
		entries = append(entries, errorLogEntry(re))
	}

	logPath, err := c.reserve(utils.ErrorLogPath(outputPath))
	if err != nil {
		log.Warn().Err(err).Msg("failed to prepare error log")
		return
	}
	path, err := utils.WriteErrorLog(logPath, inputPath, entries)
	if err != nil {
		log.Warn().Err(err).Msg("failed to write error log")
		return
	}
	result.ErrorLogPath = path
}

// errorLogEntry converts a row error into a log entry with a 1-based row.
func errorLogEntry(re mapper.RowError) utils.ErrorLogEntry {
	entry := utils.ErrorLogEntry{RowNumber: re.Row + 1, ErrorMessage: re.Err.Error()}

	var fe *validation.FieldError
	if errors.As(re.Err, &fe) {
		entry.FieldName = fe.Field
		entry.FieldValue = fe.Value
		entry.ErrorMessage = fe.Message
	}
	return entry
}
