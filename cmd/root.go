// =============================================================================
// Conciliador - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (conciliador)
//   ├── processCmd   (conciliador process)
//   ├── templatesCmd (conciliador templates save|list|show|delete)
//   └── versionCmd   (conciliador version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads a .env file from the working directory, if present
//   2. Loads the YAML configuration (--config)
//   3. Sets up the logger (--verbose forces debug level)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/conciliador/internal/config"
	"github.com/ginjaninja78/conciliador/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig and log are set up by loadEnvironment before a subcommand runs.
var (
	appConfig *config.MainConfig
	log       zerolog.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "conciliador",
	Short: "Conciliador - Normalize bank statement sheets into a common layout",
	Long: `Conciliador reads bank statement exports (.xlsx, .xlsm or .csv), finds the
real header inside messy sheets, maps the date, payment type and amount
columns, validates every row and writes the accepted transactions through
an output template.

Key Features:
  - Header detection, empty row/column removal and merged-cell filling
  - Column mapping by keywords in Portuguese and English
  - Per-row validation; invalid rows are reported, never fatal
  - Reusable output templates stored as JSON
  - Output as .xlsx, .csv or .xml

Example Usage:
  conciliador process --file extrato.xlsx              # Built-in template
  conciliador process --file extrato.xlsx -t Clientes  # Stored template
  conciliador process                                  # Every file in input_dir
  conciliador templates list`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvironment()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file; a missing file means defaults",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// loadEnvironment loads .env, the configuration and the logger.
func loadEnvironment() error {
	// Overload lets .env values win over the inherited environment.
	envLoaded := godotenv.Overload() == nil

	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	l, err := logger.NewWithOptions(logger.Options{Level: level, Format: cfg.LogFormat})
	if err != nil {
		return err
	}

	appConfig = cfg
	log = l
	log.Debug().Str("config", cfgFile).Bool("dotenv", envLoaded).Msg("configuration loaded")

	return nil
}
