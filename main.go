// =============================================================================
// Conciliador - Main Entry Point
// =============================================================================
//
// USAGE:
//   conciliador process       - Process statements from --file or the input directory
//   conciliador templates     - Save, list, show and delete output templates
//   conciliador version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Pipeline: grid, sheet, mapper, template, converter, I/O
//   - pkg/       : File management utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/conciliador/cmd"
)

func main() {
	cmd.Execute()
}
