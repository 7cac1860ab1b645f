// =============================================================================
// DORA Register of Information - Main Entry Point
// =============================================================================
//
// This is the main entry point for the roi CLI. It delegates command
// execution to the cmd package.
//
// USAGE:
//   roi export      - Validate the register and write the report package
//   roi validate    - Validate without packaging
//   roi serve       - Serve the HTTP API
//   roi templates   - List, export or check the template registry
//   roi db migrate  - Create the export tables
//   roi version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Registry, source, mapper, validation, packaging and
//                      the export pipeline
//   - pkg/utils/     : Package and error log file output
//
// =============================================================================

package main

import (
	"github.com/FedericoTs/dora-comply/cmd"
)

func main() {
	cmd.Execute()
}
