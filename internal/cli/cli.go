// Package cli parses command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/i2mint/rh/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const usageText = `
rh - reactive mesh apps from declarative definitions.

Usage:
  rh COMMAND [options] MESH_PATH

Commands:
  build      Generate the HTML app for a mesh definition.
  serve      Generate the app and serve it with live propagation.
  validate   Check a mesh definition and report problems.
  inspect    Print the mesh structure, metrics and DOT graph.
  init       Write a starter mesh definition to MESH_PATH.

Arguments:
  MESH_PATH
    Path to a .hcl or .yaml mesh definition file.

Options:
`

// Parse processes command-line arguments. It returns a populated
// app.Config, a boolean indicating the program should exit cleanly, or
// an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	settings := app.Settings()

	flagSet := flag.NewFlagSet("rh", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageText)
		flagSet.PrintDefaults()
	}

	outputFlag := flagSet.String("output", "", "Output directory for the generated app.")
	appDirFlag := flagSet.String("app-dir", settings.GetString("app_dir"), "Root directory for generated apps.")
	titleFlag := flagSet.String("title", "", "Override the app title.")
	portFlag := flagSet.Int("port", settings.GetInt("port"), "Port for the dev server.")
	strictFlag := flagSet.Bool("strict", false, "Treat validation warnings as errors.")
	noValidateFlag := flagSet.Bool("no-validate", false, "Skip validation.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if len(args) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}

	command := args[0]
	if command == "-h" || command == "--help" || command == "help" {
		flagSet.Usage()
		return nil, true, nil
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		Command:    command,
		MeshPath:   path,
		OutputDir:  *outputFlag,
		AppDir:     *appDirFlag,
		Title:      *titleFlag,
		Port:       *portFlag,
		Strict:     *strictFlag,
		NoValidate: *noValidateFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "command", command, "path", path)
	return config, false, nil
}
