package app

import (
	"context"
	"fmt"
	"os"
)

// initTemplate is the starter definition written by the init command: a
// bidirectional temperature converter, the canonical mesh example.
const initTemplate = `title       = "Temperature Converter"
description = "Edit any field; the others follow."

variable "celsius" {
  initial = 20
}

variable "fahrenheit" {
  initial = 68
}

computed "fahrenheit" {
  inputs = ["celsius"]
  expr   = "celsius * 9 / 5 + 32"
}

computed "celsius" {
  inputs = ["fahrenheit"]
  expr   = "(fahrenheit - 32) * 5 / 9"
}

computed "kelvin" {
  inputs = ["celsius"]
  expr   = "celsius + 273.15"
}
`

// runInit writes the starter definition to the configured path, refusing
// to overwrite an existing file.
func (a *App) runInit(ctx context.Context) error {
	path := a.cfg.MeshPath
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, not overwriting", path)
	}
	if err := os.WriteFile(path, []byte(initTemplate), 0o644); err != nil {
		return fmt.Errorf("writing template: %w", err)
	}
	fmt.Fprintf(a.out, "Template written to: %s\n", path)
	return nil
}
