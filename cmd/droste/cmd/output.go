package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

// Output formats shared by matrix, stack and config show.
const (
	outputFormatJSON = "json"
	outputFormatYAML = "yaml"
	outputFormatCSS  = "css"
	outputFormatText = "text"
)

var outputFormats = []string{outputFormatText, outputFormatJSON, outputFormatYAML, outputFormatCSS}

// writeOutput encodes v as json or yaml, or delegates text and css rendering.
func writeOutput(w io.Writer, format string, v any, text, css func(io.Writer) error) error {
	switch format {
	case outputFormatJSON:
		// Pretty-print JSON output
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case outputFormatCSS:
		return css(w)
	case outputFormatText:
		return text(w)
	default:
		return fmt.Errorf("unsupported format: %s (must be one of: %v)", format, outputFormats)
	}
}

// validateFormat checks format before any work is done.
func validateFormat(format string) error {
	if !slices.Contains(outputFormats, format) {
		return fmt.Errorf("unsupported format: %s (must be one of: %v)", format, outputFormats)
	}
	return nil
}
