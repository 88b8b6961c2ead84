package batch

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Format renders the result as text, json or csv.
func (r *Result) Format(format string) (string, error) {
	switch cases.Fold().String(format) {
	case "text", "":
		return r.formatText(), nil
	case "json":
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal batch result: %w", err)
		}
		return string(b), nil
	case "csv":
		return r.formatCSV()
	default:
		return "", fmt.Errorf("unsupported format: %s (must be one of: text, json, csv)", format)
	}
}

func (r *Result) formatText() string {
	var sb strings.Builder
	for _, it := range r.Items {
		if it.Error != "" {
			fmt.Fprintf(&sb, "FAIL  %s: %s\n", it.Input, it.Error)
			continue
		}
		fmt.Fprintf(&sb, "OK    %s -> %s (%dx%d, %v)\n", it.Input, it.Output, it.Width, it.Height,
			it.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(&sb, "Rendered %d of %d images in %v using %d workers",
		r.Succeeded, len(r.Items), r.Duration.Round(time.Millisecond), r.WorkerCount)
	if r.Failed > 0 {
		fmt.Fprintf(&sb, " (%d failed)", r.Failed)
	}
	return sb.String()
}

func (r *Result) formatCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"input", "output", "width", "height", "duration_ms", "error"}); err != nil {
		return "", err
	}
	for _, it := range r.Items {
		row := []string{
			it.Input,
			it.Output,
			strconv.Itoa(it.Width),
			strconv.Itoa(it.Height),
			strconv.FormatInt(it.Duration.Milliseconds(), 10),
			it.Error,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
