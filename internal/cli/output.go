package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/rshade/promptbatch/internal/engine"
)

// Result output formats.
const (
	outputJSON  = "json"
	outputJSONL = "jsonl"
	outputCSV   = "csv"
)

// resultColumns are the fixed CSV columns; data keys follow, sorted.
//
//nolint:gochecknoglobals // Static column list.
var resultColumns = []string{
	"id", "status", "model", "prompt", "response", "error",
	"tokens_in", "tokens_out", "cost_usd", "latency_ms",
}

// resolveOutputFormat picks the format from the flag, then the output
// file extension, then json.
func resolveOutputFormat(flag, path string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(flag))
	if format == "" && path != "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if format == "ndjson" {
			format = outputJSONL
		}
	}
	switch format {
	case "":
		return outputJSON, nil
	case outputJSON, outputJSONL, outputCSV:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (json, jsonl, csv)", format)
	}
}

// writeResultsFile writes results to path, or to fallback when path is
// empty or "-".
func writeResultsFile(path string, fallback io.Writer, format string, results []engine.Result) error {
	if path == "" || path == "-" {
		return writeResults(fallback, format, results)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err = writeResults(f, format, results); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeResults(w io.Writer, format string, results []engine.Result) error {
	switch format {
	case outputJSONL:
		enc := json.NewEncoder(w)
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encoding result %s: %w", r.ID, err)
			}
		}
		return nil
	case outputCSV:
		return writeResultsCSV(w, results)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if results == nil {
			results = []engine.Result{}
		}
		return enc.Encode(results)
	}
}

func writeResultsCSV(w io.Writer, results []engine.Result) error {
	keySet := make(map[string]bool)
	for _, r := range results {
		for k := range r.Data {
			keySet[k] = true
		}
	}
	dataKeys := make([]string, 0, len(keySet))
	for k := range keySet {
		if !slices.Contains(resultColumns, k) {
			dataKeys = append(dataKeys, k)
		}
	}
	slices.Sort(dataKeys)

	cw := csv.NewWriter(w)
	if err := cw.Write(append(slices.Clone(resultColumns), dataKeys...)); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			r.ID, string(r.Status), r.Model, r.Prompt, r.Response, r.Error,
			optInt(r.TokensIn), optInt(r.TokensOut), optFloat(r.CostUSD), optInt64(r.LatencyMs),
		}
		for _, k := range dataKeys {
			record = append(record, r.Data[k])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
