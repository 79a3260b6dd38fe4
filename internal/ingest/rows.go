package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rshade/promptbatch/internal/engine"
	"github.com/rshade/promptbatch/internal/logging"
)

// Format names a row file encoding.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
)

// Errors returned while loading rows.
var (
	ErrUnsupportedFormat = errors.New("unsupported row file format")
	ErrNoRows            = errors.New("no rows found")
	ErrEmptyPrompt       = errors.New("row has an empty prompt")
	ErrDuplicateID       = errors.New("duplicate row id")
)

// maxLineSize bounds a single JSONL line.
const maxLineSize = 4 * 1024 * 1024

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// DetectFormat infers the format from a file extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// rawRow accepts data values of any scalar type.
type rawRow struct {
	ID          string         `json:"id"          yaml:"id"`
	Prompt      string         `json:"prompt"      yaml:"prompt"`
	Model       string         `json:"model"       yaml:"model"`
	System      string         `json:"system"      yaml:"system"`
	Developer   string         `json:"developer"   yaml:"developer"`
	Temperature *float64       `json:"temperature" yaml:"temperature"`
	Data        map[string]any `json:"data"        yaml:"data"`
}

// rowFile is the object form of a JSON or YAML file.
type rowFile struct {
	Rows []rawRow `json:"rows" yaml:"rows"`
}

// LoadRows reads the file at path, detecting the format from its extension
// unless format is non-empty.
func LoadRows(ctx context.Context, path string, format Format) ([]engine.Row, error) {
	log := logging.FromContext(ctx)

	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "ingest").
		Str("operation", "load_rows").
		Str("path", path).
		Str("format", string(format)).
		Msg("loading rows")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening row file: %w", err)
	}
	defer f.Close()

	rows, err := ParseRows(ctx, f, format)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return rows, nil
}

// ParseRows decodes rows in the given format, assigns missing ids and
// validates the result.
func ParseRows(ctx context.Context, r io.Reader, format Format) ([]engine.Row, error) {
	var (
		raw []rawRow
		err error
	)
	switch format {
	case FormatJSON:
		raw, err = parseJSON(r)
	case FormatJSONL:
		raw, err = parseJSONL(r)
	case FormatYAML:
		raw, err = parseYAML(r)
	case FormatCSV:
		raw, err = parseCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	rows, err := normalize(raw)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "ingest").
		Str("format", string(format)).
		Int("row_count", len(rows)).
		Msg("parsed rows")
	return rows, nil
}

func parseJSON(r io.Reader) ([]rawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading json: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '{' {
		var wrapped rowFile
		if err = json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
		return wrapped.Rows, nil
	}

	var rows []rawRow
	if err = json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	return rows, nil
}

func parseJSONL(r io.Reader) ([]rawRow, error) {
	var rows []rawRow
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var row rawRow
		if err := json.Unmarshal(text, &row); err != nil {
			return nil, fmt.Errorf("parsing jsonl line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading jsonl: %w", err)
	}
	return rows, nil
}

func parseYAML(r io.Reader) ([]rawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading yaml: %w", err)
	}

	var node yaml.Node
	if err = yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	if node.Content[0].Kind == yaml.MappingNode {
		var wrapped rowFile
		if err = node.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
		return wrapped.Rows, nil
	}

	var rows []rawRow
	if err = node.Decode(&rows); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return rows, nil
}

func parseCSV(r io.Reader) ([]rawRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows []rawRow
	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("reading csv: %w", readErr)
		}

		line, _ := reader.FieldPos(0)
		row, rowErr := csvRow(header, record)
		if rowErr != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, rowErr)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func csvRow(header, record []string) (rawRow, error) {
	var row rawRow
	for i, col := range header {
		value := record[i]
		switch strings.ToLower(col) {
		case "id":
			row.ID = value
		case "prompt":
			row.Prompt = value
		case "model":
			row.Model = value
		case "system":
			row.System = value
		case "developer":
			row.Developer = value
		case "temperature":
			if strings.TrimSpace(value) == "" {
				continue
			}
			t, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return rawRow{}, fmt.Errorf("temperature %q: %w", value, err)
			}
			row.Temperature = &t
		default:
			if row.Data == nil {
				row.Data = make(map[string]any)
			}
			row.Data[col] = value
		}
	}
	return row, nil
}

func normalize(raw []rawRow) ([]engine.Row, error) {
	if len(raw) == 0 {
		return nil, ErrNoRows
	}

	rows := make([]engine.Row, 0, len(raw))
	seen := make(map[string]int, len(raw))
	for i, r := range raw {
		if strings.TrimSpace(r.Prompt) == "" {
			return nil, fmt.Errorf("row %d: %w", i+1, ErrEmptyPrompt)
		}

		id := strings.TrimSpace(r.ID)
		if id == "" {
			id = uuid.NewString()
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("rows %d and %d: %w %q", prev, i+1, ErrDuplicateID, id)
		}
		seen[id] = i + 1

		rows = append(rows, engine.Row{
			ID:          id,
			Prompt:      r.Prompt,
			Model:       strings.TrimSpace(r.Model),
			System:      r.System,
			Developer:   r.Developer,
			Temperature: r.Temperature,
			Data:        stringify(r.Data),
		})
	}
	return rows, nil
}

// stringify renders scalar data values the way they appear in the file.
func stringify(data map[string]any) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
