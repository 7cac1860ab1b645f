package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/FedericoTs/dora-comply/internal/registry"
)

// =============================================================================
// CSV SOURCE
// =============================================================================
//
// CSVSource reads one extract per template from a directory. Files are named
// like the package files ("B_05_01.csv"). The header row may use either the
// internal column names or the ESA column codes; unknown headers are ignored.
// A template without a file has zero rows.
//
// =============================================================================

// CSVSettings controls how extracts are parsed.
type CSVSettings struct {
	// Delimiter is the field separator: ",", ";", "|" or "tab".
	Delimiter string

	// Encoding of the files: "utf-8" (default), "windows-1252" or "iso-8859-1".
	Encoding string
}

// CSVSource implements Fetcher over a directory of CSV extracts.
type CSVSource struct {
	dir      string
	settings CSVSettings
	registry *registry.Registry
}

// NewCSVSource creates a source reading from dir.
func NewCSVSource(dir string, reg *registry.Registry, settings CSVSettings) (*CSVSource, error) {
	if _, err := decoderFor(settings.Encoding); err != nil {
		return nil, err
	}
	return &CSVSource{dir: dir, settings: settings, registry: reg}, nil
}

// FetchTemplateData implements Fetcher.
func (s *CSVSource) FetchTemplateData(ctx context.Context, templateID string) (*Result, error) {
	def, err := s.registry.Get(templateID)
	if err != nil {
		return nil, &FetchError{TemplateID: templateID, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{TemplateID: templateID, Err: err}
	}

	path := filepath.Join(s.dir, def.FileName())
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return newResult(templateID, nil), nil
	}
	if err != nil {
		return nil, &FetchError{TemplateID: templateID, Err: fmt.Errorf("failed to open file: %w", err)}
	}
	defer file.Close()

	records, err := s.parse(ctx, file, def)
	if err != nil {
		return nil, &FetchError{TemplateID: templateID, Err: fmt.Errorf("%s: %w", filepath.Base(path), err)}
	}
	return newResult(templateID, records), nil
}

func (s *CSVSource) parse(ctx context.Context, r io.Reader, def registry.TemplateDefinition) ([]Record, error) {
	dec, _ := decoderFor(s.settings.Encoding)
	if dec != nil {
		r = dec.Reader(r)
	}

	reader := csv.NewReader(bufio.NewReader(r))
	configureReader(reader, s.settings.Delimiter)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := resolveHeader(header, def)

	var records []Record
	for line := 2; ; line++ {
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if isRowEmpty(row) {
			continue
		}

		rec, err := NewRecord(def.ID)
		if err != nil {
			return nil, err
		}
		for i, column := range columns {
			if column == "" || i >= len(row) {
				continue
			}
			if err := Assign(rec, column, strings.TrimSpace(row[i])); err != nil {
				return nil, err
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// resolveHeader maps each header cell to an internal column name, or "" when
// the header is not part of the template.
func resolveHeader(header []string, def registry.TemplateDefinition) []string {
	byDB := make(map[string]string, len(def.Columns))
	byESA := make(map[string]string, len(def.Columns))
	for _, c := range def.Columns {
		byDB[strings.ToLower(c.DBColumn)] = c.DBColumn
		byESA[strings.ToLower(c.ESACode)] = c.DBColumn
	}

	out := make([]string, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if c, ok := byDB[h]; ok {
			out[i] = c
		} else if c, ok := byESA[h]; ok {
			out[i] = c
		}
	}
	return out
}

func configureReader(reader *csv.Reader, delimiter string) {
	switch delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		reader.Comma = ','
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15.NewDecoder(), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
