// =============================================================================
// DORA Register of Information - Package Builder
// =============================================================================
//
// This module serializes validated template rows into an xBRL-CSV report
// package: one CSV file per template plus a JSON manifest, zipped.
//
// OUTPUT FORMAT:
//   <LEI>-<YYYY-MM-DD>.zip
//     report.json        manifest (document info, parameters, filing
//                        indicators, table list)
//     B_01_01.csv        one file per template in registry order, header
//     ...                row of ESA column codes, CRLF, UTF-8 without BOM
//
// DETERMINISM:
//   Entries are written in a fixed order and stamped with the reporting
//   date, so two builds of the same data differ only in the manifest's
//   generatedAt field. The clock is injectable for tests.
//
// ATOMICITY:
//   Every cell is checked before anything is returned. A cell that cannot
//   be represented fails the whole build with a *SerializationError.
//
// =============================================================================

package packager

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FedericoTs/dora-comply/internal/registry"
	"github.com/FedericoTs/dora-comply/internal/types"
)

// ManifestName is the name of the manifest entry.
const ManifestName = "report.json"

// DocumentType identifies the xBRL-CSV specification the package follows.
const DocumentType = "https://xbrl.org/2021/xbrl-csv"

// EntryPoint is the DORA taxonomy module the package reports against.
const EntryPoint = "http://www.eba.europa.eu/eu/fr/xbrl/crr/fws/dora/%s/mod/dora.json"

// =============================================================================
// ERRORS
// =============================================================================

// SerializationError reports a cell that cannot be written to the package.
type SerializationError struct {
	TemplateID string
	RowIndex   int
	ESACode    string
	Reason     string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot serialize %s row %d column %s: %s", e.TemplateID, e.RowIndex+1, e.ESACode, e.Reason)
}

// =============================================================================
// MANIFEST
// =============================================================================

// Manifest is the content of report.json.
type Manifest struct {
	DocumentInfo     DocumentInfo      `json:"documentInfo"`
	Parameters       Parameters        `json:"parameters"`
	FilingIndicators []FilingIndicator `json:"filingIndicators"`
	Tables           []Table           `json:"tables"`
	GeneratedAt      string            `json:"generatedAt"`
}

// DocumentInfo identifies the document type and taxonomy.
type DocumentInfo struct {
	DocumentType    string   `json:"documentType"`
	Extends         []string `json:"extends"`
	TaxonomyVersion string   `json:"taxonomyVersion"`
}

// Parameters are the report-level xBRL parameters.
type Parameters struct {
	EntityID     string `json:"entityID"`
	RefPeriod    string `json:"refPeriod"`
	BaseCurrency string `json:"baseCurrency"`
}

// FilingIndicator states whether a template is reported.
type FilingIndicator struct {
	TemplateID string `json:"templateId"`
	Reported   bool   `json:"reported"`
}

// Table lists one CSV file of the package.
type Table struct {
	TemplateID string `json:"templateId"`
	File       string `json:"file"`
	RowCount   int    `json:"rowCount"`
}

// =============================================================================
// BUILDER
// =============================================================================

// Package is a built report package held in memory.
type Package struct {
	FileName string
	Data     []byte
	Manifest Manifest

	// Files lists the entry names in archive order.
	Files []string
}

// Builder builds report packages for a registry.
type Builder struct {
	registry *registry.Registry
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the clock used for generatedAt.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a Builder.
func NewBuilder(reg *registry.Registry, opts ...Option) *Builder {
	b := &Builder{
		registry: reg,
		now:      time.Now,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FileName returns the package file name, "<LEI>-<YYYY-MM-DD>.zip".
func FileName(p types.ReportingParameters) string {
	return fmt.Sprintf("%s-%s.zip", p.EntityLEI, p.ReportingDate)
}

// BuildPackageZip serializes data into a zipped report package.
//
// PARAMETERS:
//   - p:    validated reporting parameters.
//   - data: mapped rows keyed by template ID. Every registry template is
//     written, templates without rows as a header-only file.
//
// RETURNS:
//   - The package, or an error. Nothing is returned on error.
func (b *Builder) BuildPackageZip(p types.ReportingParameters, data types.TemplateData) (*Package, error) {
	for id := range data {
		if !b.registry.Has(id) {
			return nil, &registry.UnknownTemplateError{TemplateID: id}
		}
	}
	stamp, err := time.Parse(time.DateOnly, p.ReportingDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reporting date: %w", err)
	}

	defs := b.registry.Templates()
	files := make([][]byte, len(defs))
	for i, def := range defs {
		var buf bytes.Buffer
		if err := WriteTemplateCSV(&buf, def, data[def.ID]); err != nil {
			return nil, err
		}
		files[i] = buf.Bytes()
	}

	manifest := b.manifest(p, defs, data)
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}

	pkg := &Package{
		FileName: FileName(p),
		Manifest: manifest,
		Files:    make([]string, 0, len(defs)+1),
	}

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	if err := addEntry(zw, ManifestName, stamp, manifestJSON); err != nil {
		return nil, err
	}
	pkg.Files = append(pkg.Files, ManifestName)

	for i, def := range defs {
		if err := addEntry(zw, def.FileName(), stamp, files[i]); err != nil {
			return nil, err
		}
		pkg.Files = append(pkg.Files, def.FileName())
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}

	pkg.Data = archive.Bytes()
	b.logger.Info("package built",
		slog.String("file", pkg.FileName),
		slog.Int("rows", data.RowCount()),
		slog.Int("bytes", len(pkg.Data)))
	return pkg, nil
}

func (b *Builder) manifest(p types.ReportingParameters, defs []registry.TemplateDefinition, data types.TemplateData) Manifest {
	m := Manifest{
		DocumentInfo: DocumentInfo{
			DocumentType:    DocumentType,
			Extends:         []string{fmt.Sprintf(EntryPoint, b.registry.Version())},
			TaxonomyVersion: b.registry.Version(),
		},
		Parameters: Parameters{
			EntityID:     "rs:" + p.EntityLEI,
			RefPeriod:    p.ReportingDate,
			BaseCurrency: "iso4217:" + p.BaseCurrency,
		},
		FilingIndicators: make([]FilingIndicator, 0, len(defs)),
		Tables:           make([]Table, 0, len(defs)),
		GeneratedAt:      b.now().UTC().Format(time.RFC3339),
	}
	for _, def := range defs {
		n := len(data[def.ID])
		m.FilingIndicators = append(m.FilingIndicators, FilingIndicator{TemplateID: def.ID, Reported: n > 0})
		m.Tables = append(m.Tables, Table{TemplateID: def.ID, File: def.FileName(), RowCount: n})
	}
	return m
}

func addEntry(zw *zip.Writer, name string, modified time.Time, content []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// =============================================================================
// CSV
// =============================================================================

// WriteTemplateCSV writes one template as CSV: a header of ESA column codes
// in declared order, then one line per row, CRLF terminated.
func WriteTemplateCSV(w io.Writer, def registry.TemplateDefinition, rows []types.TemplateRow) error {
	header := def.ColumnCodes()
	for i, row := range rows {
		for _, code := range header {
			if reason := checkCell(row[code]); reason != "" {
				return &SerializationError{TemplateID: def.ID, RowIndex: i, ESACode: code, Reason: reason}
			}
		}
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", def.ID, err)
	}

	record := make([]string, len(header))
	for _, row := range rows {
		for j, code := range header {
			record[j] = row[code]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write %s row: %w", def.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// checkCell returns why value cannot be serialized, or "".
func checkCell(value string) string {
	if !utf8.ValidString(value) {
		return "invalid UTF-8"
	}
	for i, r := range value {
		if r == '\r' && !strings.HasPrefix(value[i+1:], "\n") {
			// csv.Writer with UseCRLF drops a lone carriage return.
			return "carriage return not followed by line feed"
		}
		if r < 0x20 && r != '\t' && r != '\r' && r != '\n' {
			return fmt.Sprintf("control character %U", r)
		}
	}
	return ""
}
