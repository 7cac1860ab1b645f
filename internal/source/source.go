// =============================================================================
// DORA Register of Information - Data Fetcher
// =============================================================================
//
// A Fetcher retrieves the raw records feeding one template. It is the only
// stage that talks to storage; everything downstream works on the typed
// records it returns.
//
// IMPLEMENTATIONS:
//   - SQLSource    : database/sql (Postgres through pgx, or SQLite)
//   - CSVSource    : a directory of per-template CSV extracts
//   - StaticSource : in-memory records
//
// CONTRACT:
//   - Zero rows is a normal, successful result.
//   - A genuine failure (connection, query, unreadable file) is a *FetchError.
//   - Implementations must honour context cancellation.
//
// =============================================================================

package source

import (
	"context"
	"fmt"
	"sync"
)

// Fetcher retrieves the records of one template.
type Fetcher interface {
	FetchTemplateData(ctx context.Context, templateID string) (*Result, error)
}

// Result is the outcome of one template fetch.
type Result struct {
	TemplateID string
	Records    []Record
	Count      int
}

func newResult(templateID string, records []Record) *Result {
	return &Result{TemplateID: templateID, Records: records, Count: len(records)}
}

// FetchError reports a failed template fetch.
type FetchError struct {
	TemplateID string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.TemplateID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// =============================================================================
// STATIC SOURCE
// =============================================================================

// StaticSource serves records held in memory. It is safe for concurrent use.
type StaticSource struct {
	mu      sync.RWMutex
	records map[string][]Record
	errs    map[string]error
}

// NewStaticSource groups records by their template.
func NewStaticSource(records ...Record) *StaticSource {
	s := &StaticSource{records: map[string][]Record{}, errs: map[string]error{}}
	for _, r := range records {
		s.records[r.TemplateID()] = append(s.records[r.TemplateID()], r)
	}
	return s
}

// Add appends records.
func (s *StaticSource) Add(records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.TemplateID()] = append(s.records[r.TemplateID()], r)
	}
}

// FailWith makes fetches of templateID fail with err.
func (s *StaticSource) FailWith(templateID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[templateID] = err
}

// FetchTemplateData implements Fetcher.
func (s *StaticSource) FetchTemplateData(ctx context.Context, templateID string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{TemplateID: templateID, Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.errs[templateID]; err != nil {
		return nil, &FetchError{TemplateID: templateID, Err: err}
	}
	records := append([]Record(nil), s.records[templateID]...)
	return newResult(templateID, records), nil
}
