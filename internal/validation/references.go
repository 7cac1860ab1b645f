package validation

import (
	"fmt"

	"github.com/FedericoTs/dora-comply/internal/registry"
	"github.com/FedericoTs/dora-comply/internal/types"
)

// =============================================================================
// CROSS-TEMPLATE REFERENCES
// =============================================================================
//
// The index holds every value of every key column in the snapshot. It is
// built once per run in a single pass over the rows; each referencing cell
// is then resolved with one map lookup.
//
// =============================================================================

type refIndex map[registry.ColumnRef]map[string]struct{}

func buildIndex(reg *registry.Registry, data types.TemplateData) refIndex {
	idx := make(refIndex)
	for _, def := range reg.Templates() {
		key, ok := def.KeyColumn()
		if !ok {
			continue
		}
		rows := data[def.ID]
		values := make(map[string]struct{}, len(rows))
		for _, row := range rows {
			if v := row[key.ESACode]; v != "" {
				values[v] = struct{}{}
			}
		}
		idx[registry.ColumnRef{Template: def.ID, Column: key.ESACode}] = values
	}
	return idx
}

func (idx refIndex) contains(ref registry.ColumnRef, value string) bool {
	_, ok := idx[ref][value]
	return ok
}

// resolve returns one finding per referencing cell whose value is missing
// from the referenced key column. Empty cells are left to the required check.
func (idx refIndex) resolve(def registry.TemplateDefinition, rows []types.TemplateRow) []types.ValidationError {
	var out []types.ValidationError
	for _, col := range def.Columns {
		if col.References == nil {
			continue
		}
		ref := *col.References
		for i, row := range rows {
			value := row[col.ESACode]
			if value == "" || idx.contains(ref, value) {
				continue
			}
			out = append(out, types.ValidationError{
				TemplateID: def.ID,
				RowIndex:   i,
				ESACode:    col.ESACode,
				Code:       types.CodeReferenceDangling,
				Severity:   types.SeverityError,
				Message:    fmt.Sprintf("no row in %s has this value", ref),
				Value:      value,
			})
		}
	}
	return out
}
