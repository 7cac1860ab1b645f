// =============================================================================
// DORA Register of Information - Column Mapper
// =============================================================================
//
// The mapper turns typed source records into template rows keyed by ESA
// column code, coercing every value to its canonical textual form:
//
//   number  -> "1234.5"       (point decimal separator, no exponent, no grouping)
//   boolean -> "true"/"false"
//   date    -> "2025-03-31"
//   enum    -> ESA code       (internal codes translated through the registry)
//   string  -> trimmed, Unicode NFC
//   missing -> ""             (the key is always present)
//
// Mapping never fails. A value that cannot be coerced is passed through in
// its raw form so the validator can report it against the right cell.
//
// =============================================================================

package mapper

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/FedericoTs/dora-comply/internal/registry"
	"github.com/FedericoTs/dora-comply/internal/source"
	"github.com/FedericoTs/dora-comply/internal/types"
)

// MapRow maps one record onto the given columns.
func MapRow(rec source.Record, columns []registry.ColumnDefinition) types.TemplateRow {
	row := make(types.TemplateRow, len(columns))
	for _, c := range columns {
		row[c.ESACode] = MapValue(rec, c)
	}
	return row
}

// MapRecords maps every record of a template, preserving order.
func MapRecords(records []source.Record, def registry.TemplateDefinition) []types.TemplateRow {
	rows := make([]types.TemplateRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, MapRow(rec, def.Columns))
	}
	return rows
}

// MapValue returns the canonical text of one cell.
func MapValue(rec source.Record, c registry.ColumnDefinition) string {
	if raw, ok := source.InvalidValue(rec, c.DBColumn); ok {
		return nfc(raw)
	}
	value, ok := source.FieldValue(rec, c.DBColumn)
	if !ok {
		return ""
	}

	switch c.DataType {
	case registry.TypeNumber:
		return formatNumber(value)
	case registry.TypeBoolean:
		return formatBool(value)
	case registry.TypeDate:
		return formatDate(value)
	case registry.TypeEnum:
		return translateEnum(text(value), c)
	}

	s := text(value)
	if c.Format == registry.FormatLEI {
		s = strings.ToUpper(s)
	}
	return s
}

// =============================================================================
// COERCIONS
// =============================================================================

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return nfc(v)
	case *string:
		if v == nil {
			return ""
		}
		return nfc(*v)
	case source.Date:
		return formatDate(v)
	case time.Time:
		return formatDate(v)
	case decimal.Decimal, decimal.NullDecimal, int, int64, *int64, float64:
		return formatNumber(v)
	case bool, *bool:
		return formatBool(v)
	}
	return ""
}

func nfc(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func formatNumber(value any) string {
	switch v := value.(type) {
	case decimal.Decimal:
		return v.String()
	case decimal.NullDecimal:
		if !v.Valid {
			return ""
		}
		return v.Decimal.String()
	case int:
		return decimal.NewFromInt(int64(v)).String()
	case int64:
		return decimal.NewFromInt(v).String()
	case *int64:
		if v == nil {
			return ""
		}
		return decimal.NewFromInt(*v).String()
	case float64:
		return decimal.NewFromFloat(v).String()
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return ""
		}
		d, err := decimal.NewFromString(source.NormalizeNumber(s))
		if err != nil {
			return nfc(s)
		}
		return d.String()
	}
	return ""
}

func formatBool(value any) string {
	switch v := value.(type) {
	case bool:
		return boolText(v)
	case *bool:
		if v == nil {
			return ""
		}
		return boolText(*v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return ""
		}
		if b, ok := source.ParseBool(s); ok {
			return boolText(b)
		}
		return nfc(s)
	}
	return ""
}

func boolText(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatDate(value any) string {
	switch v := value.(type) {
	case source.Date:
		if !v.Valid {
			return ""
		}
		return v.Time.Format(time.DateOnly)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(time.DateOnly)
	case string:
		d, err := source.ParseDate(v)
		if err != nil {
			return nfc(v)
		}
		if !d.Valid {
			return ""
		}
		return d.Time.Format(time.DateOnly)
	}
	return ""
}

// translateEnum keeps ESA codes, translates internal codes and passes
// anything else through unchanged for the validator to flag.
func translateEnum(s string, c registry.ColumnDefinition) string {
	if s == "" {
		return ""
	}
	if _, ok := c.Enumeration[s]; ok {
		return s
	}
	lower := strings.ToLower(s)
	if code, ok := c.Translations[lower]; ok {
		return code
	}
	for code := range c.Enumeration {
		if strings.ToLower(code) == lower {
			return code
		}
	}
	return s
}
