package source

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one internal row feeding a template.
type Record interface {
	TemplateID() string
}

// =============================================================================
// META
// =============================================================================

// Meta is embedded in every record. It keeps values a source could not
// convert to the field's type, so the mapper can hand them through verbatim
// and the validator reports them instead of the fetch failing.
type Meta struct {
	invalid map[string]string
}

// InvalidValue returns the raw value kept for a column that failed
// conversion.
func (m Meta) InvalidValue(column string) (string, bool) {
	v, ok := m.invalid[column]
	return v, ok
}

func (m *Meta) setInvalid(column, raw string) {
	if m.invalid == nil {
		m.invalid = map[string]string{}
	}
	m.invalid[column] = raw
}

// =============================================================================
// DATE
// =============================================================================

// Date is a nullable calendar date. It scans from time.Time, string and
// []byte driver values.
type Date struct {
	Time  time.Time
	Valid bool
}

// NewDate returns a valid Date for y-m-d.
func NewDate(y int, m time.Month, d int) Date {
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.RFC3339Nano,
	time.DateTime,
	"2006-01-02T15:04:05",
}

// ParseDate accepts YYYY-MM-DD and common timestamp layouts.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t, Valid: true}, nil
		}
	}
	return Date{}, fmt.Errorf("unrecognised date %q", s)
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = Date{Time: v, Valid: true}
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Time.Format(time.DateOnly), nil
}

// =============================================================================
// FIELD ACCESS
// =============================================================================

type fieldIndex map[string]int

var fieldCache sync.Map // reflect.Type -> fieldIndex

func fieldsOf(t reflect.Type) fieldIndex {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(fieldIndex)
	}
	idx := fieldIndex{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous || !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		idx[tag] = i
	}
	fieldCache.Store(t, idx)
	return idx
}

func structValue(rec Record) (reflect.Value, bool) {
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.Kind() == reflect.Struct
}

// FieldValue returns the value of the field tagged column. Missing columns
// report ok == false.
func FieldValue(rec Record, column string) (any, bool) {
	v, ok := structValue(rec)
	if !ok {
		return nil, false
	}
	i, ok := fieldsOf(v.Type())[column]
	if !ok {
		return nil, false
	}
	return v.Field(i).Interface(), true
}

// InvalidValue returns the raw value a source could not convert.
func InvalidValue(rec Record, column string) (string, bool) {
	if m, ok := rec.(interface {
		InvalidValue(string) (string, bool)
	}); ok {
		return m.InvalidValue(column)
	}
	return "", false
}

// Assign converts a driver or text value into the record field tagged
// column. rec must be a pointer. Values that cannot be converted are kept
// raw on the record's Meta rather than failing.
func Assign(rec Record, column string, value any) error {
	pv := reflect.ValueOf(rec)
	if pv.Kind() != reflect.Pointer || pv.IsNil() {
		return fmt.Errorf("assign %s: record must be a non-nil pointer", column)
	}
	v := pv.Elem()
	i, ok := fieldsOf(v.Type())[column]
	if !ok {
		return fmt.Errorf("assign %s: %T has no such column", column, rec)
	}

	field := v.Field(i)
	if raw, ok := convert(field, value); !ok {
		if meta := v.FieldByName("Meta"); meta.IsValid() && meta.CanAddr() {
			meta.Addr().Interface().(*Meta).setInvalid(column, raw)
		}
	}
	return nil
}

var (
	dateType        = reflect.TypeOf(Date{})
	decimalType     = reflect.TypeOf(decimal.Decimal{})
	nullDecimalType = reflect.TypeOf(decimal.NullDecimal{})
)

// convert stores value in field. On failure it returns the raw text form
// and false.
func convert(field reflect.Value, value any) (string, bool) {
	if b, ok := value.([]byte); ok {
		value = string(b)
	}
	raw := rawText(value)

	switch field.Type() {
	case dateType:
		var d Date
		if err := d.Scan(value); err != nil {
			return raw, false
		}
		field.Set(reflect.ValueOf(d))
		return "", true

	case nullDecimalType:
		if isBlank(value) {
			field.Set(reflect.ValueOf(decimal.NullDecimal{}))
			return "", true
		}
		d, ok := toDecimal(value)
		if !ok {
			return raw, false
		}
		field.Set(reflect.ValueOf(decimal.NullDecimal{Decimal: d, Valid: true}))
		return "", true

	case decimalType:
		d, ok := toDecimal(value)
		if !ok && !isBlank(value) {
			return raw, false
		}
		field.Set(reflect.ValueOf(d))
		return "", true
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
		return "", true

	case reflect.Pointer:
		if isBlank(value) {
			field.Set(reflect.Zero(field.Type()))
			return "", true
		}
		elem := reflect.New(field.Type().Elem())
		if _, ok := convert(elem.Elem(), value); !ok {
			return raw, false
		}
		field.Set(elem)
		return "", true

	case reflect.Bool:
		b, ok := toBool(value)
		if !ok {
			return raw, false
		}
		field.SetBool(b)
		return "", true

	case reflect.Int, reflect.Int32, reflect.Int64:
		n, ok := toInt(value)
		if !ok {
			return raw, false
		}
		field.SetInt(n)
		return "", true

	case reflect.Float64:
		d, ok := toDecimal(value)
		if !ok {
			return raw, false
		}
		f, _ := d.Float64()
		field.SetFloat(f)
		return "", true
	}

	return raw, false
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) == ""
}

func rawText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.DateOnly)
	}
	return fmt.Sprint(value)
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case int64:
		return decimal.NewFromInt(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case float64:
		return decimal.NewFromFloat(v), true
	case decimal.Decimal:
		return v, true
	case string:
		d, err := decimal.NewFromString(NormalizeNumber(v))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

func toInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func toBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case int64:
		switch v {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	case string:
		return ParseBool(v)
	}
	return false, false
}

// ParseBool accepts the usual spellings of yes and no.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

// NormalizeNumber trims spaces and turns a lone decimal comma into a point
// ("1234,5" -> "1234.5"). Strings mixing separators are left alone.
func NormalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}
