package mapper

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FedericoTs/dora-comply/internal/registry"
	"github.com/FedericoTs/dora-comply/internal/source"
)

func mustDef(t *testing.T, id string) registry.TemplateDefinition {
	t.Helper()
	def, err := registry.Default().Get(id)
	require.NoError(t, err)
	return def
}

func TestMapRow_CanonicalValues(t *testing.T) {
	rec := &source.FunctionRecord{
		FunctionID:            "  F-001 ",
		LicensedActivity:      "eba_TA:x1",
		FunctionName:          "Café payments",
		EntityLEI:             "529900t8bm49aursdo55",
		Criticality:           "Critical",
		LastAssessed:          source.NewDate(2024, time.December, 1),
		RTOHours:              decimal.NewNullDecimal(decimal.RequireFromString("4.50")),
		DiscontinuationImpact: "eba_ZZ:x799",
	}

	row := MapRow(rec, mustDef(t, registry.Functions).Columns)

	assert.Equal(t, "F-001", row["c0010"])
	assert.Equal(t, "eba_TA:x1", row["c0020"])
	assert.Equal(t, "Café payments", row["c0030"], "strings are NFC normalised")
	assert.Equal(t, "529900T8BM49AURSDO55", row["c0040"], "LEIs are upper-cased")
	assert.Equal(t, "eba_BT:x28", row["c0050"], "internal code translated to ESA code")
	assert.Equal(t, "2024-12-01", row["c0070"])
	assert.Equal(t, "4.5", row["c0080"])

	v, ok := row["c0090"]
	assert.True(t, ok, "missing values keep their key")
	assert.Equal(t, "", v)
	assert.Len(t, row, len(mustDef(t, registry.Functions).Columns))
}

func TestMapValue_Types(t *testing.T) {
	yes, no := true, false
	days := int64(90)

	tests := []struct {
		name   string
		rec    source.Record
		column string
		want   string
	}{
		{
			name:   "boolean true",
			rec:    &source.ContractDetailRecord{StoresData: &yes},
			column: "c0140",
			want:   "true",
		},
		{
			name:   "boolean false",
			rec:    &source.ContractDetailRecord{StoresData: &no},
			column: "c0140",
			want:   "false",
		},
		{
			name:   "nil boolean",
			rec:    &source.ContractDetailRecord{},
			column: "c0140",
			want:   "",
		},
		{
			name:   "integer",
			rec:    &source.ContractDetailRecord{NoticePeriodEntity: &days},
			column: "c0100",
			want:   "90",
		},
		{
			name:   "unset date",
			rec:    &source.ContractDetailRecord{},
			column: "c0070",
			want:   "",
		},
		{
			name:   "enum alias is case insensitive",
			rec:    &source.ContractDetailRecord{ProviderCodeType: "LEI"},
			column: "c0040",
			want:   "eba_qCO:qx2000",
		},
		{
			name:   "unknown enum passes through",
			rec:    &source.ContractDetailRecord{ProviderCodeType: "duns"},
			column: "c0040",
			want:   "duns",
		},
	}

	def := mustDef(t, registry.ContractsSpecific)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := def.Column(tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.want, MapValue(tt.rec, c))
		})
	}
}

func TestMapValue_LargeNumbersHaveNoExponent(t *testing.T) {
	rec := &source.ProviderRecord{
		AnnualExpense: decimal.NewNullDecimal(decimal.RequireFromString("12345678901234567890.25")),
	}
	c, ok := mustDef(t, registry.Providers).Column("c0100")
	require.True(t, ok)

	assert.Equal(t, "12345678901234567890.25", MapValue(rec, c))
}

func TestMapValue_InvalidRawValuePassesThrough(t *testing.T) {
	rec := &source.FunctionRecord{}
	require.NoError(t, source.Assign(rec, "rto_hours", "four hours"))
	require.NoError(t, source.Assign(rec, "last_assessed", "31/12/2024"))

	row := MapRow(rec, mustDef(t, registry.Functions).Columns)

	assert.Equal(t, "four hours", row["c0080"])
	assert.Equal(t, "31/12/2024", row["c0070"])
}

func TestMapRecords_PreservesOrder(t *testing.T) {
	records := []source.Record{
		&source.ProviderRecord{ProviderCode: "P-2"},
		&source.ProviderRecord{ProviderCode: "P-1"},
		&source.ProviderRecord{ProviderCode: "P-3"},
	}

	rows := MapRecords(records, mustDef(t, registry.Providers))

	require.Len(t, rows, 3)
	assert.Equal(t, "P-2", rows[0]["c0010"])
	assert.Equal(t, "P-1", rows[1]["c0010"])
	assert.Equal(t, "P-3", rows[2]["c0010"])
}

func TestMapRecords_Empty(t *testing.T) {
	rows := MapRecords(nil, mustDef(t, registry.Providers))
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
