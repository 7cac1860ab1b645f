package packager

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FedericoTs/dora-comply/internal/registry"
	"github.com/FedericoTs/dora-comply/internal/roitest"
	"github.com/FedericoTs/dora-comply/internal/types"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = content
	}
	return out
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "529900T8BM49AURSDO55-2024-12-31.zip", FileName(roitest.Parameters()))
}

func TestBuildPackageZip_Layout(t *testing.T) {
	reg := registry.Default()
	b := NewBuilder(reg, WithClock(fixedClock(time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC))))

	pkg, err := b.BuildPackageZip(roitest.Parameters(), roitest.Rows())
	require.NoError(t, err)

	assert.Equal(t, "529900T8BM49AURSDO55-2024-12-31.zip", pkg.FileName)
	require.Len(t, pkg.Files, reg.Len()+1)
	assert.Equal(t, ManifestName, pkg.Files[0])
	assert.Equal(t, "B_01_01.csv", pkg.Files[1])
	assert.Equal(t, "B_99_01.csv", pkg.Files[len(pkg.Files)-1])

	files := readZip(t, pkg.Data)
	assert.Len(t, files, reg.Len()+1)

	providers := string(files["B_05_01.csv"])
	assert.Equal(t,
		"c0010,c0020,c0030,c0040,c0050,c0060,c0070,c0080,c0090,c0100,c0110,c0120\r\n"+
			"969500KLMNOPQR34ST12,eba_qCO:qx2000,,,Acme Cloud Services Ltd,,eba_CT:x212,eba_GA:IE,eba_CU:EUR,240000,,\r\n",
		providers)
	assert.False(t, bytes.HasPrefix(files["B_05_01.csv"], []byte{0xEF, 0xBB, 0xBF}), "no BOM")

	assert.Equal(t, "c0010,c0020,c0030,c0040\r\n", string(files["B_01_03.csv"]), "empty templates keep their header")
}

func TestBuildPackageZip_Manifest(t *testing.T) {
	b := NewBuilder(registry.Default(), WithClock(fixedClock(time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC))))

	pkg, err := b.BuildPackageZip(roitest.Parameters(), roitest.Rows())
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(readZip(t, pkg.Data)[ManifestName], &m))

	assert.Equal(t, DocumentType, m.DocumentInfo.DocumentType)
	assert.Equal(t, registry.TaxonomyVersion, m.DocumentInfo.TaxonomyVersion)
	assert.Equal(t, Parameters{
		EntityID:     "rs:529900T8BM49AURSDO55",
		RefPeriod:    "2024-12-31",
		BaseCurrency: "iso4217:EUR",
	}, m.Parameters)
	assert.Equal(t, "2025-01-15T10:00:00Z", m.GeneratedAt)

	require.Len(t, m.FilingIndicators, registry.Default().Len())
	indicators := map[string]bool{}
	for _, fi := range m.FilingIndicators {
		indicators[fi.TemplateID] = fi.Reported
	}
	assert.True(t, indicators[registry.EntityRegister])
	assert.False(t, indicators[registry.Branches])

	assert.Equal(t, Table{TemplateID: registry.EntitiesInScope, File: "B_01_02.csv", RowCount: 2}, m.Tables[1])
}

func TestBuildPackageZip_Deterministic(t *testing.T) {
	b := NewBuilder(registry.Default(), WithClock(fixedClock(time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC))))

	first, err := b.BuildPackageZip(roitest.Parameters(), roitest.Rows())
	require.NoError(t, err)
	second, err := b.BuildPackageZip(roitest.Parameters(), roitest.Rows())
	require.NoError(t, err)

	assert.Equal(t, first.FileName, second.FileName)
	assert.Equal(t, first.Data, second.Data)

	zr, err := zip.NewReader(bytes.NewReader(first.Data), int64(len(first.Data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		assert.Equal(t, "2024-12-31", f.Modified.UTC().Format(time.DateOnly), f.Name)
	}
}

func TestBuildPackageZip_SerializationError(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "invalid utf-8", value: "caf\xe9"},
		{name: "control character", value: "bell\x07"},
		{name: "lone carriage return", value: "a\rb"},
		{name: "trailing carriage return", value: "ab\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := roitest.Rows()
			row := data[registry.Providers][0].Clone()
			row["c0050"] = tt.value
			data[registry.Providers] = []types.TemplateRow{row}

			pkg, err := NewBuilder(registry.Default()).BuildPackageZip(roitest.Parameters(), data)

			assert.Nil(t, pkg)
			var serr *SerializationError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, registry.Providers, serr.TemplateID)
			assert.Equal(t, 0, serr.RowIndex)
			assert.Equal(t, "c0050", serr.ESACode)
		})
	}
}

func TestWriteTemplateCSV_QuotesAndLineBreaks(t *testing.T) {
	def, err := registry.Default().Get(registry.Definitions)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTemplateCSV(&buf, def, []types.TemplateRow{
		{"c0010": "B_06.01.c0050", "c0020": "x28", "c0030": "Critical, as in \"important\"\tper policy\nline two"},
	}))

	assert.Equal(t,
		"c0010,c0020,c0030\r\n"+
			"B_06.01.c0050,x28,\"Critical, as in \"\"important\"\"\tper policy\r\nline two\"\r\n",
		buf.String())
}

func TestWriteTemplateCSV_LoneCarriageReturn(t *testing.T) {
	def, err := registry.Default().Get(registry.Definitions)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = WriteTemplateCSV(&buf, def, []types.TemplateRow{
		{"c0010": "B_01.01.c0010", "c0020": "a\rb", "c0030": "x\ny"},
	})

	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "c0020", serr.ESACode)
	assert.Zero(t, buf.Len(), "nothing is written when a cell is rejected")

	buf.Reset()
	require.NoError(t, WriteTemplateCSV(&buf, def, []types.TemplateRow{
		{"c0010": "B_01.01.c0010", "c0020": "a\r\nb"},
	}))
	assert.Contains(t, buf.String(), "\"a\r\nb\"")
}

func TestBuildPackageZip_UnknownTemplate(t *testing.T) {
	_, err := NewBuilder(registry.Default()).BuildPackageZip(roitest.Parameters(), types.TemplateData{"B_42.01": nil})

	var unknown *registry.UnknownTemplateError
	assert.ErrorAs(t, err, &unknown)
}
