package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FedericoTs/dora-comply/internal/roitest"
	"github.com/FedericoTs/dora-comply/internal/validation"
)

// run executes the CLI with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// csvArgs points the CLI at a directory of CSV extracts.
func csvArgs(sourceDir string) []string {
	return []string{
		"--driver", "csv",
		"--source-dir", sourceDir,
		"--lei", roitest.EntityLEI,
		"--log-level", "error",
	}
}

func invalidExtracts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "B_05_01.csv"),
		[]byte("c0010,c0080\r\nP-1,Atlantis\r\n"), 0o644))
	return dir
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "DORA Register of Information exporter")
	assert.Contains(t, out, "Taxonomy:   4.0")
}

func TestTemplates(t *testing.T) {
	out, err := run(t, "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "B_01.01")
	assert.Contains(t, out, "B_99.01")
	assert.Contains(t, out, "Cross-template references:")
}

func TestTemplates_Codelists(t *testing.T) {
	out, err := run(t, "templates", "--codelists")
	require.NoError(t, err)
	assert.Contains(t, out, "reintegration")
	assert.Contains(t, out, "eba_ZZ:x966 eba_ZZ:x967 eba_ZZ:x968")
	assert.Contains(t, out, "more)", "long lists are elided")
	assert.NotContains(t, out, "Cross-template references:")
}

func TestTemplates_DictionaryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictionary.xlsx")

	out, err := run(t, "templates", "--xlsx", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Data dictionary written")

	out, err = run(t, "templates", "--check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "matches the registry")
}

func TestExport_WritesPackage(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	args := append(csvArgs(t.TempDir()), "export", "--date", "2024-12-31", "--output-dir", outDir)

	out, err := run(t, args...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "complete")

	pkg := filepath.Join(outDir, "529900T8BM49AURSDO55-2024-12-31.zip")
	assert.FileExists(t, pkg)
	assert.NoFileExists(t, filepath.Join(outDir, "529900T8BM49AURSDO55-2024-12-31.errors.txt"))

	_, err = run(t, args...)
	require.NoError(t, err)
	archived, err := filepath.Glob(filepath.Join(outDir, "archive", "529900T8BM49AURSDO55-2024-12-31.*.zip"))
	require.NoError(t, err)
	assert.Len(t, archived, 1, "the replaced package is archived")
}

func TestExport_RejectedInStrictMode(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	args := append(csvArgs(invalidExtracts(t)), "export", "--date", "2024-12-31", "--output-dir", outDir)

	out, err := run(t, args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export rejected")
	assert.Contains(t, out, "enum_invalid")

	assert.NoFileExists(t, filepath.Join(outDir, "529900T8BM49AURSDO55-2024-12-31.zip"))
	log, readErr := os.ReadFile(filepath.Join(outDir, "529900T8BM49AURSDO55-2024-12-31.errors.txt"))
	require.NoError(t, readErr)
	assert.Contains(t, string(log), "Atlantis")
}

func TestExport_Override(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	args := append(csvArgs(invalidExtracts(t)), "export", "--date", "2024-12-31", "--output-dir", outDir, "--override")

	out, err := run(t, args...)
	require.NoError(t, err, out)
	assert.FileExists(t, filepath.Join(outDir, "529900T8BM49AURSDO55-2024-12-31.zip"))
	assert.FileExists(t, filepath.Join(outDir, "529900T8BM49AURSDO55-2024-12-31.errors.txt"))
}

func TestExport_DryRun(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	args := append(csvArgs(t.TempDir()), "export", "--date", "2024-12-31", "--output-dir", outDir, "--dry-run")

	out, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run")
	assert.NoDirExists(t, outDir)
}

func TestExport_InvalidParameters(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	args := append(csvArgs(t.TempDir()), "export", "--date", "2024-02-30", "--output-dir", outDir)

	_, err := run(t, args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reporting parameters")
}

func TestValidate_JSON(t *testing.T) {
	args := append(csvArgs(invalidExtracts(t)), "validate", "--date", "2024-12-31", "--json", "--top-errors", "3")

	out, err := run(t, args...)
	require.ErrorIs(t, err, errValidationFailed)

	var report validation.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.False(t, report.IsValid)
	assert.LessOrEqual(t, len(report.TopErrors), 3)
	assert.NotEmpty(t, report.TopErrors)
}

func TestValidate_Table(t *testing.T) {
	args := append(csvArgs(t.TempDir()), "validate", "--date", "2024-12-31")

	out, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "OVERALL", "go-pretty upper-cases footers")
	assert.Contains(t, out, "B_05.01")
}

func TestDBMigrate(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "roi.db")

	out, err := run(t, "--driver", "sqlite", "--dsn", dsn, "--log-level", "error", "db", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 1")

	out, err = run(t, "--driver", "sqlite", "--dsn", dsn, "db", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 1")
}

func TestDBMigrate_CSVDriver(t *testing.T) {
	_, err := run(t, "--driver", "csv", "--source-dir", t.TempDir(), "db", "migrate")
	assert.Error(t, err)
}
