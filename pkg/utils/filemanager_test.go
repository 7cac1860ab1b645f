package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const packageName = "529900T8BM49AURSDO55-2024-12-31.zip"

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(filepath.Join(root, "out"), filepath.Join(root, "out", "archive"))
	fm.now = func() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC) }
	return fm
}

func TestWritePackage_New(t *testing.T) {
	fm := newTestManager(t)

	path, archived, err := fm.WritePackage(packageName, []byte("first"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(fm.OutputDir, packageName), path)
	assert.Empty(t, archived)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))

	entries, err := os.ReadDir(fm.OutputDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temporary files are cleaned up")
	}
}

func TestWritePackage_ArchivesPrevious(t *testing.T) {
	fm := newTestManager(t)

	_, _, err := fm.WritePackage(packageName, []byte("first"))
	require.NoError(t, err)
	path, archived, err := fm.WritePackage(packageName, []byte("second"))
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	require.NotEmpty(t, archived)
	assert.Equal(t, fm.ArchiveDir, filepath.Dir(archived))
	old, err := os.ReadFile(archived)
	require.NoError(t, err)
	assert.Equal(t, "first", string(old))

	base := filepath.Base(archived)
	require.True(t, strings.HasPrefix(base, "529900T8BM49AURSDO55-2024-12-31."))
	require.True(t, strings.HasSuffix(base, ".zip"))
	id, err := ulid.Parse(strings.TrimSuffix(strings.TrimPrefix(base, "529900T8BM49AURSDO55-2024-12-31."), ".zip"))
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(fm.now()), id.Time())
}

func TestWritePackage_InvalidName(t *testing.T) {
	fm := newTestManager(t)

	for _, name := range []string{"", "../escape.zip", "nested/pkg.zip"} {
		_, _, err := fm.WritePackage(name, []byte("x"))
		assert.Error(t, err, name)
	}
}

func TestWriteErrorLog(t *testing.T) {
	fm := newTestManager(t)

	path, err := fm.WriteErrorLog(nil, packageName)
	require.NoError(t, err)
	assert.Empty(t, path, "no log without entries")

	path, err = fm.WriteErrorLog([]ErrorLogEntry{
		{
			Severity:   "error",
			TemplateID: "B_05.01",
			RowNumber:  3,
			Column:     "c0080",
			Code:       "enum_invalid",
			Message:    "value is not in the allowed list",
			Value:      "Atlantis",
			Suggestion: "Use an ISO 3166-1 alpha-2 country code",
		},
		{Severity: "error", Code: "parameters_invalid", Message: "entity LEI is required"},
	}, packageName)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(fm.OutputDir, "529900T8BM49AURSDO55-2024-12-31.errors.txt"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	log := string(content)

	assert.Contains(t, log, "Package:   "+packageName)
	assert.Contains(t, log, "Findings:  2")
	assert.Contains(t, log, "#1 ERROR enum_invalid")
	assert.Contains(t, log, "  Template:   B_05.01\n  Row:        3\n  Column:     c0080\n  Value:      Atlantis\n")
	assert.Contains(t, log, "  Suggestion: Use an ISO 3166-1 alpha-2 country code")
	assert.Contains(t, log, "#2 ERROR parameters_invalid\n  Message:    entity LEI is required\n")
}

func TestErrorLogName(t *testing.T) {
	assert.Equal(t, "a-2024-12-31.errors.txt", ErrorLogName("a-2024-12-31.zip"))
}
