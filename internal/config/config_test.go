package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "EUR", cfg.Organization.BaseCurrency)
	assert.Equal(t, "sqlite", cfg.Source.Driver)
	assert.Equal(t, "roi.db", cfg.Source.DSN)
	assert.True(t, cfg.Export.Strict)
	assert.Equal(t, 20, cfg.Export.TopErrors)
	assert.Equal(t, 60*time.Second, cfg.Export.Timeout)
	assert.Equal(t, 4, cfg.Export.MaxConcurrency)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
organization:
  id: org-7
  lei: 529900t8bm49aursdo55
  name: Example Bank S.A.
  base_currency: sek
source:
  driver: csv
  dir: ./extracts
  delimiter: ";"
export:
  strict: false
  timeout: 2m
log:
  format: JSON
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "org-7", cfg.Organization.ID)
	assert.Equal(t, "529900T8BM49AURSDO55", cfg.Organization.LEI)
	assert.Equal(t, "SEK", cfg.Organization.BaseCurrency)
	assert.Equal(t, "csv", cfg.Source.Driver)
	assert.Equal(t, "./extracts", cfg.Source.Dir)
	assert.Equal(t, ";", cfg.Source.Delimiter)
	assert.False(t, cfg.Export.Strict)
	assert.Equal(t, 2*time.Minute, cfg.Export.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 20, cfg.Export.TopErrors, "unset keys keep their default")
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, `
source:
  dsn: from-file.db
export:
  output_dir: ./from-file
  top_errors: 5
`)
	t.Setenv("ROI_SOURCE__DSN", "from-env.db")
	t.Setenv("ROI_EXPORT__OUTPUT_DIR", "./from-env")
	t.Setenv("ROI_EXPORT__STRICT", "false")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output-dir", "", "")
	flags.Int("top-errors", 0, "")
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--output-dir", "./from-flag", "--verbose"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "./from-flag", cfg.Export.OutputDir, "flags beat env")
	assert.Equal(t, "from-env.db", cfg.Source.DSN, "env beats file")
	assert.Equal(t, 5, cfg.Export.TopErrors, "unset flags do not override")
	assert.False(t, cfg.Export.Strict)
	assert.Equal(t, "from-flag/archive", cfg.Export.ArchiveDir, "archive dir follows the output dir")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "unknown driver", yaml: "source:\n  driver: oracle\n", want: "source.driver"},
		{name: "csv without dir", yaml: "source:\n  driver: csv\n", want: "source.dir"},
		{name: "postgres without dsn", yaml: "source:\n  driver: pgx\n  dsn: \"\"\n", want: "source.dsn"},
		{name: "negative top errors", yaml: "export:\n  top_errors: -1\n", want: "export.top_errors"},
		{name: "bad level", yaml: "log:\n  level: loud\n", want: "log.level"},
		{name: "bad format", yaml: "log:\n  format: xml\n", want: "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.yaml), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf, false).Info("hidden")
	assert.Empty(t, buf.String())

	NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf, true).Debug("shown", "run_id", "r1")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), `"run_id":"r1"`)

	buf.Reset()
	NewLogger(LogConfig{Level: "info", Format: "text"}, &buf, false).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}

func TestParameters(t *testing.T) {
	cfg := &Config{Organization: OrganizationConfig{LEI: "529900T8BM49AURSDO55", Name: "Example", BaseCurrency: "EUR"}}
	org := cfg.Parameters()
	assert.Equal(t, "529900T8BM49AURSDO55", org.LEI)
	assert.Equal(t, "Example", org.Name)
	assert.Equal(t, "EUR", org.BaseCurrency)
}
