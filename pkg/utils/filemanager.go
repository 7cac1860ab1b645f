// =============================================================================
// DORA Register of Information - File Manager Utility
// =============================================================================
//
// This module writes export artifacts to disk:
//   - Report packages, written atomically
//   - Archival of the package a new export replaces
//   - Error log generation
//   - Directory management
//
// ATOMIC WRITES:
//   Files are written to a temporary file in the target directory, synced,
//   and renamed into place. Readers never see a partial package.
//
// ARCHIVAL STRATEGY:
//   - An existing package with the same name (same entity and reporting
//     date) is moved to the archive directory before the new one is
//     renamed into place.
//   - Archived names carry a ULID suffix, so they sort by archival time:
//     archive/529900T8BM49AURSDO55-2024-12-31.01J9Z3....zip
//   - Nothing is archived when no package exists yet.
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for exports.
type FileManager struct {
	// OutputDir is where packages and error logs are written.
	OutputDir string

	// ArchiveDir receives packages replaced by a newer export.
	ArchiveDir string

	// now is replaced in tests.
	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
		now:        time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// PACKAGE OUTPUT
// =============================================================================

// WritePackage writes a package to the output directory.
//
// PARAMETERS:
//   - name: The package file name, without directory.
//   - data: The archive bytes.
//
// RETURNS:
//   - The path of the written package.
//   - The path the previous package was archived to, or "".
//   - An error if writing fails. The output directory then still holds
//     the previous package, if any, either in place or archived.
func (fm *FileManager) WritePackage(name string, data []byte) (path, archived string, err error) {
	if name == "" || name != filepath.Base(name) {
		return "", "", fmt.Errorf("invalid package name %q", name)
	}
	if err := fm.EnsureDirectories(); err != nil {
		return "", "", err
	}

	path = filepath.Join(fm.OutputDir, name)
	tmp, err := writeTemp(fm.OutputDir, name, data)
	if err != nil {
		return "", "", err
	}

	if FileExists(path) && fm.ArchiveDir != "" {
		archived = fm.archivePath(name)
		if err := os.Rename(path, archived); err != nil {
			_ = os.Remove(tmp)
			return "", "", fmt.Errorf("failed to archive previous package: %w", err)
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", archived, fmt.Errorf("failed to move package into place: %w", err)
	}
	return path, archived, nil
}

// archivePath constructs the archive path for a replaced package.
func (fm *FileManager) archivePath(name string) string {
	ext := filepath.Ext(name)
	id := ulid.MustNew(ulid.Timestamp(fm.now()), ulid.DefaultEntropy())
	return filepath.Join(fm.ArchiveDir, fmt.Sprintf("%s.%s%s", strings.TrimSuffix(name, ext), id, ext))
}

// writeTemp writes data to a synced temporary file in dir and returns its
// path.
func writeTemp(dir, name string, data []byte) (string, error) {
	file, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmp := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	return tmp, nil
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Severity   string
	TemplateID string
	RowNumber  int
	Column     string
	Code       string
	Message    string
	Value      string
	Suggestion string
}

// ErrorLogName returns the error log name for a package, e.g.
// "529900T8BM49AURSDO55-2024-12-31.errors.txt".
func ErrorLogName(packageName string) string {
	return strings.TrimSuffix(packageName, filepath.Ext(packageName)) + ".errors.txt"
}

// WriteErrorLog writes error entries to a log file next to a package.
//
// PARAMETERS:
//   - entries:     The entries to write.
//   - packageName: The package the entries belong to.
//
// RETURNS:
//   - The path to the error log file, or "" when there are no entries.
//   - An error if writing fails.
func (fm *FileManager) WriteErrorLog(entries []ErrorLogEntry, packageName string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}

	var b strings.Builder
	w := bufio.NewWriter(&b)

	fmt.Fprintf(w, "DORA Register of Information - Error Log\n"+
		"Package:   %s\n"+
		"Generated: %s\n"+
		"Findings:  %d\n"+
		"================================================================================\n\n",
		packageName,
		fm.now().UTC().Format(time.RFC3339),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(w, "#%d %s %s\n", i+1, strings.ToUpper(entry.Severity), entry.Code)
		if entry.TemplateID != "" {
			fmt.Fprintf(w, "  Template:   %s\n", entry.TemplateID)
		}
		if entry.RowNumber > 0 {
			fmt.Fprintf(w, "  Row:        %d\n", entry.RowNumber)
		}
		if entry.Column != "" {
			fmt.Fprintf(w, "  Column:     %s\n", entry.Column)
		}
		if entry.Value != "" {
			fmt.Fprintf(w, "  Value:      %s\n", entry.Value)
		}
		fmt.Fprintf(w, "  Message:    %s\n", entry.Message)
		if entry.Suggestion != "" {
			fmt.Fprintf(w, "  Suggestion: %s\n", entry.Suggestion)
		}
		w.WriteString("\n")
	}

	w.WriteString("================================================================================\n" +
		"End of Error Log\n")
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	name := ErrorLogName(packageName)
	tmp, err := writeTemp(fm.OutputDir, name, []byte(b.String()))
	if err != nil {
		return "", err
	}
	path := filepath.Join(fm.OutputDir, name)
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move error log into place: %w", err)
	}
	return path, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
