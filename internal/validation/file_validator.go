package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"studentpulse/internal/config"
	apperrors "studentpulse/internal/errors"
)

// extensions accepted per local source kind
var extensions = map[string][]string{
	config.SourceCSV:  {".csv"},
	config.SourceXLSX: {".xlsx", ".xlsm"},
}

// FileValidator checks local data files before they are read or written
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateDataFile checks that path is a readable regular file whose
// extension matches the source kind. Office lock files (~$name.xlsx) are
// rejected.
func (v *FileValidator) ValidateDataFile(path, source string) error {
	allowed, ok := extensions[source]
	if !ok {
		return apperrors.NewConfigError(fmt.Sprintf("%q is not a file source", source), nil)
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Warn("Data file does not exist", slog.String("file", path))
		return apperrors.NewUnavailableError("data file not found", err).WithContext("path", path)
	}
	if err != nil {
		return apperrors.NewSourceError("failed to stat data file", err).WithContext("path", path)
	}
	if info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a data file", path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !contains(allowed, ext) {
		v.logger.Warn("Unexpected data file extension",
			slog.String("file", path),
			slog.String("source", source),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s source expects %s, got %q", source, strings.Join(allowed, " or "), ext))
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a spreadsheet lock file", path))
	}

	f, err := os.Open(path)
	if err != nil {
		return apperrors.NewSourceError("data file is not readable", err).WithContext("path", path)
	}
	f.Close()

	v.logger.Debug("Data file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputFile makes sure the parent directory of path exists and is
// writable, and that path itself is not a directory.
func (v *FileValidator) ValidateOutputFile(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory", path))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewStorageError("failed to create output directory", err).WithContext("directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("output directory is not writable", err).WithContext("directory", dir)
	}
	probe.Close()
	os.Remove(probe.Name())

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
