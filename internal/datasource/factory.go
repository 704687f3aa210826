package datasource

import (
	"fmt"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"studentpulse/internal/config"
	apperrors "studentpulse/internal/errors"
)

// NewRowSource builds the RowSource selected by cfg.Source.
func NewRowSource(cfg config.DataConfig) (RowSource, error) {
	switch cfg.Source {
	case config.SourceCSV:
		return NewCSVSource(cfg.Path), nil
	case config.SourceXLSX:
		return NewXLSXSource(cfg.Path, cfg.Sheet), nil
	case config.SourceSheets:
		opts, err := sheetsOptions(cfg)
		if err != nil {
			return nil, err
		}
		return NewSheetsSource(cfg.SpreadsheetID, cfg.Range, opts...), nil
	}
	return nil, apperrors.NewConfigError(fmt.Sprintf("unknown data source %q", cfg.Source), nil)
}

// sheetsOptions prefers service account credentials over an API key.
func sheetsOptions(cfg config.DataConfig) ([]option.ClientOption, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}

	if cfg.CredentialsFile != "" {
		credentialsJSON, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to read sheets credentials", err).
				WithContext("path", cfg.CredentialsFile)
		}
		if len(credentialsJSON) == 0 {
			return nil, apperrors.NewConfigError("sheets credentials file is empty", nil)
		}
		return append(opts, option.WithCredentialsJSON(credentialsJSON)), nil
	}

	if cfg.APIKey != "" {
		return append(opts, option.WithAPIKey(cfg.APIKey)), nil
	}

	return nil, apperrors.NewConfigError("sheets source needs an api key or credentials file", nil)
}

// SchemaFor returns the column schema described by cfg.
func SchemaFor(cfg config.DataConfig) Schema {
	return Schema{Subjects: append([]string(nil), cfg.Subjects...)}
}
