package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envVars lists every variable the tests touch so each case starts clean.
var envVars = []string{
	"STUDENTPULSE_SERVER_PORT", "STUDENTPULSE_SERVER_READ_TIMEOUT",
	"STUDENTPULSE_SECURITY_ALLOWED_ORIGINS", "STUDENTPULSE_SECURITY_ENABLE_CORS",
	"STUDENTPULSE_LOGGING_LEVEL", "STUDENTPULSE_LOGGING_FORMAT",
	"STUDENTPULSE_DATA_SOURCE", "STUDENTPULSE_DATA_PATH", "STUDENTPULSE_DATA_SUBJECTS",
	"STUDENTPULSE_DATA_MISSING_POLICY", "STUDENTPULSE_DATA_SPREADSHEET_ID",
	"STUDENTPULSE_DATA_RANGE", "STUDENTPULSE_DATA_API_KEY",
	"STUDENTPULSE_WEBSOCKET_READ_BUFFER_SIZE", "STUDENTPULSE_CONFIG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, envVar := range envVars {
		t.Setenv(envVar, "")
		os.Unsetenv(envVar)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.EnableCORS)
				assert.Equal(t, 100.0, cfg.Security.RateLimit.RPS)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)

				assert.Equal(t, SourceCSV, cfg.Data.Source)
				assert.Equal(t, "data/student_data.csv", cfg.Data.Path)
				assert.Equal(t, []string{"Math", "Science", "English"}, cfg.Data.Subjects)
				assert.Equal(t, "exclude", cfg.Data.MissingPolicy)
				assert.True(t, cfg.Data.ExportBOM)

				assert.Equal(t, 1024, cfg.WebSocket.ReadBufferSize)
				assert.Equal(t, "studentpulse", cfg.Telemetry.ServiceName)
			},
		},
		{
			name: "environment variables",
			env: map[string]string{
				"STUDENTPULSE_SERVER_PORT":                "9090",
				"STUDENTPULSE_SERVER_READ_TIMEOUT":        "30s",
				"STUDENTPULSE_SECURITY_ALLOWED_ORIGINS":   "http://example.com,https://example.com",
				"STUDENTPULSE_SECURITY_ENABLE_CORS":       "false",
				"STUDENTPULSE_LOGGING_LEVEL":              "DEBUG",
				"STUDENTPULSE_LOGGING_FORMAT":             "text",
				"STUDENTPULSE_DATA_SUBJECTS":              "Math, Physics",
				"STUDENTPULSE_DATA_MISSING_POLICY":        "FAIL",
				"STUDENTPULSE_WEBSOCKET_READ_BUFFER_SIZE": "2048",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://example.com", "https://example.com"}, cfg.Security.AllowedOrigins)
				assert.False(t, cfg.Security.EnableCORS)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, []string{"Math", "Physics"}, cfg.Data.Subjects)
				assert.Equal(t, "fail", cfg.Data.MissingPolicy)
				assert.Equal(t, 2048, cfg.WebSocket.ReadBufferSize)
			},
		},
		{
			name: "file values overlay defaults",
			file: `
server:
  port: 6060
data:
  source: xlsx
  path: /srv/grades.xlsx
  sheet: Term1
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6060, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, SourceXLSX, cfg.Data.Source)
				assert.Equal(t, "/srv/grades.xlsx", cfg.Data.Path)
				assert.Equal(t, "Term1", cfg.Data.Sheet)
				assert.Equal(t, []string{"Math", "Science", "English"}, cfg.Data.Subjects)
			},
		},
		{
			name: "environment overrides file",
			env: map[string]string{
				"STUDENTPULSE_SERVER_PORT":   "7070",
				"STUDENTPULSE_LOGGING_LEVEL": "warn",
			},
			file: `
server:
  port: 6060
  read_timeout: 20s
logging:
  level: error
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, 20*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "warn", cfg.Logging.Level)
			},
		},
		{
			name: "sheets source",
			env: map[string]string{
				"STUDENTPULSE_DATA_SOURCE":         "sheets",
				"STUDENTPULSE_DATA_SPREADSHEET_ID": "abc123",
				"STUDENTPULSE_DATA_RANGE":          "Scores!A1:F",
				"STUDENTPULSE_DATA_API_KEY":        "key",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, SourceSheets, cfg.Data.Source)
				assert.Equal(t, "abc123", cfg.Data.SpreadsheetID)
				assert.Equal(t, "Scores!A1:F", cfg.Data.Range)
			},
		},
		{
			name:    "invalid port number",
			env:     map[string]string{"STUDENTPULSE_SERVER_PORT": "99999"},
			wantErr: true,
		},
		{
			name:    "negative timeout",
			env:     map[string]string{"STUDENTPULSE_SERVER_READ_TIMEOUT": "-5s"},
			wantErr: true,
		},
		{
			name:    "empty allowed origins with cors",
			env:     map[string]string{"STUDENTPULSE_SECURITY_ALLOWED_ORIGINS": ""},
			wantErr: true,
		},
		{
			name:    "unknown data source",
			env:     map[string]string{"STUDENTPULSE_DATA_SOURCE": "parquet"},
			wantErr: true,
		},
		{
			name:    "sheets source without credentials",
			env:     map[string]string{"STUDENTPULSE_DATA_SOURCE": "sheets", "STUDENTPULSE_DATA_SPREADSHEET_ID": "x", "STUDENTPULSE_DATA_RANGE": "A1:F"},
			wantErr: true,
		},
		{
			name:    "blank subjects",
			env:     map[string]string{"STUDENTPULSE_DATA_SUBJECTS": " , "},
			wantErr: true,
		},
		{
			name:    "unknown missing policy",
			env:     map[string]string{"STUDENTPULSE_DATA_MISSING_POLICY": "zero"},
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			env:     map[string]string{"STUDENTPULSE_LOGGING_LEVEL": "chatty"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFile(path)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_ExplicitConfigEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(ConfigFileEnv, writeConfigFile(t, "server:\n  port: 5050\n"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5050, cfg.Server.Port)
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	// Default returns an independent copy each call
	cfg.Data.Subjects[0] = "Art"
	assert.Equal(t, "Math", Default().Data.Subjects[0])
}
