// Package config provides centralized configuration management for the
// dashboard server and report CLI. It handles loading configuration from
// multiple sources, validation, and provides a type-safe API for accessing
// configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// The YAML file is taken from STUDENTPULSE_CONFIG when set, otherwise from
// config.yaml or configs/config.yaml in the working directory.
//
// # Environment Variables
//
// All environment variables follow the pattern STUDENTPULSE_<SECTION>_<FIELD>:
//
//	STUDENTPULSE_SERVER_PORT=8080
//	STUDENTPULSE_DATA_SOURCE=xlsx
//	STUDENTPULSE_DATA_PATH=data/student_data.xlsx
//	STUDENTPULSE_DATA_SUBJECTS=Math,Science,English
//	STUDENTPULSE_DATA_MISSING_POLICY=exclude
//	STUDENTPULSE_LOGGING_LEVEL=debug
//
// # Data Sources
//
// Data.Source selects where student rows come from:
//
//	csv     local CSV file at Data.Path
//	xlsx    local workbook at Data.Path, sheet Data.Sheet
//	sheets  Google Sheets Data.SpreadsheetID / Data.Range using
//	        Data.APIKey or Data.CredentialsFile
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests should use Default() and adjust fields directly.
package config
