// Package config provides centralized configuration for hrreport.
//
// # Configuration Sources
//
// Configuration is layered, highest priority first:
//
//	1. Environment variables (HRREPORT_*), optionally seeded from a .env file
//	2. A YAML file (-config flag, or hrreport.yaml / config.yaml / configs/config.yaml)
//	3. Struct-tag defaults
//
// # Environment Variables
//
// Nested sections join with underscores:
//
//	HRREPORT_SOURCE_PAGE_URL=https://www.thespreadsheetguru.com/sample-data/
//	HRREPORT_DOWNLOAD_TIMEOUT=60s
//	HRREPORT_REPORT_FILTER=active
//	HRREPORT_MAIL_ENABLED=true
//	HRREPORT_MAIL_HOST=smtp.example.com
//	HRREPORT_RETRY_MAX_ATTEMPTS=3
//
// # Path Management
//
// Paths lays out the data, download, work, report, cache and log directories
// relative to the executable. Any artifact location left empty in the
// configuration falls back to its Paths default.
//
// # Validation
//
// Load validates the merged configuration with go-playground/validator and a
// few cross-field checks (mail recipients, workbook extension, poll interval).
package config
