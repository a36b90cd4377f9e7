package config

import "time"

// Application constants
const (
	AppName    = "hrreport"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. HRREPORT_MAIL_HOST
	EnvPrefix = "HRREPORT"

	// Dataset source
	DefaultPageURL     = "https://www.thespreadsheetguru.com/sample-data/"
	DefaultButtonXPath = "/html/body/section/div/div[1]/article/div[6]/div/div/a"

	// Artifact names
	DefaultWorkbookName = "Employee_Data_Summary.xlsx"
	DefaultCSVName      = "Employee_Data_Summary.csv"
	DefaultSnapshotName = "PivotTable_Data_Insights.png"

	// Log and telemetry files (under logs/)
	DefaultLogFile     = "hrreport.log"
	DefaultTraceFile   = "traces.json"
	DefaultMetricsFile = "hrreport.prom"

	// Retry policy
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 1 * time.Second
)
