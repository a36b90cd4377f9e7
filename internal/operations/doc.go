// Package operations runs the report pipeline.
//
// Each attempt executes the registered steps in order: page fetch, download
// wait, archive extraction, data transform, report generation and the report
// email. A failing step ends the attempt and the remaining steps are skipped.
// Attempts share nothing; every one opens its own browser and starts a fresh
// download wait.
//
// Runner wraps the Pipeline in a RetryPolicy (three attempts, one second
// apart by default). When every attempt fails it emails the last error through
// an ErrorReporter and returns an OperationError of type exhausted.
package operations
