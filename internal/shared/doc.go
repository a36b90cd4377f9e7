// Package shared holds helpers used by more than one package. testutil
// contains the in-memory slog handler the package tests assert against.
package shared
