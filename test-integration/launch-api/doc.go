// Package integration provides integration tests for the launch registry API server.
// These tests run the complete server lifecycle against API and file sources,
// including initial population, background sync, manual sync and launch filtering.
package integration
