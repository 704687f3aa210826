// Package shared holds helpers used across packages that belong to no
// single layer.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and student record fixtures (sample records, CSV rendering and
// temp-file helpers) shared by the datasource, service and HTTP tests.
//
//	logger, logs := testutil.NewTestLogger(t)
//	path := testutil.WriteStudentsCSV(t, testutil.SampleStudentsCSV)
//
// Nothing here may import business packages other than pkg/contracts.
package shared
