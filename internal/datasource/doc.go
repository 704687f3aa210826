// Package datasource loads student rows from CSV files, Excel workbooks or
// Google Sheets and keeps the most recent successful load as a snapshot.
//
// Reading is split in two steps. A RowSource returns a raw Table of strings,
// and ParseTable turns that table into domain.StudentRecord values, reporting
// missing columns as *dataprocessing.SchemaError and unparseable cells as
// *dataprocessing.DataError.
//
// DataSource wraps a RowSource with load-once caching:
//
//	src := datasource.New(datasource.NewCSVSource("data/student_data.csv"), schema, logger)
//	records, err := src.Records(ctx)  // loads on first use
//	snap, err := src.Reload(ctx)      // forces a fresh read
//
// Concurrent loads are coalesced with singleflight. A failed reload keeps
// the previous snapshot in place.
package datasource
