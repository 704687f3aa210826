// Package services implements the business logic layer of StudentPulse.
// It sits between the HTTP handlers and the dataset, so handlers only bind
// and render while every rule about selection and derivation lives here.
//
// # Service Layer Responsibilities
//
//	- Loading the cached dataset and deriving Average_Score, Grade and
//	  Attendance_Level for each request
//	- Applying grade and attendance selections (nil selects all, empty selects none)
//	- Building the summary, chart and export views
//	- Publishing dataset events to websocket clients
//	- Tracing and business metrics
//
// # Available Services
//
//	- DashboardService: students, summary, charts, export, reload and status
//	- HealthService: liveness, readiness and version information
//
// # Error Handling
//
// Engine errors (*dataprocessing.SchemaError, *dataprocessing.DataError,
// dataprocessing.ErrEmptyResult) and loader errors (*errors.AppError) are
// wrapped with %w and passed through unchanged in kind, so the HTTP error
// handler can map them. Query problems are reported with the sentinels in
// errors.go.
//
// # Testing
//
// Dependencies are consumed through small interfaces and mocked with testify:
//
//	dataset := &MockDataset{}
//	dataset.On("Snapshot", mock.Anything).Return(snapshot, nil)
//	svc := NewDashboardService(dataset, opts, nil, nil, nil, logger)
package services
