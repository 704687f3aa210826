// Package http implements the HTTP handlers of the StudentPulse dashboard
// API. Handlers only bind query parameters, validate them and render the
// result; selection, derivation and aggregation live in internal/services.
//
// # Routes
//
//	GET  /api/students          filtered derived rows
//	GET  /api/summary           KPI aggregates
//	GET  /api/charts            histogram, grade distribution, scatter, top N, correlation
//	GET  /api/export/{format}   csv or xlsx download
//	GET  /api/dataset           cached dataset status
//	POST /api/dataset/reload    re-read the dataset
//	POST /api/logs              frontend log entries
//	GET  /api/health{,/live,/ready}, /api/version
//
// Filters repeat (grade=A&grade=B) or use commas (grade=A,B). Omitting a
// filter selects every value; the value "none" selects nothing. With
// strict=true an empty selection answers 404.
//
// # Error Handling
//
// All errors are rendered as RFC 7807 Problem Details by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Validation Failed",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/charts",
//	    "trace_id": "..."
//	}
package http
