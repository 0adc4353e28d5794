package models

import "errors"

// Storage sentinel errors. Defined here so services can match them with
// errors.Is without depending on a storage implementation.
var (
	ErrReportNotFound = errors.New("report not found")

	// ErrDuplicateSourceURL rejects ingestion of an already-known source.
	// Source URLs are globally unique.
	ErrDuplicateSourceURL = errors.New("report with this source URL already exists")

	ErrAnalysisNotFound = errors.New("analysis not found")
)
