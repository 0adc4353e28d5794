package common

import (
	"github.com/google/uuid"
)

// NewReportID generates a unique report ID with the "rpt_" prefix
func NewReportID() string {
	return "rpt_" + uuid.New().String()
}

// NewMetricID generates a unique metric ID with the "met_" prefix
func NewMetricID() string {
	return "met_" + uuid.New().String()
}

// NewAlertID generates a unique alert ID with the "alt_" prefix
func NewAlertID() string {
	return "alt_" + uuid.New().String()
}

// NewAnalysisID generates a unique analysis ID with the "ana_" prefix
func NewAnalysisID() string {
	return "ana_" + uuid.New().String()
}
