package models

import "time"

type BaselineMetrics struct {
	WeightKG      *float64 `json:"weightKg"`
	AvgSleepHours *float64 `json:"avgSleepHours"`
	Notes         *string  `json:"notes"`
}

// BaselineSubmission is the Submission Sink request body. Null metric fields are
// valid and are sent as JSON null.
type BaselineSubmission struct {
	WeightKG      *float64 `json:"weightKg"`
	AvgSleepHours *float64 `json:"avgSleepHours"`
	Notes         *string  `json:"notes"`
	Plan          string   `json:"plan"`
}

type BaselineRecord struct {
	BaselineSubmission
	ReceivedAt time.Time `json:"receivedAt"`
}

type SinkResponse struct {
	Success *bool `json:"success"`
}
