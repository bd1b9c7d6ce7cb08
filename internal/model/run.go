package model

import "time"

// RunStatus represents the terminal state of a persisted detection run.
type RunStatus string

const (
	RunStatusComplete RunStatus = "complete"
	RunStatusDegraded RunStatus = "degraded" // at least one pass failed at the index stage
)

// Run is the persisted record of one detection run: its parameters,
// input accounting and result counts. Pairs are stored alongside it.
type Run struct {
	ID            string    `json:"id"`
	Source        string    `json:"source"`
	Mode          Mode      `json:"mode"`
	ThresholdKm   float64   `json:"threshold_km"`
	MinNameLength int       `json:"min_name_length"`
	TotalRecords  int       `json:"total_records"`
	Secured       int       `json:"secured"`
	Unsecured     int       `json:"unsecured"`
	PairCount     int       `json:"pair_count"`
	Status        RunStatus `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
