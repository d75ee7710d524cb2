package types

import "time"

// Export describes a JSON snapshot of a user's goals and notes stored in
// object storage.
type Export struct {
	ID        string    `json:"id"`
	ObjectKey string    `json:"objectKey"`
	SHA256    string    `json:"sha256"`
	Goals     int       `json:"goals"`
	Notes     int       `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExportSnapshot is the document written for an export.
type ExportSnapshot struct {
	User       Identity       `json:"user"`
	ExportedAt time.Time      `json:"exportedAt"`
	Goals      []Goal         `json:"goals"`
	Notes      []ProgressNote `json:"notes"`
}
