package records

import "time"

// MedicalRecord references one version of a document held in an external
// content-addressed store. Only Active ever changes, and only from true to
// false when a successor names this record's hash as its previous version.
type MedicalRecord struct {
	ID                  string    `json:"id"`
	Seq                 uint64    `json:"seq"`
	PatientID           string    `json:"patient_id"`
	ContentHash         string    `json:"content_hash"`
	MediaType           string    `json:"media_type"`
	FileName            string    `json:"file_name"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	AuthorID            string    `json:"author_id"`
	Active              bool      `json:"active"`
	PreviousVersionHash string    `json:"previous_version_hash,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// Submission is the caller-supplied part of a new record.
type Submission struct {
	ContentHash         string `json:"content_hash"`
	MediaType           string `json:"media_type"`
	FileName            string `json:"file_name"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	PreviousVersionHash string `json:"previous_version_hash"`
}

// IsUpdate reports whether the submission supersedes an earlier version.
func (s Submission) IsUpdate() bool {
	return s.PreviousVersionHash != ""
}
