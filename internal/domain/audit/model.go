package audit

import "time"

// Action tags written by the event recorder.
const (
	ActionAdminRegistered   = "ADMIN_REGISTERED"
	ActionDoctorRegistered  = "DOCTOR_REGISTERED"
	ActionPatientRegistered = "PATIENT_REGISTERED"
	ActionAccessGranted     = "ACCESS_GRANTED"
	ActionAccessRevoked     = "ACCESS_REVOKED"
	ActionRecordAdded       = "RECORD_ADDED"
	ActionRecordUpdated     = "RECORD_UPDATED"
)

// Entry is one immutable line of the audit ledger. Seq gives the total
// insertion order.
type Entry struct {
	Seq        uint64    `json:"seq"`
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	ActionType string    `json:"action_type"`
	Subject    string    `json:"subject"`
	Details    string    `json:"details"`
	Timestamp  time.Time `json:"timestamp"`
}

// Filter narrows a query by actor, subject or both. Empty fields match
// everything.
type Filter struct {
	Actor   string
	Subject string
}
