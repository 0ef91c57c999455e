package access

import "time"

// Grant records that a patient's documents are readable by a doctor.
// Position is the patient's slot in the doctor's grant list.
type Grant struct {
	DoctorID  string    `json:"doctor_id"`
	PatientID string    `json:"patient_id"`
	Position  int       `json:"position"`
	GrantedBy string    `json:"granted_by"`
	GrantedAt time.Time `json:"granted_at"`
}

// Status is the answer to an authorization query.
type Status struct {
	DoctorID   string `json:"doctor_id"`
	PatientID  string `json:"patient_id"`
	Authorized bool   `json:"authorized"`
}
