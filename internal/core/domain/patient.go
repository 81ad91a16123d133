package domain

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusWaitingForTriage Status = "Waiting for Triage"
	StatusWaitingForDoctor Status = "Waiting for Doctor"
	StatusDischarged       Status = "Discharged"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaitingForTriage, StatusWaitingForDoctor, StatusDischarged:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Vitals are recorded as free-text measurements ("98.6°F", "120/80 mmHg").
type Vitals struct {
	Temperature     string `json:"temperature"`
	BloodPressure   string `json:"bloodPressure"`
	HeartRate       string `json:"heartRate"`
	RespiratoryRate string `json:"respiratoryRate"`
}

// Missing returns the names of the vitals fields that are blank.
func (v Vitals) Missing() []string {
	var missing []string
	if blank(v.Temperature) {
		missing = append(missing, "temperature")
	}
	if blank(v.BloodPressure) {
		missing = append(missing, "bloodPressure")
	}
	if blank(v.HeartRate) {
		missing = append(missing, "heartRate")
	}
	if blank(v.RespiratoryRate) {
		missing = append(missing, "respiratoryRate")
	}
	return missing
}

// Summary renders the vitals the way they are handed to the advisory service.
func (v Vitals) Summary() string {
	return fmt.Sprintf("Temp: %s, BP: %s, HR: %s, RR: %s",
		v.Temperature, v.BloodPressure, v.HeartRate, v.RespiratoryRate)
}

type Patient struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Age                  int        `json:"age"`
	Gender               Gender     `json:"gender"`
	Contact              string     `json:"contact"`
	AvatarURL            string     `json:"avatarUrl"`
	RegisteredAt         time.Time  `json:"registeredAt"`
	Status               Status     `json:"status"`
	Paid                 bool       `json:"paid"`
	MedicalHistory       string     `json:"medicalHistory,omitempty"`
	Vitals               *Vitals    `json:"vitals,omitempty"`
	Symptoms             string     `json:"symptoms,omitempty"`
	Diagnosis            string     `json:"diagnosis,omitempty"`
	AISuggestedDiagnosis string     `json:"aiSuggestedDiagnosis,omitempty"`
	Medication           string     `json:"medication,omitempty"`
	DischargedAt         *time.Time `json:"dischargedAt,omitempty"`
	Version              int64      `json:"version"`
}

// Clone returns a deep copy so callers never share the pointer fields.
func (p Patient) Clone() Patient {
	if p.Vitals != nil {
		v := *p.Vitals
		p.Vitals = &v
	}
	if p.DischargedAt != nil {
		t := *p.DischargedAt
		p.DischargedAt = &t
	}
	return p
}

// Draft holds what a receptionist enters at registration.
type Draft struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         Gender `json:"gender"`
	Contact        string `json:"contact"`
	MedicalHistory string `json:"medicalHistory,omitempty"`
}

// AvatarURL derives the placeholder portrait for a patient identifier.
func AvatarURL(id string) string {
	return "https://i.pravatar.cc/150?u=" + id
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name                 *string    `json:"name,omitempty"`
	Age                  *int       `json:"age,omitempty"`
	Gender               *Gender    `json:"gender,omitempty"`
	Contact              *string    `json:"contact,omitempty"`
	MedicalHistory       *string    `json:"medicalHistory,omitempty"`
	Vitals               *Vitals    `json:"vitals,omitempty"`
	Symptoms             *string    `json:"symptoms,omitempty"`
	Diagnosis            *string    `json:"diagnosis,omitempty"`
	AISuggestedDiagnosis *string    `json:"aiSuggestedDiagnosis,omitempty"`
	Medication           *string    `json:"medication,omitempty"`
	Paid                 *bool      `json:"paid,omitempty"`
	Status               *Status    `json:"status,omitempty"`
	DischargedAt         *time.Time `json:"dischargedAt,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// ApplyTo returns a copy of pt with the patch applied.
func (p Patch) ApplyTo(pt Patient) Patient {
	out := pt.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Age != nil {
		out.Age = *p.Age
	}
	if p.Gender != nil {
		out.Gender = *p.Gender
	}
	if p.Contact != nil {
		out.Contact = *p.Contact
	}
	if p.MedicalHistory != nil {
		out.MedicalHistory = *p.MedicalHistory
	}
	if p.Vitals != nil {
		v := *p.Vitals
		out.Vitals = &v
	}
	if p.Symptoms != nil {
		out.Symptoms = *p.Symptoms
	}
	if p.Diagnosis != nil {
		out.Diagnosis = *p.Diagnosis
	}
	if p.AISuggestedDiagnosis != nil {
		out.AISuggestedDiagnosis = *p.AISuggestedDiagnosis
	}
	if p.Medication != nil {
		out.Medication = *p.Medication
	}
	if p.Paid != nil {
		out.Paid = *p.Paid
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.DischargedAt != nil {
		t := *p.DischargedAt
		out.DischargedAt = &t
	}
	return out
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T {
	return &v
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
