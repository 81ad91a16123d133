package repository

import (
	"fmt"
	"time"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

// Stored field names. Timestamps are RFC 3339 strings in UTC so every
// backend round-trips them the same way.
const (
	fieldID             = "_id"
	fieldName           = "name"
	fieldAge            = "age"
	fieldGender         = "gender"
	fieldContact        = "contact"
	fieldAvatarURL      = "avatarUrl"
	fieldRegisteredAt   = "registeredAt"
	fieldStatus         = "status"
	fieldPaid           = "paid"
	fieldMedicalHistory = "medicalHistory"
	fieldVitals         = "vitals"
	fieldSymptoms       = "symptoms"
	fieldDiagnosis      = "diagnosis"
	fieldAISuggestion   = "aiSuggestedDiagnosis"
	fieldMedication     = "medication"
	fieldDischargedAt   = "dischargedAt"
	fieldVersion        = "version"

	fieldEmail        = "email"
	fieldRole         = "role"
	fieldPasswordHash = "passwordHash"
	fieldCreatedAt    = "createdAt"
)

func encodePatient(p domain.Patient) ports.Document {
	doc := ports.Document{
		fieldID:           p.ID,
		fieldName:         p.Name,
		fieldAge:          p.Age,
		fieldGender:       string(p.Gender),
		fieldContact:      p.Contact,
		fieldAvatarURL:    p.AvatarURL,
		fieldRegisteredAt: formatTime(p.RegisteredAt),
		fieldStatus:       string(p.Status),
		fieldPaid:         p.Paid,
		fieldVersion:      p.Version,
	}
	setIfNotEmpty(doc, fieldMedicalHistory, p.MedicalHistory)
	setIfNotEmpty(doc, fieldSymptoms, p.Symptoms)
	setIfNotEmpty(doc, fieldDiagnosis, p.Diagnosis)
	setIfNotEmpty(doc, fieldAISuggestion, p.AISuggestedDiagnosis)
	setIfNotEmpty(doc, fieldMedication, p.Medication)
	if p.Vitals != nil {
		doc[fieldVitals] = encodeVitals(*p.Vitals)
	}
	if p.DischargedAt != nil {
		doc[fieldDischargedAt] = formatTime(*p.DischargedAt)
	}
	return doc
}

func decodePatient(doc ports.Document) (domain.Patient, error) {
	registeredAt, err := parseTime(doc[fieldRegisteredAt])
	if err != nil {
		return domain.Patient{}, fmt.Errorf("patient %v: registeredAt: %w", doc[fieldID], err)
	}
	p := domain.Patient{
		ID:                   asString(doc[fieldID]),
		Name:                 asString(doc[fieldName]),
		Age:                  int(asInt(doc[fieldAge])),
		Gender:               domain.Gender(asString(doc[fieldGender])),
		Contact:              asString(doc[fieldContact]),
		AvatarURL:            asString(doc[fieldAvatarURL]),
		RegisteredAt:         registeredAt,
		Status:               domain.Status(asString(doc[fieldStatus])),
		Paid:                 asBool(doc[fieldPaid]),
		MedicalHistory:       asString(doc[fieldMedicalHistory]),
		Symptoms:             asString(doc[fieldSymptoms]),
		Diagnosis:            asString(doc[fieldDiagnosis]),
		AISuggestedDiagnosis: asString(doc[fieldAISuggestion]),
		Medication:           asString(doc[fieldMedication]),
		Version:              asInt(doc[fieldVersion]),
	}
	if p.Version == 0 {
		p.Version = 1
	}
	if p.AvatarURL == "" {
		p.AvatarURL = domain.AvatarURL(p.ID)
	}
	if m, ok := doc[fieldVitals].(map[string]any); ok {
		v := decodeVitals(m)
		p.Vitals = &v
	}
	if raw, ok := doc[fieldDischargedAt]; ok && raw != nil {
		at, err := parseTime(raw)
		if err != nil {
			return domain.Patient{}, fmt.Errorf("patient %s: dischargedAt: %w", p.ID, err)
		}
		p.DischargedAt = &at
	}
	return p, nil
}

// encodePatch produces the $set document of a patch, bumping the version.
func encodePatch(patch domain.Patch, version int64) ports.Document {
	set := ports.Document{fieldVersion: version + 1}
	if patch.Name != nil {
		set[fieldName] = *patch.Name
	}
	if patch.Age != nil {
		set[fieldAge] = *patch.Age
	}
	if patch.Gender != nil {
		set[fieldGender] = string(*patch.Gender)
	}
	if patch.Contact != nil {
		set[fieldContact] = *patch.Contact
	}
	if patch.MedicalHistory != nil {
		set[fieldMedicalHistory] = *patch.MedicalHistory
	}
	if patch.Vitals != nil {
		set[fieldVitals] = encodeVitals(*patch.Vitals)
	}
	if patch.Symptoms != nil {
		set[fieldSymptoms] = *patch.Symptoms
	}
	if patch.Diagnosis != nil {
		set[fieldDiagnosis] = *patch.Diagnosis
	}
	if patch.AISuggestedDiagnosis != nil {
		set[fieldAISuggestion] = *patch.AISuggestedDiagnosis
	}
	if patch.Medication != nil {
		set[fieldMedication] = *patch.Medication
	}
	if patch.Paid != nil {
		set[fieldPaid] = *patch.Paid
	}
	if patch.Status != nil {
		set[fieldStatus] = string(*patch.Status)
	}
	if patch.DischargedAt != nil {
		set[fieldDischargedAt] = formatTime(*patch.DischargedAt)
	}
	return set
}

func encodeVitals(v domain.Vitals) map[string]any {
	return map[string]any{
		"temperature":     v.Temperature,
		"bloodPressure":   v.BloodPressure,
		"heartRate":       v.HeartRate,
		"respiratoryRate": v.RespiratoryRate,
	}
}

func decodeVitals(m map[string]any) domain.Vitals {
	return domain.Vitals{
		Temperature:     asString(m["temperature"]),
		BloodPressure:   asString(m["bloodPressure"]),
		HeartRate:       asString(m["heartRate"]),
		RespiratoryRate: asString(m["respiratoryRate"]),
	}
}

func encodeUser(u domain.User) ports.Document {
	return ports.Document{
		fieldID:           u.ID,
		fieldName:         u.Name,
		fieldEmail:        u.Email,
		fieldRole:         string(u.Role),
		fieldPasswordHash: u.PasswordHash,
		fieldCreatedAt:    formatTime(u.CreatedAt),
	}
}

func decodeUser(doc ports.Document) (domain.User, error) {
	createdAt, err := parseTime(doc[fieldCreatedAt])
	if err != nil {
		return domain.User{}, fmt.Errorf("user %v: createdAt: %w", doc[fieldID], err)
	}
	return domain.User{
		ID:           asString(doc[fieldID]),
		Name:         asString(doc[fieldName]),
		Email:        asString(doc[fieldEmail]),
		Role:         domain.Role(asString(doc[fieldRole])),
		PasswordHash: asString(doc[fieldPasswordHash]),
		CreatedAt:    createdAt,
	}, nil
}

func setIfNotEmpty(doc ports.Document, key, value string) {
	if value != "" {
		doc[key] = value
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case time.Time:
		return t.UTC(), nil
	case nil:
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// asInt accepts the numeric types the different backends decode into.
func asInt(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}
