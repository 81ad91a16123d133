package mocks

import (
	"strconv"
	"time"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
)

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

// WaitingPatient is John Doe as he arrives at reception.
func WaitingPatient(id string, registeredAt time.Time) domain.Patient {
	return domain.Patient{
		ID:           id,
		Name:         "John Doe",
		Age:          34,
		Gender:       domain.GenderMale,
		Contact:      "555-0101",
		AvatarURL:    domain.AvatarURL(id),
		RegisteredAt: registeredAt,
		Status:       domain.StatusWaitingForTriage,
		Version:      1,
	}
}

// TriagedPatient is a patient already in the doctor's queue.
func TriagedPatient(id string, registeredAt time.Time) domain.Patient {
	p := WaitingPatient(id, registeredAt)
	p.Name = "Jane Smith"
	p.Gender = domain.GenderFemale
	p.Status = domain.StatusWaitingForDoctor
	p.Paid = true
	vitals := FullVitals
	p.Vitals = &vitals
	p.Symptoms = "Sore throat, mild fever"
	return p
}

var FullVitals = domain.Vitals{
	Temperature:     "99.1°F",
	BloodPressure:   "118/76 mmHg",
	HeartRate:       "82 bpm",
	RespiratoryRate: "16 breaths/min",
}
