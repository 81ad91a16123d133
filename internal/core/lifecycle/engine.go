// Package lifecycle enforces the clinical status workflow of a patient:
// Waiting for Triage -> Waiting for Doctor -> Discharged.
//
// The engine never mutates the record it is given. Every operation either
// returns a patch describing the complete effect of the step or an error,
// so a rejected step leaves the record exactly as it was.
package lifecycle

import (
	"strings"
	"time"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
)

var transitions = map[domain.Status]domain.Status{
	domain.StatusWaitingForTriage: domain.StatusWaitingForDoctor,
	domain.StatusWaitingForDoctor: domain.StatusDischarged,
}

// CanTransition reports whether the workflow has an edge from -> to.
func CanTransition(from, to domain.Status) bool {
	next, ok := transitions[from]
	return ok && next == to
}

// precondition names the status a patient must hold before it can move to
// the given one.
func precondition(to domain.Status) []string {
	for from, next := range transitions {
		if next == to {
			return []string{"status " + string(from)}
		}
	}
	return nil
}

type TriageInput struct {
	Vitals   domain.Vitals `json:"vitals"`
	Symptoms string        `json:"symptoms"`
	Paid     bool          `json:"paid"`
}

type DischargeInput struct {
	Diagnosis  string `json:"diagnosis"`
	Medication string `json:"medication"`
}

type Engine struct {
	now func() time.Time
}

func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Triage moves a patient to the doctor's queue once vitals, symptoms and
// payment are all recorded.
func (e *Engine) Triage(p domain.Patient, in TriageInput) (domain.Patch, error) {
	to := domain.StatusWaitingForDoctor
	if !CanTransition(p.Status, to) {
		return domain.Patch{}, &domain.TransitionError{From: p.Status, To: to, Missing: precondition(to)}
	}

	missing := in.Vitals.Missing()
	if blank(in.Symptoms) {
		missing = append(missing, "symptoms")
	}
	if !in.Paid {
		missing = append(missing, "paid")
	}
	if len(missing) > 0 {
		return domain.Patch{}, &domain.TransitionError{From: p.Status, To: to, Missing: missing}
	}

	vitals := in.Vitals
	return domain.Patch{
		Vitals:   &vitals,
		Symptoms: domain.Ptr(in.Symptoms),
		Paid:     domain.Ptr(true),
		Status:   &to,
	}, nil
}

// Discharge closes the visit with the doctor's diagnosis and medication.
func (e *Engine) Discharge(p domain.Patient, in DischargeInput) (domain.Patch, error) {
	to := domain.StatusDischarged
	if !CanTransition(p.Status, to) {
		return domain.Patch{}, &domain.TransitionError{From: p.Status, To: to, Missing: precondition(to)}
	}

	var missing []string
	if blank(in.Diagnosis) {
		missing = append(missing, "diagnosis")
	}
	if blank(in.Medication) {
		missing = append(missing, "medication")
	}
	if len(missing) > 0 {
		return domain.Patch{}, &domain.TransitionError{From: p.Status, To: to, Missing: missing}
	}

	at := e.now().UTC()
	if at.Before(p.RegisteredAt) {
		at = p.RegisteredAt
	}
	return domain.Patch{
		Diagnosis:    domain.Ptr(in.Diagnosis),
		Medication:   domain.Ptr(in.Medication),
		DischargedAt: &at,
		Status:       &to,
	}, nil
}

// AttachSuggestion records an advisory diagnosis. Status is untouched.
func (e *Engine) AttachSuggestion(_ domain.Patient, text string) domain.Patch {
	return domain.Patch{AISuggestedDiagnosis: domain.Ptr(text)}
}

// Reopen clears a stale machine suggestion when a reviewer opens the record.
func (e *Engine) Reopen(p domain.Patient) domain.Patch {
	if p.AISuggestedDiagnosis == "" {
		return domain.Patch{}
	}
	return domain.Patch{AISuggestedDiagnosis: domain.Ptr("")}
}

// Validate checks an arbitrary patch against the workflow. A status change
// must follow an edge and leave the record satisfying the target state's
// preconditions. Payment is only checked on the triage step itself.
func (e *Engine) Validate(current domain.Patient, patch domain.Patch) error {
	next := patch.ApplyTo(current)

	if next.Status != current.Status && !CanTransition(current.Status, next.Status) {
		return &domain.TransitionError{From: current.Status, To: next.Status, Missing: precondition(next.Status)}
	}
	if patch.DischargedAt != nil && current.DischargedAt != nil && !patch.DischargedAt.Equal(*current.DischargedAt) {
		return &domain.TransitionError{From: current.Status, To: next.Status, Missing: []string{"dischargedAt is already set"}}
	}

	var missing []string
	switch next.Status {
	case domain.StatusWaitingForTriage:
		if next.DischargedAt != nil {
			missing = append(missing, "dischargedAt must be unset")
		}
	case domain.StatusWaitingForDoctor:
		missing = append(missing, requireTriaged(next)...)
		if next.DischargedAt != nil {
			missing = append(missing, "dischargedAt must be unset")
		}
		if next.Status != current.Status && !next.Paid {
			missing = append(missing, "paid")
		}
	case domain.StatusDischarged:
		missing = append(missing, requireTriaged(next)...)
		if blank(next.Diagnosis) {
			missing = append(missing, "diagnosis")
		}
		if blank(next.Medication) {
			missing = append(missing, "medication")
		}
		if next.DischargedAt == nil {
			missing = append(missing, "dischargedAt")
		}
	}
	if len(missing) > 0 {
		return &domain.TransitionError{From: current.Status, To: next.Status, Missing: missing}
	}
	return nil
}

func requireTriaged(p domain.Patient) []string {
	var missing []string
	if p.Vitals == nil {
		missing = append(missing, "vitals")
	} else {
		missing = append(missing, p.Vitals.Missing()...)
	}
	if blank(p.Symptoms) {
		missing = append(missing, "symptoms")
	}
	return missing
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
