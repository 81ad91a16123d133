package handler

import (
	"context"
	"net/http"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/lifecycle"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/roster"
)

// Advisor asks the generative text service for help with a patient.
type Advisor interface {
	SuggestDiagnosis(ctx context.Context, patientID string) (domain.Patient, error)
	MedicationInfo(ctx context.Context, name string) (string, error)
}

type PatientHandler struct {
	roster  *roster.Roster
	advisor Advisor
}

func NewPatientHandler(r *roster.Roster, advisor Advisor) *PatientHandler {
	return &PatientHandler{roster: r, advisor: advisor}
}

// PatientResponse is a roster record plus whether it still has writes the
// store has not confirmed.
type PatientResponse struct {
	domain.Patient
	Pending bool `json:"pending"`
}

type MedicationResponse struct {
	Name string `json:"name"`
	Info string `json:"info"`
}

func (h *PatientHandler) view(p domain.Patient) PatientResponse {
	return PatientResponse{Patient: p, Pending: h.roster.Pending(p.ID)}
}

func (h *PatientHandler) views(patients []domain.Patient) []PatientResponse {
	out := make([]PatientResponse, 0, len(patients))
	for _, p := range patients {
		out = append(out, h.view(p))
	}
	return out
}

func (h *PatientHandler) respond(w http.ResponseWriter, r *http.Request, status int, p domain.Patient, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, h.view(p))
}

func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.Status(r.URL.Query().Get("status"))
	if status == "" {
		writeJSON(w, http.StatusOK, h.views(h.roster.List()))
		return
	}
	if !status.Valid() {
		writeError(w, r, &domain.ValidationError{Violations: []domain.Violation{
			{Field: "status", Message: "is not a known status"},
		}})
		return
	}
	writeJSON(w, http.StatusOK, h.views(h.roster.ByStatus(status)))
}

func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.roster.Get(r.PathValue("id"))
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *PatientHandler) Register(w http.ResponseWriter, r *http.Request) {
	var draft domain.Draft
	if !decode(w, r, &draft) {
		return
	}
	p, err := h.roster.Register(r.Context(), draft)
	h.respond(w, r, http.StatusCreated, p, err)
}

func (h *PatientHandler) Triage(w http.ResponseWriter, r *http.Request) {
	var in lifecycle.TriageInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.roster.Triage(r.Context(), r.PathValue("id"), in)
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *PatientHandler) Discharge(w http.ResponseWriter, r *http.Request) {
	var in lifecycle.DischargeInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.roster.Discharge(r.Context(), r.PathValue("id"), in)
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *PatientHandler) Review(w http.ResponseWriter, r *http.Request) {
	p, err := h.roster.OpenForReview(r.Context(), r.PathValue("id"))
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *PatientHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	p, err := h.advisor.SuggestDiagnosis(r.Context(), r.PathValue("id"))
	h.respond(w, r, http.StatusOK, p, err)
}

// Patch edits demographic and clinical fields. Status moves only through the
// triage and discharge endpoints.
func (h *PatientHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var patch domain.Patch
	if !decode(w, r, &patch) {
		return
	}

	var violations []domain.Violation
	if patch.Status != nil {
		violations = append(violations, domain.Violation{Field: "status", Message: "changes through triage or discharge"})
	}
	if patch.DischargedAt != nil {
		violations = append(violations, domain.Violation{Field: "dischargedAt", Message: "is set by discharge"})
	}
	if len(violations) > 0 {
		writeError(w, r, &domain.ValidationError{Violations: violations})
		return
	}

	p, err := h.roster.Update(r.Context(), r.PathValue("id"), patch)
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *PatientHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.roster.Load(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.views(h.roster.List()))
}

func (h *PatientHandler) SearchMedication(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	info, err := h.advisor.MedicationInfo(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MedicationResponse{Name: name, Info: info})
}
