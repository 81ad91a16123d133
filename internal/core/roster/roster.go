// Package roster keeps the ordered list of patients that staff work from and
// reconciles it with the document store.
//
// Registration waits for the store because the identifier is confirmed
// there. Every other change is applied to the local record at once and
// persisted in the background, one write at a time per patient. A failed
// write reverts the record to its last confirmed copy and is reported
// through the Notifier.
package roster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/lifecycle"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

const defaultWriteTimeout = 10 * time.Second

type Roster struct {
	repo         ports.PatientRepository
	engine       *lifecycle.Engine
	events       ports.PatientEventPublisher
	notifier     Notifier
	metrics      ports.WorkflowMetrics
	logger       zerolog.Logger
	now          func() time.Time
	newID        func() string
	writeTimeout time.Duration

	mu      sync.Mutex
	order   []string
	entries map[string]*entry

	// registered counts confirmed registrations; entries carry the count at
	// the time they were added.
	registered uint64

	writes sync.WaitGroup
}

// entry is one patient: the copy last confirmed by the store plus the
// writes still waiting for confirmation, oldest first.
type entry struct {
	confirmed  domain.Patient
	queue      []write
	draining   bool
	registered uint64
}

type write struct {
	ctx   context.Context
	patch domain.Patch
	from  domain.Status
	to    domain.Status
}

func (e *entry) view() domain.Patient {
	p := e.confirmed.Clone()
	for _, w := range e.queue {
		p = w.patch.ApplyTo(p)
	}
	return p
}

type Option func(*Roster)

func WithEvents(p ports.PatientEventPublisher) Option {
	return func(r *Roster) { r.events = p }
}

func WithNotifier(n Notifier) Option {
	return func(r *Roster) { r.notifier = n }
}

func WithMetrics(m ports.WorkflowMetrics) Option {
	return func(r *Roster) { r.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Roster) { r.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(r *Roster) { r.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(r *Roster) { r.newID = gen }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(r *Roster) { r.writeTimeout = d }
}

func New(repo ports.PatientRepository, engine *lifecycle.Engine, opts ...Option) *Roster {
	r := &Roster{
		repo:         repo,
		engine:       engine,
		notifier:     discard{},
		metrics:      nopMetrics{},
		logger:       zerolog.Nop(),
		now:          time.Now,
		newID:        uuid.NewString,
		writeTimeout: defaultWriteTimeout,
		entries:      make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces the local list with the store contents, most recent first.
// On failure the last known list is kept. Patients registered while the
// store was being read stay at the head of the list.
func (r *Roster) Load(ctx context.Context) error {
	r.mu.Lock()
	since := r.registered
	r.mu.Unlock()

	patients, err := r.repo.List(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("roster: load failed, keeping last known list")
		r.notify(LevelError, "Error", "Could not load patients from the store.", "")
		return &domain.StoreError{Op: "load patients", Err: err}
	}

	sort.SliceStable(patients, func(i, j int) bool {
		return patients[i].RegisteredAt.After(patients[j].RegisteredAt)
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make(map[string]*entry, len(patients))
	order := make([]string, 0, len(patients))
	for _, p := range patients {
		// Reuse the entry so writes still in flight stay attached to it.
		if old, ok := r.entries[p.ID]; ok {
			if p.Version >= old.confirmed.Version {
				old.confirmed = p
			}
			entries[p.ID] = old
		} else {
			entries[p.ID] = &entry{confirmed: p}
		}
		order = append(order, p.ID)
	}

	var fresh []string
	for _, id := range r.order {
		e := r.entries[id]
		if _, ok := entries[id]; ok || e.registered <= since {
			continue
		}
		entries[id] = e
		fresh = append(fresh, id)
	}
	r.entries, r.order = entries, append(fresh, order...)

	r.logger.Info().Int("patients", len(r.order)).Msg("roster: loaded")
	return nil
}

// Register creates a patient waiting for triage. The record only appears in
// the list once the store has accepted it.
func (r *Roster) Register(ctx context.Context, draft domain.Draft) (domain.Patient, error) {
	if err := domain.ValidateDraft(draft); err != nil {
		return domain.Patient{}, err
	}

	id := r.newID()
	patient := domain.Patient{
		ID:             id,
		Name:           strings.TrimSpace(draft.Name),
		Age:            draft.Age,
		Gender:         draft.Gender,
		Contact:        strings.TrimSpace(draft.Contact),
		MedicalHistory: draft.MedicalHistory,
		AvatarURL:      domain.AvatarURL(id),
		RegisteredAt:   r.now().UTC(),
		Status:         domain.StatusWaitingForTriage,
		Version:        1,
	}

	created, err := r.repo.Create(ctx, patient)
	if err != nil {
		r.logger.Error().Err(err).Str("name", patient.Name).Msg("roster: registration failed")
		r.notify(LevelError, "Registration Failed", err.Error(), "")
		return domain.Patient{}, &domain.StoreError{Op: "register patient", Err: err}
	}

	r.mu.Lock()
	r.registered++
	r.entries[created.ID] = &entry{confirmed: created.Clone(), registered: r.registered}
	r.order = append([]string{created.ID}, r.order...)
	r.mu.Unlock()

	r.metrics.PatientRegistered()
	r.notify(LevelInfo, "Patient Registered", fmt.Sprintf("%s has been successfully registered.", created.Name), created.ID)
	r.publish(ctx, ports.EventPatientRegistered, created)
	return created, nil
}

// Update applies a partial change optimistically. Status changes are checked
// against the workflow before anything is applied.
func (r *Roster) Update(ctx context.Context, id string, patch domain.Patch) (domain.Patient, error) {
	if err := domain.ValidatePatch(patch); err != nil {
		return domain.Patient{}, err
	}
	return r.mutate(ctx, id, func(view domain.Patient) (domain.Patch, error) {
		if err := r.engine.Validate(view, patch); err != nil {
			return domain.Patch{}, err
		}
		return patch, nil
	})
}

func (r *Roster) Triage(ctx context.Context, id string, in lifecycle.TriageInput) (domain.Patient, error) {
	return r.mutate(ctx, id, func(view domain.Patient) (domain.Patch, error) {
		return r.engine.Triage(view, in)
	})
}

func (r *Roster) Discharge(ctx context.Context, id string, in lifecycle.DischargeInput) (domain.Patient, error) {
	return r.mutate(ctx, id, func(view domain.Patient) (domain.Patch, error) {
		return r.engine.Discharge(view, in)
	})
}

func (r *Roster) AttachSuggestion(ctx context.Context, id, text string) (domain.Patient, error) {
	return r.mutate(ctx, id, func(view domain.Patient) (domain.Patch, error) {
		return r.engine.AttachSuggestion(view, text), nil
	})
}

// OpenForReview clears any previous machine suggestion on the record.
func (r *Roster) OpenForReview(ctx context.Context, id string) (domain.Patient, error) {
	return r.mutate(ctx, id, func(view domain.Patient) (domain.Patch, error) {
		return r.engine.Reopen(view), nil
	})
}

func (r *Roster) List() []domain.Patient {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Patient, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].view())
	}
	return out
}

func (r *Roster) ByStatus(status domain.Status) []domain.Patient {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Patient
	for _, id := range r.order {
		if p := r.entries[id].view(); p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

func (r *Roster) Get(id string) (domain.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return domain.Patient{}, domain.ErrNotFound
	}
	return e.view(), nil
}

// Pending reports whether the record has writes not yet confirmed.
func (r *Roster) Pending(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	return ok && len(e.queue) > 0
}

// Wait blocks until every background write has finished.
func (r *Roster) Wait() {
	r.writes.Wait()
}

func (r *Roster) mutate(ctx context.Context, id string, plan func(domain.Patient) (domain.Patch, error)) (domain.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return domain.Patient{}, domain.ErrNotFound
	}

	view := e.view()
	patch, err := plan(view)
	if err != nil {
		return domain.Patient{}, err
	}
	if patch.IsEmpty() {
		return view, nil
	}

	next := patch.ApplyTo(view)
	e.queue = append(e.queue, write{
		ctx:   context.WithoutCancel(ctx),
		patch: patch,
		from:  view.Status,
		to:    next.Status,
	})
	if !e.draining {
		e.draining = true
		r.writes.Add(1)
		go r.drain(id, e)
	}
	return next, nil
}

// drain persists the queued writes of one patient in order.
func (r *Roster) drain(id string, e *entry) {
	defer r.writes.Done()

	for {
		r.mu.Lock()
		if len(e.queue) == 0 {
			e.draining = false
			r.mu.Unlock()
			return
		}
		w := e.queue[0]
		version := e.confirmed.Version
		r.mu.Unlock()

		ctx, cancel := context.WithTimeout(w.ctx, r.writeTimeout)
		newVersion, err := r.repo.Update(ctx, id, version, w.patch)
		cancel()

		if err != nil {
			r.revert(w.ctx, id, e, err)
			continue
		}

		r.mu.Lock()
		e.confirmed = w.patch.ApplyTo(e.confirmed)
		e.confirmed.Version = newVersion
		e.queue = e.queue[1:]
		confirmed := e.confirmed.Clone()
		r.mu.Unlock()

		if w.from != w.to {
			r.metrics.TransitionCommitted(w.from, w.to)
			r.publish(w.ctx, eventFor(w.to), confirmed)
		}
	}
}

// revert drops every unconfirmed write of the patient. Later writes were
// planned on top of the failed one, so none of them can stand alone.
func (r *Roster) revert(ctx context.Context, id string, e *entry, cause error) {
	reason := "store_error"
	var fresh *domain.Patient
	if errors.Is(cause, domain.ErrVersionConflict) {
		reason = "version_conflict"
		getCtx, cancel := context.WithTimeout(ctx, r.writeTimeout)
		if p, err := r.repo.Get(getCtx, id); err == nil {
			fresh = p
		}
		cancel()
	}

	r.mu.Lock()
	dropped := len(e.queue)
	e.queue = nil
	if fresh != nil && fresh.Version > e.confirmed.Version {
		e.confirmed = *fresh
	}
	r.mu.Unlock()

	r.metrics.WriteReverted(reason)
	r.logger.Warn().Err(cause).
		Str("patient_id", id).
		Int("dropped_writes", dropped).
		Str("reason", reason).
		Msg("roster: write failed, reverted to confirmed record")

	msg := "Changes could not be saved and were reverted: " + cause.Error()
	if reason == "version_conflict" {
		msg = "This record was changed by another user. Your changes were reverted; please review and save again."
	}
	r.notify(LevelError, "Update Failed", msg, id)
}

func (r *Roster) publish(ctx context.Context, eventType string, p domain.Patient) {
	if r.events == nil || eventType == "" {
		return
	}
	evt := ports.PatientEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		PatientID:  p.ID,
		Status:     string(p.Status),
		OccurredAt: r.now().UTC(),
	}
	if err := r.events.PublishPatientEvent(ctx, evt); err != nil {
		r.logger.Warn().Err(err).Str("event", eventType).Str("patient_id", p.ID).Msg("roster: failed to publish event")
	}
}

func (r *Roster) notify(level Level, title, msg, patientID string) {
	r.notifier.Notify(Notice{
		Level:     level,
		Title:     title,
		Message:   msg,
		PatientID: patientID,
		At:        r.now().UTC(),
	})
}

func eventFor(to domain.Status) string {
	switch to {
	case domain.StatusWaitingForDoctor:
		return ports.EventPatientTriaged
	case domain.StatusDischarged:
		return ports.EventPatientDischarged
	}
	return ""
}

type discard struct{}

func (discard) Notify(Notice) {}

type nopMetrics struct{}

func (nopMetrics) PatientRegistered()                     {}
func (nopMetrics) TransitionCommitted(_, _ domain.Status) {}
func (nopMetrics) WriteReverted(string)                   {}
