package handler

import (
	"net/http"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/metrics"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/middleware"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
)

type Handlers struct {
	Auth          *AuthHandler
	Patients      *PatientHandler
	Users         *UserHandler
	Notifications *NotificationHandler
	Health        *HealthHandler
}

var (
	admin        = []domain.Role{domain.RoleAdmin}
	doctor       = []domain.Role{domain.RoleDoctor}
	receptionist = []domain.Role{domain.RoleReceptionist}
	frontDesk    = []domain.Role{domain.RoleReceptionist, domain.RoleAdmin}
	clinical     = []domain.Role{domain.RoleReceptionist, domain.RoleDoctor}
)

// NewRouter registers every route. m may be nil, in which case no request
// metrics are recorded and /metrics is not served.
func NewRouter(h Handlers, auth *middleware.AuthMiddleware, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	handle := func(pattern string, fn http.HandlerFunc) {
		if m == nil {
			mux.Handle(pattern, fn)
			return
		}
		mux.Handle(pattern, m.Instrument(pattern, fn))
	}
	guarded := func(pattern string, roles []domain.Role, fn http.HandlerFunc) {
		handle(pattern, auth.RequireRole(roles, fn))
	}

	handle("POST /login", h.Auth.Login)
	handle("POST /signup", h.Auth.Signup)
	guarded("POST /logout", middleware.AllStaff, h.Auth.Logout)

	guarded("GET /patients", middleware.AllStaff, h.Patients.List)
	guarded("GET /patients/{id}", middleware.AllStaff, h.Patients.Get)
	guarded("POST /patients", frontDesk, h.Patients.Register)
	guarded("POST /patients/reload", middleware.AllStaff, h.Patients.Reload)
	guarded("POST /patients/{id}/triage", receptionist, h.Patients.Triage)
	guarded("POST /patients/{id}/review", doctor, h.Patients.Review)
	guarded("POST /patients/{id}/suggestion", doctor, h.Patients.Suggest)
	guarded("POST /patients/{id}/discharge", doctor, h.Patients.Discharge)
	guarded("PATCH /patients/{id}", clinical, h.Patients.Patch)
	guarded("GET /medications/search", doctor, h.Patients.SearchMedication)

	guarded("GET /users", admin, h.Users.List)
	guarded("POST /users", admin, h.Users.Create)
	guarded("PUT /users/{id}/password", admin, h.Users.ChangePassword)
	guarded("DELETE /users/{id}", admin, h.Users.Delete)

	guarded("GET /notifications", middleware.AllStaff, h.Notifications.Recent)

	handle("GET /health", h.Health.Health)
	handle("GET /health/ready", h.Health.Ready)
	handle("GET /health/live", h.Health.Live)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	return mux
}
