package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"membership-portal/internal/domain"
	"membership-portal/internal/infra/i18n"
	"membership-portal/internal/infra/logging"
	"membership-portal/internal/usecase"
)

type Server struct {
	viewUC    usecase.ViewUseCase
	regUC     usecase.RegistrationUseCase
	fieldUC   usecase.FieldUseCase
	dashUC    usecase.DashboardUseCase
	auth      *AuthManager
	trTH      *i18n.Translator
	trEN      *i18n.Translator
	maxUpload int64
	log       *zerolog.Logger
}

func NewServer(
	viewUC usecase.ViewUseCase,
	regUC usecase.RegistrationUseCase,
	fieldUC usecase.FieldUseCase,
	dashUC usecase.DashboardUseCase,
	auth *AuthManager,
	trTH, trEN *i18n.Translator,
	maxUpload int64,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		viewUC:    viewUC,
		regUC:     regUC,
		fieldUC:   fieldUC,
		dashUC:    dashUC,
		auth:      auth,
		trTH:      trTH,
		trEN:      trEN,
		maxUpload: maxUpload,
		log:       logger,
	}
}

// Router wires the portal API. Registration routes carry the member type in
// the path only for readability; the draft ID alone identifies the flow.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(traceContext)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/landing", s.landingHandler)
		r.Get("/policy", s.policyHandler)

		r.Post("/session", s.sessionOpenHandler)
		r.Get("/session/{id}/view", s.viewGetHandler)
		r.Put("/session/{id}/view", s.viewSetHandler)

		r.Post("/registrations/{type}", s.draftOpenHandler)
		r.Route("/registrations/{type}/{id}", func(r chi.Router) {
			r.Put("/fields/{name}", s.fieldChangeHandler)
			r.Post("/fields/{name}/blur", s.fieldBlurHandler)
			r.Post("/files/{name}", s.fileAttachHandler)
			r.Post("/advance", s.advanceHandler)
			r.Post("/back", s.backHandler)
			r.Post("/submit", s.submitHandler)
		})

		r.Post("/auth/login", s.loginHandler)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/dashboard", s.dashboardHandler)
			r.Get("/profile", s.profileGetHandler)
			r.Put("/profile", s.profileUpdateHandler)
		})
	})
	return r
}

type ctxKey string

const sessionIDKey ctxKey = "session_id"

// traceContext copies the chi request ID into the log context so every log
// line written below this middleware carries trace_id.
func traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireSession gates the mocked member area behind the JWT cookie/bearer.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := contextWithSessionID(r.Context(), claims.Subject)
		ctx = logging.WithSessionID(ctx, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain failures onto HTTP statuses. Gate failures carry
// their localized message so the client can show it verbatim.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ge *usecase.GateError
	if errors.As(err, &ge) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"gate":    ge.Gate,
			"message": ge.Message,
		})
		return
	}
	switch {
	case errors.Is(err, domain.ErrDraftNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrSubmitInFlight),
		errors.Is(err, domain.ErrAlreadySubmitted):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
