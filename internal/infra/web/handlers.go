package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"membership-portal/internal/domain/model"
	"membership-portal/internal/infra/i18n"
)

func contextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func sessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// trFor picks the response language. Thai is the default; the foreign flow
// and ?lang=en get English.
func (s *Server) trFor(lang string) *i18n.Translator {
	if lang == "en" {
		return s.trEN
	}
	return s.trTH
}

// ---- Content ----

type memberTypeCard struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	View        string `json:"view"`
}

func (s *Server) landingHandler(w http.ResponseWriter, r *http.Request) {
	tr := s.trFor(r.URL.Query().Get("lang"))
	resp := struct {
		Title    string           `json:"title"`
		Subtitle string           `json:"subtitle"`
		Types    []memberTypeCard `json:"member_types"`
	}{
		Title:    tr.T("landing.title"),
		Subtitle: tr.T("landing.subtitle"),
		Types: []memberTypeCard{
			{Type: string(model.MemberLocal), Title: tr.T("landing.local.title"), Description: tr.T("landing.local.desc"), View: string(model.ViewRegisterLocal)},
			{Type: string(model.MemberForeign), Title: tr.T("landing.foreign.title"), Description: tr.T("landing.foreign.desc"), View: string(model.ViewRegisterForeign)},
			{Type: string(model.MemberCorporate), Title: tr.T("landing.corporate.title"), Description: tr.T("landing.corporate.desc"), View: string(model.ViewRegisterCorporate)},
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) policyHandler(w http.ResponseWriter, r *http.Request) {
	tr := s.trFor(r.URL.Query().Get("lang"))
	if tr.Policy() == "" {
		http.Error(w, "policy text unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, tr.Policy())
}

// ---- Sessions / views ----

type successContent struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	NextSteps string `json:"next_steps"`
}

type sessionResponse struct {
	ID        string          `json:"id"`
	View      string          `json:"view"`
	IsForeign bool            `json:"is_foreign"`
	Success   *successContent `json:"success,omitempty"`
}

// toSessionResponse renders a session; on the success view it includes the
// screen's text in the finished flow's language.
func (s *Server) toSessionResponse(sess *model.PortalSession) sessionResponse {
	resp := sessionResponse{ID: sess.ID, View: string(sess.View), IsForeign: sess.IsForeign}
	if sess.View == model.ViewSuccess {
		tr := s.trTH
		if sess.IsForeign {
			tr = s.trEN
		}
		resp.Success = &successContent{
			Title:     tr.T("success.title"),
			Body:      tr.T("success.body"),
			NextSteps: tr.T("success.next_steps"),
		}
	}
	return resp
}

func (s *Server) sessionOpenHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.viewUC.OpenSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.toSessionResponse(sess))
}

func (s *Server) viewGetHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.viewUC.Current(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toSessionResponse(sess))
}

func (s *Server) viewSetHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View string `json:"view"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sess, err := s.viewUC.SetView(r.Context(), chi.URLParam(r, "id"), model.ViewState(req.View))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toSessionResponse(sess))
}

// ---- Registration flow ----

type checkResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Valid   bool   `json:"valid"`
}

type draftResponse struct {
	ID        string                   `json:"id"`
	Type      string                   `json:"type"`
	Step      int                      `json:"step"`
	Values    map[string]string        `json:"values"`
	Checks    map[string]checkResponse `json:"checks"`
	Files     map[string]string        `json:"files,omitempty"`
	Submitted bool                     `json:"submitted"`
}

func toDraftResponse(d *model.RegistrationDraft) draftResponse {
	resp := draftResponse{
		ID:        d.ID,
		Type:      string(d.Type),
		Step:      d.Step,
		Values:    d.Values,
		Checks:    map[string]checkResponse{},
		Submitted: d.Submitted,
	}
	for name, cf := range d.Checks {
		resp.Checks[name] = checkResponse{Status: string(cf.Status), Message: cf.Message, Valid: cf.Valid()}
	}
	if len(d.Files) > 0 {
		resp.Files = map[string]string{}
		for name, f := range d.Files {
			resp.Files[name] = f.Name
		}
	}
	return resp
}

func (s *Server) draftOpenHandler(w http.ResponseWriter, r *http.Request) {
	t := model.MemberType(chi.URLParam(r, "type"))
	var req struct {
		Student bool `json:"student"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // body is optional
	}
	d, err := s.regUC.Open(r.Context(), t, req.Student)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDraftResponse(d))
}

func (s *Server) fieldChangeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	d, err := s.fieldUC.ChangeField(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"), req.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

func (s *Server) fieldBlurHandler(w http.ResponseWriter, r *http.Request) {
	cf, err := s.fieldUC.BlurField(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{Status: string(cf.Status), Message: cf.Message, Valid: cf.Valid()})
}

func (s *Server) fileAttachHandler(w http.ResponseWriter, r *http.Request) {
	// One megabyte of headroom over the domain ceiling; the real size gate
	// lives in the use case so oversized picks get the localized message.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	if err := r.ParseMultipartForm(s.maxUpload + 1<<20); err != nil {
		http.Error(w, "upload too large or malformed", http.StatusRequestEntityTooLarge)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file part", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	d, err := s.regUC.AttachFile(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "name"),
		header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

func (s *Server) advanceHandler(w http.ResponseWriter, r *http.Request) {
	d, err := s.regUC.Advance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

func (s *Server) backHandler(w http.ResponseWriter, r *http.Request) {
	d, err := s.regUC.Back(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

type submitResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference,omitempty"`
	Message   string `json:"message,omitempty"`
	View      string `json:"view,omitempty"`
}

func (s *Server) submitHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // body is optional
	}

	res, err := s.regUC.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := submitResponse{Status: string(res.Status), Reference: res.Reference, Message: res.Message}
	if res.Succeeded() && req.SessionID != "" {
		sess, err := s.viewUC.CompleteRegistration(r.Context(), req.SessionID, res.MemberType)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.View = string(sess.View)
	}
	status := http.StatusOK
	if res.Status == model.SubmissionRejected {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// ---- Mock member area ----

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Username  string `json:"username"`
		Password  string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	// The member area is mocked; any non-empty credentials pass.
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var sess *model.PortalSession
	var err error
	if req.SessionID != "" {
		sess, err = s.viewUC.SetView(r.Context(), req.SessionID, model.ViewDashboard)
	} else {
		sess, err = s.viewUC.OpenSession(r.Context())
		if err == nil {
			sess, err = s.viewUC.SetView(r.Context(), sess.ID, model.ViewDashboard)
		}
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.auth.Mint(w, sess.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Token   string          `json:"token"`
		Session sessionResponse `json:"session"`
	}{Token: token, Session: s.toSessionResponse(sess)})
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	ov, err := s.dashUC.Overview(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) profileGetHandler(w http.ResponseWriter, r *http.Request) {
	p, err := s.dashUC.Profile(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) profileUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var req model.Profile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	p, err := s.dashUC.UpdateProfile(r.Context(), sessionIDFromContext(r.Context()), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
