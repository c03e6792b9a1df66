// File: internal/infra/membership/registrar.go
package membership

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"membership-portal/internal/config"
	"membership-portal/internal/domain/model"
	"membership-portal/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.MemberRegistrar = (*Registrar)(nil)

// Registrar posts assembled registrations to the per-type endpoints. One
// attempt per call, no retry: the caller decides what a pending result means.
type Registrar struct {
	baseURL      string
	authUser     string
	authPassword string
	client       *http.Client
	log          *zerolog.Logger
}

func NewRegistrar(cfg config.MembershipConfig, logger *zerolog.Logger) (*Registrar, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("membership base url empty")
	}
	return &Registrar{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		authUser:     cfg.AuthUser,
		authPassword: cfg.AuthPassword,
		client:       &http.Client{Timeout: cfg.Timeout},
		log:          logger,
	}, nil
}

func registerPath(t model.MemberType) string {
	switch t {
	case model.MemberLocal:
		return "/memberlocal/register"
	case model.MemberForeign:
		return "/memberforeign/register"
	default:
		return "/membercorporate/register"
	}
}

// Submit performs the single registration POST. Multipart when a file is
// attached, JSON or urlencoded otherwise. A transport-level failure yields a
// pending result (the backend may or may not have seen the request); an
// explicit non-2xx answer yields rejected.
func (r *Registrar) Submit(ctx context.Context, p adapter.RegistrationPayload) (*model.SubmissionResult, error) {
	if !p.MemberType.Valid() {
		return nil, fmt.Errorf("registrar: %w", errInvalidPayload)
	}

	body, contentType, err := encodeBody(p)
	if err != nil {
		return nil, fmt.Errorf("registrar: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+registerPath(p.MemberType), body)
	if err != nil {
		return nil, fmt.Errorf("registrar: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if r.authUser != "" {
		req.SetBasicAuth(r.authUser, r.authPassword)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn().Err(err).Str("member_type", string(p.MemberType)).
			Msg("registration POST failed at transport level, reporting pending")
		return &model.SubmissionResult{
			Status:     model.SubmissionPending,
			MemberType: p.MemberType,
			Message:    "no answer from the membership system",
		}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &model.SubmissionResult{
			Status:     model.SubmissionConfirmed,
			MemberType: p.MemberType,
			HTTPStatus: resp.StatusCode,
		}, nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	r.log.Error().Int("status", resp.StatusCode).Str("member_type", string(p.MemberType)).
		Str("detail", string(detail)).Msg("registration rejected by backend")
	return &model.SubmissionResult{
		Status:     model.SubmissionRejected,
		MemberType: p.MemberType,
		HTTPStatus: resp.StatusCode,
		Message:    strings.TrimSpace(string(detail)),
	}, nil
}

var errInvalidPayload = errors.New("invalid registration payload")

func encodeBody(p adapter.RegistrationPayload) (io.Reader, string, error) {
	if p.File != nil {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, f := range p.Fields {
			if err := w.WriteField(f.Key, f.Value); err != nil {
				return nil, "", err
			}
		}
		part, err := w.CreateFormFile(p.FileField, p.File.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(p.File.Data); err != nil {
			return nil, "", err
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	}

	if p.AsJSON {
		m := make(map[string]string, len(p.Fields))
		for _, f := range p.Fields {
			m[f.Key] = f.Value
		}
		b, err := json.Marshal(m)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(b), "application/json", nil
	}

	form := url.Values{}
	for _, f := range p.Fields {
		form.Set(f.Key, f.Value)
	}
	return strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", nil
}
