// File: internal/infra/membership/directory.go
package membership

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"membership-portal/internal/config"
	"membership-portal/internal/domain/model"
	"membership-portal/internal/domain/ports/adapter"
	"membership-portal/internal/infra/logging"
	"membership-portal/internal/infra/metrics"

	"context"

	"github.com/rs/zerolog"
)

var _ adapter.MemberDirectory = (*Directory)(nil)

// Directory implements adapter.MemberDirectory against the membership
// backend's text-response lookup endpoints. Each call is independent; the
// struct holds no per-request state.
type Directory struct {
	baseURL string
	client  *http.Client
	log     *zerolog.Logger
}

func NewDirectory(cfg config.MembershipConfig, logger *zerolog.Logger) (*Directory, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("membership base url empty")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid membership base url: %w", err)
	}
	return &Directory{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     logger,
	}, nil
}

var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// DigitsOnly reports whether v is non-empty and all digits after stripping
// dashes and spaces. Phone and tax-id values must pass this before any
// network call.
func DigitsOnly(v string) bool {
	stripped := strings.NewReplacer("-", "", " ", "").Replace(v)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidEmailShape reports whether v looks like local@domain.tld.
func ValidEmailShape(v string) bool {
	return len(v) >= 5 && emailShape.MatchString(v)
}

func (d *Directory) endpoint(kind model.FieldKind) (path, param string) {
	switch kind {
	case model.KindEmail:
		return "/validate/check-email/", "email"
	case model.KindPhone:
		return "/validate/check-phone/", "phone"
	default:
		return "/validate/check-tax-id/", "tax-id"
	}
}

// CheckAvailability runs the format precondition locally and, when it passes,
// asks the lookup endpoint whether a record already holds the value. The
// response body is raw text: an empty/zero/false/null/[] body means no record
// exists. Transport failures fail open so infrastructure trouble never blocks
// a registrant; the reason is reported for logging.
func (d *Directory) CheckAvailability(ctx context.Context, kind model.FieldKind, value string) adapter.AvailabilityResult {
	switch kind {
	case model.KindEmail:
		if !ValidEmailShape(value) {
			return adapter.AvailabilityResult{Available: false, Reason: adapter.ReasonInvalidFormat}
		}
	case model.KindPhone, model.KindTaxID:
		if !DigitsOnly(value) {
			return adapter.AvailabilityResult{Available: false, Reason: adapter.ReasonInvalidFormat}
		}
	default:
		return adapter.AvailabilityResult{Available: false, Reason: adapter.ReasonInvalidFormat}
	}

	path, param := d.endpoint(kind)
	q := url.Values{}
	q.Set(param, value)
	checkURL := d.baseURL + path + "?" + q.Encode()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
	if err != nil {
		return d.connError(kind, value, start, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return d.connError(kind, value, start, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return d.connError(kind, value, start, err)
	}

	if IsNoRecordBody(string(body)) {
		metrics.ObserveAvailabilityCheck(string(kind), "available", msSince(start))
		return adapter.AvailabilityResult{Available: true}
	}
	metrics.ObserveAvailabilityCheck(string(kind), "taken", msSince(start))
	return adapter.AvailabilityResult{Available: false, Reason: adapter.ReasonTaken}
}

func (d *Directory) connError(kind model.FieldKind, value string, start time.Time, err error) adapter.AvailabilityResult {
	metrics.ObserveAvailabilityCheck(string(kind), "connection_error", msSince(start))
	// The checked values are PII (emails, phone numbers, tax IDs).
	d.log.Warn().Err(err).
		Str("kind", string(kind)).
		Str("value", logging.Redact(value, false)).
		Msg("availability lookup failed, failing open")
	return adapter.AvailabilityResult{Available: true, Reason: adapter.ReasonConnectionError}
}

// IsNoRecordBody classifies a lookup response body. The backend answers with
// a record identifier or one of several "nothing found" shapes: empty, "0",
// "false", "null" (case-insensitive) or "[]", optionally quoted and padded.
func IsNoRecordBody(body string) bool {
	cleaned := strings.Trim(strings.TrimSpace(body), `"'`)
	switch {
	case cleaned == "", cleaned == "0", cleaned == "[]":
		return true
	case strings.EqualFold(cleaned, "false"), strings.EqualFold(cleaned, "null"):
		return true
	}
	return false
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Milliseconds())
}
