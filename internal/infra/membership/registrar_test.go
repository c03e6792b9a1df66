//go:build !integration

package membership_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"membership-portal/internal/config"
	"membership-portal/internal/domain/model"
	"membership-portal/internal/domain/ports/adapter"
	"membership-portal/internal/infra/membership"
)

func newRegistrar(t *testing.T, baseURL, user, pass string) *membership.Registrar {
	t.Helper()
	r, err := membership.NewRegistrar(config.MembershipConfig{
		BaseURL:      baseURL,
		AuthUser:     user,
		AuthPassword: pass,
		Timeout:      2 * time.Second,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewRegistrar: %v", err)
	}
	return r
}

func TestRegistrar_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("local flow posts urlencoded with basic auth", func(t *testing.T) {
		var gotPath, gotContentType, gotAccept, gotBody string
		var gotUser, gotPass string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotContentType = r.Header.Get("Content-Type")
			gotAccept = r.Header.Get("Accept")
			gotUser, gotPass, _ = r.BasicAuth()
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()
		reg := newRegistrar(t, srv.URL, "portal", "s3cret")

		res, err := reg.Submit(ctx, adapter.RegistrationPayload{
			MemberType: model.MemberLocal,
			Fields: []adapter.FormField{
				{Key: "name_surname", Value: "Somchai Jaidee"},
				{Key: "pdpa-consent", Value: "1"},
			},
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if res.Status != model.SubmissionConfirmed {
			t.Errorf("status = %s", res.Status)
		}
		if gotPath != "/memberlocal/register" {
			t.Errorf("path = %s", gotPath)
		}
		if gotContentType != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %s", gotContentType)
		}
		if gotAccept != "application/json" {
			t.Errorf("accept = %s", gotAccept)
		}
		if gotUser != "portal" || gotPass != "s3cret" {
			t.Errorf("basic auth = %s:%s", gotUser, gotPass)
		}
		if !strings.Contains(gotBody, "pdpa-consent=1") {
			t.Errorf("body = %s", gotBody)
		}
	})

	t.Run("foreign flow posts JSON", func(t *testing.T) {
		var gotPath, gotContentType string
		var gotJSON map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotContentType = r.Header.Get("Content-Type")
			json.NewDecoder(r.Body).Decode(&gotJSON)
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()
		reg := newRegistrar(t, srv.URL, "", "")

		res, err := reg.Submit(ctx, adapter.RegistrationPayload{
			MemberType: model.MemberForeign,
			AsJSON:     true,
			Fields: []adapter.FormField{
				{Key: "full-name", Value: "Jane Smith"},
				{Key: "passport-number", Value: "A1234567"},
			},
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if res.Status != model.SubmissionConfirmed || res.HTTPStatus != http.StatusCreated {
			t.Errorf("result = %+v", res)
		}
		if gotPath != "/memberforeign/register" {
			t.Errorf("path = %s", gotPath)
		}
		if gotContentType != "application/json" {
			t.Errorf("content type = %s", gotContentType)
		}
		if gotJSON["full-name"] != "Jane Smith" {
			t.Errorf("json = %v", gotJSON)
		}
	})

	t.Run("corporate flow posts multipart with the renamed file", func(t *testing.T) {
		var gotPath string
		var gotFields map[string][]string
		var gotFileName, gotFileBody string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("ParseMultipartForm: %v", err)
				return
			}
			gotFields = r.MultipartForm.Value
			f, h, err := r.FormFile("company-certificate")
			if err != nil {
				t.Errorf("FormFile: %v", err)
				return
			}
			defer f.Close()
			gotFileName = h.Filename
			b, _ := io.ReadAll(f)
			gotFileBody = string(b)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()
		reg := newRegistrar(t, srv.URL, "", "")

		res, err := reg.Submit(ctx, adapter.RegistrationPayload{
			MemberType: model.MemberCorporate,
			Fields: []adapter.FormField{
				{Key: "organization-name", Value: "Acme Ltd"},
				{Key: "tax-id", Value: "1234567890123"},
			},
			FileField: "company-certificate",
			File: &model.FileAttachment{
				Name:        "Acme-Ltd_Somsak-Director_cert.pdf",
				ContentType: "application/pdf",
				Size:        9,
				Data:        []byte("pdf-bytes"),
			},
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if res.Status != model.SubmissionConfirmed {
			t.Errorf("status = %s", res.Status)
		}
		if gotPath != "/membercorporate/register" {
			t.Errorf("path = %s", gotPath)
		}
		if got := gotFields["organization-name"]; len(got) != 1 || got[0] != "Acme Ltd" {
			t.Errorf("fields = %v", gotFields)
		}
		if gotFileName != "Acme-Ltd_Somsak-Director_cert.pdf" {
			t.Errorf("file name = %s", gotFileName)
		}
		if gotFileBody != "pdf-bytes" {
			t.Errorf("file body = %s", gotFileBody)
		}
	})

	t.Run("transport failure reports pending, not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()
		reg := newRegistrar(t, srv.URL, "", "")

		res, err := reg.Submit(ctx, adapter.RegistrationPayload{
			MemberType: model.MemberLocal,
			Fields:     []adapter.FormField{{Key: "name_surname", Value: "x"}},
		})
		if err != nil {
			t.Fatalf("transport failure must not surface as error: %v", err)
		}
		if res.Status != model.SubmissionPending {
			t.Errorf("status = %s", res.Status)
		}
		if !res.Succeeded() {
			t.Error("pending result should still count as success")
		}
	})

	t.Run("explicit backend error reports rejected with detail", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			io.WriteString(w, "duplicate national id")
		}))
		defer srv.Close()
		reg := newRegistrar(t, srv.URL, "", "")

		res, err := reg.Submit(ctx, adapter.RegistrationPayload{
			MemberType: model.MemberLocal,
			Fields:     []adapter.FormField{{Key: "name_surname", Value: "x"}},
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if res.Status != model.SubmissionRejected || res.HTTPStatus != http.StatusUnprocessableEntity {
			t.Errorf("result = %+v", res)
		}
		if res.Message != "duplicate national id" {
			t.Errorf("message = %q", res.Message)
		}
		if res.Succeeded() {
			t.Error("rejected result must not count as success")
		}
	})

	t.Run("unknown member type is an error", func(t *testing.T) {
		reg := newRegistrar(t, "http://localhost:0", "", "")
		if _, err := reg.Submit(ctx, adapter.RegistrationPayload{MemberType: "vip"}); err == nil {
			t.Fatal("expected an error")
		}
	})
}
