//go:build !integration

package web_test

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"membership-portal/internal/domain"
	"membership-portal/internal/domain/model"
	"membership-portal/internal/domain/ports/adapter"
	"membership-portal/internal/domain/ports/repository"
	"membership-portal/internal/infra/i18n"
	"membership-portal/internal/infra/web"
	"membership-portal/internal/usecase"
)

// The web tests run the real use cases on in-memory storage; only the two
// upstream adapters are stubbed.

type memDraftRepo struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemDraftRepo() *memDraftRepo { return &memDraftRepo{m: map[string][]byte{}} }

func (r *memDraftRepo) Save(ctx context.Context, d *model.RegistrationDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	r.m[d.ID] = data
	return nil
}

func (r *memDraftRepo) Find(ctx context.Context, id string) (*model.RegistrationDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.m[id]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	var d model.RegistrationDraft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *memDraftRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
	return nil
}

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemSessionRepo() *memSessionRepo { return &memSessionRepo{m: map[string][]byte{}} }

func (r *memSessionRepo) Save(ctx context.Context, s *model.PortalSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.m[s.ID] = data
	return nil
}

func (r *memSessionRepo) Find(ctx context.Context, id string) (*model.PortalSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.m[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var s model.PortalSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *memSessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
	return nil
}

type memAttemptRepo struct {
	mu sync.Mutex
	as []model.Attempt
}

func (r *memAttemptRepo) Record(ctx context.Context, tx repository.Tx, a *model.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.as = append(r.as, *a)
	return nil
}

func (r *memAttemptRepo) ListByDraft(ctx context.Context, tx repository.Tx, draftID string) ([]*model.Attempt, error) {
	return nil, nil
}

func (r *memAttemptRepo) CountByOutcome(ctx context.Context, tx repository.Tx, kind model.AttemptKind, outcome string) (int, error) {
	return 0, nil
}

type noopTxManager struct{}

func (noopTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

type stubDirectory struct {
	CheckFunc func(ctx context.Context, kind model.FieldKind, value string) adapter.AvailabilityResult
}

func (s *stubDirectory) CheckAvailability(ctx context.Context, kind model.FieldKind, value string) adapter.AvailabilityResult {
	if s.CheckFunc != nil {
		return s.CheckFunc(ctx, kind, value)
	}
	return adapter.AvailabilityResult{Available: true}
}

type stubRegistrar struct {
	mu       sync.Mutex
	Payloads []adapter.RegistrationPayload

	SubmitFunc func(ctx context.Context, p adapter.RegistrationPayload) (*model.SubmissionResult, error)
}

func (s *stubRegistrar) Submit(ctx context.Context, p adapter.RegistrationPayload) (*model.SubmissionResult, error) {
	s.mu.Lock()
	s.Payloads = append(s.Payloads, p)
	s.mu.Unlock()
	if s.SubmitFunc != nil {
		return s.SubmitFunc(ctx, p)
	}
	return &model.SubmissionResult{Status: model.SubmissionConfirmed, MemberType: p.MemberType, HTTPStatus: 200}, nil
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func newMemLocker() *memLocker { return &memLocker{held: map[string]string{}} }

func (l *memLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return "", domain.ErrSubmitInFlight
	}
	l.held[key] = key
	return key, nil
}

func (l *memLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

type fixture struct {
	server    *web.Server
	auth      *web.AuthManager
	directory *stubDirectory
	registrar *stubRegistrar
	sessions  *memSessionRepo
	drafts    *memDraftRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)

	testFS := fstest.MapFS{
		"locales/th.yaml":       {Data: []byte("landing.title: 'สมัครสมาชิก'\n")},
		"locales/policy-th.txt": {Data: []byte("นโยบาย PDPA")},
		"locales/en.yaml":       {Data: []byte("landing.title: 'Membership Registration'\n")},
		"locales/policy-en.txt": {Data: []byte("PDPA policy")},
	}
	trTH, err := i18n.NewTranslator(testFS, "th")
	if err != nil {
		t.Fatalf("th translator: %v", err)
	}
	trEN, err := i18n.NewTranslator(testFS, "en")
	if err != nil {
		t.Fatalf("en translator: %v", err)
	}

	f := &fixture{
		directory: &stubDirectory{},
		registrar: &stubRegistrar{},
		sessions:  newMemSessionRepo(),
		drafts:    newMemDraftRepo(),
	}

	viewUC := usecase.NewViewUseCase(f.sessions, 0, &logger)
	fieldUC := usecase.NewFieldUseCase(f.drafts, f.directory, &memAttemptRepo{}, trTH, trEN, &logger)
	regUC := usecase.NewRegistrationUseCase(
		f.drafts, f.directory, f.registrar, &memAttemptRepo{}, noopTxManager{}, newMemLocker(), trTH, trEN, &logger)
	dashUC := usecase.NewDashboardUseCase(f.sessions, 0, trTH, &logger)

	f.auth = web.NewAuthManager("test-secret", false, "", 30*time.Minute)
	f.server = web.NewServer(viewUC, regUC, fieldUC, dashUC, f.auth, trTH, trEN, model.MaxAttachmentBytes, &logger)
	return f
}
