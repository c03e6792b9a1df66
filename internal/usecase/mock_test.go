//go:build !integration

package usecase_test

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"sync"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"membership-portal/internal/domain"
	"membership-portal/internal/domain/model"
	"membership-portal/internal/domain/ports/adapter"
	"membership-portal/internal/domain/ports/repository"
	"membership-portal/internal/infra/i18n"
)

// =============================
// Repositories
// =============================

// ---- In-memory DraftRepository ----

type MockDraftRepo struct {
	mu     sync.Mutex
	drafts map[string][]byte // stored as JSON so callers never share pointers

	SaveFunc func(ctx context.Context, d *model.RegistrationDraft) error
	FindFunc func(ctx context.Context, id string) (*model.RegistrationDraft, error)
}

var _ repository.DraftRepository = (*MockDraftRepo)(nil)

func NewMockDraftRepo() *MockDraftRepo {
	return &MockDraftRepo{drafts: map[string][]byte{}}
}

func (m *MockDraftRepo) Save(ctx context.Context, d *model.RegistrationDraft) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, d)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	m.drafts[d.ID] = data
	return nil
}

func (m *MockDraftRepo) Find(ctx context.Context, id string) (*model.RegistrationDraft, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.drafts[id]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	var d model.RegistrationDraft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (m *MockDraftRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

// ---- In-memory SessionRepository ----

type MockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

var _ repository.SessionRepository = (*MockSessionRepo)(nil)

func NewMockSessionRepo() *MockSessionRepo {
	return &MockSessionRepo{sessions: map[string][]byte{}}
}

func (m *MockSessionRepo) Save(ctx context.Context, s *model.PortalSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.sessions[s.ID] = data
	return nil
}

func (m *MockSessionRepo) Find(ctx context.Context, id string) (*model.PortalSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var s model.PortalSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MockSessionRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// ---- In-memory AttemptRepository ----

type MockAttemptRepo struct {
	mu       sync.Mutex
	Recorded []model.Attempt

	RecordFunc func(ctx context.Context, tx repository.Tx, a *model.Attempt) error
}

var _ repository.AttemptRepository = (*MockAttemptRepo)(nil)

func NewMockAttemptRepo() *MockAttemptRepo {
	return &MockAttemptRepo{}
}

func (m *MockAttemptRepo) Record(ctx context.Context, tx repository.Tx, a *model.Attempt) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, tx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Recorded = append(m.Recorded, *a)
	return nil
}

func (m *MockAttemptRepo) ListByDraft(ctx context.Context, tx repository.Tx, draftID string) ([]*model.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Attempt
	for i := range m.Recorded {
		if m.Recorded[i].DraftID == draftID {
			a := m.Recorded[i]
			out = append(out, &a)
		}
	}
	return out, nil
}

func (m *MockAttemptRepo) CountByOutcome(ctx context.Context, tx repository.Tx, kind model.AttemptKind, outcome string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for i := range m.Recorded {
		if m.Recorded[i].Kind == kind && m.Recorded[i].Outcome == outcome {
			n++
		}
	}
	return n, nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs fn immediately without a real transaction unless overridden.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock Locker ----

type MockLocker struct {
	mu   sync.Mutex
	next int
	held map[string]string // key -> token

	FailNext bool // next TryLock reports the lock as already taken
}

var _ repository.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}}
}

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext {
		m.FailNext = false
		return "", domain.ErrSubmitInFlight
	}
	if _, taken := m.held[key]; taken {
		return "", domain.ErrSubmitInFlight
	}
	m.next++
	token := "tok-" + strconv.Itoa(m.next)
	m.held[key] = token
	return token, nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] == token {
		delete(m.held, key)
	}
	return nil
}

func (m *MockLocker) HeldCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.held)
}

// =============================
// Adapters
// =============================

// ---- Mock MemberDirectory ----

type MockDirectory struct {
	mu    sync.Mutex
	Calls []string // "<kind>:<value>" per lookup, in order

	CheckFunc func(ctx context.Context, kind model.FieldKind, value string) adapter.AvailabilityResult
}

var _ adapter.MemberDirectory = (*MockDirectory)(nil)

func NewMockDirectory() *MockDirectory {
	return &MockDirectory{}
}

func (m *MockDirectory) CheckAvailability(ctx context.Context, kind model.FieldKind, value string) adapter.AvailabilityResult {
	m.mu.Lock()
	m.Calls = append(m.Calls, string(kind)+":"+value)
	m.mu.Unlock()
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, kind, value)
	}
	return adapter.AvailabilityResult{Available: true}
}

func (m *MockDirectory) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// ---- Mock MemberRegistrar ----

type MockRegistrar struct {
	mu       sync.Mutex
	Payloads []adapter.RegistrationPayload

	SubmitFunc func(ctx context.Context, p adapter.RegistrationPayload) (*model.SubmissionResult, error)
}

var _ adapter.MemberRegistrar = (*MockRegistrar)(nil)

func NewMockRegistrar() *MockRegistrar {
	return &MockRegistrar{}
}

func (m *MockRegistrar) Submit(ctx context.Context, p adapter.RegistrationPayload) (*model.SubmissionResult, error) {
	m.mu.Lock()
	m.Payloads = append(m.Payloads, p)
	m.mu.Unlock()
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, p)
	}
	return &model.SubmissionResult{Status: model.SubmissionConfirmed, MemberType: p.MemberType, HTTPStatus: 200}, nil
}

func (m *MockRegistrar) LastPayload() *adapter.RegistrationPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Payloads) == 0 {
		return nil
	}
	p := m.Payloads[len(m.Payloads)-1]
	return &p
}

// =============================
// Helpers
// =============================

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// newTestTranslator builds a real Translator from an in-memory filesystem so
// tests are self-contained. Keys resolve to themselves when absent, which is
// enough to assert which message was chosen.
func newTestTranslator(policy string) *i18n.Translator {
	testFS := fstest.MapFS{
		"locales/en.yaml": {
			Data: []byte("error.required: 'required: %s'\n"),
		},
		"locales/policy-en.txt": {
			Data: []byte(policy),
		},
	}
	translator, _ := i18n.NewTranslator(testFS, "en")
	return translator
}

func fieldValue(fields []adapter.FormField, key string) (string, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}
