package integration

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cibilbank/backend/internal/apperr"
	"github.com/cibilbank/backend/internal/auth"
	"github.com/cibilbank/backend/internal/config"
	"github.com/cibilbank/backend/internal/db"
	appdomain "github.com/cibilbank/backend/internal/domain/application"
	docdomain "github.com/cibilbank/backend/internal/domain/document"
	"github.com/cibilbank/backend/internal/domain/steps"
	"github.com/cibilbank/backend/internal/eligibility"
	"github.com/cibilbank/backend/internal/http/handlers"
	"github.com/cibilbank/backend/internal/server"
	"github.com/cibilbank/backend/internal/ws"
)

type memApplicationRepo struct {
	items  map[string]*appdomain.Entity
	nextID int
}

func newMemApplicationRepo() *memApplicationRepo {
	return &memApplicationRepo{items: map[string]*appdomain.Entity{}}
}

func (r *memApplicationRepo) Create(_ context.Context, applicantRef string, basicData map[string]any) (*appdomain.Entity, error) {
	r.nextID++
	e := &appdomain.Entity{
		ID:            "11111111-1111-1111-1111-11111111111" + string(rune('0'+r.nextID%10)),
		ApplicantRef:  applicantRef,
		Status:        appdomain.StatusPending,
		BasicData:     basicData,
		Addresses:     map[string]any{},
		CoApplicant:   map[string]any{},
		References:    map[string]any{},
		PreviousLoans: map[string]any{},
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	r.items[e.ID] = e
	return e, nil
}

func (r *memApplicationRepo) GetByID(_ context.Context, id string) (*appdomain.Entity, error) {
	if e, ok := r.items[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, apperr.ErrNotFound
}

func (r *memApplicationRepo) MergeSection(_ context.Context, id, sectionKey string, fields map[string]any) error {
	e, ok := r.items[id]
	if !ok {
		return apperr.ErrNotFound
	}
	section := e.Section(sectionKey)
	for k, v := range fields {
		section[k] = v
	}
	switch sectionKey {
	case appdomain.SectionBasicData:
		e.BasicData = section
	case appdomain.SectionAddresses:
		e.Addresses = section
	case appdomain.SectionCoApplicant:
		e.CoApplicant = section
	case appdomain.SectionReferences:
		e.References = section
	case appdomain.SectionPreviousLoans:
		e.PreviousLoans = section
	}
	return nil
}

func (r *memApplicationRepo) SetStatus(_ context.Context, id, status string) (*appdomain.Entity, error) {
	e, ok := r.items[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	e.Status = status
	cp := *e
	return &cp, nil
}

func (r *memApplicationRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memApplicationRepo) ListByApplicant(_ context.Context, applicantRef, email string, _, _ int32) ([]appdomain.Entity, error) {
	out := []appdomain.Entity{}
	for _, e := range r.items {
		if applicantRef != "" && e.ApplicantRef == applicantRef {
			out = append(out, *e)
			continue
		}
		if v, ok := e.BasicData["email"].(string); ok && email != "" && v == email {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *memApplicationRepo) List(_ context.Context, f appdomain.ListFilter) ([]appdomain.Entity, error) {
	out := []appdomain.Entity{}
	for _, e := range r.items {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

type memStatusAudit struct {
	changes []appdomain.StatusChange
}

func (r *memStatusAudit) Append(_ context.Context, applicationID, actor, fromStatus, toStatus string) error {
	r.changes = append(r.changes, appdomain.StatusChange{
		ID:            int64(len(r.changes) + 1),
		ApplicationID: applicationID,
		Actor:         actor,
		FromStatus:    fromStatus,
		ToStatus:      toStatus,
		ChangedAt:     time.Now().UTC(),
	})
	return nil
}

func (r *memStatusAudit) ListRecent(_ context.Context, _ int32) ([]appdomain.StatusChange, error) {
	return r.changes, nil
}

type memFragmentStore struct {
	data map[string]map[string]any
}

func newMemFragmentStore() *memFragmentStore {
	return &memFragmentStore{data: map[string]map[string]any{}}
}

func (s *memFragmentStore) key(applicationID string, step steps.Step) string {
	return applicationID + "/" + string(step)
}

func (s *memFragmentStore) Save(_ context.Context, applicationID string, step steps.Step, fields map[string]any) error {
	k := s.key(applicationID, step)
	if _, ok := s.data[k]; !ok {
		s.data[k] = map[string]any{}
	}
	for name, v := range fields {
		s.data[k][name] = v
	}
	return nil
}

func (s *memFragmentStore) Load(_ context.Context, applicationID string, step steps.Step) (map[string]any, error) {
	out := map[string]any{}
	for name, v := range s.data[s.key(applicationID, step)] {
		out[name] = v
	}
	return out, nil
}

func (s *memFragmentStore) Delete(_ context.Context, applicationID string, step steps.Step) error {
	delete(s.data, s.key(applicationID, step))
	return nil
}

type memDocumentRepo struct {
	byKey  map[string]docdomain.Attachment
	nextID int
}

func newMemDocumentRepo() *memDocumentRepo {
	return &memDocumentRepo{byKey: map[string]docdomain.Attachment{}}
}

func (r *memDocumentRepo) Upsert(_ context.Context, in docdomain.AttachInput) (*docdomain.Attachment, error) {
	r.nextID++
	a := docdomain.Attachment{
		ID:            "doc-" + string(rune('0'+r.nextID%10)),
		ApplicationID: in.ApplicationID,
		DocType:       in.DocType,
		DocNumber:     in.DocNumber,
		FileName:      in.FileName,
		ContentType:   in.ContentType,
		SizeBytes:     int64(len(in.Payload)),
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	r.byKey[in.ApplicationID+"/"+in.DocType] = a
	return &a, nil
}

func (r *memDocumentRepo) ListByApplication(_ context.Context, applicationID string) ([]docdomain.Attachment, error) {
	out := []docdomain.Attachment{}
	for _, a := range r.byKey {
		if a.ApplicationID == applicationID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memDocumentRepo) GetPayload(_ context.Context, applicationID, docType string) ([]byte, string, error) {
	a, ok := r.byKey[applicationID+"/"+docType]
	if !ok {
		return nil, "", apperr.ErrNotFound
	}
	return []byte("stored-" + a.FileName), a.ContentType, nil
}

func (r *memDocumentRepo) DeleteByApplication(_ context.Context, applicationID string) error {
	for k, a := range r.byKey {
		if a.ApplicationID == applicationID {
			delete(r.byKey, k)
		}
	}
	return nil
}

type memAuthRepo struct {
	users    map[string]*db.User
	sessions map[string]*db.Session
	nextID   int
}

func newMemAuthRepo() *memAuthRepo {
	return &memAuthRepo{users: map[string]*db.User{}, sessions: map[string]*db.Session{}}
}

func (r *memAuthRepo) CreateUser(_ context.Context, email, passwordHash, fullName, role string) (*db.User, error) {
	r.nextID++
	u := &db.User{ID: "u-" + string(rune('0'+r.nextID%10)), Email: email, PasswordHash: passwordHash, FullName: fullName, Role: role}
	r.users[email] = u
	return u, nil
}

func (r *memAuthRepo) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	if u, ok := r.users[email]; ok {
		return u, nil
	}
	return nil, apperr.ErrNotFound
}

func (r *memAuthRepo) GetUserByID(_ context.Context, userID string) (*db.User, error) {
	for _, u := range r.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *memAuthRepo) CreateSession(_ context.Context, userID, refreshHash, userAgent, ipAddress string, expiresAt time.Time) (*db.Session, error) {
	s := &db.Session{ID: "s-" + time.Now().UTC().Format("150405.000000"), UserID: userID, RefreshTokenHash: refreshHash, UserAgent: userAgent, IPAddress: ipAddress, ExpiresAt: expiresAt}
	r.sessions[s.ID] = s
	return s, nil
}

func (r *memAuthRepo) GetSessionByID(_ context.Context, sessionID string) (*db.Session, error) {
	if s, ok := r.sessions[sessionID]; ok {
		return s, nil
	}
	return nil, apperr.ErrNotFound
}

func (r *memAuthRepo) RevokeSession(_ context.Context, sessionID string) error {
	if s, ok := r.sessions[sessionID]; ok {
		now := time.Now().UTC()
		s.RevokedAt = &now
	}
	return nil
}

func (r *memAuthRepo) UpdateSessionRefreshHash(_ context.Context, sessionID, refreshHash string) error {
	if s, ok := r.sessions[sessionID]; ok {
		s.RefreshTokenHash = refreshHash
	}
	return nil
}

type okPinger struct{}

func (okPinger) Ping(_ context.Context) error { return nil }

// testEnv wires the full router against in-memory stores and a stubbed
// eligibility upstream.
type testEnv struct {
	router   *gin.Engine
	jwt      *auth.JWTManager
	appRepo  *memApplicationRepo
	docRepo  *memDocumentRepo
	audit    *memStatusAudit
	upstream *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/authentication":
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
		case "/loan/checkEligibility":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []map[string]any{
				{"bank_id": 1, "bank_name": "HDFC", "amount": 300000.0, "tenure_months": 24, "interest_rate": 12.0},
			}})
		case "/loan/getLoanTypes":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []map[string]any{
				{"id": "LT-1", "name": "Personal Loan"},
			}})
		case "/loan/getRequiredDocs":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []map[string]any{
				{"doc_type": "SALARY_SLIP", "label": "Salary slip", "mandatory": true},
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	jwtManager := auth.NewJWTManager("issuer", "aud", "super-secret")
	authRepo := newMemAuthRepo()
	authService := auth.NewService(authRepo, jwtManager, 15*time.Minute, 24*time.Hour)
	authHandler := handlers.NewAuthHandler(authService, auth.CookieConfig{}, 15*time.Minute, 24*time.Hour)

	hub := ws.NewHub()
	notifier := ws.NewStatusNotifier(hub)

	appRepo := newMemApplicationRepo()
	audit := &memStatusAudit{}
	applicationService := appdomain.NewService(appRepo, audit, notifier)

	gateway := eligibility.NewGateway(eligibility.Config{BaseURL: upstream.URL, ClientID: "cid", ClientSecret: "csecret"})

	docRepo := newMemDocumentRepo()
	documentService := docdomain.NewService(docRepo, applicationService, gateway, 1<<20)

	fragments := newMemFragmentStore()
	fragmentService := steps.NewFragmentService(applicationService, fragments)
	sequencer := steps.NewSequencer(applicationService, fragments, documentService)

	router := server.NewRouter(config.Config{Env: "test"}, slog.Default(), server.Dependencies{
		DBPinger:           okPinger{},
		CachePinger:        okPinger{},
		AuthHandler:        authHandler,
		ApplicationHandler: handlers.NewApplicationHandler(applicationService),
		StepsHandler:       handlers.NewStepsHandler(fragmentService, sequencer),
		DocumentHandler:    handlers.NewDocumentHandler(documentService),
		EligibilityHandler: handlers.NewEligibilityHandler(gateway),
		WSHandler:          ws.NewHandler(hub),
		JWTManager:         jwtManager,
	})

	return &testEnv{router: router, jwt: jwtManager, appRepo: appRepo, docRepo: docRepo, audit: audit, upstream: upstream}
}

func (env *testEnv) accessCookie(t *testing.T, userID, role string) *http.Cookie {
	t.Helper()
	tok, err := env.jwt.Mint(userID, "s-1", role, "access", 15*time.Minute)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return &http.Cookie{Name: auth.AccessCookieName, Value: tok}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response body: %v (%s)", err, w.Body.String())
	}
	return out
}
