package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"multisign-server/config"
	"multisign-server/internal/handler"
	"multisign-server/internal/model"
	requestresponse "multisign-server/internal/model/requestresponse"
	"multisign-server/internal/security"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== Mock DocumentService =====

type MockDocumentService struct{ mock.Mock }

func (m *MockDocumentService) AddDocument(ctx context.Context, document *model.Document, owner model.Owner, invitees []model.Invitee, opts model.AddDocumentOptions) ([]model.Invitation, error) {
	args := m.Called(ctx, document, owner, invitees, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Invitation), args.Error(1)
}

func (m *MockDocumentService) GetDocument(ctx context.Context, key string) (*model.Document, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) GetDocumentContent(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) UpdateDocument(ctx context.Context, key string, content string, identity model.Identity) error {
	return m.Called(ctx, key, content, identity).Error(0)
}

func (m *MockDocumentService) DeclineDocument(ctx context.Context, key string, identity model.Identity) error {
	return m.Called(ctx, key, identity).Error(0)
}

func (m *MockDocumentService) RemoveDocument(ctx context.Context, key string, force bool) (bool, error) {
	args := m.Called(ctx, key, force)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentService) GetInvitation(ctx context.Context, inviteKey string, identity model.Identity) (*model.InvitationResult, error) {
	args := m.Called(ctx, inviteKey, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvitationResult), args.Error(1)
}

func (m *MockDocumentService) Delegate(ctx context.Context, inviteKey string, invitee model.Invitee, identity model.Identity) (*model.Invitation, error) {
	args := m.Called(ctx, inviteKey, invitee, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invitation), args.Error(1)
}

func (m *MockDocumentService) UpdateInvitations(ctx context.Context, key string, invitees []model.Invitee) ([]model.Invitation, error) {
	args := m.Called(ctx, key, invitees)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Invitation), args.Error(1)
}

func (m *MockDocumentService) UnlockDocument(ctx context.Context, key string, identity model.Identity) (bool, error) {
	args := m.Called(ctx, key, identity)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentService) CheckDocumentLocked(ctx context.Context, key string, identity model.Identity) (bool, error) {
	args := m.Called(ctx, key, identity)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentService) GetOverview(ctx context.Context, identity model.Identity) (*model.Overview, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Overview), args.Error(1)
}

func (m *MockDocumentService) RemoveOldDocuments(ctx context.Context, maxAge time.Duration) (int, error) {
	args := m.Called(ctx, maxAge)
	return args.Int(0), args.Error(1)
}

func (m *MockDocumentService) CreateSignRequest(ctx context.Context, key string, identity model.Identity) (*model.SignRequest, error) {
	args := m.Called(ctx, key, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignRequest), args.Error(1)
}

func (m *MockDocumentService) ProcessSignResponse(ctx context.Context, signResponse, relayState string, identity model.Identity) ([]string, error) {
	args := m.Called(ctx, signResponse, relayState, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// ===== Helpers =====

var (
	owner = model.Identity{
		Eppn:        "owner@example.org",
		DisplayName: "Owner",
		Emails:      []string{"owner@example.org"},
		Lang:        "en",
	}
	signer = model.Identity{
		Eppn:        "signer@example.org",
		DisplayName: "Signer",
		Emails:      []string{"signer@example.org"},
	}
	ownedDocument = &model.Document{ID: 1, Key: "doc-1", Name: "a.pdf", Owner: owner.Owner()}
)

type testServer struct {
	router  *chi.Mux
	service *MockDocumentService
	jwt     *security.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	svc := new(MockDocumentService)
	jwtService := security.NewJWTService(&config.JWTConfig{SecretKey: "test-secret"})
	router := chi.NewRouter()
	handler.RegisterRoutes(router, handler.NewDocumentHandler(svc), jwtService)
	return &testServer{router: router, service: svc, jwt: jwtService}
}

func (s *testServer) do(t *testing.T, identity *model.Identity, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	if identity != nil {
		token, err := s.jwt.GenerateIdentityToken(*identity, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// ===== Tests =====

func TestRoutes_RequireToken(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, nil, http.MethodGet, "/api/docs", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	srv.service.AssertNotCalled(t, "GetOverview", mock.Anything, mock.Anything)
}

func TestCreateDocument(t *testing.T) {
	srv := newTestServer(t)
	invitations := []model.Invitation{{Key: "inv-1", DocumentKey: "doc-1", Invitee: model.Invitee{Email: "b@example.org"}}}

	srv.service.On("AddDocument", mock.Anything,
		mock.MatchedBy(func(d *model.Document) bool {
			d.Key = "doc-1"
			return d.Name == "a.pdf" && d.Blob == "JVBERi0xLjQK"
		}),
		owner.Owner(),
		[]model.Invitee{{Email: "b@example.org"}},
		model.AddDocumentOptions{Ordered: true},
	).Return(invitations, nil)

	rec := srv.do(t, &owner, http.MethodPost, "/api/docs", requestresponse.CreateDocumentRequest{
		Name:     "a.pdf",
		Type:     model.AcceptedMimeType,
		Blob:     "JVBERi0xLjQK",
		Ordered:  true,
		Invitees: []requestresponse.InviteeRequest{{Email: "b@example.org"}},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var response requestresponse.CreateDocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "doc-1", response.Key)
	assert.Equal(t, invitations, response.Invitations)
}

func TestCreateDocument_BadBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/docs", bytes.NewBufferString("{"))
	token, err := srv.jwt.GenerateIdentityToken(owner, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not found", err: fmt.Errorf("x: %w", model.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "forbidden", err: fmt.Errorf("x: %w", model.ErrForbidden), wantStatus: http.StatusForbidden},
		{name: "locked", err: fmt.Errorf("x: %w", model.ErrDocumentLocked), wantStatus: http.StatusConflict},
		{name: "not your turn", err: fmt.Errorf("x: %w", model.ErrNotYourTurn), wantStatus: http.StatusConflict},
		{name: "signer mismatch", err: fmt.Errorf("x: %w", model.ErrSignerMismatch), wantStatus: http.StatusUnprocessableEntity},
		{name: "invalid document", err: fmt.Errorf("x: %w", model.ErrInvalidDocument), wantStatus: http.StatusBadRequest},
		{name: "sign api", err: fmt.Errorf("x: %w", model.ErrSignAPI), wantStatus: http.StatusBadGateway},
		{name: "backend", err: fmt.Errorf("connection refused"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			srv.service.On("UpdateDocument", mock.Anything, "doc-1", "JVBERi0xLjcK", signer).Return(tt.err)

			rec := srv.do(t, &signer, http.MethodPost, "/api/docs/doc-1/sign",
				requestresponse.SignDocumentRequest{Blob: "JVBERi0xLjcK"})

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRemoveDocument(t *testing.T) {
	tests := []struct {
		name       string
		identity   model.Identity
		query      string
		force      bool
		removed    bool
		wantStatus int
	}{
		{name: "owner removes resolved document", identity: owner, removed: true, wantStatus: http.StatusOK},
		{name: "refused while invitations pending", identity: owner, removed: false, wantStatus: http.StatusConflict},
		{name: "forced", identity: owner, query: "?force=true", force: true, removed: true, wantStatus: http.StatusOK},
		{name: "bad force value", identity: owner, query: "?force=maybe", wantStatus: http.StatusBadRequest},
		{name: "not the owner", identity: signer, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			srv.service.On("GetDocument", mock.Anything, "doc-1").Return(ownedDocument, nil)
			srv.service.On("RemoveDocument", mock.Anything, "doc-1", tt.force).Return(tt.removed, nil)

			rec := srv.do(t, &tt.identity, http.MethodDelete, "/api/docs/doc-1"+tt.query, nil)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusForbidden || tt.wantStatus == http.StatusBadRequest {
				srv.service.AssertNotCalled(t, "RemoveDocument", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestRemoveDocument_Unknown(t *testing.T) {
	srv := newTestServer(t)
	srv.service.On("GetDocument", mock.Anything, "missing").Return(nil, nil)

	rec := srv.do(t, &owner, http.MethodDelete, "/api/docs/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetInvitation(t *testing.T) {
	result := &model.InvitationResult{
		User:     model.Invitee{Email: "signer@example.org"},
		Document: &model.Document{Key: "doc-1", Blob: "JVBERi0xLjQK"},
	}

	tests := []struct {
		name       string
		identity   model.Identity
		result     *model.InvitationResult
		err        error
		wantStatus int
	}{
		{name: "invitee", identity: signer, result: result, wantStatus: http.StatusOK},
		{name: "locked by another signer", identity: signer, err: model.ErrDocumentLocked, wantStatus: http.StatusConflict},
		{name: "someone else's invitation", identity: owner, err: fmt.Errorf("x: %w", model.ErrForbidden), wantStatus: http.StatusForbidden},
		{name: "out of turn", identity: signer, err: fmt.Errorf("x: %w", model.ErrNotYourTurn), wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			if tt.result != nil {
				srv.service.On("GetInvitation", mock.Anything, "inv-1", tt.identity).Return(tt.result, nil)
			} else {
				srv.service.On("GetInvitation", mock.Anything, "inv-1", tt.identity).Return(nil, tt.err)
			}

			rec := srv.do(t, &tt.identity, http.MethodGet, "/api/invitations/inv-1", nil)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				var got model.InvitationResult
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, "JVBERi0xLjQK", got.Document.Blob)
			} else {
				assert.NotContains(t, rec.Body.String(), "JVBERi0xLjQK")
			}
		})
	}
}

func TestDelegate(t *testing.T) {
	srv := newTestServer(t)
	invitee := model.Invitee{Name: "Carol", Email: "carol@example.org"}
	srv.service.On("Delegate", mock.Anything, "inv-1", invitee, signer).
		Return(&model.Invitation{Key: "inv-9", Invitee: invitee}, nil)
	srv.service.On("Delegate", mock.Anything, "inv-2", invitee, signer).
		Return(nil, fmt.Errorf("x: %w", model.ErrForbidden))

	rec := srv.do(t, &signer, http.MethodPost, "/api/invitations/inv-1/delegate",
		requestresponse.DelegateRequest{Name: "Carol", Email: "carol@example.org"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, &signer, http.MethodPost, "/api/invitations/inv-2/delegate",
		requestresponse.DelegateRequest{Name: "Carol", Email: "carol@example.org"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, &signer, http.MethodPost, "/api/invitations/inv-1/delegate", requestresponse.DelegateRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateInvitations(t *testing.T) {
	srv := newTestServer(t)
	invitees := []model.Invitee{{Email: "x@example.org"}}
	srv.service.On("GetDocument", mock.Anything, "doc-1").Return(ownedDocument, nil)
	srv.service.On("UpdateInvitations", mock.Anything, "doc-1", invitees).
		Return([]model.Invitation{{Key: "inv-3", Invitee: invitees[0]}}, nil)

	rec := srv.do(t, &owner, http.MethodPost, "/api/docs/doc-1/invitations",
		requestresponse.UpdateInvitationsRequest{Invitees: []requestresponse.InviteeRequest{{Email: "x@example.org"}}})

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	srv.service.AssertExpectations(t)
}

func TestLockEndpoints(t *testing.T) {
	srv := newTestServer(t)
	srv.service.On("CheckDocumentLocked", mock.Anything, "doc-1", signer).Return(true, nil)
	srv.service.On("UnlockDocument", mock.Anything, "doc-1", signer).Return(true, nil)

	rec := srv.do(t, &signer, http.MethodGet, "/api/docs/doc-1/lock", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var lock requestresponse.LockResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&lock))
	assert.True(t, lock.Locked)

	rec = srv.do(t, &signer, http.MethodPost, "/api/docs/doc-1/unlock", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var unlock requestresponse.UnlockResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&unlock))
	assert.True(t, unlock.Unlocked)
}

func TestSigningEndpoints(t *testing.T) {
	srv := newTestServer(t)
	srv.service.On("CreateSignRequest", mock.Anything, "doc-1", signer).
		Return(&model.SignRequest{SignRequest: "req", RelayState: "relay"}, nil)
	srv.service.On("ProcessSignResponse", mock.Anything, "resp", "relay", signer).Return([]string{"doc-1"}, nil)
	srv.service.On("DeclineDocument", mock.Anything, "doc-1", signer).Return(nil)

	rec := srv.do(t, &signer, http.MethodPost, "/api/docs/doc-1/sign-request", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, &signer, http.MethodPost, "/api/sign-response",
		requestresponse.SignResponseRequest{SignResponse: "resp", RelayState: "relay"})
	require.Equal(t, http.StatusOK, rec.Code)
	var response requestresponse.SignResponseResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, []string{"doc-1"}, response.Documents)

	rec = srv.do(t, &signer, http.MethodPost, "/api/sign-response", requestresponse.SignResponseRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, &signer, http.MethodPost, "/api/docs/doc-1/decline", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetOverview(t *testing.T) {
	srv := newTestServer(t)
	srv.service.On("GetOverview", mock.Anything, owner).
		Return(&model.Overview{Owned: []model.DocumentView{{Document: model.Document{Key: "doc-1"}}}, Poll: true}, nil)

	rec := srv.do(t, &owner, http.MethodGet, "/api/docs", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var overview model.Overview
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&overview))
	assert.True(t, overview.Poll)
	assert.Len(t, overview.Owned, 1)
}

func TestGetDocumentContent(t *testing.T) {
	srv := newTestServer(t)
	srv.service.On("GetDocument", mock.Anything, "doc-1").Return(ownedDocument, nil)
	srv.service.On("GetDocumentContent", mock.Anything, "doc-1").Return("JVBERi0xLjQK", nil)

	rec := srv.do(t, &owner, http.MethodGet, "/api/docs/doc-1/content", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body requestresponse.SignDocumentRequest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "JVBERi0xLjQK", body.Blob)
}
