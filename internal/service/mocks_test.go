package service_test

import (
	"context"
	"time"

	"multisign-server/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockMetadataStore struct{ mock.Mock }

func (m *MockMetadataStore) Add(ctx context.Context, document *model.Document, invitees []model.Invitee) ([]model.Invitation, error) {
	args := m.Called(ctx, document, invitees)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Invitation), args.Error(1)
}

func (m *MockMetadataStore) GetPending(ctx context.Context, emails []string) ([]model.DocumentView, error) {
	args := m.Called(ctx, emails)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentView), args.Error(1)
}

func (m *MockMetadataStore) GetOwned(ctx context.Context, email string) ([]model.DocumentView, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentView), args.Error(1)
}

func (m *MockMetadataStore) GetInvited(ctx context.Context, documentKey string) ([]model.Invitation, error) {
	args := m.Called(ctx, documentKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Invitation), args.Error(1)
}

func (m *MockMetadataStore) GetDocument(ctx context.Context, documentKey string) (*model.Document, error) {
	args := m.Called(ctx, documentKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockMetadataStore) GetDocumentID(ctx context.Context, documentKey string) (int64, error) {
	args := m.Called(ctx, documentKey)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMetadataStore) Update(ctx context.Context, documentKey string, emails []string) error {
	return m.Called(ctx, documentKey, emails).Error(0)
}

func (m *MockMetadataStore) Decline(ctx context.Context, documentKey string, emails []string) error {
	return m.Called(ctx, documentKey, emails).Error(0)
}

func (m *MockMetadataStore) Remove(ctx context.Context, documentKey string, force bool) (bool, error) {
	args := m.Called(ctx, documentKey, force)
	return args.Bool(0), args.Error(1)
}

func (m *MockMetadataStore) GetOldDocuments(ctx context.Context, createdBefore time.Time) ([]string, error) {
	args := m.Called(ctx, createdBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMetadataStore) AddLock(ctx context.Context, docID int64, email string) (bool, error) {
	args := m.Called(ctx, docID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockMetadataStore) RmLock(ctx context.Context, docID int64, emails []string) (bool, error) {
	args := m.Called(ctx, docID, emails)
	return args.Bool(0), args.Error(1)
}

func (m *MockMetadataStore) CheckLock(ctx context.Context, docID int64, emails []string) (bool, error) {
	args := m.Called(ctx, docID, emails)
	return args.Bool(0), args.Error(1)
}

func (m *MockMetadataStore) AddInvitation(ctx context.Context, documentKey string, invitee model.Invitee, order int) (*model.Invitation, error) {
	args := m.Called(ctx, documentKey, invitee, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invitation), args.Error(1)
}

func (m *MockMetadataStore) RmInvitation(ctx context.Context, inviteKey string) (bool, error) {
	args := m.Called(ctx, inviteKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockMetadataStore) GetInvitation(ctx context.Context, inviteKey string) (*model.Invitation, error) {
	args := m.Called(ctx, inviteKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invitation), args.Error(1)
}

func (m *MockMetadataStore) DelegateInvitation(ctx context.Context, inviteKey string, invitee model.Invitee) (*model.Invitation, error) {
	args := m.Called(ctx, inviteKey, invitee)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invitation), args.Error(1)
}

func (m *MockMetadataStore) UpdateInvitations(ctx context.Context, documentKey string, invitees []model.Invitee) ([]model.Invitation, error) {
	args := m.Called(ctx, documentKey, invitees)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Invitation), args.Error(1)
}

type MockContentStore struct{ mock.Mock }

func (m *MockContentStore) Add(ctx context.Context, key string, content string) error {
	return m.Called(ctx, key, content).Error(0)
}

func (m *MockContentStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockContentStore) Update(ctx context.Context, key string, content string) error {
	return m.Called(ctx, key, content).Error(0)
}

func (m *MockContentStore) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type MockSignAPI struct{ mock.Mock }

func (m *MockSignAPI) Prepare(ctx context.Context, pdf string, signer model.SignerAttributes, idp string) (*model.PreparedDocument, error) {
	args := m.Called(ctx, pdf, signer, idp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PreparedDocument), args.Error(1)
}

func (m *MockSignAPI) Create(ctx context.Context, documents []model.PreparedDocument, authn model.AuthnRequirements) (*model.SignRequest, error) {
	args := m.Called(ctx, documents, authn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignRequest), args.Error(1)
}

func (m *MockSignAPI) Process(ctx context.Context, signResponse, relayState string) ([]model.SignedDocument, error) {
	args := m.Called(ctx, signResponse, relayState)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SignedDocument), args.Error(1)
}
