package ports

import (
	"context"
	"multisign-server/internal/model"
	"time"
)

// MetadataStore : хранилище метаданных документов и приглашений (SQL или Redis)
type MetadataStore interface {
	Add(ctx context.Context, document *model.Document, invitees []model.Invitee) ([]model.Invitation, error)
	GetPending(ctx context.Context, emails []string) ([]model.DocumentView, error)
	GetOwned(ctx context.Context, email string) ([]model.DocumentView, error)
	GetInvited(ctx context.Context, documentKey string) ([]model.Invitation, error)
	GetDocument(ctx context.Context, documentKey string) (*model.Document, error)
	GetDocumentID(ctx context.Context, documentKey string) (int64, error)
	Update(ctx context.Context, documentKey string, emails []string) error
	Decline(ctx context.Context, documentKey string, emails []string) error
	Remove(ctx context.Context, documentKey string, force bool) (bool, error)
	GetOldDocuments(ctx context.Context, createdBefore time.Time) ([]string, error)

	AddLock(ctx context.Context, docID int64, email string) (bool, error)
	RmLock(ctx context.Context, docID int64, emails []string) (bool, error)
	CheckLock(ctx context.Context, docID int64, emails []string) (bool, error)

	AddInvitation(ctx context.Context, documentKey string, invitee model.Invitee, order int) (*model.Invitation, error)
	RmInvitation(ctx context.Context, inviteKey string) (bool, error)
	GetInvitation(ctx context.Context, inviteKey string) (*model.Invitation, error)
	DelegateInvitation(ctx context.Context, inviteKey string, invitee model.Invitee) (*model.Invitation, error)
	UpdateInvitations(ctx context.Context, documentKey string, invitees []model.Invitee) ([]model.Invitation, error)
}

// DocumentService : координатор хранилища содержимого и метаданных
type DocumentService interface {
	AddDocument(ctx context.Context, document *model.Document, owner model.Owner, invitees []model.Invitee, opts model.AddDocumentOptions) ([]model.Invitation, error)
	GetDocument(ctx context.Context, key string) (*model.Document, error)
	GetDocumentContent(ctx context.Context, key string) (string, error)
	UpdateDocument(ctx context.Context, key string, content string, identity model.Identity) error
	DeclineDocument(ctx context.Context, key string, identity model.Identity) error
	RemoveDocument(ctx context.Context, key string, force bool) (bool, error)
	GetInvitation(ctx context.Context, inviteKey string, identity model.Identity) (*model.InvitationResult, error)
	Delegate(ctx context.Context, inviteKey string, invitee model.Invitee, identity model.Identity) (*model.Invitation, error)
	UpdateInvitations(ctx context.Context, key string, invitees []model.Invitee) ([]model.Invitation, error)
	UnlockDocument(ctx context.Context, key string, identity model.Identity) (bool, error)
	CheckDocumentLocked(ctx context.Context, key string, identity model.Identity) (bool, error)
	GetOverview(ctx context.Context, identity model.Identity) (*model.Overview, error)
	RemoveOldDocuments(ctx context.Context, maxAge time.Duration) (int, error)
	CreateSignRequest(ctx context.Context, key string, identity model.Identity) (*model.SignRequest, error)
	ProcessSignResponse(ctx context.Context, signResponse, relayState string, identity model.Identity) ([]string, error)
}
