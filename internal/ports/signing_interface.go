package ports

import (
	"context"
	"multisign-server/internal/model"
)

// SignAPI : внешний сервис электронной подписи
type SignAPI interface {
	Prepare(ctx context.Context, pdf string, signer model.SignerAttributes, idp string) (*model.PreparedDocument, error)
	Create(ctx context.Context, documents []model.PreparedDocument, authn model.AuthnRequirements) (*model.SignRequest, error)
	Process(ctx context.Context, signResponse, relayState string) ([]model.SignedDocument, error)
}
