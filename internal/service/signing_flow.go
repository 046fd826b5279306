package service

import (
	"context"
	"errors"
	"fmt"
	"multisign-server/internal/model"
	"multisign-server/internal/util"

	"go.uber.org/zap"
)

func signerAttributes(identity model.Identity) model.SignerAttributes {
	return model.SignerAttributes{
		Eppn:        identity.Eppn,
		DisplayName: identity.DisplayName,
		Email:       identity.Email(),
	}
}

// CreateSignRequest : блокирует документ, готовит его в сервисе подписи и создаёт запрос на подпись.
// Блокировка берётся под адресом приглашения пользователя, для финальной подписи под адресом владельца.
// При ошибке сервиса подписи блокировка снимается.
func (s *DocumentService) CreateSignRequest(ctx context.Context, key string, identity model.Identity) (*model.SignRequest, error) {
	document, err := s.store.GetDocument(ctx, key)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fmt.Errorf("[DocumentService] документ %s: %w", key, model.ErrNotFound)
	}

	invitations, err := s.store.GetInvited(ctx, key)
	if err != nil {
		return nil, err
	}
	email, err := signingEmail(document, invitations, identity)
	if err != nil {
		return nil, err
	}

	locked, err := s.store.AddLock(ctx, document.ID, email)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("[DocumentService] документ %s: %w", key, model.ErrDocumentLocked)
	}

	request, err := s.createSignRequest(ctx, document, identity)
	if err != nil {
		s.releaseLock(ctx, key, identity)
		return nil, err
	}
	return request, nil
}

func (s *DocumentService) createSignRequest(ctx context.Context, document *model.Document, identity model.Identity) (*model.SignRequest, error) {
	content, err := s.content.Get(ctx, document.Key)
	if err != nil {
		return nil, err
	}

	signer := signerAttributes(identity)
	prepared, err := s.signAPI.Prepare(ctx, content, signer, identity.IdP)
	if err != nil {
		return nil, signAPIError("prepare", err)
	}
	prepared.DocumentKey = document.Key
	prepared.Name = document.Name

	request, err := s.signAPI.Create(ctx, []model.PreparedDocument{*prepared}, model.AuthnRequirements{
		IdP:          identity.IdP,
		AuthnContext: s.requiredAuthnContext(document.LoA),
		Signer:       signer,
	})
	if err != nil {
		return nil, signAPIError("create", err)
	}

	zap.L().Info("[DocumentService] создан запрос на подпись",
		zap.String("doc", document.Key), zap.String("email", identity.Email()))
	return request, nil
}

// ProcessSignResponse : сохраняет подписанные документы, возвращает их ключи.
// Для владельца без собственного приглашения обновляется только содержимое (финальная подпись).
func (s *DocumentService) ProcessSignResponse(ctx context.Context, signResponse, relayState string, identity model.Identity) ([]string, error) {
	signed, err := s.signAPI.Process(ctx, signResponse, relayState)
	if err != nil {
		return nil, signAPIError("process", err)
	}

	keys := make([]string, 0, len(signed))
	for _, doc := range signed {
		if err := s.storeSigned(ctx, doc, identity); err != nil {
			return keys, err
		}
		keys = append(keys, doc.DocumentKey)
	}
	return keys, nil
}

func (s *DocumentService) storeSigned(ctx context.Context, doc model.SignedDocument, identity model.Identity) error {
	document, err := s.store.GetDocument(ctx, doc.DocumentKey)
	if err != nil {
		return err
	}
	if document == nil {
		return fmt.Errorf("[DocumentService] документ %s: %w", doc.DocumentKey, model.ErrNotFound)
	}

	if identity.HasEmail(document.Owner.Email) {
		invitations, err := s.store.GetInvited(ctx, doc.DocumentKey)
		if err != nil {
			return err
		}
		if len(pendingFor(invitations, identity)) == 0 {
			if err := s.requireLock(ctx, document.ID, doc.DocumentKey, identity); err != nil {
				return err
			}
			if err := s.content.Update(ctx, doc.DocumentKey, doc.SignedContent); err != nil {
				return util.LogError("[DocumentService] не удалось сохранить финальную подпись", err)
			}
			s.releaseLock(ctx, doc.DocumentKey, identity)
			return nil
		}
	}

	return s.UpdateDocument(ctx, doc.DocumentKey, doc.SignedContent, identity)
}

// pendingFor : неразрешённые приглашения на любой из адресов пользователя
func pendingFor(invitations []model.Invitation, identity model.Identity) []model.Invitation {
	var matches []model.Invitation
	for _, invitation := range invitations {
		if !invitation.Resolved() && identity.HasEmail(invitation.Invitee.Email) {
			matches = append(matches, invitation)
		}
	}
	return matches
}

// signingEmail : адрес, под которым пользователь блокирует документ для подписи
func signingEmail(document *model.Document, invitations []model.Invitation, identity model.Identity) (string, error) {
	matches := pendingFor(invitations, identity)
	switch {
	case len(matches) == 1:
		if document.Ordered && !model.NextInLine(invitations, matches[0].Key) {
			return "", fmt.Errorf("[DocumentService] приглашение %s: %w", matches[0].Key, model.ErrNotYourTurn)
		}
		return matches[0].Invitee.Email, nil
	case len(matches) == 0 && identity.HasEmail(document.Owner.Email):
		return document.Owner.Email, nil
	default:
		return "", fmt.Errorf("[DocumentService] документ %s, найдено приглашений %d: %w",
			document.Key, len(matches), model.ErrSignerMismatch)
	}
}

func signAPIError(step string, err error) error {
	if errors.Is(err, model.ErrSignAPI) {
		return err
	}
	zap.L().Error("[DocumentService] ошибка сервиса подписи", zap.String("step", step), zap.Error(err))
	return fmt.Errorf("[DocumentService] %s: %w: %w", step, model.ErrSignAPI, err)
}
