package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"multisign-server/config"
	"multisign-server/internal/model"
	"multisign-server/internal/ports"
	"multisign-server/internal/util"
	"time"

	"go.uber.org/zap"
)

// DocumentService : координатор хранилища содержимого и хранилища метаданных
type DocumentService struct {
	store    ports.MetadataStore
	content  ports.ContentStore
	signAPI  ports.SignAPI
	mimeType string
	loa      map[string]string
	now      func() time.Time
}

func NewDocumentService(
	store ports.MetadataStore,
	content ports.ContentStore,
	signAPI ports.SignAPI,
	cfg *config.DocumentsConfig,
) *DocumentService {
	mimeType := cfg.MimeType
	if mimeType == "" {
		mimeType = model.AcceptedMimeType
	}
	return &DocumentService{
		store:    store,
		content:  content,
		signAPI:  signAPI,
		mimeType: mimeType,
		loa:      cfg.LoA,
		now:      time.Now,
	}
}

func (s *DocumentService) validate(document *model.Document) ([]byte, error) {
	if document.Name == "" {
		return nil, fmt.Errorf("[DocumentService] не указано имя документа: %w", model.ErrInvalidDocument)
	}
	if document.MimeType != s.mimeType {
		return nil, fmt.Errorf("[DocumentService] тип %q не поддерживается: %w", document.MimeType, model.ErrInvalidDocument)
	}
	data, err := base64.StdEncoding.DecodeString(document.Blob)
	if err != nil || len(data) == 0 {
		return nil, fmt.Errorf("[DocumentService] пустое или повреждённое содержимое: %w", model.ErrInvalidDocument)
	}
	return data, nil
}

// AddDocument : сначала содержимое, затем метаданные.
// При ошибке метаданных содержимое остаётся без ссылок.
func (s *DocumentService) AddDocument(ctx context.Context, document *model.Document, owner model.Owner, invitees []model.Invitee, opts model.AddDocumentOptions) ([]model.Invitation, error) {
	data, err := s.validate(document)
	if err != nil {
		return nil, err
	}

	if document.Key == "" {
		document.Key = util.NewKey()
	}
	document.SizeBytes = int64(len(data))
	document.Owner = owner
	document.SendSigned = opts.SendSigned
	document.LoA = opts.LoA
	document.SkipFinal = opts.SkipFinal
	document.Ordered = opts.Ordered
	document.InvitationText = opts.InvitationText

	if err := s.content.Add(ctx, document.Key, document.Blob); err != nil {
		return nil, util.LogError("[DocumentService] не удалось сохранить содержимое", err)
	}

	invitations, err := s.store.Add(ctx, document, invitees)
	if err != nil {
		zap.L().Warn("[DocumentService] содержимое осталось без метаданных", zap.String("doc", document.Key))
		return nil, util.LogError("[DocumentService] не удалось сохранить метаданные", err)
	}

	zap.L().Info("[DocumentService] документ добавлен",
		zap.String("doc", document.Key), zap.Int("invitations", len(invitations)))
	return invitations, nil
}

// GetDocument : метаданные, nil если документа нет
func (s *DocumentService) GetDocument(ctx context.Context, key string) (*model.Document, error) {
	return s.store.GetDocument(ctx, key)
}

func (s *DocumentService) GetDocumentContent(ctx context.Context, key string) (string, error) {
	return s.content.Get(ctx, key)
}

// UpdateDocument : новое содержимое записывается до отметки о подписи.
// Пользователь должен иметь ровно одно неразрешённое приглашение и держать блокировку.
func (s *DocumentService) UpdateDocument(ctx context.Context, key string, content string, identity model.Identity) error {
	docID, err := s.store.GetDocumentID(ctx, key)
	if err != nil {
		return err
	}

	invitations, err := s.store.GetInvited(ctx, key)
	if err != nil {
		return err
	}
	if matches := pendingFor(invitations, identity); len(matches) != 1 {
		zap.L().Warn("[DocumentService] подпись без собственного приглашения",
			zap.String("doc", key), zap.Strings("emails", identity.Emails), zap.Int("matches", len(matches)))
		return fmt.Errorf("[DocumentService] документ %s, найдено приглашений %d: %w", key, len(matches), model.ErrSignerMismatch)
	}

	if err := s.requireLock(ctx, docID, key, identity); err != nil {
		return err
	}

	if err := s.content.Update(ctx, key, content); err != nil {
		return util.LogError("[DocumentService] не удалось обновить содержимое", err)
	}

	if err := s.store.Update(ctx, key, identity.Emails); err != nil {
		return err
	}

	s.releaseLock(ctx, key, identity)
	zap.L().Info("[DocumentService] документ подписан", zap.String("doc", key), zap.String("email", identity.Email()))
	return nil
}

// requireLock : ErrDocumentLocked, если действующая блокировка не принадлежит пользователю
func (s *DocumentService) requireLock(ctx context.Context, docID int64, key string, identity model.Identity) error {
	held, err := s.store.CheckLock(ctx, docID, identity.Emails)
	if err != nil {
		return err
	}
	if !held {
		zap.L().Warn("[DocumentService] изменение документа без блокировки",
			zap.String("doc", key), zap.String("email", identity.Email()))
		return fmt.Errorf("[DocumentService] документ %s: %w", key, model.ErrDocumentLocked)
	}
	return nil
}

func (s *DocumentService) DeclineDocument(ctx context.Context, key string, identity model.Identity) error {
	if err := s.store.Decline(ctx, key, identity.Emails); err != nil {
		return err
	}

	s.releaseLock(ctx, key, identity)
	zap.L().Info("[DocumentService] подпись отклонена", zap.String("doc", key), zap.String("email", identity.Email()))
	return nil
}

// releaseLock : снятие блокировки после подписи, ошибка только логируется
func (s *DocumentService) releaseLock(ctx context.Context, key string, identity model.Identity) {
	if _, err := s.UnlockDocument(ctx, key, identity); err != nil {
		zap.L().Warn("[DocumentService] не удалось снять блокировку", zap.String("doc", key), zap.Error(err))
	}
}

// RemoveDocument : содержимое удаляется только после успешного удаления метаданных
func (s *DocumentService) RemoveDocument(ctx context.Context, key string, force bool) (bool, error) {
	removed, err := s.store.Remove(ctx, key, force)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}

	if err := s.content.Remove(ctx, key); err != nil {
		return true, util.LogError("[DocumentService] метаданные удалены, содержимое нет", err)
	}

	zap.L().Info("[DocumentService] документ удалён", zap.String("doc", key), zap.Bool("force", force))
	return true, nil
}

// GetInvitation : блокирует документ для приглашённого и только после этого отдаёт содержимое.
// Открыть приглашение может только сам приглашённый, в упорядоченном документе только в свою очередь.
func (s *DocumentService) GetInvitation(ctx context.Context, inviteKey string, identity model.Identity) (*model.InvitationResult, error) {
	invitation, err := s.store.GetInvitation(ctx, inviteKey)
	if err != nil {
		return nil, err
	}
	if invitation == nil {
		return nil, fmt.Errorf("[DocumentService] приглашение %s: %w", inviteKey, model.ErrNotFound)
	}
	if !identity.HasEmail(invitation.Invitee.Email) {
		zap.L().Warn("[DocumentService] чужое приглашение",
			zap.String("invite", inviteKey), zap.Strings("emails", identity.Emails))
		return nil, fmt.Errorf("[DocumentService] приглашение %s: %w", inviteKey, model.ErrForbidden)
	}

	document, err := s.store.GetDocument(ctx, invitation.DocumentKey)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fmt.Errorf("[DocumentService] документ %s: %w", invitation.DocumentKey, model.ErrNotFound)
	}

	if document.Ordered {
		if err := s.checkTurn(ctx, document.Key, inviteKey); err != nil {
			return nil, err
		}
	}

	locked, err := s.store.AddLock(ctx, document.ID, invitation.Invitee.Email)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("[DocumentService] документ %s: %w", invitation.DocumentKey, model.ErrDocumentLocked)
	}

	blob, err := s.content.Get(ctx, document.Key)
	if err != nil {
		return nil, err
	}
	document.Blob = blob

	return &model.InvitationResult{
		User:     invitation.Invitee,
		Document: document,
	}, nil
}

// checkTurn : ErrNotYourTurn, если до приглашения inviteKey есть неразрешённые
func (s *DocumentService) checkTurn(ctx context.Context, key, inviteKey string) error {
	invitations, err := s.store.GetInvited(ctx, key)
	if err != nil {
		return err
	}
	if !model.NextInLine(invitations, inviteKey) {
		return fmt.Errorf("[DocumentService] приглашение %s: %w", inviteKey, model.ErrNotYourTurn)
	}
	return nil
}

// Delegate : передать приглашение может сам приглашённый или владелец документа
func (s *DocumentService) Delegate(ctx context.Context, inviteKey string, invitee model.Invitee, identity model.Identity) (*model.Invitation, error) {
	current, err := s.store.GetInvitation(ctx, inviteKey)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("[DocumentService] приглашение %s: %w", inviteKey, model.ErrNotFound)
	}

	if !identity.HasEmail(current.Invitee.Email) {
		document, err := s.store.GetDocument(ctx, current.DocumentKey)
		if err != nil {
			return nil, err
		}
		if document == nil {
			return nil, fmt.Errorf("[DocumentService] документ %s: %w", current.DocumentKey, model.ErrNotFound)
		}
		if !identity.HasEmail(document.Owner.Email) {
			zap.L().Warn("[DocumentService] передача чужого приглашения",
				zap.String("invite", inviteKey), zap.Strings("emails", identity.Emails))
			return nil, fmt.Errorf("[DocumentService] приглашение %s: %w", inviteKey, model.ErrForbidden)
		}
	}

	invitation, err := s.store.DelegateInvitation(ctx, inviteKey, invitee)
	if err != nil {
		return nil, err
	}
	zap.L().Info("[DocumentService] приглашение передано",
		zap.String("invite", inviteKey), zap.String("email", invitee.Email))
	return invitation, nil
}

func (s *DocumentService) UpdateInvitations(ctx context.Context, key string, invitees []model.Invitee) ([]model.Invitation, error) {
	return s.store.UpdateInvitations(ctx, key, invitees)
}

func (s *DocumentService) UnlockDocument(ctx context.Context, key string, identity model.Identity) (bool, error) {
	docID, err := s.store.GetDocumentID(ctx, key)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.store.RmLock(ctx, docID, identity.Emails)
}

func (s *DocumentService) CheckDocumentLocked(ctx context.Context, key string, identity model.Identity) (bool, error) {
	docID, err := s.store.GetDocumentID(ctx, key)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.store.CheckLock(ctx, docID, identity.Emails)
}

// RemoveOldDocuments : принудительно удаляет документы старше maxAge, возвращает число удалённых
func (s *DocumentService) RemoveOldDocuments(ctx context.Context, maxAge time.Duration) (int, error) {
	keys, err := s.store.GetOldDocuments(ctx, s.now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	var errs []error
	removed := 0
	for _, key := range keys {
		ok, err := s.RemoveDocument(ctx, key, true)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			removed++
		}
	}

	if removed > 0 {
		zap.L().Info("[DocumentService] удалены устаревшие документы", zap.Int("count", removed))
	}
	return removed, errors.Join(errs...)
}
