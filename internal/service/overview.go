package service

import (
	"context"
	"multisign-server/internal/model"
)

// requiredAuthnContext : класс аутентификации, требуемый уровнем LoA документа
func (s *DocumentService) requiredAuthnContext(loa string) string {
	if loa == "" {
		return ""
	}
	if authnContext, ok := s.loa[loa]; ok {
		return authnContext
	}
	return loa
}

func (s *DocumentService) loaOK(document model.Document, identity model.Identity) bool {
	required := s.requiredAuthnContext(document.LoA)
	return required == "" || required == identity.AuthnContext
}

// GetOverview : документы владельца и ожидающие подписи пользователя.
// Poll выставляется, пока хотя бы одно приглашение не разрешено.
func (s *DocumentService) GetOverview(ctx context.Context, identity model.Identity) (*model.Overview, error) {
	owned, err := s.store.GetOwned(ctx, identity.Email())
	if err != nil {
		return nil, err
	}

	pending, err := s.store.GetPending(ctx, identity.Emails)
	if err != nil {
		return nil, err
	}

	poll := len(pending) > 0
	for i := range owned {
		owned[i].LoAOK = s.loaOK(owned[i].Document, identity)
		if len(owned[i].Pending) > 0 {
			poll = true
		}
	}
	for i := range pending {
		pending[i].LoAOK = s.loaOK(pending[i].Document, identity)
	}

	return &model.Overview{
		Owned:   owned,
		Pending: pending,
		Poll:    poll,
	}, nil
}
