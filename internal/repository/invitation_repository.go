package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"multisign-server/internal/model"
	"multisign-server/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type inviteRow struct {
	ID       int64          `db:"invite_id"`
	Key      string         `db:"invite_key"`
	DocID    int64          `db:"doc_id"`
	DocKey   sql.NullString `db:"doc_key"`
	Name     string         `db:"user_name"`
	Email    string         `db:"user_email"`
	Lang     string         `db:"user_lang"`
	Signed   bool           `db:"signed"`
	Declined bool           `db:"declined"`
	Order    int            `db:"order_invitation"`
}

const inviteColumns = `i.invite_id, i.invite_key, i.doc_id, d.doc_key, i.user_name, i.user_email, i.user_lang,
	i.signed, i.declined, i.order_invitation`

func (row inviteRow) toModel() model.Invitation {
	return model.Invitation{
		Key:         row.Key,
		DocumentKey: row.DocKey.String,
		Invitee: model.Invitee{
			Name:  row.Name,
			Email: row.Email,
			Lang:  row.Lang,
		},
		Order:    row.Order,
		Signed:   row.Signed,
		Declined: row.Declined,
	}
}

func (r *DocumentRepository) insertInvitation(ctx context.Context, exec sqlx.ExtContext, docID int64, documentKey string, invitee model.Invitee, order int) (*model.Invitation, error) {
	key := util.NewKey()
	query := exec.Rebind(`
		INSERT INTO invites (invite_key, doc_id, user_name, user_email, user_lang, signed, declined, order_invitation)
		VALUES (?, ?, ?, ?, ?, FALSE, FALSE, ?)
	`)
	if _, err := exec.ExecContext(ctx, query, key, docID, invitee.Name, invitee.Email, invitee.Lang, order); err != nil {
		return nil, util.LogError("[InviteRepo] не удалось сохранить приглашение", err)
	}

	return &model.Invitation{
		Key:         key,
		DocumentKey: documentKey,
		Invitee:     invitee,
		Order:       order,
	}, nil
}

func (r *DocumentRepository) listInvitations(ctx context.Context, exec sqlx.ExtContext, docID int64, documentKey string) ([]model.Invitation, error) {
	query := exec.Rebind(`
		SELECT ` + inviteColumns + `
		FROM invites AS i
		LEFT JOIN documents AS d ON d.doc_id = i.doc_id
		WHERE i.doc_id = ?
		ORDER BY i.order_invitation, i.invite_id
	`)

	var rows []inviteRow
	if err := sqlx.SelectContext(ctx, exec, &rows, query, docID); err != nil {
		return nil, util.LogError("[InviteRepo] не удалось получить приглашения", err)
	}

	invites := make([]model.Invitation, 0, len(rows))
	for _, row := range rows {
		invitation := row.toModel()
		invitation.DocumentKey = documentKey
		invites = append(invites, invitation)
	}
	return invites, nil
}

func (r *DocumentRepository) pendingInvitesFor(ctx context.Context, email string) ([]inviteRow, error) {
	query := r.DB.Rebind(`
		SELECT ` + inviteColumns + `
		FROM invites AS i
		LEFT JOIN documents AS d ON d.doc_id = i.doc_id
		WHERE LOWER(i.user_email) = ? AND i.signed = FALSE AND i.declined = FALSE
		ORDER BY i.invite_id
	`)

	var rows []inviteRow
	if err := sqlx.SelectContext(ctx, r.DB, &rows, query, model.NormalizeEmail(email)); err != nil {
		return nil, util.LogError("[InviteRepo] не удалось получить ожидающие приглашения", err)
	}
	return rows, nil
}

func (r *DocumentRepository) getInviteRow(ctx context.Context, exec sqlx.ExtContext, inviteKey string) (*inviteRow, error) {
	query := exec.Rebind(`
		SELECT ` + inviteColumns + `
		FROM invites AS i
		LEFT JOIN documents AS d ON d.doc_id = i.doc_id
		WHERE i.invite_key = ?
	`)

	var row inviteRow
	err := sqlx.GetContext(ctx, exec, &row, query, inviteKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, util.LogError("[InviteRepo] не удалось получить приглашение", err)
	}
	return &row, nil
}

// GetInvited : все приглашения документа в порядке приглашения
func (r *DocumentRepository) GetInvited(ctx context.Context, documentKey string) ([]model.Invitation, error) {
	docID, err := r.getDocumentID(ctx, r.DB, documentKey)
	if errors.Is(err, model.ErrNotFound) {
		return []model.Invitation{}, nil
	}
	if err != nil {
		return nil, err
	}
	return r.listInvitations(ctx, r.DB, docID, documentKey)
}

// GetInvitation : приглашение по ключу, nil если не найдено
func (r *DocumentRepository) GetInvitation(ctx context.Context, inviteKey string) (*model.Invitation, error) {
	row, err := r.getInviteRow(ctx, r.DB, inviteKey)
	if err != nil {
		return nil, err
	}
	if row == nil {
		zap.L().Warn("[InviteRepo] приглашение не найдено", zap.String("invite", inviteKey))
		return nil, nil
	}
	if !row.DocKey.Valid {
		zap.L().Error("[InviteRepo] приглашение ссылается на несуществующий документ", zap.String("invite", inviteKey))
		return nil, nil
	}
	invitation := row.toModel()
	return &invitation, nil
}

// AddInvitation : добавляет одно приглашение к существующему документу
func (r *DocumentRepository) AddInvitation(ctx context.Context, documentKey string, invitee model.Invitee, order int) (*model.Invitation, error) {
	exec, rollback, commit, err := r.BeginTX(ctx)
	if err != nil {
		return nil, util.LogError("[InviteRepo] не удалось начать транзакцию", err)
	}
	defer rollback()

	docID, err := r.getDocumentID(ctx, exec, documentKey)
	if err != nil {
		return nil, err
	}

	invitation, err := r.insertInvitation(ctx, exec, docID, documentKey, invitee, order)
	if err != nil {
		return nil, err
	}

	if err := commit(); err != nil {
		return nil, util.LogError("[InviteRepo] не удалось закоммитить транзакцию", err)
	}
	return invitation, nil
}

// RmInvitation : удаляет приглашение, false если его не было
func (r *DocumentRepository) RmInvitation(ctx context.Context, inviteKey string) (bool, error) {
	result, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM invites WHERE invite_key = ?`), inviteKey)
	if err != nil {
		return false, util.LogError("[InviteRepo] не удалось удалить приглашение", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[InviteRepo] не удалось проверить удаление приглашения", err)
	}
	return rowsAffected > 0, nil
}

// DelegateInvitation : заменяет неразрешённое приглашение новым с тем же порядком.
// Новое приглашение создаётся до удаления старого.
func (r *DocumentRepository) DelegateInvitation(ctx context.Context, inviteKey string, invitee model.Invitee) (*model.Invitation, error) {
	exec, rollback, commit, err := r.BeginTX(ctx)
	if err != nil {
		return nil, util.LogError("[InviteRepo] не удалось начать транзакцию", err)
	}
	defer rollback()

	old, err := r.getInviteRow(ctx, exec, inviteKey)
	if err != nil {
		return nil, err
	}
	if old == nil || !old.DocKey.Valid || old.Signed || old.Declined {
		return nil, fmt.Errorf("[InviteRepo] нет ожидающего приглашения %s: %w", inviteKey, model.ErrNotFound)
	}

	invitation, err := r.insertInvitation(ctx, exec, old.DocID, old.DocKey.String, invitee, old.Order)
	if err != nil {
		return nil, err
	}

	if _, err := exec.ExecContext(ctx, exec.Rebind(`DELETE FROM invites WHERE invite_id = ?`), old.ID); err != nil {
		return nil, util.LogError("[InviteRepo] не удалось удалить заменённое приглашение", err)
	}

	if err := commit(); err != nil {
		return nil, util.LogError("[InviteRepo] не удалось закоммитить транзакцию", err)
	}
	return invitation, nil
}

// UpdateInvitations : приводит список приглашённых к invitees.
// Ожидающие приглашения отсутствующих в списке удаляются, новые адреса добавляются в конец очереди,
// подписанные и отклонённые приглашения не меняются. Возвращает созданные приглашения.
func (r *DocumentRepository) UpdateInvitations(ctx context.Context, documentKey string, invitees []model.Invitee) ([]model.Invitation, error) {
	exec, rollback, commit, err := r.BeginTX(ctx)
	if err != nil {
		return nil, util.LogError("[InviteRepo] не удалось начать транзакцию", err)
	}
	defer rollback()

	docID, err := r.getDocumentID(ctx, exec, documentKey)
	if err != nil {
		return nil, err
	}

	current, err := r.listInvitations(ctx, exec, docID, documentKey)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(invitees))
	for _, invitee := range invitees {
		wanted[model.NormalizeEmail(invitee.Email)] = true
	}

	existing := make(map[string]bool, len(current))
	nextOrder := 0
	for _, invitation := range current {
		email := model.NormalizeEmail(invitation.Invitee.Email)
		if invitation.Order >= nextOrder {
			nextOrder = invitation.Order + 1
		}
		if !invitation.Resolved() && !wanted[email] {
			if _, err := exec.ExecContext(ctx, exec.Rebind(`DELETE FROM invites WHERE invite_key = ?`), invitation.Key); err != nil {
				return nil, util.LogError("[InviteRepo] не удалось удалить приглашение", err)
			}
			continue
		}
		existing[email] = true
	}

	added := []model.Invitation{}
	for _, invitee := range invitees {
		email := model.NormalizeEmail(invitee.Email)
		if existing[email] {
			continue
		}
		invitation, err := r.insertInvitation(ctx, exec, docID, documentKey, invitee, nextOrder)
		if err != nil {
			return nil, err
		}
		existing[email] = true
		nextOrder++
		added = append(added, *invitation)
	}

	if err := commit(); err != nil {
		return nil, util.LogError("[InviteRepo] не удалось закоммитить транзакцию", err)
	}
	return added, nil
}
