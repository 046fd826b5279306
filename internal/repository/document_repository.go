package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"multisign-server/config"
	"multisign-server/internal/model"
	"multisign-server/internal/util"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// DocumentRepository : SQL-реализация хранилища метаданных (postgres или sqlite)
type DocumentRepository struct {
	*config.Database
	lockTimeout time.Duration
	now         func() time.Time
}

func NewDocumentRepository(database *config.Database, lockTimeout time.Duration) *DocumentRepository {
	return &DocumentRepository{
		Database:    database,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

// WithClock : подменяет источник времени (для проверки истечения блокировок)
func (r *DocumentRepository) WithClock(now func() time.Time) *DocumentRepository {
	r.now = now
	return r
}

type documentRow struct {
	ID             int64  `db:"doc_id"`
	Key            string `db:"doc_key"`
	Name           string `db:"name"`
	SizeBytes      int64  `db:"size_bytes"`
	MimeType       string `db:"mime_type"`
	OwnerEmail     string `db:"owner_email"`
	OwnerName      string `db:"owner_name"`
	OwnerLang      string `db:"owner_lang"`
	OwnerEppn      string `db:"owner_eppn"`
	PrevSignatures string `db:"prev_signatures"`
	SendSigned     bool   `db:"sendsigned"`
	SkipFinal      bool   `db:"skipfinal"`
	LoA            string `db:"loa"`
	Ordered        bool   `db:"ordered_invitations"`
	InvitationText string `db:"invitation_text"`
	CreatedAt      int64  `db:"created_at"`
	UpdatedAt      int64  `db:"updated_at"`
}

const documentColumns = `doc_id, doc_key, name, size_bytes, mime_type, owner_email, owner_name, owner_lang,
	owner_eppn, prev_signatures, sendsigned, skipfinal, loa, ordered_invitations, invitation_text,
	created_at, updated_at`

func (row documentRow) toModel() model.Document {
	return model.Document{
		ID:        row.ID,
		Key:       row.Key,
		Name:      row.Name,
		SizeBytes: row.SizeBytes,
		MimeType:  row.MimeType,
		Owner: model.Owner{
			Email: row.OwnerEmail,
			Name:  row.OwnerName,
			Lang:  row.OwnerLang,
			Eppn:  row.OwnerEppn,
		},
		PrevSignatures: row.PrevSignatures,
		SendSigned:     row.SendSigned,
		SkipFinal:      row.SkipFinal,
		LoA:            row.LoA,
		Ordered:        row.Ordered,
		InvitationText: row.InvitationText,
		CreatedAt:      time.UnixMilli(row.CreatedAt).UTC(),
		UpdatedAt:      time.UnixMilli(row.UpdatedAt).UTC(),
	}
}

func (r *DocumentRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, func() error { return tx.Rollback() }, func() error { return tx.Commit() }, nil
}

// Add : создаёт документ и все приглашения в одной транзакции.
// Порядок приглашений соответствует порядку списка invitees.
func (r *DocumentRepository) Add(ctx context.Context, document *model.Document, invitees []model.Invitee) ([]model.Invitation, error) {
	exec, rollback, commit, err := r.BeginTX(ctx)
	if err != nil {
		return nil, util.LogError("[DocumentRepo] не удалось начать транзакцию", err)
	}
	defer rollback()

	now := r.now().UTC()
	query := exec.Rebind(`
		INSERT INTO documents (doc_key, name, size_bytes, mime_type, owner_email, owner_name, owner_lang,
			owner_eppn, prev_signatures, sendsigned, skipfinal, loa, ordered_invitations, invitation_text,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING doc_id
	`)

	var docID int64
	err = exec.QueryRowxContext(ctx, query,
		document.Key,
		document.Name,
		document.SizeBytes,
		document.MimeType,
		document.Owner.Email,
		document.Owner.Name,
		document.Owner.Lang,
		document.Owner.Eppn,
		document.PrevSignatures,
		document.SendSigned,
		document.SkipFinal,
		document.LoA,
		document.Ordered,
		document.InvitationText,
		now.UnixMilli(),
		now.UnixMilli(),
	).Scan(&docID)
	if err != nil {
		return nil, util.LogError("[DocumentRepo] не удалось сохранить документ", err)
	}

	invitations := make([]model.Invitation, 0, len(invitees))
	for order, invitee := range invitees {
		invitation, err := r.insertInvitation(ctx, exec, docID, document.Key, invitee, order)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, *invitation)
	}

	if err := commit(); err != nil {
		return nil, util.LogError("[DocumentRepo] не удалось закоммитить транзакцию", err)
	}

	document.ID = docID
	document.CreatedAt = now
	document.UpdatedAt = now

	return invitations, nil
}

// GetDocument : метаданные документа по ключу, nil если документа нет
func (r *DocumentRepository) GetDocument(ctx context.Context, documentKey string) (*model.Document, error) {
	row, err := r.getDocumentRow(ctx, r.DB, "doc_key = ?", documentKey)
	if err != nil {
		return nil, err
	}
	if row == nil {
		zap.L().Warn("[DocumentRepo] документ не найден", zap.String("doc", documentKey))
		return nil, nil
	}
	document := row.toModel()
	return &document, nil
}

// GetDocumentID : внутренний идентификатор документа по внешнему ключу
func (r *DocumentRepository) GetDocumentID(ctx context.Context, documentKey string) (int64, error) {
	return r.getDocumentID(ctx, r.DB, documentKey)
}

func (r *DocumentRepository) getDocumentID(ctx context.Context, exec sqlx.ExtContext, documentKey string) (int64, error) {
	var docID int64
	err := sqlx.GetContext(ctx, exec, &docID, exec.Rebind(`SELECT doc_id FROM documents WHERE doc_key = ?`), documentKey)
	if errors.Is(err, sql.ErrNoRows) {
		zap.L().Warn("[DocumentRepo] документ не найден", zap.String("doc", documentKey))
		return 0, fmt.Errorf("[DocumentRepo] документ %s: %w", documentKey, model.ErrNotFound)
	}
	if err != nil {
		return 0, util.LogError("[DocumentRepo] не удалось получить идентификатор документа", err)
	}
	return docID, nil
}

func (r *DocumentRepository) getDocumentRow(ctx context.Context, exec sqlx.ExtContext, where string, arg any) (*documentRow, error) {
	query := exec.Rebind(`SELECT ` + documentColumns + ` FROM documents WHERE ` + where)

	var row documentRow
	err := sqlx.GetContext(ctx, exec, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, util.LogError("[DocumentRepo] не удалось получить документ", err)
	}
	return &row, nil
}

// GetOwned : документы владельца с разбивкой приглашений по состояниям
func (r *DocumentRepository) GetOwned(ctx context.Context, email string) ([]model.DocumentView, error) {
	query := r.DB.Rebind(`SELECT ` + documentColumns + ` FROM documents WHERE LOWER(owner_email) = ? ORDER BY created_at, doc_id`)

	var rows []documentRow
	if err := sqlx.SelectContext(ctx, r.DB, &rows, query, model.NormalizeEmail(email)); err != nil {
		return nil, util.LogError("[DocumentRepo] не удалось получить документы владельца", err)
	}

	views := make([]model.DocumentView, 0, len(rows))
	for _, row := range rows {
		invites, err := r.listInvitations(ctx, r.DB, row.ID, row.Key)
		if err != nil {
			return nil, err
		}
		views = append(views, ownedView(row.toModel(), invites))
	}
	return views, nil
}

// GetPending : документы, ожидающие подписи любым из адресов emails.
// Для упорядоченных документов возвращается только тот, где пользователь следующий в очереди.
// Повторное приглашение на уже показанный документ удаляется.
func (r *DocumentRepository) GetPending(ctx context.Context, emails []string) ([]model.DocumentView, error) {
	views := []model.DocumentView{}
	shown := make(map[int64]string)

	for _, email := range uniqueEmails(emails) {
		invites, err := r.pendingInvitesFor(ctx, email)
		if err != nil {
			return nil, err
		}

		for _, invite := range invites {
			if !invite.DocKey.Valid {
				zap.L().Error("[DocumentRepo] приглашение ссылается на несуществующий документ",
					zap.String("invite", invite.Key), zap.Int64("doc_id", invite.DocID))
				continue
			}

			if shownKey, ok := shown[invite.DocID]; ok {
				if shownKey == invite.Key {
					continue
				}
				zap.L().Warn("[DocumentRepo] повторное приглашение на документ, удаляем",
					zap.String("invite", invite.Key), zap.String("email", email))
				if _, err := r.RmInvitation(ctx, invite.Key); err != nil {
					return nil, err
				}
				continue
			}

			row, err := r.getDocumentRow(ctx, r.DB, "doc_id = ?", invite.DocID)
			if err != nil {
				return nil, err
			}
			if row == nil {
				zap.L().Error("[DocumentRepo] документ приглашения исчез", zap.String("invite", invite.Key))
				continue
			}

			all, err := r.listInvitations(ctx, r.DB, row.ID, row.Key)
			if err != nil {
				return nil, err
			}

			if row.Ordered && !model.NextInLine(all, invite.Key) {
				continue
			}

			shown[invite.DocID] = invite.Key
			views = append(views, pendingView(row.toModel(), all, invite.Key))
		}
	}
	return views, nil
}

// Update : отмечает приглашение подписанта подписанным
func (r *DocumentRepository) Update(ctx context.Context, documentKey string, emails []string) error {
	return r.resolveInvitation(ctx, documentKey, emails, "signed")
}

// Decline : отмечает приглашение подписанта отклонённым
func (r *DocumentRepository) Decline(ctx context.Context, documentKey string, emails []string) error {
	return r.resolveInvitation(ctx, documentKey, emails, "declined")
}

func (r *DocumentRepository) resolveInvitation(ctx context.Context, documentKey string, emails []string, column string) error {
	emails = uniqueEmails(emails)
	if len(emails) == 0 {
		return fmt.Errorf("[DocumentRepo] не переданы адреса подписанта: %w", model.ErrSignerMismatch)
	}

	exec, rollback, commit, err := r.BeginTX(ctx)
	if err != nil {
		return util.LogError("[DocumentRepo] не удалось начать транзакцию", err)
	}
	defer rollback()

	docID, err := r.getDocumentID(ctx, exec, documentKey)
	if err != nil {
		return err
	}

	query, args, err := sqlx.In(`
		SELECT invite_id FROM invites
		WHERE doc_id = ? AND signed = FALSE AND declined = FALSE AND LOWER(user_email) IN (?)
	`, docID, emails)
	if err != nil {
		return util.LogError("[DocumentRepo] не удалось построить запрос", err)
	}

	var inviteIDs []int64
	if err := sqlx.SelectContext(ctx, exec, &inviteIDs, exec.Rebind(query), args...); err != nil {
		return util.LogError("[DocumentRepo] не удалось найти приглашение подписанта", err)
	}
	if len(inviteIDs) != 1 {
		zap.L().Error("[DocumentRepo] неоднозначное приглашение подписанта",
			zap.String("doc", documentKey), zap.Strings("emails", emails), zap.Int("matches", len(inviteIDs)))
		return fmt.Errorf("[DocumentRepo] документ %s, найдено приглашений %d: %w", documentKey, len(inviteIDs), model.ErrSignerMismatch)
	}

	if _, err := exec.ExecContext(ctx, exec.Rebind(`UPDATE invites SET `+column+` = TRUE WHERE invite_id = ?`), inviteIDs[0]); err != nil {
		return util.LogError("[DocumentRepo] не удалось обновить приглашение", err)
	}

	if _, err := exec.ExecContext(ctx, exec.Rebind(`UPDATE documents SET updated_at = ? WHERE doc_id = ?`), r.now().UnixMilli(), docID); err != nil {
		return util.LogError("[DocumentRepo] не удалось обновить документ", err)
	}

	if err := commit(); err != nil {
		return util.LogError("[DocumentRepo] не удалось закоммитить транзакцию", err)
	}
	return nil
}

// Remove : удаляет документ и его приглашения.
// Без force отказывает (false), если остались неразрешённые приглашения.
func (r *DocumentRepository) Remove(ctx context.Context, documentKey string, force bool) (bool, error) {
	exec, rollback, commit, err := r.BeginTX(ctx)
	if err != nil {
		return false, util.LogError("[DocumentRepo] не удалось начать транзакцию", err)
	}
	defer rollback()

	docID, err := r.getDocumentID(ctx, exec, documentKey)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !force {
		var pending int
		err := sqlx.GetContext(ctx, exec, &pending,
			exec.Rebind(`SELECT COUNT(*) FROM invites WHERE doc_id = ? AND signed = FALSE AND declined = FALSE`), docID)
		if err != nil {
			return false, util.LogError("[DocumentRepo] не удалось проверить приглашения", err)
		}
		if pending > 0 {
			zap.L().Info("[DocumentRepo] отказ в удалении документа с ожидающими приглашениями",
				zap.String("doc", documentKey), zap.Int("pending", pending))
			return false, nil
		}
	}

	if _, err := exec.ExecContext(ctx, exec.Rebind(`DELETE FROM invites WHERE doc_id = ?`), docID); err != nil {
		return false, util.LogError("[DocumentRepo] не удалось удалить приглашения", err)
	}
	if _, err := exec.ExecContext(ctx, exec.Rebind(`DELETE FROM documents WHERE doc_id = ?`), docID); err != nil {
		return false, util.LogError("[DocumentRepo] не удалось удалить документ", err)
	}

	if err := commit(); err != nil {
		return false, util.LogError("[DocumentRepo] не удалось закоммитить транзакцию", err)
	}
	return true, nil
}

// GetOldDocuments : ключи документов, созданных раньше createdBefore
func (r *DocumentRepository) GetOldDocuments(ctx context.Context, createdBefore time.Time) ([]string, error) {
	keys := []string{}
	err := sqlx.SelectContext(ctx, r.DB, &keys,
		r.DB.Rebind(`SELECT doc_key FROM documents WHERE created_at < ? ORDER BY created_at`), createdBefore.UnixMilli())
	if err != nil {
		return nil, util.LogError("[DocumentRepo] не удалось получить старые документы", err)
	}
	return keys, nil
}
