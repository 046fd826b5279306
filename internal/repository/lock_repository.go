package repository

import (
	"context"
	"multisign-server/internal/model"
	"multisign-server/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Блокировки хранятся в documents.locked (unix ms) и documents.locking_email.
// Каждый переход выполняется одним условным UPDATE, поэтому проверка истечения атомарна.
// locking_email хранится в нормализованном виде.

func (r *DocumentRepository) lockCutoff() int64 {
	return r.now().Add(-r.lockTimeout).UnixMilli()
}

// AddLock : блокирует документ для email.
// Успешно, если документ свободен, уже заблокирован тем же email или блокировка истекла.
func (r *DocumentRepository) AddLock(ctx context.Context, docID int64, email string) (bool, error) {
	email = model.NormalizeEmail(email)
	query := r.DB.Rebind(`
		UPDATE documents SET locked = ?, locking_email = ?
		WHERE doc_id = ? AND (locked IS NULL OR locking_email = ? OR locked < ?)
	`)

	result, err := r.DB.ExecContext(ctx, query, r.now().UnixMilli(), email, docID, email, r.lockCutoff())
	if err != nil {
		return false, util.LogError("[LockRepo] не удалось заблокировать документ", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[LockRepo] не удалось проверить блокировку", err)
	}
	if rowsAffected == 0 {
		zap.L().Info("[LockRepo] документ заблокирован другим пользователем",
			zap.Int64("doc_id", docID), zap.String("email", email))
		return false, nil
	}
	return true, nil
}

// RmLock : снимает блокировку.
// Успешно для держателя блокировки, для истёкшей блокировки и для свободного документа.
func (r *DocumentRepository) RmLock(ctx context.Context, docID int64, emails []string) (bool, error) {
	emails = uniqueEmails(emails)
	if len(emails) == 0 {
		emails = []string{""}
	}

	query, args, err := sqlx.In(`
		UPDATE documents SET locked = NULL, locking_email = NULL
		WHERE doc_id = ? AND (locked IS NULL OR locking_email IN (?) OR locked < ?)
	`, docID, emails, r.lockCutoff())
	if err != nil {
		return false, util.LogError("[LockRepo] не удалось построить запрос", err)
	}

	result, err := r.DB.ExecContext(ctx, r.DB.Rebind(query), args...)
	if err != nil {
		return false, util.LogError("[LockRepo] не удалось снять блокировку", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[LockRepo] не удалось проверить снятие блокировки", err)
	}
	return rowsAffected > 0, nil
}

// CheckLock : true, если действующая блокировка принадлежит одному из emails.
// Истёкшая блокировка снимается в той же транзакции.
func (r *DocumentRepository) CheckLock(ctx context.Context, docID int64, emails []string) (bool, error) {
	emails = uniqueEmails(emails)
	if len(emails) == 0 {
		return false, nil
	}

	exec, rollback, commit, err := r.BeginTX(ctx)
	if err != nil {
		return false, util.LogError("[LockRepo] не удалось начать транзакцию", err)
	}
	defer rollback()

	_, err = exec.ExecContext(ctx, exec.Rebind(`
		UPDATE documents SET locked = NULL, locking_email = NULL
		WHERE doc_id = ? AND locked IS NOT NULL AND locked < ?
	`), docID, r.lockCutoff())
	if err != nil {
		return false, util.LogError("[LockRepo] не удалось снять истёкшую блокировку", err)
	}

	query, args, err := sqlx.In(`
		SELECT COUNT(*) FROM documents
		WHERE doc_id = ? AND locked IS NOT NULL AND locking_email IN (?)
	`, docID, emails)
	if err != nil {
		return false, util.LogError("[LockRepo] не удалось построить запрос", err)
	}

	var held int
	if err := sqlx.GetContext(ctx, exec, &held, exec.Rebind(query), args...); err != nil {
		return false, util.LogError("[LockRepo] не удалось проверить блокировку", err)
	}

	if err := commit(); err != nil {
		return false, util.LogError("[LockRepo] не удалось закоммитить транзакцию", err)
	}
	return held > 0, nil
}
