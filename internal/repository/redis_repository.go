package repository

import (
	"context"
	"errors"
	"fmt"
	"multisign-server/config"
	"multisign-server/internal/model"
	"multisign-server/internal/util"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRepository : key-value реализация хранилища метаданных.
//
// Схема ключей:
//
//	doc:seq                     счётчик внутренних идентификаторов документов
//	doc:key:{key}               внешний ключ -> идентификатор
//	doc:{id}                    hash документа (включая locked и locking_email)
//	doc:{id}:pending|signed|declined  ключи приглашений документа по состояниям
//	owner:{email}:docs          идентификаторы документов владельца
//	invite:seq                  счётчик порядка создания приглашений
//	invite:{key}                hash приглашения
//	email:{email}:pending       ожидающие приглашения адреса
//	docs:created                zset внешних ключей по времени создания
type RedisRepository struct {
	client      *config.RedisClient
	lockTimeout time.Duration
	now         func() time.Time
}

func NewRedisRepository(rdb *config.RedisClient, lockTimeout time.Duration) *RedisRepository {
	return &RedisRepository{
		client:      rdb,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

func (r *RedisRepository) WithClock(now func() time.Time) *RedisRepository {
	r.now = now
	return r
}

const (
	stPending  = "pending"
	stSigned   = "signed"
	stDeclined = "declined"
)

func rkDocID(key string) string                { return fmt.Sprintf("doc:key:%s", key) }
func rkDoc(id int64) string                    { return fmt.Sprintf("doc:%d", id) }
func rkDocState(id int64, state string) string { return fmt.Sprintf("doc:%d:%s", id, state) }
func rkOwner(email string) string              { return fmt.Sprintf("owner:%s:docs", model.NormalizeEmail(email)) }
func rkInvite(key string) string               { return fmt.Sprintf("invite:%s", key) }
func rkEmailPending(email string) string       { return fmt.Sprintf("email:%s:pending", model.NormalizeEmail(email)) }

const createdIndexKey = "docs:created"

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func documentFields(document *model.Document, now time.Time) map[string]any {
	return map[string]any{
		"key":             document.Key,
		"name":            document.Name,
		"size":            document.SizeBytes,
		"type":            document.MimeType,
		"owner_email":     document.Owner.Email,
		"owner_name":      document.Owner.Name,
		"owner_lang":      document.Owner.Lang,
		"owner_eppn":      document.Owner.Eppn,
		"prev_signatures": document.PrevSignatures,
		"sendsigned":      boolField(document.SendSigned),
		"skipfinal":       boolField(document.SkipFinal),
		"loa":             document.LoA,
		"ordered":         boolField(document.Ordered),
		"invitation_text": document.InvitationText,
		"created":         now.UnixMilli(),
		"updated":         now.UnixMilli(),
	}
}

func documentFromHash(id int64, h map[string]string) (model.Document, error) {
	size, err := strconv.ParseInt(h["size"], 10, 64)
	if err != nil {
		return model.Document{}, fmt.Errorf("поле size: %w", err)
	}
	created, err := strconv.ParseInt(h["created"], 10, 64)
	if err != nil {
		return model.Document{}, fmt.Errorf("поле created: %w", err)
	}
	updated, err := strconv.ParseInt(h["updated"], 10, 64)
	if err != nil {
		return model.Document{}, fmt.Errorf("поле updated: %w", err)
	}

	return model.Document{
		ID:        id,
		Key:       h["key"],
		Name:      h["name"],
		SizeBytes: size,
		MimeType:  h["type"],
		Owner: model.Owner{
			Email: h["owner_email"],
			Name:  h["owner_name"],
			Lang:  h["owner_lang"],
			Eppn:  h["owner_eppn"],
		},
		PrevSignatures: h["prev_signatures"],
		SendSigned:     h["sendsigned"] == "1",
		SkipFinal:      h["skipfinal"] == "1",
		LoA:            h["loa"],
		Ordered:        h["ordered"] == "1",
		InvitationText: h["invitation_text"],
		CreatedAt:      time.UnixMilli(created).UTC(),
		UpdatedAt:      time.UnixMilli(updated).UTC(),
	}, nil
}

// Add : документ и приглашения записываются одной транзакцией MULTI/EXEC
func (r *RedisRepository) Add(ctx context.Context, document *model.Document, invitees []model.Invitee) ([]model.Invitation, error) {
	rdb := r.client.Client

	docID, err := rdb.Incr(ctx, "doc:seq").Result()
	if err != nil {
		return nil, util.LogError("[RedisRepo] не удалось выделить идентификатор документа", err)
	}

	now := r.now().UTC()
	invitations := make([]model.Invitation, 0, len(invitees))
	records := make([]inviteRecord, 0, len(invitees))
	for order, invitee := range invitees {
		record, err := r.newInviteRecord(ctx, rdb, docID, document.Key, invitee, order)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
		invitations = append(invitations, record.toModel())
	}

	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, rkDoc(docID), documentFields(document, now))
		pipe.Set(ctx, rkDocID(document.Key), docID, 0)
		pipe.SAdd(ctx, rkOwner(document.Owner.Email), docID)
		pipe.ZAdd(ctx, createdIndexKey, redis.Z{Score: float64(now.UnixMilli()), Member: document.Key})
		for _, record := range records {
			queueInviteRecord(ctx, pipe, record)
		}
		return nil
	})
	if err != nil {
		return nil, util.LogError("[RedisRepo] не удалось сохранить документ", err)
	}

	document.ID = docID
	document.CreatedAt = now
	document.UpdatedAt = now

	return invitations, nil
}

func (r *RedisRepository) GetDocument(ctx context.Context, documentKey string) (*model.Document, error) {
	docID, err := r.GetDocumentID(ctx, documentKey)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.loadDocument(ctx, r.client.Client, docID)
}

func (r *RedisRepository) GetDocumentID(ctx context.Context, documentKey string) (int64, error) {
	return r.getDocumentID(ctx, r.client.Client, documentKey)
}

func (r *RedisRepository) getDocumentID(ctx context.Context, rdb redis.Cmdable, documentKey string) (int64, error) {
	docID, err := rdb.Get(ctx, rkDocID(documentKey)).Int64()
	if errors.Is(err, redis.Nil) {
		zap.L().Warn("[RedisRepo] документ не найден", zap.String("doc", documentKey))
		return 0, fmt.Errorf("[RedisRepo] документ %s: %w", documentKey, model.ErrNotFound)
	}
	if err != nil {
		return 0, util.LogError("[RedisRepo] не удалось получить идентификатор документа", err)
	}
	return docID, nil
}

// loadDocument : nil, если hash документа отсутствует
func (r *RedisRepository) loadDocument(ctx context.Context, rdb redis.Cmdable, docID int64) (*model.Document, error) {
	h, err := rdb.HGetAll(ctx, rkDoc(docID)).Result()
	if err != nil {
		return nil, util.LogError("[RedisRepo] не удалось получить документ", err)
	}
	if len(h) == 0 {
		return nil, nil
	}
	document, err := documentFromHash(docID, h)
	if err != nil {
		return nil, util.LogError("[RedisRepo] повреждённая запись документа", err)
	}
	return &document, nil
}

func (r *RedisRepository) GetOwned(ctx context.Context, email string) ([]model.DocumentView, error) {
	rdb := r.client.Client

	members, err := rdb.SMembers(ctx, rkOwner(email)).Result()
	if err != nil {
		return nil, util.LogError("[RedisRepo] не удалось получить документы владельца", err)
	}

	documents := make([]model.Document, 0, len(members))
	for _, member := range members {
		docID, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			zap.L().Error("[RedisRepo] некорректный идентификатор в индексе владельца", zap.String("member", member))
			continue
		}
		document, err := r.loadDocument(ctx, rdb, docID)
		if err != nil {
			return nil, err
		}
		if document == nil {
			rdb.SRem(ctx, rkOwner(email), member)
			continue
		}
		documents = append(documents, *document)
	}

	sort.Slice(documents, func(i, j int) bool {
		if documents[i].CreatedAt.Equal(documents[j].CreatedAt) {
			return documents[i].ID < documents[j].ID
		}
		return documents[i].CreatedAt.Before(documents[j].CreatedAt)
	})

	views := make([]model.DocumentView, 0, len(documents))
	for _, document := range documents {
		invites, err := r.listInvitations(ctx, rdb, document.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, ownedView(document, invites))
	}
	return views, nil
}

func (r *RedisRepository) GetPending(ctx context.Context, emails []string) ([]model.DocumentView, error) {
	rdb := r.client.Client
	views := []model.DocumentView{}
	shown := make(map[int64]string)

	for _, email := range uniqueEmails(emails) {
		keys, err := rdb.SMembers(ctx, rkEmailPending(email)).Result()
		if err != nil {
			return nil, util.LogError("[RedisRepo] не удалось получить ожидающие приглашения", err)
		}

		records, err := r.loadInviteRecords(ctx, rdb, keys)
		if err != nil {
			return nil, err
		}

		for _, record := range records {
			if record.Signed || record.Declined {
				continue
			}

			if shownKey, ok := shown[record.DocID]; ok {
				if shownKey == record.Key {
					continue
				}
				zap.L().Warn("[RedisRepo] повторное приглашение на документ, удаляем",
					zap.String("invite", record.Key), zap.String("email", email))
				if _, err := r.RmInvitation(ctx, record.Key); err != nil {
					return nil, err
				}
				continue
			}

			document, err := r.loadDocument(ctx, rdb, record.DocID)
			if err != nil {
				return nil, err
			}
			if document == nil {
				zap.L().Error("[RedisRepo] приглашение ссылается на несуществующий документ",
					zap.String("invite", record.Key), zap.Int64("doc_id", record.DocID))
				continue
			}

			all, err := r.listInvitations(ctx, rdb, document.ID)
			if err != nil {
				return nil, err
			}

			if document.Ordered && !model.NextInLine(all, record.Key) {
				continue
			}

			shown[record.DocID] = record.Key
			views = append(views, pendingView(*document, all, record.Key))
		}
	}
	return views, nil
}

func (r *RedisRepository) Update(ctx context.Context, documentKey string, emails []string) error {
	return r.resolveInvitation(ctx, documentKey, emails, stSigned)
}

func (r *RedisRepository) Decline(ctx context.Context, documentKey string, emails []string) error {
	return r.resolveInvitation(ctx, documentKey, emails, stDeclined)
}

// resolveInvitation : WATCH на множестве ожидающих приглашений документа,
// затем перенос единственного совпавшего приглашения одной транзакцией
func (r *RedisRepository) resolveInvitation(ctx context.Context, documentKey string, emails []string, state string) error {
	emails = uniqueEmails(emails)
	if len(emails) == 0 {
		return fmt.Errorf("[RedisRepo] не переданы адреса подписанта: %w", model.ErrSignerMismatch)
	}

	rdb := r.client.Client
	docID, err := r.getDocumentID(ctx, rdb, documentKey)
	if err != nil {
		return err
	}

	aliases := make(map[string]bool, len(emails))
	for _, email := range emails {
		aliases[email] = true
	}

	pendingSet := rkDocState(docID, stPending)
	err = rdb.Watch(ctx, func(tx *redis.Tx) error {
		keys, err := tx.SMembers(ctx, pendingSet).Result()
		if err != nil {
			return err
		}
		records, err := r.loadInviteRecords(ctx, tx, keys)
		if err != nil {
			return err
		}

		var matches []inviteRecord
		for _, record := range records {
			if aliases[model.NormalizeEmail(record.Email)] {
				matches = append(matches, record)
			}
		}
		if len(matches) != 1 {
			zap.L().Error("[RedisRepo] неоднозначное приглашение подписанта",
				zap.String("doc", documentKey), zap.Strings("emails", emails), zap.Int("matches", len(matches)))
			return fmt.Errorf("[RedisRepo] документ %s, найдено приглашений %d: %w", documentKey, len(matches), model.ErrSignerMismatch)
		}
		match := matches[0]

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SMove(ctx, pendingSet, rkDocState(docID, state), match.Key)
			pipe.HSet(ctx, rkInvite(match.Key), state, "1")
			pipe.SRem(ctx, rkEmailPending(match.Email), match.Key)
			pipe.HSet(ctx, rkDoc(docID), "updated", r.now().UnixMilli())
			return nil
		})
		return err
	}, pendingSet)

	if errors.Is(err, model.ErrSignerMismatch) {
		return err
	}
	if err != nil {
		return util.LogError("[RedisRepo] не удалось обновить приглашение", err)
	}
	return nil
}

func (r *RedisRepository) Remove(ctx context.Context, documentKey string, force bool) (bool, error) {
	rdb := r.client.Client
	docID, err := r.getDocumentID(ctx, rdb, documentKey)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	pendingSet := rkDocState(docID, stPending)
	removed := false
	err = rdb.Watch(ctx, func(tx *redis.Tx) error {
		pendingKeys, err := tx.SMembers(ctx, pendingSet).Result()
		if err != nil {
			return err
		}
		if !force && len(pendingKeys) > 0 {
			zap.L().Info("[RedisRepo] отказ в удалении документа с ожидающими приглашениями",
				zap.String("doc", documentKey), zap.Int("pending", len(pendingKeys)))
			return nil
		}

		document, err := r.loadDocument(ctx, tx, docID)
		if err != nil {
			return err
		}

		var inviteKeys []string
		for _, state := range []string{stPending, stSigned, stDeclined} {
			keys, err := tx.SMembers(ctx, rkDocState(docID, state)).Result()
			if err != nil {
				return err
			}
			inviteKeys = append(inviteKeys, keys...)
		}
		records, err := r.loadInviteRecords(ctx, tx, inviteKeys)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, record := range records {
				pipe.Del(ctx, rkInvite(record.Key))
				pipe.SRem(ctx, rkEmailPending(record.Email), record.Key)
			}
			pipe.Del(ctx, rkDoc(docID), rkDocID(documentKey),
				rkDocState(docID, stPending), rkDocState(docID, stSigned), rkDocState(docID, stDeclined))
			pipe.ZRem(ctx, createdIndexKey, documentKey)
			if document != nil {
				pipe.SRem(ctx, rkOwner(document.Owner.Email), docID)
			}
			return nil
		})
		if err == nil {
			removed = true
		}
		return err
	}, pendingSet)
	if err != nil {
		return false, util.LogError("[RedisRepo] не удалось удалить документ", err)
	}
	return removed, nil
}

func (r *RedisRepository) GetOldDocuments(ctx context.Context, createdBefore time.Time) ([]string, error) {
	keys, err := r.client.Client.ZRangeByScore(ctx, createdIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(createdBefore.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, util.LogError("[RedisRepo] не удалось получить старые документы", err)
	}
	return keys, nil
}
