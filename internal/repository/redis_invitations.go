package repository

import (
	"context"
	"errors"
	"fmt"
	"multisign-server/internal/model"
	"multisign-server/internal/util"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type inviteRecord struct {
	Key      string
	DocID    int64
	DocKey   string
	Name     string
	Email    string
	Lang     string
	Signed   bool
	Declined bool
	Order    int
	Seq      int64
}

func (rec inviteRecord) toModel() model.Invitation {
	return model.Invitation{
		Key:         rec.Key,
		DocumentKey: rec.DocKey,
		Invitee: model.Invitee{
			Name:  rec.Name,
			Email: rec.Email,
			Lang:  rec.Lang,
		},
		Order:    rec.Order,
		Signed:   rec.Signed,
		Declined: rec.Declined,
	}
}

func (rec inviteRecord) state() string {
	switch {
	case rec.Signed:
		return stSigned
	case rec.Declined:
		return stDeclined
	default:
		return stPending
	}
}

func inviteRecordFromHash(key string, h map[string]string) (inviteRecord, error) {
	docID, err := strconv.ParseInt(h["doc_id"], 10, 64)
	if err != nil {
		return inviteRecord{}, fmt.Errorf("поле doc_id: %w", err)
	}
	order, err := strconv.Atoi(h["order"])
	if err != nil {
		return inviteRecord{}, fmt.Errorf("поле order: %w", err)
	}
	seq, err := strconv.ParseInt(h["seq"], 10, 64)
	if err != nil {
		return inviteRecord{}, fmt.Errorf("поле seq: %w", err)
	}

	return inviteRecord{
		Key:      key,
		DocID:    docID,
		DocKey:   h["doc_key"],
		Name:     h["name"],
		Email:    h["email"],
		Lang:     h["lang"],
		Signed:   h["signed"] == "1",
		Declined: h["declined"] == "1",
		Order:    order,
		Seq:      seq,
	}, nil
}

func (r *RedisRepository) newInviteRecord(ctx context.Context, rdb redis.Cmdable, docID int64, documentKey string, invitee model.Invitee, order int) (inviteRecord, error) {
	seq, err := rdb.Incr(ctx, "invite:seq").Result()
	if err != nil {
		return inviteRecord{}, util.LogError("[RedisRepo] не удалось выделить номер приглашения", err)
	}
	return inviteRecord{
		Key:    util.NewKey(),
		DocID:  docID,
		DocKey: documentKey,
		Name:   invitee.Name,
		Email:  invitee.Email,
		Lang:   invitee.Lang,
		Order:  order,
		Seq:    seq,
	}, nil
}

// queueInviteRecord : добавляет в транзакцию запись нового ожидающего приглашения и его индексы
func queueInviteRecord(ctx context.Context, pipe redis.Pipeliner, rec inviteRecord) {
	pipe.HSet(ctx, rkInvite(rec.Key), map[string]any{
		"doc_id":   rec.DocID,
		"doc_key":  rec.DocKey,
		"name":     rec.Name,
		"email":    rec.Email,
		"lang":     rec.Lang,
		"signed":   boolField(rec.Signed),
		"declined": boolField(rec.Declined),
		"order":    rec.Order,
		"seq":      rec.Seq,
	})
	pipe.SAdd(ctx, rkDocState(rec.DocID, rec.state()), rec.Key)
	if rec.state() == stPending {
		pipe.SAdd(ctx, rkEmailPending(rec.Email), rec.Key)
	}
}

// queueInviteRemoval : удаляет запись приглашения из всех индексов
func queueInviteRemoval(ctx context.Context, pipe redis.Pipeliner, rec inviteRecord) {
	pipe.Del(ctx, rkInvite(rec.Key))
	for _, state := range []string{stPending, stSigned, stDeclined} {
		pipe.SRem(ctx, rkDocState(rec.DocID, state), rec.Key)
	}
	pipe.SRem(ctx, rkEmailPending(rec.Email), rec.Key)
}

// loadInviteRecords : читает приглашения по ключам в порядке создания.
// Ключи без записи пропускаются.
func (r *RedisRepository) loadInviteRecords(ctx context.Context, rdb redis.Cmdable, keys []string) ([]inviteRecord, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err := rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.HGetAll(ctx, rkInvite(key))
		}
		return nil
	})
	if err != nil {
		return nil, util.LogError("[RedisRepo] не удалось получить приглашения", err)
	}

	records := make([]inviteRecord, 0, len(keys))
	for i, cmd := range cmds {
		h := cmd.Val()
		if len(h) == 0 {
			zap.L().Warn("[RedisRepo] индекс ссылается на отсутствующее приглашение", zap.String("invite", keys[i]))
			continue
		}
		record, err := inviteRecordFromHash(keys[i], h)
		if err != nil {
			return nil, util.LogError("[RedisRepo] повреждённая запись приглашения", err)
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	return records, nil
}

func (r *RedisRepository) listRecords(ctx context.Context, rdb redis.Cmdable, docID int64) ([]inviteRecord, error) {
	keys, err := rdb.SUnion(ctx,
		rkDocState(docID, stPending), rkDocState(docID, stSigned), rkDocState(docID, stDeclined)).Result()
	if err != nil {
		return nil, util.LogError("[RedisRepo] не удалось получить приглашения документа", err)
	}
	records, err := r.loadInviteRecords(ctx, rdb, keys)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Order < records[j].Order })
	return records, nil
}

func (r *RedisRepository) listInvitations(ctx context.Context, rdb redis.Cmdable, docID int64) ([]model.Invitation, error) {
	records, err := r.listRecords(ctx, rdb, docID)
	if err != nil {
		return nil, err
	}
	invites := make([]model.Invitation, 0, len(records))
	for _, record := range records {
		invites = append(invites, record.toModel())
	}
	return invites, nil
}

func (r *RedisRepository) loadInviteRecord(ctx context.Context, rdb redis.Cmdable, key string) (*inviteRecord, error) {
	records, err := r.loadInviteRecords(ctx, rdb, []string{key})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (r *RedisRepository) documentExists(ctx context.Context, rdb redis.Cmdable, docID int64) (bool, error) {
	n, err := rdb.Exists(ctx, rkDoc(docID)).Result()
	if err != nil {
		return false, util.LogError("[RedisRepo] не удалось проверить документ", err)
	}
	return n > 0, nil
}

func (r *RedisRepository) GetInvited(ctx context.Context, documentKey string) ([]model.Invitation, error) {
	docID, err := r.GetDocumentID(ctx, documentKey)
	if errors.Is(err, model.ErrNotFound) {
		return []model.Invitation{}, nil
	}
	if err != nil {
		return nil, err
	}
	return r.listInvitations(ctx, r.client.Client, docID)
}

// GetInvitation : nil, если приглашения нет или его документ удалён
func (r *RedisRepository) GetInvitation(ctx context.Context, key string) (*model.Invitation, error) {
	rdb := r.client.Client
	record, err := r.loadInviteRecord(ctx, rdb, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		zap.L().Warn("[RedisRepo] приглашение не найдено", zap.String("invite", key))
		return nil, nil
	}

	exists, err := r.documentExists(ctx, rdb, record.DocID)
	if err != nil {
		return nil, err
	}
	if !exists {
		zap.L().Error("[RedisRepo] приглашение ссылается на несуществующий документ", zap.String("invite", key))
		return nil, nil
	}

	invitation := record.toModel()
	return &invitation, nil
}

func (r *RedisRepository) AddInvitation(ctx context.Context, documentKey string, invitee model.Invitee, order int) (*model.Invitation, error) {
	rdb := r.client.Client
	docID, err := r.GetDocumentID(ctx, documentKey)
	if err != nil {
		return nil, err
	}

	record, err := r.newInviteRecord(ctx, rdb, docID, documentKey, invitee, order)
	if err != nil {
		return nil, err
	}

	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		queueInviteRecord(ctx, pipe, record)
		return nil
	})
	if err != nil {
		return nil, util.LogError("[RedisRepo] не удалось сохранить приглашение", err)
	}

	invitation := record.toModel()
	return &invitation, nil
}

func (r *RedisRepository) RmInvitation(ctx context.Context, key string) (bool, error) {
	rdb := r.client.Client
	record, err := r.loadInviteRecord(ctx, rdb, key)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}

	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		queueInviteRemoval(ctx, pipe, *record)
		return nil
	})
	if err != nil {
		return false, util.LogError("[RedisRepo] не удалось удалить приглашение", err)
	}
	return true, nil
}

// DelegateInvitation : новое приглашение с тем же порядком записывается в той же транзакции,
// что и удаление старого. WATCH держится и на приглашении, и на документе,
// поэтому параллельное удаление документа отменяет транзакцию.
func (r *RedisRepository) DelegateInvitation(ctx context.Context, key string, invitee model.Invitee) (*model.Invitation, error) {
	rdb := r.client.Client

	current, err := r.loadInviteRecord(ctx, rdb, key)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("[RedisRepo] нет ожидающего приглашения %s: %w", key, model.ErrNotFound)
	}
	docID := current.DocID

	var delegated *model.Invitation
	err = rdb.Watch(ctx, func(tx *redis.Tx) error {
		old, err := r.loadInviteRecord(ctx, tx, key)
		if err != nil {
			return err
		}
		if old == nil || old.DocID != docID || old.Signed || old.Declined {
			return fmt.Errorf("[RedisRepo] нет ожидающего приглашения %s: %w", key, model.ErrNotFound)
		}
		exists, err := r.documentExists(ctx, tx, docID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("[RedisRepo] документ приглашения %s: %w", key, model.ErrNotFound)
		}

		record, err := r.newInviteRecord(ctx, tx, docID, old.DocKey, invitee, old.Order)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			queueInviteRecord(ctx, pipe, record)
			queueInviteRemoval(ctx, pipe, *old)
			return nil
		})
		if err != nil {
			return err
		}
		invitation := record.toModel()
		delegated = &invitation
		return nil
	}, rkInvite(key), rkDoc(docID), rkDocState(docID, stPending))

	if errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, util.LogError("[RedisRepo] не удалось передать приглашение", err)
	}
	return delegated, nil
}

func (r *RedisRepository) UpdateInvitations(ctx context.Context, documentKey string, invitees []model.Invitee) ([]model.Invitation, error) {
	rdb := r.client.Client
	docID, err := r.GetDocumentID(ctx, documentKey)
	if err != nil {
		return nil, err
	}

	var added []model.Invitation
	err = rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.listRecords(ctx, tx, docID)
		if err != nil {
			return err
		}

		wanted := make(map[string]bool, len(invitees))
		for _, invitee := range invitees {
			wanted[model.NormalizeEmail(invitee.Email)] = true
		}

		var removed []inviteRecord
		existing := make(map[string]bool, len(current))
		nextOrder := 0
		for _, record := range current {
			email := model.NormalizeEmail(record.Email)
			if record.Order >= nextOrder {
				nextOrder = record.Order + 1
			}
			if record.state() == stPending && !wanted[email] {
				removed = append(removed, record)
				continue
			}
			existing[email] = true
		}

		var created []inviteRecord
		for _, invitee := range invitees {
			email := model.NormalizeEmail(invitee.Email)
			if existing[email] {
				continue
			}
			record, err := r.newInviteRecord(ctx, tx, docID, documentKey, invitee, nextOrder)
			if err != nil {
				return err
			}
			existing[email] = true
			nextOrder++
			created = append(created, record)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, record := range removed {
				queueInviteRemoval(ctx, pipe, record)
			}
			for _, record := range created {
				queueInviteRecord(ctx, pipe, record)
			}
			return nil
		})
		if err != nil {
			return err
		}

		added = make([]model.Invitation, 0, len(created))
		for _, record := range created {
			added = append(added, record.toModel())
		}
		return nil
	}, rkDocState(docID, stPending), rkDocState(docID, stSigned), rkDocState(docID, stDeclined))
	if err != nil {
		return nil, util.LogError("[RedisRepo] не удалось обновить список приглашённых", err)
	}
	return added, nil
}
