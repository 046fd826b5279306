package repository

import (
	"context"
	"multisign-server/internal/model"
	"multisign-server/internal/util"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Поля locked (unix ms) и locking_email живут в hash документа.
// Переходы выполняются Lua-скриптами, чтобы проверка истечения и запись были атомарны.
// Адреса передаются в скрипты нормализованными.

// KEYS[1] = doc:{id}; ARGV = now, cutoff, email
var addLockScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
local locked = redis.call('HGET', KEYS[1], 'locked')
local holder = redis.call('HGET', KEYS[1], 'locking_email')
if (not locked) or holder == ARGV[3] or tonumber(locked) < tonumber(ARGV[2]) then
	redis.call('HSET', KEYS[1], 'locked', ARGV[1], 'locking_email', ARGV[3])
	return 1
end
return 0
`)

// KEYS[1] = doc:{id}; ARGV = cutoff, emails...
var rmLockScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
local locked = redis.call('HGET', KEYS[1], 'locked')
if not locked then
	return 1
end
local holder = redis.call('HGET', KEYS[1], 'locking_email')
local release = tonumber(locked) < tonumber(ARGV[1])
for i = 2, #ARGV do
	if ARGV[i] == holder then
		release = true
	end
end
if release then
	redis.call('HDEL', KEYS[1], 'locked', 'locking_email')
	return 1
end
return 0
`)

// KEYS[1] = doc:{id}; ARGV = cutoff, emails...
var checkLockScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
local locked = redis.call('HGET', KEYS[1], 'locked')
if not locked then
	return 0
end
if tonumber(locked) < tonumber(ARGV[1]) then
	redis.call('HDEL', KEYS[1], 'locked', 'locking_email')
	return 0
end
local holder = redis.call('HGET', KEYS[1], 'locking_email')
for i = 2, #ARGV do
	if ARGV[i] == holder then
		return 1
	end
end
return 0
`)

func (r *RedisRepository) lockCutoff() int64 {
	return r.now().Add(-r.lockTimeout).UnixMilli()
}

func emailArgs(head int64, emails []string) []any {
	args := make([]any, 0, len(emails)+1)
	args = append(args, head)
	for _, email := range uniqueEmails(emails) {
		args = append(args, email)
	}
	return args
}

func (r *RedisRepository) AddLock(ctx context.Context, docID int64, email string) (bool, error) {
	res, err := addLockScript.Run(ctx, r.client.Client, []string{rkDoc(docID)},
		r.now().UnixMilli(), r.lockCutoff(), model.NormalizeEmail(email)).Int()
	if err != nil {
		return false, util.LogError("[RedisRepo] не удалось заблокировать документ", err)
	}
	if res == 0 {
		zap.L().Info("[RedisRepo] документ заблокирован другим пользователем",
			zap.Int64("doc_id", docID), zap.String("email", email))
		return false, nil
	}
	return true, nil
}

func (r *RedisRepository) RmLock(ctx context.Context, docID int64, emails []string) (bool, error) {
	res, err := rmLockScript.Run(ctx, r.client.Client, []string{rkDoc(docID)},
		emailArgs(r.lockCutoff(), emails)...).Int()
	if err != nil {
		return false, util.LogError("[RedisRepo] не удалось снять блокировку", err)
	}
	return res == 1, nil
}

func (r *RedisRepository) CheckLock(ctx context.Context, docID int64, emails []string) (bool, error) {
	if len(emails) == 0 {
		return false, nil
	}
	res, err := checkLockScript.Run(ctx, r.client.Client, []string{rkDoc(docID)},
		emailArgs(r.lockCutoff(), emails)...).Int()
	if err != nil {
		return false, util.LogError("[RedisRepo] не удалось проверить блокировку", err)
	}
	return res == 1, nil
}
