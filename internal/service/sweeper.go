package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type oldDocumentsRemover interface {
	RemoveOldDocuments(ctx context.Context, maxAge time.Duration) (int, error)
}

// RunSweeper : периодически удаляет документы старше maxAge, пока ctx не отменён
func RunSweeper(ctx context.Context, remover oldDocumentsRemover, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	zap.L().Info("[Sweeper] запущен",
		zap.Duration("interval", interval),
		zap.Duration("max_age", maxAge))

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("[Sweeper] остановлен")
			return
		case <-ticker.C:
			removed, err := remover.RemoveOldDocuments(ctx, maxAge)
			if err != nil {
				zap.L().Error("[Sweeper] ошибка очистки", zap.Int("removed", removed), zap.Error(err))
				continue
			}
			if removed > 0 {
				zap.L().Info("[Sweeper] удалены старые документы", zap.Int("removed", removed))
			}
		}
	}
}
