package repository

import (
	"context"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/core/domain/entity"
)

// SnapshotRepository 对局快照仓储
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *entity.TableSnapshot) error
	Find(ctx context.Context, tableID string) (*entity.TableSnapshot, error)
	Delete(ctx context.Context, tableID string) error
}

// ActionLogRepository 动作追加日志仓储
type ActionLogRepository interface {
	Append(ctx context.Context, log *entity.ActionLog) error
	FindByTable(ctx context.Context, tableID string, limit int) ([]*entity.ActionLog, error)
}

// GameRecordRepository 终局记录仓储
type GameRecordRepository interface {
	Save(ctx context.Context, record *entity.GameRecord) error
	FindByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.GameRecord, error)
}
