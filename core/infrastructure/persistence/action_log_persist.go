package persistence

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/database"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/core/domain/entity"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/core/domain/repository"
)

const actionLogCollection = "action_logs"

type ActionLogRepository struct {
	mongo *database.MongoManager
}

func NewActionLogRepository(mongo *database.MongoManager) repository.ActionLogRepository {
	return &ActionLogRepository{mongo: mongo}
}

// Append 追加一条动作日志，只插不改
func (r *ActionLogRepository) Append(ctx context.Context, actionLog *entity.ActionLog) error {
	collection := r.mongo.Db.Collection(actionLogCollection)
	if _, err := collection.InsertOne(ctx, actionLog); err != nil {
		log.Error("追加动作日志失败, table:%s, seq:%d, err:%v", actionLog.TableID, actionLog.Seq, err)
		return repository.ErrMongodb
	}
	return nil
}

func (r *ActionLogRepository) FindByTable(ctx context.Context, tableID string, limit int) ([]*entity.ActionLog, error) {
	collection := r.mongo.Db.Collection(actionLogCollection)

	opts := options.Find().
		SetSort(bson.M{"seq": 1}).
		SetLimit(int64(limit))
	cursor, err := collection.Find(ctx, bson.M{"table_id": tableID}, opts)
	if err != nil {
		log.Error("查询动作日志失败, table:%s, err:%v", tableID, err)
		return nil, repository.ErrMongodb
	}
	defer cursor.Close(ctx)

	var logs []*entity.ActionLog
	if err := cursor.All(ctx, &logs); err != nil {
		log.Error("解析动作日志失败, table:%s, err:%v", tableID, err)
		return nil, repository.ErrMongodb
	}
	return logs, nil
}
