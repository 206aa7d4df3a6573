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

const gameRecordCollection = "game_records"

type GameRecordRepository struct {
	mongo *database.MongoManager
}

func NewGameRecordRepository(mongo *database.MongoManager) repository.GameRecordRepository {
	return &GameRecordRepository{mongo: mongo}
}

func (r *GameRecordRepository) Save(ctx context.Context, record *entity.GameRecord) error {
	collection := r.mongo.Db.Collection(gameRecordCollection)
	if _, err := collection.InsertOne(ctx, record); err != nil {
		log.Error("保存对战记录失败, table:%s, err:%v", record.TableID, err)
		return repository.ErrMongodb
	}
	return nil
}

// FindByUser 按用户查对战记录，最新在前
func (r *GameRecordRepository) FindByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.GameRecord, error) {
	collection := r.mongo.Db.Collection(gameRecordCollection)

	filter := bson.M{"results.user_id": userID}
	opts := options.Find().
		SetSort(bson.M{"start_time": -1}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		log.Error("查询对战记录失败, user:%s, err:%v", userID, err)
		return nil, repository.ErrMongodb
	}
	defer cursor.Close(ctx)

	var records []*entity.GameRecord
	if err := cursor.All(ctx, &records); err != nil {
		log.Error("解析对战记录失败, user:%s, err:%v", userID, err)
		return nil, repository.ErrMongodb
	}
	return records, nil
}
