package persistence

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/database"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/core/domain/entity"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/core/domain/repository"
)

const snapshotCollection = "table_snapshots"

type SnapshotRepository struct {
	mongo *database.MongoManager
}

func NewSnapshotRepository(mongo *database.MongoManager) repository.SnapshotRepository {
	return &SnapshotRepository{mongo: mongo}
}

// Save 整体覆写一桌的快照
func (r *SnapshotRepository) Save(ctx context.Context, snapshot *entity.TableSnapshot) error {
	collection := r.mongo.Db.Collection(snapshotCollection)

	snapshot.UpdatedAt = time.Now()
	filter := bson.M{"_id": snapshot.TableID}
	update := bson.M{"$set": snapshot}
	opts := options.Update().SetUpsert(true)

	if _, err := collection.UpdateOne(ctx, filter, update, opts); err != nil {
		log.Error("保存对局快照失败, table:%s, err:%v", snapshot.TableID, err)
		return repository.ErrMongodb
	}
	return nil
}

func (r *SnapshotRepository) Find(ctx context.Context, tableID string) (*entity.TableSnapshot, error) {
	collection := r.mongo.Db.Collection(snapshotCollection)

	var snapshot entity.TableSnapshot
	err := collection.FindOne(ctx, bson.M{"_id": tableID}).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrSnapshotNotFound
		}
		log.Error("查询对局快照失败, table:%s, err:%v", tableID, err)
		return nil, repository.ErrMongodb
	}
	return &snapshot, nil
}

func (r *SnapshotRepository) Delete(ctx context.Context, tableID string) error {
	collection := r.mongo.Db.Collection(snapshotCollection)
	if _, err := collection.DeleteOne(ctx, bson.M{"_id": tableID}); err != nil {
		log.Error("删除对局快照失败, table:%s, err:%v", tableID, err)
		return repository.ErrMongodb
	}
	return nil
}
