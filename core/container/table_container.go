package container

import (
	"time"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/cache"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/config"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/database"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/core/infrastructure/persistence"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/core/infrastructure/realtime"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/conn"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/game"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/game/engines/amj"
)

// TableContainer table 节点的依赖装配
type TableContainer struct {
	Mongo       *database.MongoManager
	Redis       *database.RedisManager
	TableWorker *game.Worker
	Gateway     *conn.Manager
}

// NewTableContainer 按配置装配所有依赖，任一环节失败返回 nil
func NewTableContainer() *TableContainer {
	cfg := config.TableNodeConfig

	mongo := database.NewMongo(cfg.DatabaseConf.MongoConf)
	if mongo == nil {
		log.Error("mongo 初始化失败")
		return nil
	}
	redis := database.NewRedis(cfg.DatabaseConf.RedisConf)
	if redis == nil {
		log.Error("redis 初始化失败")
		return nil
	}

	validationCache, err := cache.NewGeneralCache(1<<26, 10*time.Minute)
	if err != nil {
		log.Error("校验缓存初始化失败: %v", err)
		return nil
	}

	deps := game.Deps{
		Snapshots: persistence.NewSnapshotRepository(mongo),
		Actions:   persistence.NewActionLogRepository(mongo),
		Records:   persistence.NewGameRecordRepository(mongo),
		Flags:     realtime.NewFeatureFlags(redis),
		Router:    realtime.NewUserRouter(redis),
		Validator: amj.NewValidator(validationCache),
		Patterns:  amj.DefaultPatterns(),
	}

	worker := game.NewWorker(cfg.ID, cfg.GameConf, deps)
	gateway := conn.NewManager(cfg.ID+"-connector", cfg.ID, cfg.JwtConf.Secret)

	return &TableContainer{
		Mongo:       mongo,
		Redis:       redis,
		TableWorker: worker,
		Gateway:     gateway,
	}
}

func (c *TableContainer) Close() error {
	if c.TableWorker != nil {
		c.TableWorker.Close()
	}
	if c.Gateway != nil {
		c.Gateway.Close()
	}
	if c.Redis != nil {
		c.Redis.Close()
	}
	if c.Mongo != nil {
		c.Mongo.Close()
	}
	return nil
}
