package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/database"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
)

// FeatureFlags redis 上的功能开关
// 开关读不到时按关闭处理，redis 故障不能拖垮行牌链路
type FeatureFlags struct {
	redis *database.RedisManager
}

func NewFeatureFlags(redis *database.RedisManager) *FeatureFlags {
	return &FeatureFlags{redis: redis}
}

// Enabled 查询某个开关，值为 "1" 或 "true" 视为开启
func (f *FeatureFlags) Enabled(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	val, err := f.redis.Cli.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn("读取功能开关 %s 失败: %v", key, err)
		}
		return false
	}
	return val == "1" || val == "true"
}
