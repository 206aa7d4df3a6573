package realtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/database"
)

const userRouteTTL = 24 * time.Hour

// UserRouter 用户到 connector 节点的路由表
// 断线重连时据此找回用户当前挂在哪个网关
type UserRouter struct {
	redis *database.RedisManager
}

func NewUserRouter(redis *database.RedisManager) *UserRouter {
	return &UserRouter{redis: redis}
}

func routeKey(userID string) string {
	return fmt.Sprintf("route:user:%s", userID)
}

func (r *UserRouter) Bind(ctx context.Context, userID, connectorID string) error {
	return r.redis.Cli.Set(ctx, routeKey(userID), connectorID, userRouteTTL).Err()
}

// Lookup 找不到路由时返回空串，不算错误
func (r *UserRouter) Lookup(ctx context.Context, userID string) (string, error) {
	val, err := r.redis.Cli.Get(ctx, routeKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *UserRouter) Unbind(ctx context.Context, userID string) error {
	return r.redis.Cli.Del(ctx, routeKey(userID)).Err()
}
