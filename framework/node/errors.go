package node

import "errors"

// 远程通信错误
var (
	ErrNotConnected = errors.New("未连接到 nats 服务")
	ErrInvalidRoute = errors.New("无效的路由")
)
