package node

import "github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/stream"

// LogicFunc 路由处理函数，返回 nil 表示无需应答
type LogicFunc func(message *stream.Message) any

// LogicHandler route -> 处理函数
type LogicHandler map[string]LogicFunc
