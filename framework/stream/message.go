package stream

import "encoding/json"

// MessageType 消息类型
type MessageType int

const (
	Request MessageType = iota
	Response
	Push
)

// Message NATS 上流转的统一信封
// Source/Destination 是节点 topic，Route 决定由哪个处理器消费
type Message struct {
	Type        MessageType     `json:"type"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Route       string          `json:"route"`
	UserID      string          `json:"userID"`
	ConnID      string          `json:"connID"`
	Data        json.RawMessage `json:"data"`
}

// PushUser 推送目标
type PushUser struct {
	UserID      string `json:"userID"`
	ConnectorID string `json:"connectorID"`
}

// PushMessage 节点主动推送给一批用户的消息
type PushMessage struct {
	Route string     `json:"route"`
	Data  []byte     `json:"data"`
	Users []PushUser `json:"users"`
}
