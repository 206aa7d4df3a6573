package analytics

import (
	"encoding/json"
	"time"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
)

// Publisher 只需要裸发布能力，由 node.NatsWorker 满足
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event 一条分析埋点
type Event struct {
	TableID   string `json:"tableId"`
	UserID    string `json:"userId,omitempty"`
	Kind      string `json:"kind"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Sink 发后不管的分析事件出口
// 发布失败只记日志，绝不影响行牌
type Sink struct {
	publisher Publisher
	subject   string
}

func NewSink(publisher Publisher, subject string) *Sink {
	return &Sink{publisher: publisher, subject: subject}
}

func (s *Sink) Emit(tableID, userID, kind string, payload any) {
	if s == nil || s.publisher == nil {
		return
	}
	event := Event{
		TableID:   tableID,
		UserID:    userID,
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Warn("分析事件序列化失败: %v", err)
		return
	}
	if err := s.publisher.Publish(s.subject, data); err != nil {
		log.Warn("分析事件发布失败: %v", err)
	}
}
