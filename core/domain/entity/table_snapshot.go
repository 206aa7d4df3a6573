package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TableSnapshot 一桌对局的持久化快照
// 每次被接受的状态变更后整体覆写，崩溃后据此还原 GameState
type TableSnapshot struct {
	TableID   string    `bson:"_id" json:"tableId"`
	Seq       uint64    `bson:"seq" json:"seq"`
	Phase     string    `bson:"phase" json:"phase"`
	State     []byte    `bson:"state" json:"state"` // GameState 的 JSON 序列化
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// ActionLog 一次被接受的动作追加日志
type ActionLog struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	TableID   string             `bson:"table_id" json:"tableId"`
	Seq       uint64             `bson:"seq" json:"seq"`
	UserID    string             `bson:"user_id" json:"userId"`
	Seat      int                `bson:"seat" json:"seat"`
	Action    string             `bson:"action" json:"action"`
	Payload   []byte             `bson:"payload" json:"payload"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

func NewActionLog(tableID string, seq uint64, userID string, seat int, action string, payload []byte) *ActionLog {
	return &ActionLog{
		ID:        primitive.NewObjectID(),
		TableID:   tableID,
		Seq:       seq,
		UserID:    userID,
		Seat:      seat,
		Action:    action,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}
