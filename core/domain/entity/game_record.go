package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SeatResult 终局时一个座位的结果
type SeatResult struct {
	Seat    int    `bson:"seat" json:"seat"`
	UserID  string `bson:"user_id" json:"userId"`
	IsBot   bool   `bson:"is_bot" json:"isBot"`
	IsWin   bool   `bson:"is_win" json:"isWin"`
	Pattern string `bson:"pattern,omitempty" json:"pattern,omitempty"`
}

// GameRecord 一局完整对战的终局记录
type GameRecord struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	TableID   string             `bson:"table_id" json:"tableId"`
	GameType  string             `bson:"game_type" json:"gameType"`
	Seed      string             `bson:"seed" json:"seed"`
	EndReason string             `bson:"end_reason" json:"endReason"`
	Results   []SeatResult       `bson:"results" json:"results"`
	StartTime time.Time          `bson:"start_time" json:"startTime"`
	EndTime   time.Time          `bson:"end_time" json:"endTime"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

func NewGameRecord(tableID, seed, endReason string, results []SeatResult, startTime time.Time) *GameRecord {
	now := time.Now()
	return &GameRecord{
		ID:        primitive.NewObjectID(),
		TableID:   tableID,
		GameType:  "american_mahjong_4p",
		Seed:      seed,
		EndReason: endReason,
		Results:   results,
		StartTime: startTime,
		EndTime:   now,
		CreatedAt: now,
	}
}
