package share

import "encoding/json"

// 入站路由（actor -> 桌管理器）
const (
	RouteAuthenticate       = "authenticate"
	RouteJoinTable          = "join_table"
	RouteLeaveTable         = "leave_table"
	RouteGameAction         = "game_action"
	RouteCharlestonPass     = "charleston_pass"
	RouteCharlestonDecision = "charleston_decision"
	RouteReadyCheck         = "ready_check"
	RouteChatMessage        = "chat_message"
	RouteReconnect          = "reconnect"
)

// game_action 的动作种类
const (
	ActionDrawTile       = "draw_tile"
	ActionDiscardTile    = "discard_tile"
	ActionCallTile       = "call_tile"
	ActionExposeMeld     = "expose_meld"
	ActionDeclareMahjong = "declare_mahjong"
)

// 出站广播路由（桌管理器 -> actor）
const (
	PushTableJoined        = "table_joined"
	PushPlayerJoined       = "player_joined"
	PushPlayerLeft         = "player_left"
	PushPlayerDisconnected = "player_disconnected"
	PushPlayerReady        = "player_ready"
	PushGameStarted        = "game_started"
	PushGameAction         = "game_action"
	PushCharlestonPhase    = "charleston_phase_started"
	PushCharlestonDecision = "charleston_decision_required"
	PushCharlestonVotes    = "charleston_votes_updated"
	PushCharlestonReceived = "charleston_received_tiles"
	PushCharlestonEnded    = "charleston_ended"
	PushChatMessage        = "chat_message"
	PushGameEnded          = "game_ended"
	PushError              = "error"
)

// AuthPayload authenticate{token}
type AuthPayload struct {
	Token string `json:"token"`
}

// JoinTablePayload join_table{tableId}
type JoinTablePayload struct {
	TableID string `json:"tableId"`
}

// GameActionPayload game_action{action, data}
type GameActionPayload struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// DiscardPayload discard_tile 的载荷
type DiscardPayload struct {
	TileID int `json:"tileId"`
}

// CallPayload call_tile 的载荷
type CallPayload struct {
	Kind string `json:"kind"` // pung|kong|quint
}

// ExposePayload expose_meld 的载荷
type ExposePayload struct {
	Kind    string `json:"kind"`
	TileIDs []int  `json:"tileIds"`
}

// CharlestonPassPayload charleston_pass{tiles[]}
type CharlestonPassPayload struct {
	Tiles []int `json:"tiles"`
}

// CharlestonDecisionPayload charleston_decision{decision}
type CharlestonDecisionPayload struct {
	Decision string `json:"decision"` // continue|stop
}

// ReadyPayload ready_check{ready}
type ReadyPayload struct {
	Ready bool `json:"ready"`
}

// ChatPayload chat_message{message}
type ChatPayload struct {
	Message string `json:"message"`
}
