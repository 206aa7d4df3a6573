package amj

import (
	"fmt"
)

// Phase 对局阶段
type Phase string

const (
	PhaseSetup      Phase = "setup"      // 建桌、落座
	PhaseCharleston Phase = "charleston" // 查尔斯顿换牌
	PhasePlaying    Phase = "playing"    // 行牌
	PhaseFinished   Phase = "finished"   // 已结束
)

// MeldKind 牌组类型
type MeldKind string

const (
	MeldPair  MeldKind = "pair"
	MeldPung  MeldKind = "pung"
	MeldKong  MeldKind = "kong"
	MeldQuint MeldKind = "quint"
)

// Size 牌组所需张数
func (k MeldKind) Size() int {
	switch k {
	case MeldPair:
		return 2
	case MeldPung:
		return 3
	case MeldKong:
		return 4
	case MeldQuint:
		return 5
	default:
		return 0
	}
}

// Meld 一组已成型的牌
// CalledFrom 为 -1 表示不是叫牌得来
type Meld struct {
	Kind       MeldKind `json:"kind"`
	Tiles      []Tile   `json:"tiles"`
	Concealed  bool     `json:"concealed"`
	CalledFrom int      `json:"calledFrom"`
}

// Difficulty 机器人难度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Participant 一个座位上的参与者（人类或机器人）
type Participant struct {
	Seat       int        `json:"seat"`
	UserID     string     `json:"userId"`
	IsBot      bool       `json:"isBot"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Rack       []Tile     `json:"rack"`
	Melds      []Meld     `json:"melds"`
	Discards   []Tile     `json:"discards"`
	Flowers    []Tile     `json:"flowers"`
	Ready      bool       `json:"ready"`
}

// TileTotal 座位上牌的总数（手牌 + 牌组）
func (p *Participant) TileTotal() int {
	total := len(p.Rack)
	for _, m := range p.Melds {
		total += len(m.Tiles)
	}
	return total
}

// VoteContinue / VoteStop 查尔斯顿第二轮投票选项
const (
	VoteContinue = "continue"
	VoteStop     = "stop"
)

// CharlestonState 查尔斯顿子状态
// Phase 只会向前推进（1→…→8），Voting 表示停在 3.5 等待投票
type CharlestonState struct {
	Phase   int            `json:"phase"`
	Voting  bool           `json:"voting"`
	Pending map[int][]Tile `json:"pending"` // seat -> 本阶段已提交待交换的牌
	Votes   map[int]string `json:"votes"`   // seat -> continue|stop
}

// PhaseNumber 对外展示的阶段号，投票期为 3.5
func (cs *CharlestonState) PhaseNumber() float64 {
	if cs.Voting {
		return 3.5
	}
	return float64(cs.Phase)
}

// CallClaim 叫牌窗口内收集到的一次申领
type CallClaim struct {
	Seat  int      `json:"seat"`
	Kind  MeldKind `json:"kind"`
	Order int      `json:"order"` // 到达顺序，先到者小
}

// GameState 一桌对局的权威状态
// 只能在该桌的 Table 协程内修改，引擎组件不得跨调用持有引用
type GameState struct {
	TableID         string           `json:"tableId"`
	Phase           Phase            `json:"phase"`
	Seed            string           `json:"seed"`
	Wall            []Tile           `json:"wall"`
	Players         [4]*Participant  `json:"players"`
	Current         int              `json:"currentPlayerIndex"`
	LastDiscard     *Tile            `json:"lastDiscardedTile"`
	LastDiscardSeat int              `json:"lastDiscardedBySeat"`
	CallOpen        bool             `json:"callOpen"`
	CallClaims      []CallClaim      `json:"-"`
	Charleston      *CharlestonState `json:"charleston,omitempty"`
	Winner          int              `json:"winner"`
	WinPattern      string           `json:"winPattern,omitempty"`
	Seq             uint64           `json:"seq"` // 每次接受变更自增，识别过期的定时回调
}

// NewGameState 发牌并建立初始对局状态
// 花/季在起手和摸牌时自动移入花区并补牌
func NewGameState(tableID string, seats [4]*Participant, seed string) (*GameState, error) {
	for i := 0; i < 4; i++ {
		if seats[i] == nil {
			return nil, fmt.Errorf("座位 %d 为空，无法开局", i)
		}
	}

	shuffled := Shuffle(GenerateFullSet(), seed)
	hands, wall := Deal(shuffled)

	gs := &GameState{
		TableID:         tableID,
		Phase:           PhaseSetup,
		Seed:            seed,
		Wall:            wall,
		Players:         seats,
		Current:         0,
		LastDiscardSeat: -1,
		Winner:          -1,
	}

	for seat := 0; seat < 4; seat++ {
		p := seats[seat]
		p.Seat = seat
		p.Rack = hands[seat]
		p.Melds = make([]Meld, 0, 4)
		p.Discards = make([]Tile, 0, 18)
		p.Flowers = make([]Tile, 0, 8)
		gs.replaceFlowers(p)
	}

	return gs, nil
}

// replaceFlowers 起手阶段把手牌中的花/季移入花区并从牌墙补牌
// 补到的仍是花则继续，牌墙耗尽时停止补牌
func (gs *GameState) replaceFlowers(p *Participant) {
	for {
		moved := false
		rest := make([]Tile, 0, len(p.Rack))
		for _, t := range p.Rack {
			if t.IsFlower {
				p.Flowers = append(p.Flowers, t)
				moved = true
			} else {
				rest = append(rest, t)
			}
		}
		p.Rack = rest
		if !moved {
			return
		}
		for len(p.Rack) < HandSize && len(gs.Wall) > 0 {
			p.Rack = append(p.Rack, gs.Wall[0])
			gs.Wall = gs.Wall[1:]
		}
		if len(gs.Wall) == 0 {
			return
		}
	}
}

// Bump 记录一次已接受的状态变更
func (gs *GameState) Bump() uint64 {
	gs.Seq++
	return gs.Seq
}

// SeatOf 根据用户 ID 查座位
func (gs *GameState) SeatOf(userID string) (int, error) {
	for i, p := range gs.Players {
		if p != nil && p.UserID == userID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("玩家 %s 不在本桌", userID)
}

// CheckConservation 牌张守恒校验
// 牌墙、手牌、牌组、弃牌堆、花区合计必须恰好是整副 152 张且无重复
// 违反时返回错误，调用方应立即停止该桌的一切变更
func (gs *GameState) CheckConservation() error {
	seen := make(map[int]bool, FullSetSize)
	total := 0

	record := func(t Tile, where string) error {
		if seen[t.ID] {
			return fmt.Errorf("牌 %d(%s) 在 %s 出现重复", t.ID, t.Code(), where)
		}
		seen[t.ID] = true
		total++
		return nil
	}

	for _, t := range gs.Wall {
		if err := record(t, "牌墙"); err != nil {
			return err
		}
	}
	for seat, p := range gs.Players {
		if p == nil {
			continue
		}
		for _, t := range p.Rack {
			if err := record(t, fmt.Sprintf("座位 %d 手牌", seat)); err != nil {
				return err
			}
		}
		for _, m := range p.Melds {
			for _, t := range m.Tiles {
				if err := record(t, fmt.Sprintf("座位 %d 牌组", seat)); err != nil {
					return err
				}
			}
		}
		for _, t := range p.Discards {
			if err := record(t, fmt.Sprintf("座位 %d 弃牌堆", seat)); err != nil {
				return err
			}
		}
		for _, t := range p.Flowers {
			if err := record(t, fmt.Sprintf("座位 %d 花区", seat)); err != nil {
				return err
			}
		}
	}

	if total != FullSetSize {
		return fmt.Errorf("牌张总数 %d，应为 %d", total, FullSetSize)
	}
	return nil
}

// CharlestonSnapshot 持久化/广播用的查尔斯顿视图
type CharlestonSnapshot struct {
	Phase          float64 `json:"phase"`
	VotesReceived  int     `json:"votesReceived"`
	PassesReceived int     `json:"passesReceived"`
}

// Snapshot 对外快照：对所有座位可见的公共状态
// 崩溃恢复时以此形状从持久层重建
type Snapshot struct {
	TableID         string              `json:"tableId"`
	Phase           Phase               `json:"phase"`
	Current         int                 `json:"currentPlayerIndex"`
	WallCount       int                 `json:"wallCount"`
	LastDiscard     *Tile               `json:"lastDiscardedTile"`
	LastDiscardSeat int                 `json:"lastDiscardedBySeat"`
	Charleston      *CharlestonSnapshot `json:"charleston,omitempty"`
	Winner          int                 `json:"winner"`
	WinPattern      string              `json:"winPattern,omitempty"`
	Seq             uint64              `json:"seq"`
}

func (gs *GameState) Snapshot() *Snapshot {
	snap := &Snapshot{
		TableID:         gs.TableID,
		Phase:           gs.Phase,
		Current:         gs.Current,
		WallCount:       len(gs.Wall),
		LastDiscard:     gs.LastDiscard,
		LastDiscardSeat: gs.LastDiscardSeat,
		Winner:          gs.Winner,
		WinPattern:      gs.WinPattern,
		Seq:             gs.Seq,
	}
	if gs.Phase == PhaseCharleston && gs.Charleston != nil {
		snap.Charleston = &CharlestonSnapshot{
			Phase:          gs.Charleston.PhaseNumber(),
			VotesReceived:  len(gs.Charleston.Votes),
			PassesReceived: len(gs.Charleston.Pending),
		}
	}
	return snap
}

// SeatView 某个座位可见的其他座位信息（不含他人手牌）
type SeatView struct {
	Seat      int    `json:"seat"`
	UserID    string `json:"userId"`
	IsBot     bool   `json:"isBot"`
	RackCount int    `json:"rackCount"`
	Melds     []Meld `json:"melds"`
	Discards  []Tile `json:"discards"`
	Flowers   []Tile `json:"flowers"`
}

// PlayerView 断线重连下发给单个玩家的视图：自己的手牌 + 公共信息
type PlayerView struct {
	Snapshot *Snapshot  `json:"gameState"`
	Seat     int        `json:"seat"`
	Rack     []Tile     `json:"rack"`
	Seats    []SeatView `json:"seats"`
}

func (gs *GameState) PlayerView(seat int) *PlayerView {
	view := &PlayerView{
		Snapshot: gs.Snapshot(),
		Seat:     seat,
		Rack:     SortRack(gs.Players[seat].Rack),
		Seats:    make([]SeatView, 0, 4),
	}
	for i, p := range gs.Players {
		if p == nil {
			continue
		}
		view.Seats = append(view.Seats, SeatView{
			Seat:      i,
			UserID:    p.UserID,
			IsBot:     p.IsBot,
			RackCount: len(p.Rack),
			Melds:     p.Melds,
			Discards:  p.Discards,
			Flowers:   p.Flowers,
		})
	}
	return view
}
