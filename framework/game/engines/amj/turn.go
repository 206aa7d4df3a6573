package amj

import (
	"fmt"
)

// EndReason 对局结束原因
type EndReason string

const (
	EndMahjong       EndReason = "mahjong"
	EndWallExhausted EndReason = "wall_exhausted"
)

// TurnEngine 行牌动作引擎，无状态服务
// 所有方法都在 Table 协程内被串行调用
type TurnEngine struct {
	validator *Validator
}

func NewTurnEngine(v *Validator) *TurnEngine {
	return &TurnEngine{validator: v}
}

// DrawResult 摸牌结果
type DrawResult struct {
	Seat      int    `json:"seat"`
	Tile      *Tile  `json:"tile,omitempty"` // 只私发给摸牌座位
	Flowers   []Tile `json:"flowers,omitempty"`
	WallCount int    `json:"wallCount"`
	GameOver  bool   `json:"gameOver"`
}

// Draw 当前座位从牌墙摸一张
// 摸到花牌自动亮花并补摸，牌墙摸空判荒庄
func (e *TurnEngine) Draw(gs *GameState, seat int) (*DrawResult, error) {
	if err := e.requireTurn(gs, seat); err != nil {
		return nil, err
	}
	if gs.CallOpen {
		return nil, fmt.Errorf("叫牌窗口未关闭，不能摸牌")
	}
	p := gs.Players[seat]
	if p.TileTotal() > HandSize {
		return nil, fmt.Errorf("座位 %d 已持有 %d 张，应先打出", seat, p.TileTotal())
	}

	result := &DrawResult{Seat: seat}
	for len(gs.Wall) > 0 {
		t := gs.Wall[0]
		gs.Wall = gs.Wall[1:]
		if t.IsFlower {
			p.Flowers = append(p.Flowers, t)
			result.Flowers = append(result.Flowers, t)
			continue
		}
		p.Rack = append(p.Rack, t)
		result.Tile = &t
		break
	}
	result.WallCount = len(gs.Wall)

	if result.Tile == nil {
		// 牌墙摸空，荒庄
		gs.Phase = PhaseFinished
		gs.Winner = -1
		result.GameOver = true
	}
	gs.Bump()
	return result, nil
}

// DiscardResult 打牌结果
type DiscardResult struct {
	Seat       int  `json:"seat"`
	Tile       Tile `json:"tile"`
	CallWindow bool `json:"callWindow"`
}

// Discard 当前座位打出一张，随后开启叫牌窗口
func (e *TurnEngine) Discard(gs *GameState, seat int, tileID int) (*DiscardResult, error) {
	if err := e.requireTurn(gs, seat); err != nil {
		return nil, err
	}
	if gs.CallOpen {
		return nil, fmt.Errorf("叫牌窗口未关闭，不能打牌")
	}
	p := gs.Players[seat]
	if p.TileTotal() <= HandSize {
		return nil, fmt.Errorf("座位 %d 只有 %d 张，应先摸牌", seat, p.TileTotal())
	}

	rest, tile, err := RemoveByID(p.Rack, tileID)
	if err != nil {
		return nil, err
	}
	p.Rack = rest
	p.Discards = append(p.Discards, tile)

	gs.LastDiscard = &tile
	gs.LastDiscardSeat = seat
	gs.CallOpen = true
	gs.CallClaims = gs.CallClaims[:0]
	gs.Bump()

	return &DiscardResult{Seat: seat, Tile: tile, CallWindow: true}, nil
}

// SubmitCall 叫牌窗口内登记一次申领
// 窗口关闭时统一结算，这里只做资格校验
func (e *TurnEngine) SubmitCall(gs *GameState, seat int, kind MeldKind) error {
	if gs.Phase != PhasePlaying {
		return fmt.Errorf("当前阶段 %s 不能叫牌", gs.Phase)
	}
	if !gs.CallOpen || gs.LastDiscard == nil {
		return fmt.Errorf("叫牌窗口未开启")
	}
	if seat == gs.LastDiscardSeat {
		return fmt.Errorf("不能叫自己打出的牌")
	}
	if kind != MeldPung && kind != MeldKong && kind != MeldQuint {
		return fmt.Errorf("不支持的叫牌类型 %s", kind)
	}
	for _, c := range gs.CallClaims {
		if c.Seat == seat {
			return fmt.Errorf("座位 %d 已申领过", seat)
		}
	}

	p := gs.Players[seat]
	need := kind.Size() - 1 // 弃牌补一张
	have := CountKind(p.Rack, *gs.LastDiscard) + CountJokers(p.Rack)
	if have < need {
		return fmt.Errorf("手牌不足以组成 %s", kind)
	}

	gs.CallClaims = append(gs.CallClaims, CallClaim{
		Seat:  seat,
		Kind:  kind,
		Order: len(gs.CallClaims),
	})
	gs.Bump()
	return nil
}

// CallOutcome 叫牌窗口结算结果
type CallOutcome struct {
	Claimed  bool  `json:"claimed"`
	Seat     int   `json:"seat"`
	Meld     *Meld `json:"meld,omitempty"`
	NextTurn int   `json:"nextTurn"`
}

// CloseCallWindow 关闭叫牌窗口并结算
// 杠/五张优先于碰，同级按到达顺序取先到者；无人申领则轮转到下家
func (e *TurnEngine) CloseCallWindow(gs *GameState) (*CallOutcome, error) {
	if gs.Phase != PhasePlaying {
		return nil, fmt.Errorf("当前阶段 %s 没有叫牌窗口", gs.Phase)
	}
	if !gs.CallOpen {
		return nil, fmt.Errorf("叫牌窗口未开启")
	}
	gs.CallOpen = false

	winner := e.pickClaim(gs.CallClaims)
	gs.CallClaims = nil

	if winner == nil {
		gs.Current = (gs.LastDiscardSeat + 1) % 4
		gs.Bump()
		return &CallOutcome{Claimed: false, Seat: -1, NextTurn: gs.Current}, nil
	}

	meld, err := e.applyClaim(gs, *winner)
	if err != nil {
		// 结算时手牌已变（不应发生），按无人申领处理
		gs.Current = (gs.LastDiscardSeat + 1) % 4
		gs.Bump()
		return &CallOutcome{Claimed: false, Seat: -1, NextTurn: gs.Current}, err
	}

	gs.Current = winner.Seat
	gs.Bump()
	return &CallOutcome{Claimed: true, Seat: winner.Seat, Meld: meld, NextTurn: winner.Seat}, nil
}

func (e *TurnEngine) pickClaim(claims []CallClaim) *CallClaim {
	var best *CallClaim
	for i := range claims {
		c := &claims[i]
		if best == nil || claimRank(c.Kind) > claimRank(best.Kind) ||
			(claimRank(c.Kind) == claimRank(best.Kind) && c.Order < best.Order) {
			best = c
		}
	}
	return best
}

func claimRank(k MeldKind) int {
	switch k {
	case MeldQuint, MeldKong:
		return 2
	case MeldPung:
		return 1
	default:
		return 0
	}
}

// applyClaim 把弃牌并入申领座位的明牌组
func (e *TurnEngine) applyClaim(gs *GameState, c CallClaim) (*Meld, error) {
	p := gs.Players[c.Seat]
	discard := *gs.LastDiscard

	rest, taken, err := TakeKindAndJokers(p.Rack, discard, c.Kind.Size()-1)
	if err != nil {
		return nil, err
	}
	p.Rack = rest

	// 从打出者的弃牌堆收回
	d := gs.Players[gs.LastDiscardSeat].Discards
	gs.Players[gs.LastDiscardSeat].Discards = d[:len(d)-1]
	gs.LastDiscard = nil

	meld := Meld{
		Kind:       c.Kind,
		Tiles:      append(taken, discard),
		Concealed:  false,
		CalledFrom: gs.LastDiscardSeat,
	}
	p.Melds = append(p.Melds, meld)
	return &meld, nil
}

// Expose 主动亮牌（摸牌后把手中成组的牌亮出，常见于摸回第四张杠）
func (e *TurnEngine) Expose(gs *GameState, seat int, kind MeldKind, tileIDs []int) (*Meld, error) {
	if err := e.requireTurn(gs, seat); err != nil {
		return nil, err
	}
	if kind != MeldPung && kind != MeldKong && kind != MeldQuint {
		return nil, fmt.Errorf("不支持的亮牌类型 %s", kind)
	}
	if len(tileIDs) != kind.Size() {
		return nil, fmt.Errorf("%s 需要 %d 张，收到 %d 张", kind, kind.Size(), len(tileIDs))
	}

	p := gs.Players[seat]
	rest, tiles, err := RemoveByIDs(p.Rack, tileIDs)
	if err != nil {
		return nil, err
	}

	// 除百搭外必须同种
	var base *Tile
	for i := range tiles {
		if tiles[i].IsJoker {
			continue
		}
		if tiles[i].IsFlower {
			return nil, fmt.Errorf("花牌不能组成牌组")
		}
		if base == nil {
			base = &tiles[i]
			continue
		}
		if !base.SameKind(tiles[i]) {
			return nil, fmt.Errorf("亮出的牌不是同一种")
		}
	}

	p.Rack = rest
	meld := Meld{Kind: kind, Tiles: tiles, Concealed: false, CalledFrom: -1}
	p.Melds = append(p.Melds, meld)
	gs.Bump()
	return &meld, nil
}

// WinResult 胡牌判定结果
type WinResult struct {
	Accepted bool   `json:"accepted"`
	Seat     int    `json:"seat"`
	Pattern  string `json:"pattern,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// DeclareWin 声明胡牌
// 判定不通过时只驳回声明，牌局继续，不做罚则
func (e *TurnEngine) DeclareWin(gs *GameState, seat int, patterns []*HandPattern) (*WinResult, error) {
	if gs.Phase != PhasePlaying {
		return nil, fmt.Errorf("当前阶段 %s 不能胡牌", gs.Phase)
	}
	p := gs.Players[seat]

	rack := p.Rack
	// 叫胡：把刚打出的牌并入判定
	claiming := gs.CallOpen && gs.LastDiscard != nil && seat != gs.LastDiscardSeat
	if claiming {
		rack = append(append([]Tile(nil), rack...), *gs.LastDiscard)
	} else if seat != gs.Current {
		return nil, fmt.Errorf("还没轮到座位 %d", seat)
	}

	matched, reason := e.validator.ValidateWin(rack, p.Melds, p.Flowers, patterns)
	if matched == nil {
		// 驳回不改变任何状态，Seq 不动，已排程的超时回调保持有效
		return &WinResult{Accepted: false, Seat: seat, Reason: reason}, nil
	}

	if claiming {
		p.Rack = rack
		d := gs.Players[gs.LastDiscardSeat].Discards
		gs.Players[gs.LastDiscardSeat].Discards = d[:len(d)-1]
		gs.LastDiscard = nil
		gs.CallOpen = false
		gs.CallClaims = nil
	}

	gs.Phase = PhaseFinished
	gs.Winner = seat
	gs.WinPattern = matched.Name
	gs.Bump()
	return &WinResult{Accepted: true, Seat: seat, Pattern: matched.Name}, nil
}

func (e *TurnEngine) requireTurn(gs *GameState, seat int) error {
	if gs.Phase != PhasePlaying {
		return fmt.Errorf("当前阶段 %s 不能行牌", gs.Phase)
	}
	if seat < 0 || seat > 3 || gs.Players[seat] == nil {
		return fmt.Errorf("无效座位 %d", seat)
	}
	if gs.Current != seat {
		return fmt.Errorf("还没轮到座位 %d", seat)
	}
	return nil
}
