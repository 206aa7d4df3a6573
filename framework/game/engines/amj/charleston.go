package amj

import (
	"fmt"
)

// Direction 传牌方向
type Direction string

const (
	DirRight  Direction = "right"
	DirAcross Direction = "across"
	DirLeft   Direction = "left"
)

// 查尔斯顿阶段编号
// 1-3 第一轮（右、对、左），3.5 投票，4-6 第二轮（左、对、右），
// 7 礼节传牌（对家，0-3 张），8 结束并转入行牌
const (
	charlestonFirst    = 1
	charlestonVoteGate = 3
	charlestonSecond   = 4
	charlestonCourtesy = 7
	charlestonDone     = 8
)

// PassTileCount 常规阶段每次必须传 3 张
const PassTileCount = 3

var phaseDirections = map[int]Direction{
	1: DirRight,
	2: DirAcross,
	3: DirLeft,
	4: DirLeft,
	5: DirAcross,
	6: DirRight,
	7: DirAcross,
}

var phaseNames = map[int]string{
	1: "第一轮·传右",
	2: "第一轮·传对家",
	3: "第一轮·传左",
	4: "第二轮·传左",
	5: "第二轮·传对家",
	6: "第二轮·传右",
	7: "礼节传牌",
}

// PassTarget 座位 seat 在方向 dir 下把牌传给谁
func PassTarget(dir Direction, seat int) int {
	switch dir {
	case DirRight:
		return (seat + 1) % 4
	case DirAcross:
		return (seat + 2) % 4
	default: // left
		return (seat + 3) % 4
	}
}

// PassSource 座位 seat 在方向 dir 下收到的牌来自谁
func PassSource(dir Direction, seat int) int {
	switch dir {
	case DirRight:
		return (seat + 3) % 4
	case DirAcross:
		return (seat + 2) % 4
	default: // left
		return (seat + 1) % 4
	}
}

// Charleston 查尔斯顿协调器，无状态服务
// 状态全部放在 GameState.Charleston 里，由 Table 协程串行驱动
type Charleston struct {
	bot *Bot
}

func NewCharleston(bot *Bot) *Charleston {
	return &Charleston{bot: bot}
}

// PhaseInfo 当前阶段的广播信息
type PhaseInfo struct {
	Phase         float64   `json:"phase"`
	PhaseName     string    `json:"phaseName"`
	Direction     Direction `json:"direction"`
	RequiredTiles int       `json:"requiredTiles"`
}

// ExchangeResult 一个阶段完成后的交换结果
type ExchangeResult struct {
	Phase       int            `json:"phase"`
	Direction   Direction      `json:"direction"`
	Received    map[int][]Tile `json:"received"`    // seat -> 收到的牌（只私发给对应座位）
	VotePending bool           `json:"votePending"` // 进入 3.5 投票
	Finished    bool           `json:"finished"`    // 阶段 8，转入行牌
	NextPhase   *PhaseInfo     `json:"nextPhase,omitempty"`
}

// Begin 开始查尔斯顿
func (c *Charleston) Begin(gs *GameState) (*PhaseInfo, error) {
	if gs.Phase != PhaseSetup {
		return nil, fmt.Errorf("当前阶段 %s 不能开始查尔斯顿", gs.Phase)
	}
	gs.Phase = PhaseCharleston
	gs.Charleston = &CharlestonState{
		Phase:   charlestonFirst,
		Pending: make(map[int][]Tile),
		Votes:   make(map[int]string),
	}
	gs.Bump()
	return c.phaseInfo(gs), nil
}

func (c *Charleston) phaseInfo(gs *GameState) *PhaseInfo {
	cs := gs.Charleston
	required := PassTileCount
	if cs.Phase == charlestonCourtesy {
		required = 0 // 0-3 张
	}
	return &PhaseInfo{
		Phase:         cs.PhaseNumber(),
		PhaseName:     phaseNames[cs.Phase],
		Direction:     phaseDirections[cs.Phase],
		RequiredTiles: required,
	}
}

// SubmitPass 座位 seat 提交本阶段要传出的牌
// 校验失败只报告给提交者，共享状态不被触碰
func (c *Charleston) SubmitPass(gs *GameState, seat int, tileIDs []int) (*ExchangeResult, error) {
	if gs.Phase != PhaseCharleston {
		return nil, fmt.Errorf("当前阶段 %s 不接受查尔斯顿传牌", gs.Phase)
	}
	cs := gs.Charleston
	if cs.Voting {
		return nil, fmt.Errorf("正在等待第二轮投票，不能传牌")
	}
	if cs.Phase >= charlestonDone {
		return nil, fmt.Errorf("查尔斯顿已结束")
	}
	if _, dup := cs.Pending[seat]; dup {
		return nil, fmt.Errorf("座位 %d 本阶段已提交过传牌", seat)
	}

	if cs.Phase == charlestonCourtesy {
		if len(tileIDs) > PassTileCount {
			return nil, fmt.Errorf("礼节传牌最多 %d 张，收到 %d 张", PassTileCount, len(tileIDs))
		}
	} else if len(tileIDs) != PassTileCount {
		return nil, fmt.Errorf("本阶段必须传 %d 张，收到 %d 张", PassTileCount, len(tileIDs))
	}

	p := gs.Players[seat]
	tiles := make([]Tile, 0, len(tileIDs))
	seen := make(map[int]bool, len(tileIDs))
	for _, id := range tileIDs {
		if seen[id] {
			return nil, fmt.Errorf("传牌列表中 ID %d 重复", id)
		}
		seen[id] = true
		t, ok := FindByID(p.Rack, id)
		if !ok {
			return nil, fmt.Errorf("手牌中没有 ID 为 %d 的牌", id)
		}
		if t.IsJoker {
			return nil, fmt.Errorf("百搭不能在查尔斯顿中传出")
		}
		tiles = append(tiles, t)
	}

	cs.Pending[seat] = tiles
	gs.Bump()

	return c.completeIfReady(gs)
}

// FillBotPasses 为所有尚未提交的机器人座位合成传牌
// 人类全部掉线时也能靠它推进整轮
func (c *Charleston) FillBotPasses(gs *GameState) (*ExchangeResult, error) {
	if gs.Phase != PhaseCharleston || gs.Charleston.Voting || gs.Charleston.Phase >= charlestonDone {
		return nil, nil
	}
	cs := gs.Charleston
	for seat, p := range gs.Players {
		if p == nil || !p.IsBot {
			continue
		}
		if _, done := cs.Pending[seat]; done {
			continue
		}
		count := PassTileCount
		if cs.Phase == charlestonCourtesy {
			count = c.bot.CourtesyCount(p.Difficulty)
		}
		picks := c.bot.CharlestonPass(p.Rack, p.Difficulty, count)
		cs.Pending[seat] = picks
		gs.Bump()
	}
	return c.completeIfReady(gs)
}

// completeIfReady 四个座位都已提交时执行一次原子交换
func (c *Charleston) completeIfReady(gs *GameState) (*ExchangeResult, error) {
	cs := gs.Charleston
	if len(cs.Pending) < 4 {
		return nil, nil
	}

	dir := phaseDirections[cs.Phase]
	received := make(map[int][]Tile, 4)

	// 先校验四个座位的移出都能成功，任何一处失败则整轮不生效
	var rests [4][]Tile
	for seat := 0; seat < 4; seat++ {
		ids := make([]int, 0, len(cs.Pending[seat]))
		for _, t := range cs.Pending[seat] {
			ids = append(ids, t.ID)
		}
		rest, _, err := RemoveByIDs(gs.Players[seat].Rack, ids)
		if err != nil {
			cs.Pending = make(map[int][]Tile)
			return nil, fmt.Errorf("交换阶段 %d 失败: %v", cs.Phase, err)
		}
		rests[seat] = rest
	}
	for seat := 0; seat < 4; seat++ {
		gs.Players[seat].Rack = rests[seat]
	}
	for seat := 0; seat < 4; seat++ {
		target := PassTarget(dir, seat)
		gs.Players[target].Rack = append(gs.Players[target].Rack, cs.Pending[seat]...)
		received[target] = cs.Pending[seat]
	}

	result := &ExchangeResult{
		Phase:     cs.Phase,
		Direction: dir,
		Received:  received,
	}

	completed := cs.Phase
	cs.Pending = make(map[int][]Tile)

	switch {
	case completed == charlestonVoteGate:
		cs.Voting = true
		cs.Votes = make(map[int]string)
		result.VotePending = true
	case completed == charlestonCourtesy:
		c.finish(gs)
		result.Finished = true
	default:
		cs.Phase = completed + 1
		result.NextPhase = c.phaseInfo(gs)
	}

	gs.Bump()
	return result, nil
}

// VoteResult 投票推进结果
type VoteResult struct {
	VotesReceived int        `json:"votesReceived"`
	VotesRequired int        `json:"votesRequired"`
	Decided       bool       `json:"decided"`
	Continue      bool       `json:"continue"`
	NextPhase     *PhaseInfo `json:"nextPhase,omitempty"`
}

// SubmitVote 提交第二轮继续/停止投票
// 多数继续则进入阶段 4，平票按继续处理，否则直接跳到礼节传牌
func (c *Charleston) SubmitVote(gs *GameState, seat int, decision string) (*VoteResult, error) {
	if gs.Phase != PhaseCharleston || gs.Charleston == nil || !gs.Charleston.Voting {
		return nil, fmt.Errorf("当前不在查尔斯顿投票阶段")
	}
	if decision != VoteContinue && decision != VoteStop {
		return nil, fmt.Errorf("无效的投票选项 %q", decision)
	}
	cs := gs.Charleston
	if _, dup := cs.Votes[seat]; dup {
		return nil, fmt.Errorf("座位 %d 已投过票", seat)
	}

	cs.Votes[seat] = decision
	gs.Bump()
	return c.tallyIfReady(gs), nil
}

// FillBotVotes 为未投票的机器人座位合成投票
func (c *Charleston) FillBotVotes(gs *GameState) *VoteResult {
	if gs.Phase != PhaseCharleston || gs.Charleston == nil || !gs.Charleston.Voting {
		return nil
	}
	cs := gs.Charleston
	for seat, p := range gs.Players {
		if p == nil || !p.IsBot {
			continue
		}
		if _, done := cs.Votes[seat]; done {
			continue
		}
		cs.Votes[seat] = c.bot.Vote(p.Difficulty)
		gs.Bump()
	}
	return c.tallyIfReady(gs)
}

func (c *Charleston) tallyIfReady(gs *GameState) *VoteResult {
	cs := gs.Charleston
	result := &VoteResult{
		VotesReceived: len(cs.Votes),
		VotesRequired: 4,
	}
	if len(cs.Votes) < 4 {
		return result
	}

	continues := 0
	for _, v := range cs.Votes {
		if v == VoteContinue {
			continues++
		}
	}

	// 平票偏向继续
	cont := continues*2 >= 4
	cs.Voting = false
	if cont {
		cs.Phase = charlestonSecond
	} else {
		cs.Phase = charlestonCourtesy
	}

	result.Decided = true
	result.Continue = cont
	result.NextPhase = c.phaseInfo(gs)
	gs.Bump()
	return result
}

// finish 阶段 8：转入行牌，座位 0 先摸一张成为 14 张起手
func (c *Charleston) finish(gs *GameState) {
	gs.Charleston.Phase = charlestonDone
	gs.Phase = PhasePlaying
	gs.Current = 0

	first := gs.Players[0]
	for len(gs.Wall) > 0 {
		t := gs.Wall[0]
		gs.Wall = gs.Wall[1:]
		if t.IsFlower {
			first.Flowers = append(first.Flowers, t)
			continue
		}
		first.Rack = append(first.Rack, t)
		break
	}
	gs.Charleston = nil
}
