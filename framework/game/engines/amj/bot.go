package amj

import (
	"math/rand"
	"time"
)

// BotActionType 机器人决策出的动作
type BotActionType string

const (
	BotDraw    BotActionType = "draw"
	BotDiscard BotActionType = "discard"
	BotMahjong BotActionType = "declare_mahjong"
)

// BotAction 机器人在自己回合要执行的动作
type BotAction struct {
	Type   BotActionType
	TileID int
}

// Bot 机器人决策引擎，无状态服务
// 决策只读取传入的牌面，随机性走全局 rand，多桌共享安全
type Bot struct{}

func NewBot() *Bot {
	return &Bot{}
}

// ThinkDelay 模拟思考时间，难度越高想得越久
func (b *Bot) ThinkDelay(d Difficulty) time.Duration {
	var lo, hi int
	switch d {
	case DifficultyHard:
		lo, hi = 1500, 3500
	case DifficultyMedium:
		lo, hi = 1000, 2500
	default:
		lo, hi = 600, 1500
	}
	return time.Duration(lo+rand.Intn(hi-lo)) * time.Millisecond
}

// Decide 轮到机器人时决定下一步
// 先摸牌，摸满后尝试胡，胡不了就打出最没用的一张
func (b *Bot) Decide(gs *GameState, seat int, patterns []*HandPattern, v *Validator) BotAction {
	p := gs.Players[seat]
	if p.TileTotal() <= HandSize {
		return BotAction{Type: BotDraw}
	}
	if matched, _ := v.ValidateWin(p.Rack, p.Melds, p.Flowers, patterns); matched != nil {
		return BotAction{Type: BotMahjong}
	}
	return BotAction{Type: BotDiscard, TileID: b.ChooseDiscard(p.Rack, p.Difficulty)}
}

// ChooseDiscard 选一张打出
// 百搭和花牌永远不打；简单难度在可打的牌里随机，其余按有用度打最低的
func (b *Bot) ChooseDiscard(rack []Tile, d Difficulty) int {
	candidates := make([]Tile, 0, len(rack))
	for _, t := range rack {
		if t.IsJoker || t.IsFlower {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		// 手里只剩百搭，退而求其次
		return rack[len(rack)-1].ID
	}

	if d == DifficultyEasy {
		return candidates[rand.Intn(len(candidates))].ID
	}

	worst := candidates[0]
	worstScore := b.usefulness(rack, worst, d)
	for _, t := range candidates[1:] {
		if s := b.usefulness(rack, t, d); s < worstScore {
			worst, worstScore = t, s
		}
	}
	return worst.ID
}

// usefulness 一张牌对成牌的粗略贡献度
// 同种越多越有用，高难度额外看重能被百搭补成杠的对子和刻子
func (b *Bot) usefulness(rack []Tile, t Tile, d Difficulty) int {
	copies := CountKind(rack, t)
	score := copies * 10
	if d == DifficultyHard && copies >= 2 {
		score += CountJokers(rack) * 5
	}
	if t.Suit == SuitDragons || t.Suit == SuitWinds {
		// 字牌单张留着没什么指望
		if copies == 1 {
			score -= 4
		}
	}
	return score
}

// CharlestonPass 查尔斯顿传出 count 张
// 从有用度最低的非百搭牌里取
func (b *Bot) CharlestonPass(rack []Tile, d Difficulty, count int) []Tile {
	type scored struct {
		tile  Tile
		score int
	}
	candidates := make([]scored, 0, len(rack))
	for _, t := range rack {
		if t.IsJoker || t.IsFlower {
			continue
		}
		candidates = append(candidates, scored{t, b.usefulness(rack, t, d)})
	}
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].score < candidates[j-1].score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	if count > len(candidates) {
		count = len(candidates)
	}
	picks := make([]Tile, 0, count)
	for _, c := range candidates[:count] {
		picks = append(picks, c.tile)
	}
	return picks
}

// CourtesyCount 礼节传牌张数
// 高难度只传真正没用的牌，简单难度随机
func (b *Bot) CourtesyCount(d Difficulty) int {
	switch d {
	case DifficultyHard:
		return 1
	case DifficultyMedium:
		return 2
	default:
		return rand.Intn(PassTileCount + 1)
	}
}

// Vote 第二轮继续/停止投票
// 各难度都偏向继续，难度越低偏得越多
func (b *Bot) Vote(d Difficulty) string {
	var continueChance int
	switch d {
	case DifficultyHard:
		continueChance = 55
	case DifficultyMedium:
		continueChance = 60
	default:
		continueChance = 80
	}
	if rand.Intn(100) < continueChance {
		return VoteContinue
	}
	return VoteStop
}

// ShouldCall 是否申领刚打出的牌
// 高难度愿意用百搭凑杠，简单难度只在手里有现成刻子时才碰
func (b *Bot) ShouldCall(rack []Tile, discard Tile, d Difficulty) (MeldKind, bool) {
	if discard.IsJoker || discard.IsFlower {
		return "", false
	}
	copies := CountKind(rack, discard)
	jokers := CountJokers(rack)

	switch d {
	case DifficultyHard:
		if copies+jokers >= 4 {
			return MeldQuint, true
		}
		if copies+jokers >= 3 {
			return MeldKong, true
		}
		if copies >= 2 {
			return MeldPung, true
		}
	case DifficultyMedium:
		if copies >= 3 {
			return MeldKong, true
		}
		if copies >= 2 {
			return MeldPung, true
		}
	default:
		if copies >= 3 && rand.Intn(100) < 50 {
			return MeldKong, true
		}
		if copies >= 2 && rand.Intn(100) < 30 {
			return MeldPung, true
		}
	}
	return "", false
}
