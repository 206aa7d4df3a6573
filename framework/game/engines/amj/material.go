package amj

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// Suit 牌的类别
// 美式麻将一共九类：三门数牌、风、箭、花、季、百搭、白板（白板不入局）
type Suit int

const (
	SuitDots    Suit = iota // 筒
	SuitBams                // 条
	SuitCraks               // 万
	SuitWinds               // 风（东南西北）
	SuitDragons             // 箭（红中、发财、白板龙）
	SuitFlowers             // 花（4 张，各不相同）
	SuitSeasons             // 季（4 张，各不相同，与花同等对待）
	SuitJokers              // 百搭
	SuitBlanks              // 备用白板，不参与发牌
)

// 风与箭的取值编码
const (
	WindEast  = 1
	WindSouth = 2
	WindWest  = 3
	WindNorth = 4

	DragonRed   = 1
	DragonGreen = 2
	DragonSoap  = 3
)

// Tile 一张牌，创建后不可变
// ID 在一副牌内全局唯一（0-151），用于守恒校验
type Tile struct {
	ID       int  `json:"id"`
	Suit     Suit `json:"suit"`
	Value    int  `json:"value"`
	IsJoker  bool `json:"isJoker"`
	IsFlower bool `json:"isFlower"`
}

// FullSetSize 一副完整牌的张数
const FullSetSize = 152

var windCodes = map[int]string{WindEast: "E", WindSouth: "S", WindWest: "W", WindNorth: "N"}
var dragonCodes = map[int]string{DragonRed: "R", DragonGreen: "G", DragonSoap: "0"}

// Code 牌的展示编码，如 "2D"、"E"、"F3"、"J"
func (t Tile) Code() string {
	switch t.Suit {
	case SuitDots:
		return fmt.Sprintf("%dD", t.Value)
	case SuitBams:
		return fmt.Sprintf("%dB", t.Value)
	case SuitCraks:
		return fmt.Sprintf("%dC", t.Value)
	case SuitWinds:
		return windCodes[t.Value]
	case SuitDragons:
		return dragonCodes[t.Value] + "D"
	case SuitFlowers:
		return fmt.Sprintf("F%d", t.Value)
	case SuitSeasons:
		return fmt.Sprintf("S%d", t.Value)
	case SuitJokers:
		return "J"
	default:
		return "?"
	}
}

// SameKind 判断两张牌是否同类同值（百搭除外，不与任何牌同类）
func (t Tile) SameKind(other Tile) bool {
	if t.IsJoker || other.IsJoker {
		return false
	}
	return t.Suit == other.Suit && t.Value == other.Value
}

// GenerateFullSet 生成一副完整的 152 张牌
// 4×(1-9 三门数牌) + 4×4 风 + 4×3 箭 + 8 张各不相同的花/季 + 8 张百搭
func GenerateFullSet() []Tile {
	tiles := make([]Tile, 0, FullSetSize)
	id := 0

	add := func(suit Suit, value int, joker, flower bool) {
		tiles = append(tiles, Tile{ID: id, Suit: suit, Value: value, IsJoker: joker, IsFlower: flower})
		id++
	}

	for _, suit := range []Suit{SuitDots, SuitBams, SuitCraks} {
		for value := 1; value <= 9; value++ {
			for i := 0; i < 4; i++ {
				add(suit, value, false, false)
			}
		}
	}
	for value := WindEast; value <= WindNorth; value++ {
		for i := 0; i < 4; i++ {
			add(SuitWinds, value, false, false)
		}
	}
	for value := DragonRed; value <= DragonSoap; value++ {
		for i := 0; i < 4; i++ {
			add(SuitDragons, value, false, false)
		}
	}
	for value := 1; value <= 4; value++ {
		add(SuitFlowers, value, false, true)
	}
	for value := 1; value <= 4; value++ {
		add(SuitSeasons, value, false, true)
	}
	for i := 0; i < 8; i++ {
		add(SuitJokers, 0, true, false)
	}

	return tiles
}

// lcg 线性同余随机数发生器
// 同一种子必然产生同一序列，用于对局回放与公平性审计
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg {
	return &lcg{state: seed}
}

func (l *lcg) next() uint64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return l.state
}

// intn 返回 [0, n) 的伪随机数，取高位避免低位周期性
func (l *lcg) intn(n int) int {
	return int((l.next() >> 33) % uint64(n))
}

// SeedFrom 把种子字符串散列为 LCG 初始状态
// 空种子视为无效，回退到时间种子
func SeedFrom(seed string) uint64 {
	if strings.TrimSpace(seed) == "" {
		return uint64(time.Now().UnixNano())
	}
	h := fnv.New64a()
	h.Write([]byte(seed))
	return h.Sum64()
}

// Shuffle 带种子的洗牌，不修改入参
func Shuffle(tiles []Tile, seed string) []Tile {
	out := make([]Tile, len(tiles))
	copy(out, tiles)

	rng := newLCG(SeedFrom(seed))
	for i := len(out) - 1; i > 0; i-- {
		j := rng.intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// HandSize 起手牌张数
const HandSize = 13

// Deal 轮流给 4 个座位各发 13 张，剩余做牌墙
func Deal(shuffled []Tile) ([4][]Tile, []Tile) {
	var hands [4][]Tile
	for seat := 0; seat < 4; seat++ {
		hands[seat] = make([]Tile, 0, HandSize+1)
	}

	idx := 0
	for round := 0; round < HandSize; round++ {
		for seat := 0; seat < 4; seat++ {
			hands[seat] = append(hands[seat], shuffled[idx])
			idx++
		}
	}

	wall := make([]Tile, len(shuffled)-idx)
	copy(wall, shuffled[idx:])
	return hands, wall
}
