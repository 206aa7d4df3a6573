package amj

import (
	"fmt"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/cache"
)

// ClassKind 牌型集合里抽象牌类的种类
type ClassKind string

const (
	ClassLiteral ClassKind = "literal" // 指定类别 + 取值
	ClassSuited  ClassKind = "suited"  // 某门数牌的任意取值
	ClassEvens   ClassKind = "evens"   // 某门数牌的偶数
	ClassOdds    ClassKind = "odds"    // 某门数牌的奇数
	ClassDragons ClassKind = "dragons" // 任意箭牌
	ClassWinds   ClassKind = "winds"   // 任意风牌
)

// TileClass 抽象牌类谓词，牌型定义中的数据
type TileClass struct {
	Kind  ClassKind `json:"kind"`
	Suit  Suit      `json:"suit,omitempty"`
	Value int       `json:"value,omitempty"`
}

// Matches 判断一张实牌是否满足该牌类（百搭永远不直接匹配）
func (c TileClass) Matches(t Tile) bool {
	if t.IsJoker || t.IsFlower {
		return false
	}
	switch c.Kind {
	case ClassLiteral:
		return t.Suit == c.Suit && t.Value == c.Value
	case ClassSuited:
		return t.Suit == c.Suit
	case ClassEvens:
		return t.Suit == c.Suit && t.Value%2 == 0
	case ClassOdds:
		return t.Suit == c.Suit && t.Value%2 == 1
	case ClassDragons:
		return t.Suit == SuitDragons
	case ClassWinds:
		return t.Suit == SuitWinds
	default:
		return false
	}
}

// PatternSet 牌型中要求的一组牌
type PatternSet struct {
	Kind  MeldKind  `json:"kind"`
	Class TileClass `json:"class"`
}

// HandPattern 计分牌型定义，外部数据，只读
type HandPattern struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Sets             []PatternSet `json:"sets"`
	AllowJokers      bool         `json:"allowJokers"`
	RequireConcealed bool         `json:"requireConcealed"`
	RequireFlowers   bool         `json:"requireFlowers"`
}

// WinTileCount 和牌必须恰好 14 张（手牌 + 牌组）
const WinTileCount = 14

// Validator 牌型校验器，无状态服务，进程启动时创建一个
// 校验结果按（手牌签名, 牌型）缓存
type Validator struct {
	cache *cache.GeneralCache
}

func NewValidator(c *cache.GeneralCache) *Validator {
	return &Validator{cache: c}
}

// ValidateWin 依次尝试每个牌型，返回第一个完全匹配的
// 牌型列表的顺序由调用方决定，也因此决定了多重匹配时的取舍
// 全部失败时返回 nil 和最后一个可读原因
func (v *Validator) ValidateWin(rack []Tile, melds []Meld, flowers []Tile, patterns []*HandPattern) (*HandPattern, string) {
	pool := make([]Tile, 0, WinTileCount)
	pool = append(pool, rack...)
	exposed := false
	for _, m := range melds {
		pool = append(pool, m.Tiles...)
		if !m.Concealed {
			exposed = true
		}
	}

	reason := "没有可用的牌型"
	sig := RackSignature(pool)

	for _, p := range patterns {
		if p == nil {
			continue
		}
		// 前置检查依赖花牌、门清等缓存键之外的状态，每次现算，结果不进缓存
		if r := v.precheck(p, pool, flowers, exposed); r != "" {
			reason = fmt.Sprintf("牌型 %s: %s", p.Name, r)
			continue
		}

		key := sig + "|" + p.ID
		if v.cache != nil {
			if hit, ok := v.cache.Get(key); ok {
				if matched, _ := hit.(bool); matched {
					return p, ""
				}
				continue
			}
		}

		r := v.validateOne(p, pool)
		if v.cache != nil {
			v.cache.Set(key, r == "")
		}
		if r == "" {
			return p, ""
		}
		reason = fmt.Sprintf("牌型 %s: %s", p.Name, r)
	}

	return nil, reason
}

// precheck 与外部条件相关的前置检查
func (v *Validator) precheck(p *HandPattern, pool []Tile, flowers []Tile, exposed bool) string {
	if p.RequireFlowers && len(flowers) == 0 {
		return "该牌型要求持有花牌"
	}
	if p.RequireConcealed && exposed {
		return "该牌型要求门前清，存在明牌牌组"
	}
	if !p.AllowJokers && CountJokers(pool) > 0 {
		return "该牌型不允许百搭"
	}
	if len(pool) != WinTileCount {
		return fmt.Sprintf("牌数 %d，和牌需要恰好 %d 张", len(pool), WinTileCount)
	}
	return ""
}

// validateOne 按声明顺序贪心消耗牌池
// 已知局限：贪心不回溯，前面的集合可能吃掉后面集合需要的牌，
// 导致个别真实和牌被拒，这是沿用的产品行为，不要在这里“修复”
func (v *Validator) validateOne(p *HandPattern, pool []Tile) string {
	remaining := make([]Tile, len(pool))
	copy(remaining, pool)

	for i, set := range p.Sets {
		var err error
		remaining, err = consumeSet(remaining, set, p.AllowJokers)
		if err != nil {
			return fmt.Sprintf("第 %d 组不满足: %v", i+1, err)
		}
	}

	if len(remaining) != 0 {
		return fmt.Sprintf("满足所有集合后仍剩 %d 张牌", len(remaining))
	}
	return ""
}

// consumeSet 从牌池里取出满足一组要求的牌
// 先找同类同值张数最多的实牌组，不足且允许时用百搭补齐
func consumeSet(pool []Tile, set PatternSet, allowJokers bool) ([]Tile, error) {
	need := set.Kind.Size()
	if need == 0 {
		return pool, fmt.Errorf("未知的牌组类型 %q", set.Kind)
	}

	// 满足牌类的实牌按同类同值分组
	groups := make(map[string][]int) // code -> pool 下标
	order := make([]string, 0, 8)
	for i, t := range pool {
		if set.Class.Matches(t) {
			code := t.Code()
			if _, ok := groups[code]; !ok {
				order = append(order, code)
			}
			groups[code] = append(groups[code], i)
		}
	}

	best := ""
	for _, code := range order {
		if best == "" || len(groups[code]) > len(groups[best]) {
			best = code
		}
	}
	if best == "" && !allowJokers {
		return pool, fmt.Errorf("牌池中没有满足牌类的牌")
	}

	take := make(map[int]bool, need)
	if best != "" {
		for _, idx := range groups[best] {
			if len(take) == need {
				break
			}
			take[idx] = true
		}
	}

	if len(take) < need {
		if !allowJokers {
			return pool, fmt.Errorf("实牌只有 %d 张，需要 %d 张", len(take), need)
		}
		for i, t := range pool {
			if len(take) == need {
				break
			}
			if t.IsJoker && !take[i] {
				take[i] = true
			}
		}
	}
	if len(take) < need {
		return pool, fmt.Errorf("实牌加百搭只有 %d 张，需要 %d 张", len(take), need)
	}

	rest := make([]Tile, 0, len(pool)-need)
	for i, t := range pool {
		if !take[i] {
			rest = append(rest, t)
		}
	}
	return rest, nil
}
