package amj

import (
	"fmt"
	"sort"
	"strings"
)

// SortRack 手牌排序：先按类别，同类按取值，百搭排最后
// 返回新切片，不修改入参
func SortRack(rack []Tile) []Tile {
	out := make([]Tile, len(rack))
	copy(out, rack)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Suit != out[j].Suit {
			return out[i].Suit < out[j].Suit
		}
		if out[i].Value != out[j].Value {
			return out[i].Value < out[j].Value
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// CountKind 统计手牌中与 target 同类同值的张数
func CountKind(rack []Tile, target Tile) int {
	count := 0
	for _, t := range rack {
		if t.SameKind(target) {
			count++
		}
	}
	return count
}

// CountJokers 统计手牌中百搭的张数
func CountJokers(rack []Tile) int {
	count := 0
	for _, t := range rack {
		if t.IsJoker {
			count++
		}
	}
	return count
}

// FindByID 按 ID 查找手牌
func FindByID(rack []Tile, tileID int) (Tile, bool) {
	for _, t := range rack {
		if t.ID == tileID {
			return t, true
		}
	}
	return Tile{}, false
}

// RemoveByID 从手牌中移除指定 ID 的一张牌
// 找不到时返回错误，手牌保持不变
func RemoveByID(rack []Tile, tileID int) ([]Tile, Tile, error) {
	for i, t := range rack {
		if t.ID == tileID {
			out := make([]Tile, 0, len(rack)-1)
			out = append(out, rack[:i]...)
			out = append(out, rack[i+1:]...)
			return out, t, nil
		}
	}
	return rack, Tile{}, fmt.Errorf("手牌中没有 ID 为 %d 的牌", tileID)
}

// RemoveByIDs 批量移除，任何一张缺失则整体失败
func RemoveByIDs(rack []Tile, tileIDs []int) ([]Tile, []Tile, error) {
	out := rack
	removed := make([]Tile, 0, len(tileIDs))
	for _, id := range tileIDs {
		var t Tile
		var err error
		out, t, err = RemoveByID(out, id)
		if err != nil {
			return rack, nil, err
		}
		removed = append(removed, t)
	}
	return out, removed, nil
}

// TakeKindAndJokers 从手牌中取出 n 张用于组成指定牌型
// 优先取同类同值的实牌，不足时用百搭补齐
// 返回取出的牌和剩余手牌；凑不够时返回错误
func TakeKindAndJokers(rack []Tile, target Tile, n int) ([]Tile, []Tile, error) {
	taken := make([]Tile, 0, n)
	rest := make([]Tile, 0, len(rack))

	for _, t := range rack {
		if len(taken) < n && t.SameKind(target) {
			taken = append(taken, t)
		} else {
			rest = append(rest, t)
		}
	}

	if len(taken) < n {
		filled := make([]Tile, 0, len(rest))
		for _, t := range rest {
			if len(taken) < n && t.IsJoker {
				taken = append(taken, t)
			} else {
				filled = append(filled, t)
			}
		}
		rest = filled
	}

	if len(taken) < n {
		return nil, rack, fmt.Errorf("手牌无法凑出 %d 张 %s", n, target.Code())
	}
	return taken, rest, nil
}

// RackSignature 手牌签名，同一多重集的手牌签名相同
// 用作校验缓存的 key
func RackSignature(tiles []Tile) string {
	codes := make([]string, 0, len(tiles))
	for _, t := range tiles {
		codes = append(codes, t.Code())
	}
	sort.Strings(codes)
	return strings.Join(codes, ",")
}
