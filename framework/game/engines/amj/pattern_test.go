package amj

import (
	"testing"
	"time"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/cache"
)

var nextTestID = 1000

func mk(suit Suit, value int) Tile {
	nextTestID++
	return Tile{ID: nextTestID, Suit: suit, Value: value}
}

func mkJoker() Tile {
	nextTestID++
	return Tile{ID: nextTestID, Suit: SuitJokers, IsJoker: true}
}

func repeat(n int, f func() Tile) []Tile {
	out := make([]Tile, 0, n)
	for range n {
		out = append(out, f())
	}
	return out
}

func TestValidateWinPungOfDots(t *testing.T) {
	// pair dragons + pung 2D + kong 4D + quint 6B (joker-backfilled) = 14
	pattern := &HandPattern{
		ID:          "test-a",
		Name:        "test-a",
		AllowJokers: true,
		Sets: []PatternSet{
			{Kind: MeldPair, Class: TileClass{Kind: ClassDragons}},
			{Kind: MeldPung, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 2}},
			{Kind: MeldKong, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 4}},
			{Kind: MeldQuint, Class: TileClass{Kind: ClassLiteral, Suit: SuitBams, Value: 6}},
		},
	}

	rack := []Tile{}
	rack = append(rack, repeat(2, func() Tile { return mk(SuitDragons, DragonRed) })...)
	rack = append(rack, repeat(3, func() Tile { return mk(SuitDots, 2) })...)
	rack = append(rack, repeat(4, func() Tile { return mk(SuitDots, 4) })...)
	rack = append(rack, repeat(4, func() Tile { return mk(SuitBams, 6) })...)
	rack = append(rack, mkJoker())

	v := NewValidator(nil)
	matched, reason := v.ValidateWin(rack, nil, nil, []*HandPattern{pattern})
	if matched == nil {
		t.Fatalf("expected win, got rejection: %s", reason)
	}
}

func TestValidateWinJokersDisallowed(t *testing.T) {
	pattern := &HandPattern{
		ID:          "no-jokers",
		Name:        "no-jokers",
		AllowJokers: false,
		Sets: []PatternSet{
			{Kind: MeldPair, Class: TileClass{Kind: ClassDragons}},
			{Kind: MeldPung, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 2}},
			{Kind: MeldKong, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 4}},
			{Kind: MeldQuint, Class: TileClass{Kind: ClassLiteral, Suit: SuitBams, Value: 6}},
		},
	}

	rack := []Tile{}
	rack = append(rack, repeat(2, func() Tile { return mk(SuitDragons, DragonRed) })...)
	rack = append(rack, repeat(3, func() Tile { return mk(SuitDots, 2) })...)
	rack = append(rack, repeat(4, func() Tile { return mk(SuitDots, 4) })...)
	rack = append(rack, repeat(4, func() Tile { return mk(SuitBams, 6) })...)
	rack = append(rack, mkJoker())

	v := NewValidator(nil)
	matched, _ := v.ValidateWin(rack, nil, nil, []*HandPattern{pattern})
	if matched != nil {
		t.Fatalf("expected rejection for joker with AllowJokers=false")
	}
}

func TestValidateWinWrongTileCount(t *testing.T) {
	pattern := DefaultPatterns()[0]
	rack := repeat(13, func() Tile { return mk(SuitDots, 1) })

	v := NewValidator(nil)
	matched, _ := v.ValidateWin(rack, nil, nil, []*HandPattern{pattern})
	if matched != nil {
		t.Fatalf("13 tiles must never validate as a win")
	}
}

// The greedy matcher consumes sets in declared order and never backtracks:
// the first suited pung grabs the largest group (four 2D), starving the kong
// that a backtracking solver would satisfy with the same tiles. The rejection
// is intentional product behavior.
func TestValidateWinGreedyNoBacktrack(t *testing.T) {
	pattern := &HandPattern{
		ID:          "greedy",
		Name:        "greedy",
		AllowJokers: false,
		Sets: []PatternSet{
			{Kind: MeldPung, Class: TileClass{Kind: ClassSuited, Suit: SuitDots}},
			{Kind: MeldKong, Class: TileClass{Kind: ClassSuited, Suit: SuitDots}},
			{Kind: MeldPung, Class: TileClass{Kind: ClassSuited, Suit: SuitBams}},
			{Kind: MeldKong, Class: TileClass{Kind: ClassSuited, Suit: SuitBams}},
		},
	}

	rack := []Tile{}
	// 4x2D + 3x5D: solvable as pung(5D)+kong(2D), but greedy takes pung from 2D first
	rack = append(rack, repeat(4, func() Tile { return mk(SuitDots, 2) })...)
	rack = append(rack, repeat(3, func() Tile { return mk(SuitDots, 5) })...)
	rack = append(rack, repeat(3, func() Tile { return mk(SuitBams, 1) })...)
	rack = append(rack, repeat(4, func() Tile { return mk(SuitBams, 3) })...)

	v := NewValidator(nil)
	matched, _ := v.ValidateWin(rack, nil, nil, []*HandPattern{pattern})
	if matched != nil {
		t.Fatalf("greedy matcher unexpectedly validated a hand that requires backtracking")
	}
}

func TestValidateWinConcealedRequirement(t *testing.T) {
	pattern := &HandPattern{
		ID:               "concealed",
		Name:             "concealed",
		AllowJokers:      false,
		RequireConcealed: true,
		Sets: []PatternSet{
			{Kind: MeldPair, Class: TileClass{Kind: ClassDragons}},
			{Kind: MeldPung, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 2}},
			{Kind: MeldKong, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 4}},
			{Kind: MeldQuint, Class: TileClass{Kind: ClassLiteral, Suit: SuitBams, Value: 6}},
		},
	}

	rack := []Tile{}
	rack = append(rack, repeat(2, func() Tile { return mk(SuitDragons, DragonGreen) })...)
	rack = append(rack, repeat(3, func() Tile { return mk(SuitDots, 2) })...)
	rack = append(rack, repeat(4, func() Tile { return mk(SuitBams, 6) })...)
	melds := []Meld{{
		Kind:      MeldKong,
		Tiles:     repeat(4, func() Tile { return mk(SuitDots, 4) }),
		Concealed: false,
	}}
	// rack 9 + meld 4 = 13... add the fifth bam to reach 14
	rack = append(rack, mk(SuitBams, 6))

	v := NewValidator(nil)
	matched, _ := v.ValidateWin(rack, melds, nil, []*HandPattern{pattern})
	if matched != nil {
		t.Fatalf("exposed meld must fail a concealed-only pattern")
	}
}

func TestValidateWinPrecheckNotCached(t *testing.T) {
	c, err := cache.NewGeneralCache(1<<20, time.Minute)
	if err != nil {
		t.Fatalf("cache init failed: %v", err)
	}
	defer c.Close()

	pattern := &HandPattern{
		ID:             "flowered",
		Name:           "flowered",
		AllowJokers:    true,
		RequireFlowers: true,
		Sets: []PatternSet{
			{Kind: MeldPair, Class: TileClass{Kind: ClassLiteral, Suit: SuitDragons, Value: DragonRed}},
			{Kind: MeldPung, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 2}},
			{Kind: MeldKong, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 4}},
			{Kind: MeldQuint, Class: TileClass{Kind: ClassLiteral, Suit: SuitBams, Value: 6}},
		},
	}

	rack := repeat(2, func() Tile { return mk(SuitDragons, DragonRed) })
	rack = append(rack, repeat(3, func() Tile { return mk(SuitDots, 2) })...)
	rack = append(rack, repeat(4, func() Tile { return mk(SuitDots, 4) })...)
	rack = append(rack, repeat(5, func() Tile { return mk(SuitBams, 6) })...)

	v := NewValidator(c)

	// first attempt without flowers fails the precheck
	if matched, _ := v.ValidateWin(rack, nil, nil, []*HandPattern{pattern}); matched != nil {
		t.Fatalf("flowerless hand must not match a flowers-required pattern")
	}
	c.Wait()

	// the same hand must match once a flower is held
	matched, reason := v.ValidateWin(rack, nil, []Tile{mkFlower()}, []*HandPattern{pattern})
	if matched == nil {
		t.Fatalf("flowered hand rejected after an earlier flowerless attempt: %s", reason)
	}
}

func TestValidateWinStructuralResultCached(t *testing.T) {
	c, err := cache.NewGeneralCache(1<<20, time.Minute)
	if err != nil {
		t.Fatalf("cache init failed: %v", err)
	}
	defer c.Close()

	pattern := &HandPattern{
		ID:          "plain",
		Name:        "plain",
		AllowJokers: true,
		Sets: []PatternSet{
			{Kind: MeldPair, Class: TileClass{Kind: ClassLiteral, Suit: SuitDragons, Value: DragonRed}},
			{Kind: MeldPung, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 2}},
			{Kind: MeldKong, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 4}},
			{Kind: MeldQuint, Class: TileClass{Kind: ClassLiteral, Suit: SuitBams, Value: 6}},
		},
	}

	rack := repeat(2, func() Tile { return mk(SuitDragons, DragonRed) })
	rack = append(rack, repeat(3, func() Tile { return mk(SuitDots, 2) })...)
	rack = append(rack, repeat(4, func() Tile { return mk(SuitDots, 4) })...)
	rack = append(rack, repeat(5, func() Tile { return mk(SuitBams, 6) })...)

	v := NewValidator(c)
	if matched, reason := v.ValidateWin(rack, nil, nil, []*HandPattern{pattern}); matched == nil {
		t.Fatalf("valid hand rejected: %s", reason)
	}
	c.Wait()
	if matched, reason := v.ValidateWin(rack, nil, nil, []*HandPattern{pattern}); matched == nil {
		t.Fatalf("cached valid hand rejected on second attempt: %s", reason)
	}
}
