package amj

import (
	"testing"
)

func TestGenerateFullSetComposition(t *testing.T) {
	tiles := GenerateFullSet()
	if len(tiles) != FullSetSize {
		t.Fatalf("full set size expected %d, got %d", FullSetSize, len(tiles))
	}

	seen := make(map[int]bool, FullSetSize)
	var numbered, winds, dragons, flowers, jokers int
	for _, tile := range tiles {
		if seen[tile.ID] {
			t.Fatalf("duplicate tile id %d", tile.ID)
		}
		seen[tile.ID] = true
		switch {
		case tile.IsJoker:
			jokers++
		case tile.IsFlower:
			flowers++
		case tile.Suit == SuitWinds:
			winds++
		case tile.Suit == SuitDragons:
			dragons++
		default:
			numbered++
		}
	}
	if numbered != 108 {
		t.Fatalf("numbered tiles expected 108, got %d", numbered)
	}
	if winds != 16 {
		t.Fatalf("wind tiles expected 16, got %d", winds)
	}
	if dragons != 12 {
		t.Fatalf("dragon tiles expected 12, got %d", dragons)
	}
	if flowers != 8 {
		t.Fatalf("flower tiles expected 8, got %d", flowers)
	}
	if jokers != 8 {
		t.Fatalf("joker tiles expected 8, got %d", jokers)
	}
}

func TestShuffleDeterministic(t *testing.T) {
	a := Shuffle(GenerateFullSet(), "seed-A")
	b := Shuffle(GenerateFullSet(), "seed-A")
	if len(a) != len(b) {
		t.Fatalf("shuffle lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("same seed produced different ordering at index %d", i)
		}
	}

	c := Shuffle(GenerateFullSet(), "seed-B")
	same := true
	for i := range a {
		if a[i].ID != c[i].ID {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds produced identical ordering")
	}
}

func TestDealConservation(t *testing.T) {
	var seats [4]*Participant
	for i := range seats {
		seats[i] = &Participant{Seat: i, UserID: "u" + string(rune('0'+i))}
	}
	gs, err := NewGameState("t1", seats, "seed-A")
	if err != nil {
		t.Fatalf("NewGameState failed: %v", err)
	}

	for i, p := range gs.Players {
		if len(p.Rack) != HandSize {
			t.Fatalf("seat %d rack expected %d tiles, got %d", i, HandSize, len(p.Rack))
		}
		for _, tile := range p.Rack {
			if tile.IsFlower {
				t.Fatalf("seat %d holds flower %s in rack, should be segregated", i, tile.Code())
			}
		}
	}

	if err := gs.CheckConservation(); err != nil {
		t.Fatalf("conservation violated after deal: %v", err)
	}
}

func TestDealIsDeterministicPerSeed(t *testing.T) {
	build := func() *GameState {
		var seats [4]*Participant
		for i := range seats {
			seats[i] = &Participant{Seat: i, UserID: "u"}
		}
		gs, err := NewGameState("t", seats, "fixed")
		if err != nil {
			t.Fatalf("NewGameState failed: %v", err)
		}
		return gs
	}

	a, b := build(), build()
	for seat := range a.Players {
		ra, rb := a.Players[seat].Rack, b.Players[seat].Rack
		if len(ra) != len(rb) {
			t.Fatalf("seat %d rack sizes differ", seat)
		}
		for i := range ra {
			if ra[i].ID != rb[i].ID {
				t.Fatalf("seat %d deal differs at tile %d", seat, i)
			}
		}
	}
}
