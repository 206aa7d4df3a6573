package amj

import (
	"testing"
)

func mkFlower() Tile {
	nextTestID++
	return Tile{ID: nextTestID, Suit: SuitFlowers, Value: 1, IsFlower: true}
}

// a hand-built playing state; racks and wall are set by each test
func newPlayingState() *GameState {
	gs := &GameState{
		TableID:         "tt",
		Phase:           PhasePlaying,
		Current:         0,
		LastDiscardSeat: -1,
		Winner:          -1,
	}
	for i := 0; i < 4; i++ {
		gs.Players[i] = &Participant{
			Seat:     i,
			UserID:   "u" + string(rune('0'+i)),
			Rack:     repeat(HandSize, func() Tile { return mk(SuitCraks, 1+i%9) }),
			Melds:    make([]Meld, 0, 4),
			Discards: make([]Tile, 0, 18),
		}
	}
	return gs
}

func TestDrawDiscardAdvancesTurn(t *testing.T) {
	e := NewTurnEngine(NewValidator(nil))
	gs := newPlayingState()
	gs.Wall = []Tile{mk(SuitDots, 7), mk(SuitDots, 8)}

	dr, err := e.Draw(gs, 0)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if dr.Tile == nil || len(gs.Players[0].Rack) != HandSize+1 {
		t.Fatalf("draw did not add a tile to the rack")
	}

	res, err := e.Discard(gs, 0, dr.Tile.ID)
	if err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	if !res.CallWindow || !gs.CallOpen {
		t.Fatalf("discard should open the call window")
	}
	if gs.LastDiscard == nil || gs.LastDiscard.ID != dr.Tile.ID || gs.LastDiscardSeat != 0 {
		t.Fatalf("last discard not recorded")
	}

	outcome, err := e.CloseCallWindow(gs)
	if err != nil {
		t.Fatalf("close call window failed: %v", err)
	}
	if outcome.Claimed {
		t.Fatalf("nobody claimed, outcome should be unclaimed")
	}
	if gs.Current != 1 {
		t.Fatalf("turn should pass to seat 1, got %d", gs.Current)
	}
}

func TestTurnWrapsToSeatZero(t *testing.T) {
	e := NewTurnEngine(NewValidator(nil))
	gs := newPlayingState()
	gs.Current = 3
	gs.Wall = []Tile{mk(SuitDots, 7)}

	dr, err := e.Draw(gs, 3)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if _, err := e.Discard(gs, 3, dr.Tile.ID); err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	if _, err := e.CloseCallWindow(gs); err != nil {
		t.Fatalf("close call window failed: %v", err)
	}
	if gs.Current != 0 {
		t.Fatalf("turn should wrap to seat 0, got %d", gs.Current)
	}
}

func TestDrawOutOfTurnRejected(t *testing.T) {
	e := NewTurnEngine(NewValidator(nil))
	gs := newPlayingState()
	gs.Wall = []Tile{mk(SuitDots, 7)}

	if _, err := e.Draw(gs, 2); err == nil {
		t.Fatalf("seat 2 drew out of turn")
	}
}

func TestDrawReplacesFlowers(t *testing.T) {
	e := NewTurnEngine(NewValidator(nil))
	gs := newPlayingState()
	gs.Wall = []Tile{mkFlower(), mkFlower(), mk(SuitBams, 3)}

	dr, err := e.Draw(gs, 0)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if len(dr.Flowers) != 2 {
		t.Fatalf("expected 2 flowers exposed, got %d", len(dr.Flowers))
	}
	if dr.Tile == nil || dr.Tile.Suit != SuitBams {
		t.Fatalf("drawn tile should be the non-flower replacement")
	}
	if len(gs.Players[0].Flowers) != 2 || len(gs.Wall) != 0 {
		t.Fatalf("flower bookkeeping wrong")
	}
}

func TestWallExhaustionEndsGame(t *testing.T) {
	e := NewTurnEngine(NewValidator(nil))
	gs := newPlayingState()
	gs.Wall = nil

	dr, err := e.Draw(gs, 0)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if !dr.GameOver {
		t.Fatalf("empty wall should end the game")
	}
	if gs.Phase != PhaseFinished || gs.Winner != -1 {
		t.Fatalf("wall exhaustion should finish with no winner, phase=%s winner=%d", gs.Phase, gs.Winner)
	}
}

// seat 0 discards, claimant racks are stocked with copies of the discard
func discardForCalls(t *testing.T, e *TurnEngine, gs *GameState, copies map[int]int) Tile {
	t.Helper()
	target := mk(SuitDots, 5)
	for seat, n := range copies {
		p := gs.Players[seat]
		for i := 0; i < n; i++ {
			p.Rack[i] = mk(SuitDots, 5)
		}
	}
	gs.Players[0].Rack[0] = target
	gs.Wall = []Tile{mk(SuitBams, 9)}

	if _, err := e.Draw(gs, 0); err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if _, err := e.Discard(gs, 0, target.ID); err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	return target
}

func TestKongBeatsPung(t *testing.T) {
	e := NewTurnEngine(NewValidator(nil))
	gs := newPlayingState()
	discardForCalls(t, e, gs, map[int]int{1: 2, 2: 3})

	if err := e.SubmitCall(gs, 1, MeldPung); err != nil {
		t.Fatalf("pung claim failed: %v", err)
	}
	if err := e.SubmitCall(gs, 2, MeldKong); err != nil {
		t.Fatalf("kong claim failed: %v", err)
	}

	outcome, err := e.CloseCallWindow(gs)
	if err != nil {
		t.Fatalf("close call window failed: %v", err)
	}
	if !outcome.Claimed || outcome.Seat != 2 {
		t.Fatalf("kong should beat pung, winner=%d", outcome.Seat)
	}
	if outcome.Meld == nil || outcome.Meld.Kind != MeldKong || len(outcome.Meld.Tiles) != 4 {
		t.Fatalf("kong meld malformed: %+v", outcome.Meld)
	}
	if gs.Current != 2 {
		t.Fatalf("turn should pass to the claimant, got %d", gs.Current)
	}
	if len(gs.Players[0].Discards) != 0 {
		t.Fatalf("claimed tile should leave the discard pile")
	}
}

func TestEqualClaimsFirstReceivedWins(t *testing.T) {
	e := NewTurnEngine(NewValidator(nil))
	gs := newPlayingState()
	discardForCalls(t, e, gs, map[int]int{1: 2, 3: 2})

	if err := e.SubmitCall(gs, 3, MeldPung); err != nil {
		t.Fatalf("first pung claim failed: %v", err)
	}
	if err := e.SubmitCall(gs, 1, MeldPung); err != nil {
		t.Fatalf("second pung claim failed: %v", err)
	}

	outcome, err := e.CloseCallWindow(gs)
	if err != nil {
		t.Fatalf("close call window failed: %v", err)
	}
	if !outcome.Claimed || outcome.Seat != 3 {
		t.Fatalf("first received claim should win, winner=%d", outcome.Seat)
	}
}

func TestCannotCallOwnDiscard(t *testing.T) {
	e := NewTurnEngine(NewValidator(nil))
	gs := newPlayingState()
	discardForCalls(t, e, gs, map[int]int{0: 3})

	if err := e.SubmitCall(gs, 0, MeldPung); err == nil {
		t.Fatalf("discarder claimed its own tile")
	}
}

func TestCallWithInsufficientTilesRejected(t *testing.T) {
	e := NewTurnEngine(NewValidator(nil))
	gs := newPlayingState()
	discardForCalls(t, e, gs, map[int]int{1: 1})

	if err := e.SubmitCall(gs, 1, MeldKong); err == nil {
		t.Fatalf("kong claim with one matching tile should be rejected")
	}
}

func TestExposeKong(t *testing.T) {
	e := NewTurnEngine(NewValidator(nil))
	gs := newPlayingState()
	p := gs.Players[0]
	ids := make([]int, 0, 4)
	for i := 0; i < 3; i++ {
		p.Rack[i] = mk(SuitWinds, WindEast)
		ids = append(ids, p.Rack[i].ID)
	}
	p.Rack[3] = mkJoker()
	ids = append(ids, p.Rack[3].ID)

	meld, err := e.Expose(gs, 0, MeldKong, ids)
	if err != nil {
		t.Fatalf("expose failed: %v", err)
	}
	if meld.Kind != MeldKong || len(meld.Tiles) != 4 {
		t.Fatalf("exposed meld malformed: %+v", meld)
	}
	if len(p.Rack) != HandSize-4 || len(p.Melds) != 1 {
		t.Fatalf("rack/meld bookkeeping wrong after expose")
	}
}

func TestExposeMixedKindsRejected(t *testing.T) {
	e := NewTurnEngine(NewValidator(nil))
	gs := newPlayingState()
	p := gs.Players[0]
	p.Rack[0] = mk(SuitDots, 1)
	p.Rack[1] = mk(SuitDots, 1)
	p.Rack[2] = mk(SuitBams, 1)
	ids := []int{p.Rack[0].ID, p.Rack[1].ID, p.Rack[2].ID}

	if _, err := e.Expose(gs, 0, MeldPung, ids); err == nil {
		t.Fatalf("mixed-kind expose should be rejected")
	}
	if len(p.Rack) != HandSize {
		t.Fatalf("rack mutated by rejected expose")
	}
}

func TestDeclareWinByClaimingDiscard(t *testing.T) {
	patterns := []*HandPattern{
		{
			Name: "test hand",
			Sets: []PatternSet{
				{Kind: MeldPair, Class: TileClass{Kind: ClassLiteral, Suit: SuitDragons, Value: DragonRed}},
				{Kind: MeldPung, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 2}},
				{Kind: MeldKong, Class: TileClass{Kind: ClassLiteral, Suit: SuitDots, Value: 4}},
				{Kind: MeldQuint, Class: TileClass{Kind: ClassLiteral, Suit: SuitBams, Value: 6}},
			},
			AllowJokers: true,
		},
	}
	e := NewTurnEngine(NewValidator(nil))
	gs := newPlayingState()

	// seat 1 waits on the final 6-bams
	rack := repeat(2, func() Tile { return mk(SuitDragons, DragonRed) })
	rack = append(rack, repeat(3, func() Tile { return mk(SuitDots, 2) })...)
	rack = append(rack, repeat(4, func() Tile { return mk(SuitDots, 4) })...)
	rack = append(rack, repeat(4, func() Tile { return mk(SuitBams, 6) })...)
	gs.Players[1].Rack = rack

	winning := mk(SuitBams, 6)
	gs.Players[0].Rack[0] = winning
	gs.Wall = []Tile{mk(SuitCraks, 9)}
	if _, err := e.Draw(gs, 0); err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if _, err := e.Discard(gs, 0, winning.ID); err != nil {
		t.Fatalf("discard failed: %v", err)
	}

	res, err := e.DeclareWin(gs, 1, patterns)
	if err != nil {
		t.Fatalf("declare win failed: %v", err)
	}
	if !res.Accepted || res.Pattern != "test hand" {
		t.Fatalf("valid claim-win rejected: %+v", res)
	}
	if gs.Phase != PhaseFinished || gs.Winner != 1 {
		t.Fatalf("state not finished for winner, phase=%s winner=%d", gs.Phase, gs.Winner)
	}
	if gs.CallOpen || gs.LastDiscard != nil {
		t.Fatalf("call window should be closed by the accepted win")
	}
}

func TestDeclareWinRejectedKeepsGameGoing(t *testing.T) {
	e := NewTurnEngine(NewValidator(nil))
	gs := newPlayingState()
	gs.Wall = []Tile{mk(SuitDots, 7)}
	if _, err := e.Draw(gs, 0); err != nil {
		t.Fatalf("draw failed: %v", err)
	}

	seqBefore := gs.Seq
	res, err := e.DeclareWin(gs, 0, DefaultPatterns())
	if err != nil {
		t.Fatalf("declare win errored: %v", err)
	}
	if res.Accepted {
		t.Fatalf("junk hand should not win")
	}
	if gs.Phase != PhasePlaying {
		t.Fatalf("rejected declaration must not end the game")
	}
	// no state changed, so scheduled timeout callbacks must stay armed
	if gs.Seq != seqBefore {
		t.Fatalf("rejected declaration bumped seq from %d to %d", seqBefore, gs.Seq)
	}
}
