package amj

import (
	"testing"
)

func newCharlestonState(t *testing.T) (*Charleston, *GameState) {
	t.Helper()
	var seats [4]*Participant
	for i := range seats {
		seats[i] = &Participant{Seat: i, UserID: "u" + string(rune('0'+i))}
	}
	gs, err := NewGameState("ct", seats, "charleston-seed")
	if err != nil {
		t.Fatalf("NewGameState failed: %v", err)
	}
	c := NewCharleston(NewBot())
	if _, err := c.Begin(gs); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	return c, gs
}

// first three non-joker tile ids in the rack
func passableTiles(t *testing.T, rack []Tile) []int {
	t.Helper()
	ids := make([]int, 0, 3)
	for _, tile := range rack {
		if tile.IsJoker {
			continue
		}
		ids = append(ids, tile.ID)
		if len(ids) == 3 {
			return ids
		}
	}
	t.Fatalf("rack has fewer than 3 passable tiles")
	return nil
}

func runPhase(t *testing.T, c *Charleston, gs *GameState) *ExchangeResult {
	t.Helper()
	var result *ExchangeResult
	for seat := 0; seat < 4; seat++ {
		r, err := c.SubmitPass(gs, seat, passableTiles(t, gs.Players[seat].Rack))
		if err != nil {
			t.Fatalf("seat %d pass failed: %v", seat, err)
		}
		if r != nil {
			result = r
		}
	}
	if result == nil {
		t.Fatalf("phase did not complete after 4 passes")
	}
	return result
}

func TestCharlestonRoundTrip(t *testing.T) {
	c, gs := newCharlestonState(t)

	for phase := 1; phase <= 3; phase++ {
		result := runPhase(t, c, gs)
		if result.Phase != phase {
			t.Fatalf("expected phase %d result, got %d", phase, result.Phase)
		}
		for seat := 0; seat < 4; seat++ {
			if len(gs.Players[seat].Rack) != HandSize {
				t.Fatalf("phase %d: seat %d rack expected %d tiles, got %d",
					phase, seat, HandSize, len(gs.Players[seat].Rack))
			}
		}
	}

	if !gs.Charleston.Voting {
		t.Fatalf("expected voting gate after phase 3")
	}
	if err := gs.CheckConservation(); err != nil {
		t.Fatalf("conservation violated by exchanges: %v", err)
	}
}

func TestCharlestonDirections(t *testing.T) {
	if PassTarget(DirRight, 0) != 1 || PassTarget(DirAcross, 0) != 2 || PassTarget(DirLeft, 0) != 3 {
		t.Fatalf("pass targets from seat 0 wrong")
	}
	if PassTarget(DirRight, 3) != 0 {
		t.Fatalf("right pass from seat 3 should wrap to 0")
	}
	for _, dir := range []Direction{DirRight, DirAcross, DirLeft} {
		for seat := 0; seat < 4; seat++ {
			if PassSource(dir, PassTarget(dir, seat)) != seat {
				t.Fatalf("PassSource is not the inverse of PassTarget for %s seat %d", dir, seat)
			}
		}
	}
}

func TestCharlestonJokerRejection(t *testing.T) {
	c, gs := newCharlestonState(t)

	joker := Tile{ID: 9999, Suit: SuitJokers, IsJoker: true}
	gs.Players[0].Rack[0] = joker
	before := len(gs.Players[0].Rack)

	ids := []int{joker.ID, gs.Players[0].Rack[1].ID, gs.Players[0].Rack[2].ID}
	if _, err := c.SubmitPass(gs, 0, ids); err == nil {
		t.Fatalf("expected joker pass to be rejected")
	}
	if len(gs.Players[0].Rack) != before {
		t.Fatalf("rack mutated by rejected pass")
	}
	if len(gs.Charleston.Pending) != 0 {
		t.Fatalf("rejected pass left pending state behind")
	}
}

func TestCharlestonDuplicateTileIDsRejected(t *testing.T) {
	c, gs := newCharlestonState(t)

	// three seats submit fine, the last one sends duplicate ids
	for seat := 0; seat < 3; seat++ {
		if _, err := c.SubmitPass(gs, seat, passableTiles(t, gs.Players[seat].Rack)); err != nil {
			t.Fatalf("seat %d pass failed: %v", seat, err)
		}
	}

	dup := gs.Players[3].Rack[0].ID
	if _, err := c.SubmitPass(gs, 3, []int{dup, dup, dup}); err == nil {
		t.Fatalf("duplicate tile ids in a pass must be rejected")
	}

	for seat := 0; seat < 4; seat++ {
		if len(gs.Players[seat].Rack) != HandSize {
			t.Fatalf("seat %d rack mutated by rejected pass: %d tiles", seat, len(gs.Players[seat].Rack))
		}
	}
	if err := gs.CheckConservation(); err != nil {
		t.Fatalf("conservation violated: %v", err)
	}
	if _, pending := gs.Charleston.Pending[3]; pending {
		t.Fatalf("rejected pass left seat 3 pending")
	}

	// a corrected pass still completes the phase
	result, err := c.SubmitPass(gs, 3, passableTiles(t, gs.Players[3].Rack))
	if err != nil {
		t.Fatalf("valid retry failed: %v", err)
	}
	if result == nil || result.Phase != 1 {
		t.Fatalf("phase should complete after the corrected pass")
	}
	if err := gs.CheckConservation(); err != nil {
		t.Fatalf("conservation violated after exchange: %v", err)
	}
}

func TestCharlestonWrongTileCount(t *testing.T) {
	c, gs := newCharlestonState(t)

	ids := []int{gs.Players[0].Rack[0].ID, gs.Players[0].Rack[1].ID}
	if _, err := c.SubmitPass(gs, 0, ids); err == nil {
		t.Fatalf("expected 2-tile pass to be rejected")
	}
}

func voteAll(t *testing.T, c *Charleston, gs *GameState, votes [4]string) *VoteResult {
	t.Helper()
	var result *VoteResult
	for seat, v := range votes {
		r, err := c.SubmitVote(gs, seat, v)
		if err != nil {
			t.Fatalf("seat %d vote failed: %v", seat, err)
		}
		result = r
	}
	return result
}

func setupVote(t *testing.T) (*Charleston, *GameState) {
	t.Helper()
	c, gs := newCharlestonState(t)
	gs.Charleston.Phase = charlestonVoteGate
	gs.Charleston.Voting = true
	return c, gs
}

func TestVoteMajorityContinue(t *testing.T) {
	c, gs := setupVote(t)
	result := voteAll(t, c, gs, [4]string{VoteContinue, VoteContinue, VoteContinue, VoteStop})
	if !result.Decided || !result.Continue {
		t.Fatalf("3-1 continue vote should continue")
	}
	if gs.Charleston.Phase != charlestonSecond {
		t.Fatalf("expected phase 4, got %d", gs.Charleston.Phase)
	}
}

func TestVoteTieFavorsContinue(t *testing.T) {
	c, gs := setupVote(t)
	result := voteAll(t, c, gs, [4]string{VoteContinue, VoteStop, VoteContinue, VoteStop})
	if !result.Decided || !result.Continue {
		t.Fatalf("2-2 tie should continue")
	}
	if gs.Charleston.Phase != charlestonSecond {
		t.Fatalf("expected phase 4 on tie, got %d", gs.Charleston.Phase)
	}
}

func TestVoteMajorityStop(t *testing.T) {
	c, gs := setupVote(t)
	result := voteAll(t, c, gs, [4]string{VoteStop, VoteStop, VoteStop, VoteContinue})
	if !result.Decided || result.Continue {
		t.Fatalf("3-1 stop vote should stop")
	}
	if gs.Charleston.Phase != charlestonCourtesy {
		t.Fatalf("expected courtesy phase 7, got %d", gs.Charleston.Phase)
	}
}

func TestCourtesyFinishStartsPlay(t *testing.T) {
	c, gs := newCharlestonState(t)
	gs.Charleston.Phase = charlestonCourtesy

	var result *ExchangeResult
	for seat := 0; seat < 4; seat++ {
		// courtesy allows 0-3 tiles; pass nothing
		r, err := c.SubmitPass(gs, seat, nil)
		if err != nil {
			t.Fatalf("seat %d courtesy pass failed: %v", seat, err)
		}
		if r != nil {
			result = r
		}
	}
	if result == nil || !result.Finished {
		t.Fatalf("courtesy phase should finish the charleston")
	}
	if gs.Phase != PhasePlaying {
		t.Fatalf("expected playing phase, got %s", gs.Phase)
	}
	if gs.Current != 0 {
		t.Fatalf("first turn should be seat 0, got %d", gs.Current)
	}
	if total := gs.Players[0].TileTotal(); total != HandSize+1 {
		t.Fatalf("seat 0 should start with %d tiles, got %d", HandSize+1, total)
	}
}
