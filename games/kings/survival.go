package kings

import "time"

// FuseCount is the number of fuses around the core.
const FuseCount = 12

type FuseState string

const (
	FuseIntact FuseState = "intact"
	FuseCut    FuseState = "cut"
	FuseBomb   FuseState = "bomb"
)

// Survival is the bomb game: players take turns cutting fuses, and the one
// who cuts the hidden bomb fuse loses. The turn only passes on a safe cut.
type Survival struct {
	players  int
	settle   time.Duration
	fuses    [FuseCount]FuseState
	bomb     int
	turn     int
	exploded bool
}

// NewSurvival arms a fresh core for the given number of players.
func NewSurvival(players int, settle time.Duration, rng Random) *Survival {
	s := &Survival{
		players: players,
		settle:  settle,
		bomb:    rng.Intn(FuseCount),
	}
	for i := range s.fuses {
		s.fuses[i] = FuseIntact
	}

	return s
}

// Turn is the roster index of the player who cuts next.
func (s *Survival) Turn() int {
	return s.turn
}

func (s *Survival) Exploded() bool {
	return s.exploded
}

// Settle is how long the explosion plays before the loser is announced.
func (s *Survival) Settle() time.Duration {
	return s.settle
}

// Fuses returns the visible state of every fuse. The bomb only shows once
// it has gone off.
func (s *Survival) Fuses() []FuseState {
	out := make([]FuseState, FuseCount)
	copy(out, s.fuses[:])

	return out
}

// Remaining counts the fuses nobody has cut yet.
func (s *Survival) Remaining() int {
	n := 0
	for _, f := range s.fuses {
		if f == FuseIntact {
			n++
		}
	}

	return n
}

// Cut cuts fuse i for the current player and reports whether it was the
// bomb. Refused cuts change nothing.
func (s *Survival) Cut(i int) (bool, error) {
	if s.exploded {
		return false, ErrExploded
	}
	if i < 0 || i >= FuseCount {
		return false, ErrSlotOutOfRange
	}
	if s.fuses[i] != FuseIntact {
		return false, ErrSlotTaken
	}

	if i == s.bomb {
		s.fuses[i] = FuseBomb
		s.exploded = true

		return true, nil
	}

	s.fuses[i] = FuseCut
	if s.players > 0 {
		s.turn = (s.turn + 1) % s.players
	}

	return false, nil
}

// Loser returns the player holding the turn when the bomb went off.
func (s *Survival) Loser() (int, error) {
	if !s.exploded {
		return 0, ErrNotExploded
	}

	return s.turn, nil
}
