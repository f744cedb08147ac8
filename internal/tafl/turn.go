package tafl

import "fmt"

// Reason explains how a game ended.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonEscape       Reason = "escape"
	ReasonKingCaptured Reason = "king_captured"
	ReasonStalemate    Reason = "stalemate"
	ReasonDeclared     Reason = "declared"
)

// Result is the final outcome of a game. The zero value means the game is still running.
type Result struct {
	Winner Winner
	Reason Reason
}

// Decided reports whether the game is over.
func (r Result) Decided() bool { return r.Winner != NoWinner }

// Loser returns the losing side of a decisive result.
func (r Result) Loser() (Colour, bool) {
	c, ok := r.Winner.Colour()
	if !ok {
		return 0, false
	}
	return c.Opponent(), true
}

// TurnStep describes what happened to the turn after a move or at game start.
type TurnStep struct {
	Advanced bool
	Holder   int
	Ended    bool
	Result   Result
}

// Sequencer alternates two players. Player 0 created the game; creatorIsAttacker decides
// which colour each index plays.
type Sequencer struct {
	creatorIsAttacker bool
	holder            int
	result            Result
}

// NewSequencer returns a sequencer with no turn holder yet; call Start.
func NewSequencer(creatorIsAttacker bool) *Sequencer {
	return &Sequencer{creatorIsAttacker: creatorIsAttacker, holder: -1}
}

// ColourOf returns the colour played by player index idx.
func (s *Sequencer) ColourOf(idx int) Colour {
	if (idx == 0) == s.creatorIsAttacker {
		return Attacker
	}
	return Defender
}

// IndexOf returns the player index playing colour c.
func (s *Sequencer) IndexOf(c Colour) int {
	if (c == Attacker) == s.creatorIsAttacker {
		return 0
	}
	return 1
}

// FirstTurnHolder returns the index of the attacking player.
func (s *Sequencer) FirstTurnHolder() int { return s.IndexOf(Attacker) }

// NextTurnHolder strictly alternates.
func (s *Sequencer) NextTurnHolder(cur int) int { return 1 - cur }

// Holder returns the current turn holder index, or -1 before Start.
func (s *Sequencer) Holder() int { return s.holder }

// HolderColour returns the colour of the current turn holder.
func (s *Sequencer) HolderColour() Colour { return s.ColourOf(s.holder) }

// Result returns the outcome so far.
func (s *Sequencer) Result() Result { return s.result }

// Over reports whether the game has ended.
func (s *Sequencer) Over() bool { return s.result.Decided() }

// Start hands the first turn to the attacker and checks that it can move.
func (s *Sequencer) Start(e *Engine) TurnStep {
	s.holder = s.FirstTurnHolder()
	step := TurnStep{Advanced: true, Holder: s.holder}
	s.checkStalemate(e, &step)
	return step
}

// EndTurn runs after every committed move. A winner decided by the engine ends the game;
// otherwise the turn passes and the new holder loses at once if it has no legal move.
func (s *Sequencer) EndTurn(e *Engine) TurnStep {
	if s.Over() {
		return TurnStep{Holder: s.holder, Ended: true, Result: s.result}
	}
	if w := e.Winner(); w != NoWinner {
		reason := ReasonEscape
		if w == AttackerWins {
			reason = ReasonKingCaptured
		}
		s.result = Result{Winner: w, Reason: reason}
		return TurnStep{Holder: s.holder, Ended: true, Result: s.result}
	}
	s.holder = s.NextTurnHolder(s.holder)
	step := TurnStep{Advanced: true, Holder: s.holder}
	s.checkStalemate(e, &step)
	return step
}

func (s *Sequencer) checkStalemate(e *Engine, step *TurnStep) {
	mover := s.HolderColour()
	if e.HasValidMoves(mover) {
		return
	}
	s.result = Result{Winner: WinnerFor(mover.Opponent()), Reason: ReasonStalemate}
	step.Ended = true
	step.Result = s.result
}

// Declare ends a running game with an externally decided result, e.g. an agreed draw.
func (s *Sequencer) Declare(w Winner) (Result, error) {
	if s.Over() {
		return s.result, ErrGameDecided
	}
	if w == NoWinner {
		return Result{}, fmt.Errorf("declare: a result is required")
	}
	s.result = Result{Winner: w, Reason: ReasonDeclared}
	return s.result, nil
}

// Winners reports per player index whether that player is credited with a win. A draw
// credits both players; an undecided game credits neither.
func (s *Sequencer) Winners() [2]bool {
	var out [2]bool
	switch s.result.Winner {
	case Draw:
		out[0], out[1] = true, true
	case AttackerWins:
		out[s.IndexOf(Attacker)] = true
	case DefenderWins:
		out[s.IndexOf(Defender)] = true
	}
	return out
}
