package session

import (
	"errors"

	"github.com/park285/Cheese-Tafl/internal/tafl"
	"github.com/park285/Cheese-Tafl/pkg/tafldto"
)

func ToDTOPiece(p tafl.Piece) tafldto.Piece {
	return tafldto.Piece{ID: p.ID, Colour: p.Colour.String(), King: p.King, Row: p.Row, Col: p.Col}
}

func toCell(l *tafl.Location) *tafldto.Cell {
	if l == nil {
		return nil
	}
	return &tafldto.Cell{Row: l.Row, Col: l.Col}
}

// ToDTOEvent converts an event to its wire form.
func ToDTOEvent(ev Event) tafldto.Event {
	out := tafldto.Event{
		SessionID: ev.SessionID,
		Seq:       ev.Seq,
		Kind:      string(ev.Kind),
		At:        ev.At,
		Variant:   ev.Variant,
		From:      toCell(ev.From),
		To:        toCell(ev.To),
		Player:    ev.Player,
	}
	if ev.Piece != nil {
		p := ToDTOPiece(*ev.Piece)
		out.Piece = &p
	}
	switch ev.Kind {
	case EventTurnChanged:
		h := ev.Holder
		out.Holder = &h
		out.Colour = ev.Colour.String()
	case EventPiecePlaced, EventPieceMoved, EventPieceCaptured:
		out.Colour = ev.Colour.String()
	}
	if ev.Result != nil {
		out.Winner = ev.Result.Winner.String()
		out.Reason = string(ev.Result.Reason)
		if loser, ok := ev.Result.Loser(); ok {
			out.Loser = loser.String()
		}
	}
	return out
}

func ToDTOState(st State) *tafldto.SessionState {
	out := &tafldto.SessionState{
		SessionID: st.ID,
		Variant:   st.Variant,
		BoardSize: st.BoardSize,
		MoveCount: st.Moves,
		Seq:       st.Seq,
		Board:     st.Board,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
	for i, p := range st.Players {
		out.Players = append(out.Players, tafldto.Player{ID: p.ID, Name: p.Name, Colour: st.Colours[i].String()})
	}
	for _, p := range st.Pieces {
		out.Pieces = append(out.Pieces, ToDTOPiece(p))
	}
	if st.Result.Decided() {
		out.Winner = st.Result.Winner.String()
		out.Reason = string(st.Result.Reason)
	} else if st.Holder >= 0 {
		out.TurnHolder = st.Players[st.Holder].ID
		out.TurnColour = st.HolderColour.String()
	}
	return out
}

// ToDomainError maps an error from Submit and friends onto a stable wire code.
func ToDomainError(err error) *tafldto.DomainError {
	if err == nil {
		return nil
	}
	var de tafldto.DomainError
	if errors.As(err, &de) {
		return &de
	}
	code := "INTERNAL"
	switch {
	case errors.Is(err, ErrGameOver):
		code = "GAME_OVER"
	case errors.Is(err, ErrNotYourTurn):
		code = "NOT_YOUR_TURN"
	case errors.Is(err, ErrNotYourPiece):
		code = "NOT_YOUR_PIECE"
	case errors.Is(err, ErrNotParticipant):
		code = "NOT_PARTICIPANT"
	case errors.Is(err, ErrNotStarted):
		code = "NOT_STARTED"
	case errors.Is(err, ErrSessionNotFound):
		code = "SESSION_NOT_FOUND"
	case errors.Is(err, ErrPlayerBusy):
		code = "PLAYER_BUSY"
	case errors.Is(err, ErrInvalidArgs):
		code = "INVALID_ARGS"
	case errors.Is(err, ErrTooManySessions):
		return &tafldto.DomainError{Code: "TOO_MANY_SESSIONS", Message: err.Error(), Retryable: true}
	default:
		if c := tafl.Code(err); c != "" {
			code = c
		}
	}
	return &tafldto.DomainError{Code: code, Message: err.Error()}
}
