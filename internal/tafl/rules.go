package tafl

// Directions checked around a destination, in order: down, right, up, left.
var (
	captureDR = [4]int{1, 0, -1, 0}
	captureDC = [4]int{0, 1, 0, -1}
)

// Engine applies the rules to a board it does not own. Apart from the board it only keeps
// the winner flag, which is set at most once per game.
type Engine struct {
	board  *Board
	winner Winner
}

// NewEngine returns an engine over b.
func NewEngine(b *Board) *Engine {
	return &Engine{board: b}
}

// Board returns the board the engine mutates.
func (e *Engine) Board() *Board { return e.board }

// Winner returns the winner decided by escape or king capture, or NoWinner.
func (e *Engine) Winner() Winner { return e.winner }

// IsCorner reports whether loc is one of the four corners.
func (e *Engine) IsCorner(loc Location) bool {
	last := e.board.size - 1
	return (loc.Row == 0 || loc.Row == last) && (loc.Col == 0 || loc.Col == last)
}

// IsThrone reports whether loc is the centre cell.
func (e *Engine) IsThrone(loc Location) bool {
	mid := e.board.size / 2
	return loc.Row == mid && loc.Col == mid
}

// Validate returns nil if p may move to dest, otherwise the reason it may not.
func (e *Engine) Validate(p Piece, dest Location) error {
	switch e.board.ColourAt(dest.Row, dest.Col) {
	case SquareOffBoard:
		return ErrOutOfBounds
	case SquareEmpty:
	default:
		return ErrDestinationOccupied
	}
	if p.Row != dest.Row && p.Col != dest.Col {
		return ErrNotOrthogonal
	}
	if !p.King && (e.IsThrone(dest) || e.IsCorner(dest)) {
		return ErrRestrictedTile
	}

	dr := sign(dest.Row - p.Row)
	dc := sign(dest.Col - p.Col)
	for r, c := p.Row+dr, p.Col+dc; r != dest.Row || c != dest.Col; r, c = r+dr, c+dc {
		if e.board.ColourAt(r, c) != SquareEmpty {
			return ErrPathBlocked
		}
	}
	return nil
}

// IsValidMove reports whether p may move to dest.
func (e *Engine) IsValidMove(p Piece, dest Location) bool {
	return e.Validate(p, dest) == nil
}

// HasValidMove reports whether any cell in p's row or column is a legal destination.
func (e *Engine) HasValidMove(p Piece) bool {
	for i := 0; i < e.board.size; i++ {
		if e.IsValidMove(p, Location{Row: i, Col: p.Col}) || e.IsValidMove(p, Location{Row: p.Row, Col: i}) {
			return true
		}
	}
	return false
}

// HasValidMoves reports whether colour c can move at all.
func (e *Engine) HasValidMoves(c Colour) bool {
	for _, p := range e.board.Pieces() {
		if p.Colour == c && e.HasValidMove(p) {
			return true
		}
	}
	return false
}

// TryApply validates and commits a move in one step. On rejection the board is untouched.
// A committed move relocates the piece, removes every captured piece and rebuilds the grid
// before returning.
func (e *Engine) TryApply(pieceID int, dest Location) (MoveOutcome, error) {
	if e.winner != NoWinner {
		return MoveOutcome{}, ErrGameDecided
	}
	p, ok := e.board.Piece(pieceID)
	if !ok {
		return MoveOutcome{}, ErrUnknownPiece
	}
	if err := e.Validate(p, dest); err != nil {
		return MoveOutcome{}, err
	}

	if p.King && e.IsCorner(dest) {
		e.setWinner(DefenderWins)
	}
	captured := e.captures(p, dest)

	from := p.Loc()
	p.Row, p.Col = dest.Row, dest.Col
	e.board.pieces[p.ID] = p
	for _, c := range captured {
		delete(e.board.pieces, c.ID)
	}
	e.board.reindex()

	return MoveOutcome{Piece: p, From: from, To: dest, Captured: captured, Winner: e.winner}, nil
}

// captures returns the pieces taken by mover arriving at dest, evaluated on the board as it
// stands before the move. The mover's old cell can never be a far cell, so this matches the
// post-move board.
func (e *Engine) captures(mover Piece, dest Location) []Piece {
	var out []Piece
	for dir := 0; dir < 4; dir++ {
		nr, nc := dest.Row+captureDR[dir], dest.Col+captureDC[dir]
		fr, fc := dest.Row+2*captureDR[dir], dest.Col+2*captureDC[dir]

		near, ok := e.board.PieceAt(nr, nc)
		if !ok || near.ID == mover.ID {
			continue
		}
		switch {
		case near.King && mover.Colour == Attacker:
			if e.kingCapturable(near, dest) {
				out = append(out, near)
				e.setWinner(AttackerWins)
			}
		case near.Colour == mover.Colour.Opponent():
			far := e.board.ColourAt(fr, fc)
			if far == Square(mover.Colour) || e.IsCorner(Location{Row: fr, Col: fc}) {
				out = append(out, near)
			}
		}
	}
	return out
}

// kingCapturable reports whether the king is surrounded once an attacker stands on blocker.
// Corners, the throne, the board edge and attackers all close a side.
func (e *Engine) kingCapturable(king Piece, blocker Location) bool {
	for dir := 0; dir < 4; dir++ {
		loc := Location{Row: king.Row + captureDR[dir], Col: king.Col + captureDC[dir]}
		sq := e.board.ColourAt(loc.Row, loc.Col)
		if e.IsCorner(loc) || e.IsThrone(loc) || loc == blocker || sq == SquareAttacker || sq == SquareOffBoard {
			continue
		}
		return false
	}
	return true
}

func (e *Engine) setWinner(w Winner) {
	if e.winner == NoWinner {
		e.winner = w
	}
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
