package tafl

import "fmt"

// Colour identifies a side. Attacker plays first.
type Colour int8

const (
	Attacker Colour = iota
	Defender
)

func (c Colour) String() string {
	switch c {
	case Attacker:
		return "attacker"
	case Defender:
		return "defender"
	default:
		return fmt.Sprintf("colour(%d)", int(c))
	}
}

// Opponent returns the other side.
func (c Colour) Opponent() Colour {
	if c == Attacker {
		return Defender
	}
	return Attacker
}

// Square is the content of one grid cell as seen by ColourAt.
type Square int8

const (
	SquareOffBoard Square = -2
	SquareEmpty    Square = -1
	SquareAttacker        = Square(Attacker)
	SquareDefender        = Square(Defender)
)

// Colour returns the occupying colour, if any.
func (s Square) Colour() (Colour, bool) {
	if s == SquareAttacker || s == SquareDefender {
		return Colour(s), true
	}
	return 0, false
}

// Location addresses a cell.
type Location struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (l Location) String() string { return fmt.Sprintf("(%d,%d)", l.Row, l.Col) }

// Piece is a single piece on the board. ID is assigned at placement and never changes.
type Piece struct {
	ID     int    `json:"id"`
	Colour Colour `json:"colour"`
	King   bool   `json:"king,omitempty"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

// Loc returns the piece's current cell.
func (p Piece) Loc() Location { return Location{Row: p.Row, Col: p.Col} }

// Winner is the decided outcome of a game. Anything other than NoWinner is terminal.
type Winner int8

const (
	NoWinner Winner = iota
	AttackerWins
	DefenderWins
	Draw
)

func (w Winner) String() string {
	switch w {
	case NoWinner:
		return "none"
	case AttackerWins:
		return "attacker"
	case DefenderWins:
		return "defender"
	case Draw:
		return "draw"
	default:
		return fmt.Sprintf("winner(%d)", int(w))
	}
}

// WinnerFor returns the Winner naming colour c.
func WinnerFor(c Colour) Winner {
	if c == Attacker {
		return AttackerWins
	}
	return DefenderWins
}

// Colour returns the winning side for a decisive result.
func (w Winner) Colour() (Colour, bool) {
	switch w {
	case AttackerWins:
		return Attacker, true
	case DefenderWins:
		return Defender, true
	default:
		return 0, false
	}
}

// MoveOutcome is what TryApply reports for a committed move.
type MoveOutcome struct {
	Piece    Piece
	From     Location
	To       Location
	Captured []Piece
	Winner   Winner
}
