package tafl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/park285/Cheese-Tafl/internal/variant"
)

// Board holds the piece collection for one game. The occupancy grid is a secondary index
// over the pieces and is rebuilt whenever the collection changes.
type Board struct {
	size   int
	grid   []Square
	pieces map[int]Piece
	nextID int
}

// NewBoard returns an empty board of the given odd size.
func NewBoard(size int) (*Board, error) {
	if size < 5 || size%2 == 0 {
		return nil, fmt.Errorf("board size %d must be odd and at least 5", size)
	}
	b := &Board{size: size, grid: make([]Square, size*size), pieces: make(map[int]Piece)}
	b.reindex()
	return b, nil
}

// Setup builds a board from a starting layout. The last defender placement becomes the king.
func Setup(cfg variant.Configuration) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b, err := NewBoard(cfg.BoardSize)
	if err != nil {
		return nil, err
	}
	kingIdx := cfg.KingIndex()
	for i, p := range cfg.Placements {
		colour := Attacker
		if p.Side == variant.SideDefender {
			colour = Defender
		}
		if _, err := b.Place(colour, i == kingIdx, p.Row, p.Col); err != nil {
			return nil, fmt.Errorf("variant %q: %w", cfg.Name, err)
		}
	}
	return b, nil
}

// Size returns the board's side length.
func (b *Board) Size() int { return b.size }

// InBounds reports whether (row, col) is on the board.
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.size && col >= 0 && col < b.size
}

// ColourAt returns the occupant colour at (row, col), SquareEmpty, or SquareOffBoard.
func (b *Board) ColourAt(row, col int) Square {
	if !b.InBounds(row, col) {
		return SquareOffBoard
	}
	return b.grid[row*b.size+col]
}

// PieceAt returns the piece occupying (row, col).
func (b *Board) PieceAt(row, col int) (Piece, bool) {
	for _, p := range b.Pieces() {
		if p.Row == row && p.Col == col {
			return p, true
		}
	}
	return Piece{}, false
}

// Piece returns the piece with the given ID.
func (b *Board) Piece(id int) (Piece, bool) {
	p, ok := b.pieces[id]
	return p, ok
}

// Pieces returns a copy of the piece collection ordered by ID.
func (b *Board) Pieces() []Piece {
	out := make([]Piece, 0, len(b.pieces))
	for _, p := range b.pieces {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of pieces of colour c.
func (b *Board) Count(c Colour) int {
	n := 0
	for _, p := range b.pieces {
		if p.Colour == c {
			n++
		}
	}
	return n
}

// King returns the king if it is still on the board.
func (b *Board) King() (Piece, bool) {
	for _, p := range b.pieces {
		if p.King {
			return p, true
		}
	}
	return Piece{}, false
}

// Place adds a piece with the next ID. Used during setup only.
func (b *Board) Place(colour Colour, king bool, row, col int) (Piece, error) {
	if !b.InBounds(row, col) {
		return Piece{}, fmt.Errorf("place at (%d,%d): %w", row, col, ErrOutOfBounds)
	}
	if colour != Attacker && colour != Defender {
		return Piece{}, fmt.Errorf("place at (%d,%d): unknown colour %d", row, col, int(colour))
	}
	if b.ColourAt(row, col) != SquareEmpty {
		return Piece{}, fmt.Errorf("place at (%d,%d): %w", row, col, ErrDestinationOccupied)
	}
	if king {
		if colour != Defender {
			return Piece{}, fmt.Errorf("place at (%d,%d): the king must be a defender", row, col)
		}
		if _, ok := b.King(); ok {
			return Piece{}, fmt.Errorf("place at (%d,%d): board already has a king", row, col)
		}
	}
	p := Piece{ID: b.nextID, Colour: colour, King: king, Row: row, Col: col}
	b.nextID++
	b.pieces[p.ID] = p
	b.grid[row*b.size+col] = Square(colour)
	return p, nil
}

// Rebuild replaces the piece collection with a snapshot, typically received from the
// replication layer, and recomputes the grid. The board is unchanged if the snapshot is
// inconsistent. Rebuilding twice from the same snapshot yields the same board.
func (b *Board) Rebuild(pieces []Piece) error {
	next := make(map[int]Piece, len(pieces))
	cells := make(map[Location]int, len(pieces))
	kings := 0
	nextID := b.nextID
	for _, p := range pieces {
		if !b.InBounds(p.Row, p.Col) {
			return fmt.Errorf("rebuild: piece %d at %s: %w", p.ID, p.Loc(), ErrOutOfBounds)
		}
		if p.Colour != Attacker && p.Colour != Defender {
			return fmt.Errorf("rebuild: piece %d has unknown colour %d", p.ID, int(p.Colour))
		}
		if _, dup := next[p.ID]; dup {
			return fmt.Errorf("rebuild: duplicate piece id %d", p.ID)
		}
		if other, taken := cells[p.Loc()]; taken {
			return fmt.Errorf("rebuild: pieces %d and %d share %s", other, p.ID, p.Loc())
		}
		if p.King {
			if p.Colour != Defender {
				return fmt.Errorf("rebuild: king %d is not a defender", p.ID)
			}
			kings++
		}
		next[p.ID] = p
		cells[p.Loc()] = p.ID
		if p.ID >= nextID {
			nextID = p.ID + 1
		}
	}
	if kings > 1 {
		return fmt.Errorf("rebuild: %d kings in snapshot", kings)
	}
	b.pieces = next
	b.nextID = nextID
	b.reindex()
	return nil
}

// Clone returns an independent copy.
func (b *Board) Clone() *Board {
	c := &Board{size: b.size, grid: append([]Square(nil), b.grid...), pieces: make(map[int]Piece, len(b.pieces)), nextID: b.nextID}
	for id, p := range b.pieces {
		c.pieces[id] = p
	}
	return c
}

// reindex recomputes the occupancy grid from the pieces.
func (b *Board) reindex() {
	for i := range b.grid {
		b.grid[i] = SquareEmpty
	}
	for _, p := range b.pieces {
		b.grid[p.Row*b.size+p.Col] = Square(p.Colour)
	}
}

// String draws the board for logs: A attacker, D defender, K king, + throne/corner, . empty.
func (b *Board) String() string {
	var sb strings.Builder
	mid := b.size / 2
	last := b.size - 1
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			ch := byte('.')
			if (r == mid && c == mid) || ((r == 0 || r == last) && (c == 0 || c == last)) {
				ch = '+'
			}
			switch b.ColourAt(r, c) {
			case SquareAttacker:
				ch = 'A'
			case SquareDefender:
				ch = 'D'
				if k, ok := b.King(); ok && k.Row == r && k.Col == c {
					ch = 'K'
				}
			}
			sb.WriteByte(ch)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
