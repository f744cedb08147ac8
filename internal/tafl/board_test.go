package tafl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/Cheese-Tafl/internal/variant"
)

func TestNewBoardRejectsBadSizes(t *testing.T) {
	for _, size := range []int{0, 3, 4, 8} {
		_, err := NewBoard(size)
		assert.Error(t, err, "size %d", size)
	}
}

func TestSetupArdRi(t *testing.T) {
	b := ardRi(t)
	assert.Equal(t, 7, b.Size())
	assert.Equal(t, 16, b.Count(Attacker))
	assert.Equal(t, 9, b.Count(Defender))

	k, ok := b.King()
	require.True(t, ok)
	assert.Equal(t, loc(3, 3), k.Loc())
	assert.Equal(t, 24, k.ID, "king is the last placement")

	for i, p := range b.Pieces() {
		assert.Equal(t, i, p.ID, "ids are assigned in placement order")
	}
	assert.Equal(t, SquareAttacker, b.ColourAt(6, 2))
	assert.Equal(t, SquareDefender, b.ColourAt(2, 2))
	assert.Equal(t, SquareEmpty, b.ColourAt(0, 0))
	assert.Equal(t, SquareOffBoard, b.ColourAt(-1, 3))
	assert.Equal(t, SquareOffBoard, b.ColourAt(3, 7))
}

func TestSetupRejectsInvalidConfiguration(t *testing.T) {
	_, err := Setup(variant.Configuration{Name: "x", BoardSize: 6})
	assert.Error(t, err)
}

func TestPlaceGuards(t *testing.T) {
	b := newBoard(t, 5, att(0, 2))
	_, err := b.Place(Defender, false, 0, 2)
	assert.ErrorIs(t, err, ErrDestinationOccupied)
	_, err = b.Place(Defender, false, 5, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = b.Place(Attacker, true, 1, 1)
	assert.Error(t, err)
	_, err = b.Place(Defender, true, 2, 2)
	require.NoError(t, err)
	_, err = b.Place(Defender, true, 3, 3)
	assert.Error(t, err, "second king")
}

func TestPieceAt(t *testing.T) {
	b := newBoard(t, 5, att(0, 2), king(2, 2))
	p, ok := b.PieceAt(2, 2)
	require.True(t, ok)
	assert.True(t, p.King)
	_, ok = b.PieceAt(1, 1)
	assert.False(t, ok)
	_, ok = b.PieceAt(9, 9)
	assert.False(t, ok)
}

func TestRebuildIsIdempotent(t *testing.T) {
	b := ardRi(t)
	snapshot := b.Pieces()
	// drop two pieces and move one, as a replication catch-up would
	snapshot = snapshot[2:]
	snapshot[0].Row = 5
	snapshot[0].Col = 5

	require.NoError(t, b.Rebuild(snapshot))
	first := b.String()
	firstGrid := append([]Square(nil), b.grid...)

	require.NoError(t, b.Rebuild(snapshot))
	assert.Equal(t, first, b.String())
	assert.Equal(t, firstGrid, b.grid)

	assert.Equal(t, SquareEmpty, b.ColourAt(6, 2))
	assert.Equal(t, SquareAttacker, b.ColourAt(5, 5))
	assert.Equal(t, len(snapshot), len(b.Pieces()))
}

func TestRebuildRejectsInconsistentSnapshot(t *testing.T) {
	b := newBoard(t, 5, att(0, 2), king(2, 2))
	before := b.String()

	err := b.Rebuild([]Piece{{ID: 0, Colour: Attacker, Row: 1, Col: 1}, {ID: 1, Colour: Defender, Row: 1, Col: 1}})
	assert.Error(t, err)
	err = b.Rebuild([]Piece{{ID: 0, Colour: Attacker, Row: 1, Col: 1}, {ID: 0, Colour: Defender, Row: 1, Col: 2}})
	assert.Error(t, err)
	err = b.Rebuild([]Piece{{ID: 0, Colour: Attacker, Row: 7, Col: 1}})
	assert.ErrorIs(t, err, ErrOutOfBounds)
	err = b.Rebuild([]Piece{{ID: 0, Colour: Attacker, King: true, Row: 1, Col: 1}})
	assert.Error(t, err)
	err = b.Rebuild([]Piece{{ID: 0, Colour: Colour(7), Row: 1, Col: 1}})
	assert.Error(t, err)
	_, err = b.Place(Colour(-3), false, 4, 4)
	assert.Error(t, err)
	assert.Equal(t, SquareEmpty, b.ColourAt(4, 4))

	assert.Equal(t, before, b.String(), "a rejected snapshot leaves the board alone")
}

func TestCloneIsIndependent(t *testing.T) {
	b := newBoard(t, 5, att(0, 2), king(2, 2))
	c := b.Clone()
	e := NewEngine(c)
	_, err := e.TryApply(0, loc(0, 3))
	require.NoError(t, err)
	assert.Equal(t, SquareAttacker, b.ColourAt(0, 2))
	assert.Equal(t, SquareEmpty, c.ColourAt(0, 2))
}

func TestBoardString(t *testing.T) {
	b := newBoard(t, 5, att(0, 2), def(1, 2), king(3, 2))
	want := "" +
		"+ . A . +\n" +
		". . D . .\n" +
		". . + . .\n" +
		". . K . .\n" +
		"+ . . . +\n"
	assert.Equal(t, want, b.String())
}

func TestCodeUnwraps(t *testing.T) {
	_, err := newBoard(t, 5, att(0, 2)).Place(Defender, false, 0, 2)
	assert.Equal(t, "DESTINATION_OCCUPIED", Code(err))
	assert.Equal(t, "GAME_OVER", Code(ErrGameDecided))
	assert.Equal(t, "", Code(nil))
}
