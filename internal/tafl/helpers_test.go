package tafl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/park285/Cheese-Tafl/internal/variant"
)

type spot struct {
	colour Colour
	king   bool
	row    int
	col    int
}

func att(r, c int) spot  { return spot{colour: Attacker, row: r, col: c} }
func def(r, c int) spot  { return spot{colour: Defender, row: r, col: c} }
func king(r, c int) spot { return spot{colour: Defender, king: true, row: r, col: c} }

// newBoard places spots in order, so IDs follow argument order.
func newBoard(t *testing.T, size int, spots ...spot) *Board {
	t.Helper()
	b, err := NewBoard(size)
	require.NoError(t, err)
	for _, s := range spots {
		_, err := b.Place(s.colour, s.king, s.row, s.col)
		require.NoError(t, err)
	}
	return b
}

func mustPieceAt(t *testing.T, b *Board, r, c int) Piece {
	t.Helper()
	p, ok := b.PieceAt(r, c)
	require.True(t, ok, "no piece at (%d,%d)\n%s", r, c, b)
	return p
}

func ardRi(t *testing.T) *Board {
	t.Helper()
	cfg, res := variant.Builtin().Lookup("ardri")
	require.False(t, res.FellBack)
	b, err := Setup(cfg)
	require.NoError(t, err)
	return b
}

func loc(r, c int) Location { return Location{Row: r, Col: c} }
