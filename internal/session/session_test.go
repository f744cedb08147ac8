package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/Cheese-Tafl/internal/tafl"
	"github.com/park285/Cheese-Tafl/internal/variant"
)

type recorder struct {
	mu  sync.Mutex
	evs []Event
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, ev)
	return nil
}

func (r *recorder) events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.evs...)
}

func (r *recorder) kinds(from int) []EventKind {
	var out []EventKind
	for _, ev := range r.events()[from:] {
		out = append(out, ev.Kind)
	}
	return out
}

var players = [2]Player{{ID: "alice", Name: "Alice"}, {ID: "bob", Name: "Bob"}}

// newStarted returns an ardri session where alice attacks.
func newStarted(t *testing.T) (*Session, *recorder) {
	t.Helper()
	cfg, _ := variant.Builtin().Lookup("ardri")
	rec := &recorder{}
	s, err := New("s1", cfg, players, true, rec)
	require.NoError(t, err)
	_, err = s.Start(context.Background())
	require.NoError(t, err)
	return s, rec
}

func pieceAt(t *testing.T, s *Session, r, c int) tafl.Piece {
	t.Helper()
	for _, p := range s.Snapshot().Pieces {
		if p.Row == r && p.Col == c {
			return p
		}
	}
	t.Fatalf("no piece at (%d,%d)", r, c)
	return tafl.Piece{}
}

func assertGapFree(t *testing.T, evs []Event) {
	t.Helper()
	for i, ev := range evs {
		assert.Equal(t, uint64(i+1), ev.Seq, "event %d (%s)", i, ev.Kind)
		assert.Equal(t, "s1", ev.SessionID)
	}
}

func TestNewRejectsBadPlayers(t *testing.T) {
	cfg, _ := variant.Builtin().Lookup("ardri")
	_, err := New("s1", cfg, [2]Player{{ID: "a"}, {ID: " a "}}, true, nil)
	assert.ErrorIs(t, err, ErrInvalidArgs)
	_, err = New("s1", cfg, [2]Player{{ID: "a"}, {}}, true, nil)
	assert.ErrorIs(t, err, ErrInvalidArgs)
	_, err = New("", cfg, players, true, nil)
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestStartEmitsSetup(t *testing.T) {
	s, rec := newStarted(t)
	evs := rec.events()
	require.Len(t, evs, 1+25+1)
	assert.Equal(t, EventGameStarted, evs[0].Kind)
	assert.Equal(t, "ardri", evs[0].Variant)
	for _, ev := range evs[1:26] {
		assert.Equal(t, EventPiecePlaced, ev.Kind)
		require.NotNil(t, ev.Piece)
	}
	last := evs[26]
	assert.Equal(t, EventTurnChanged, last.Kind)
	assert.Equal(t, "alice", last.Player)
	assert.Equal(t, tafl.Attacker, last.Colour)
	assertGapFree(t, evs)

	_, err := s.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestSubmitBeforeStart(t *testing.T) {
	cfg, _ := variant.Builtin().Lookup("ardri")
	s, err := New("s1", cfg, players, true, nil)
	require.NoError(t, err)
	_, err = s.Submit(context.Background(), MoveRequest{PlayerID: "alice", PieceID: 3, To: tafl.Location{Row: 5, Col: 1}})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestSubmitRejections(t *testing.T) {
	s, rec := newStarted(t)
	ctx := context.Background()
	before := len(rec.events())
	attacker := pieceAt(t, s, 5, 3)
	defender := pieceAt(t, s, 4, 3)

	cases := []struct {
		name string
		req  MoveRequest
		want error
	}{
		{"stranger", MoveRequest{PlayerID: "carol", PieceID: attacker.ID, To: tafl.Location{Row: 5, Col: 1}}, ErrNotParticipant},
		{"out of turn", MoveRequest{PlayerID: "bob", PieceID: defender.ID, To: tafl.Location{Row: 5, Col: 4}}, ErrNotYourTurn},
		{"unknown piece", MoveRequest{PlayerID: "alice", PieceID: 99, To: tafl.Location{Row: 5, Col: 1}}, tafl.ErrUnknownPiece},
		{"enemy piece", MoveRequest{PlayerID: "alice", PieceID: defender.ID, To: tafl.Location{Row: 5, Col: 4}}, ErrNotYourPiece},
		{"diagonal", MoveRequest{PlayerID: "alice", PieceID: attacker.ID, To: tafl.Location{Row: 4, Col: 1}}, tafl.ErrNotOrthogonal},
		{"occupied", MoveRequest{PlayerID: "alice", PieceID: attacker.ID, To: tafl.Location{Row: 4, Col: 3}}, tafl.ErrDestinationOccupied},
		{"off board", MoveRequest{PlayerID: "alice", PieceID: attacker.ID, To: tafl.Location{Row: 5, Col: 9}}, tafl.ErrOutOfBounds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Submit(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Len(t, rec.events(), before, "rejections emit nothing")
	assert.Equal(t, 0, s.Snapshot().Moves)
	assert.Equal(t, uint64(before), s.Snapshot().Seq)
}

func TestSubmitCommitsAndAlternates(t *testing.T) {
	s, rec := newStarted(t)
	ctx := context.Background()
	from := len(rec.events())

	res, err := s.Submit(ctx, MoveRequest{PlayerID: "alice", PieceID: pieceAt(t, s, 5, 3).ID, To: tafl.Location{Row: 5, Col: 1}})
	require.NoError(t, err)
	assert.True(t, res.Turn.Advanced)
	assert.Equal(t, 1, res.Turn.Holder)
	assert.Equal(t, []EventKind{EventPieceMoved, EventTurnChanged}, rec.kinds(from))
	assert.Equal(t, res.Events, rec.events()[from:])

	moved := res.Events[0]
	assert.Equal(t, "alice", moved.Player)
	assert.Equal(t, tafl.Location{Row: 5, Col: 3}, *moved.From)
	assert.Equal(t, tafl.Location{Row: 5, Col: 1}, *moved.To)
	assert.Equal(t, "bob", res.Events[1].Player)

	_, err = s.Submit(ctx, MoveRequest{PlayerID: "alice", PieceID: pieceAt(t, s, 5, 1).ID, To: tafl.Location{Row: 5, Col: 2}})
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = s.Submit(ctx, MoveRequest{PlayerID: "bob", PieceID: pieceAt(t, s, 4, 4).ID, To: tafl.Location{Row: 5, Col: 4}})
	require.NoError(t, err)

	st := s.Snapshot()
	assert.Equal(t, 2, st.Moves)
	assert.Equal(t, 0, st.Holder)
	assertGapFree(t, rec.events())
}

func TestCaptureEvents(t *testing.T) {
	s, rec := newStarted(t)
	require.NoError(t, s.Rebuild([]tafl.Piece{
		{ID: 0, Colour: tafl.Attacker, Row: 2, Col: 3},
		{ID: 1, Colour: tafl.Attacker, Row: 4, Col: 1},
		{ID: 16, Colour: tafl.Defender, Row: 2, Col: 2},
		{ID: 24, Colour: tafl.Defender, King: true, Row: 5, Col: 5},
	}))
	from := len(rec.events())

	res, err := s.Submit(context.Background(), MoveRequest{PlayerID: "alice", PieceID: 1, To: tafl.Location{Row: 2, Col: 1}})
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventPieceMoved, EventPieceCaptured, EventTurnChanged}, rec.kinds(from))
	require.Len(t, res.Outcome.Captured, 1)
	assert.Equal(t, 16, res.Events[1].Piece.ID)
	assert.Equal(t, tafl.Defender, res.Events[1].Colour)
	assertGapFree(t, rec.events())
}

func TestKingCaptureEndsGame(t *testing.T) {
	s, rec := newStarted(t)
	require.NoError(t, s.Rebuild([]tafl.Piece{
		{ID: 0, Colour: tafl.Attacker, Row: 1, Col: 2},
		{ID: 1, Colour: tafl.Attacker, Row: 2, Col: 1},
		{ID: 2, Colour: tafl.Attacker, Row: 3, Col: 2},
		{ID: 3, Colour: tafl.Attacker, Row: 2, Col: 5},
		{ID: 16, Colour: tafl.Defender, Row: 6, Col: 3},
		{ID: 24, Colour: tafl.Defender, King: true, Row: 2, Col: 2},
	}))
	from := len(rec.events())
	ctx := context.Background()

	res, err := s.Submit(ctx, MoveRequest{PlayerID: "alice", PieceID: 3, To: tafl.Location{Row: 2, Col: 3}})
	require.NoError(t, err)
	assert.True(t, res.Turn.Ended)
	assert.Equal(t, []EventKind{EventPieceMoved, EventPieceCaptured, EventGameEnded}, rec.kinds(from))
	end := res.Events[2]
	require.NotNil(t, end.Result)
	assert.Equal(t, tafl.AttackerWins, end.Result.Winner)
	assert.Equal(t, tafl.ReasonKingCaptured, end.Result.Reason)
	assert.True(t, s.Over())
	assert.Equal(t, [2]bool{true, false}, s.Winners())

	_, err = s.Submit(ctx, MoveRequest{PlayerID: "bob", PieceID: 16, To: tafl.Location{Row: 6, Col: 4}})
	assert.ErrorIs(t, err, ErrGameOver)
	_, err = s.DeclareDraw(ctx)
	assert.ErrorIs(t, err, ErrGameOver)

	before := s.Snapshot().Board
	err = s.Rebuild([]tafl.Piece{{ID: 24, Colour: tafl.Defender, King: true, Row: 3, Col: 3}})
	assert.ErrorIs(t, err, ErrGameOver)
	assert.Equal(t, before, s.Snapshot().Board, "a finished game is frozen")
}

func TestTurnChangedCarriesHolder(t *testing.T) {
	s, rec := newStarted(t)
	evs := rec.events()
	start := evs[len(evs)-1]
	require.Equal(t, EventTurnChanged, start.Kind)
	assert.Equal(t, 0, start.Holder)
	assert.Equal(t, "alice", start.Player)

	res, err := s.Submit(context.Background(), MoveRequest{PlayerID: "alice", PieceID: pieceAt(t, s, 5, 3).ID, To: tafl.Location{Row: 5, Col: 1}})
	require.NoError(t, err)
	turn := res.Events[len(res.Events)-1]
	require.Equal(t, EventTurnChanged, turn.Kind)
	assert.Equal(t, 1, turn.Holder)
	assert.Equal(t, tafl.Defender, turn.Colour)
}

func TestStalemateLoses(t *testing.T) {
	s, rec := newStarted(t)
	require.NoError(t, s.Rebuild([]tafl.Piece{
		{ID: 0, Colour: tafl.Attacker, Row: 1, Col: 0},
		{ID: 1, Colour: tafl.Attacker, Row: 3, Col: 0},
		{ID: 2, Colour: tafl.Attacker, Row: 1, Col: 1},
		{ID: 3, Colour: tafl.Attacker, Row: 3, Col: 1},
		{ID: 4, Colour: tafl.Attacker, Row: 2, Col: 2},
		{ID: 5, Colour: tafl.Attacker, Row: 6, Col: 4},
		{ID: 16, Colour: tafl.Defender, Row: 2, Col: 1},
		{ID: 24, Colour: tafl.Defender, King: true, Row: 2, Col: 0},
	}))
	from := len(rec.events())

	res, err := s.Submit(context.Background(), MoveRequest{PlayerID: "alice", PieceID: 5, To: tafl.Location{Row: 6, Col: 5}})
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventPieceMoved, EventGameEnded}, rec.kinds(from))
	assert.Equal(t, tafl.Result{Winner: tafl.AttackerWins, Reason: tafl.ReasonStalemate}, res.Turn.Result)
	assert.Equal(t, [2]bool{true, false}, s.Winners(), "stalemate is a loss, not a draw")
}

func TestDeclareDraw(t *testing.T) {
	s, rec := newStarted(t)
	from := len(rec.events())
	res, err := s.DeclareDraw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tafl.Draw, res.Winner)
	assert.Equal(t, []EventKind{EventGameEnded}, rec.kinds(from))
	assert.Equal(t, [2]bool{true, true}, s.Winners())
	assertGapFree(t, rec.events())
}

func TestPublishFailureKeepsMove(t *testing.T) {
	cfg, _ := variant.Builtin().Lookup("ardri")
	failing := PublisherFunc(func(context.Context, Event) error { return errors.New("relay down") })
	s, err := New("s1", cfg, players, true, failing)
	require.NoError(t, err)
	_, err = s.Start(context.Background())
	require.NoError(t, err)

	res, err := s.Submit(context.Background(), MoveRequest{PlayerID: "alice", PieceID: pieceAt(t, s, 5, 3).ID, To: tafl.Location{Row: 5, Col: 1}})
	require.NoError(t, err)
	assert.Len(t, res.Events, 2)
	assert.Equal(t, 1, s.Snapshot().Moves)
}

func TestConcurrentSubmitsApplyOnce(t *testing.T) {
	s, _ := newStarted(t)
	id := pieceAt(t, s, 5, 3).ID

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Submit(context.Background(), MoveRequest{PlayerID: "alice", PieceID: id, To: tafl.Location{Row: 5, Col: 1}})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrNotYourTurn)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, s.Snapshot().Moves)
}

func TestRebuildRejectsBadSnapshot(t *testing.T) {
	s, _ := newStarted(t)
	before := s.Snapshot().Board
	err := s.Rebuild([]tafl.Piece{{ID: 0, Row: 1, Col: 1}, {ID: 1, Row: 1, Col: 1}})
	assert.Error(t, err)
	assert.Equal(t, before, s.Snapshot().Board)
}
