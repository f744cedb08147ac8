package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Tafl/internal/obslog"
	"github.com/park285/Cheese-Tafl/internal/tafl"
	"github.com/park285/Cheese-Tafl/internal/variant"
)

// Player is one seat in a game. ID is the stable identity used for turn checks.
type Player struct {
	ID   string
	Name string
}

// MoveRequest moves one piece on behalf of PlayerID.
type MoveRequest struct {
	PlayerID string
	PieceID  int
	To       tafl.Location
}

// MoveResult is returned for a committed move.
type MoveResult struct {
	Outcome tafl.MoveOutcome
	Turn    tafl.TurnStep
	Events  []Event
}

// State is a point-in-time copy of a session.
type State struct {
	ID           string
	Variant      string
	BoardSize    int
	Players      [2]Player
	Colours      [2]tafl.Colour
	Pieces       []tafl.Piece
	Holder       int
	HolderColour tafl.Colour
	Result       tafl.Result
	Moves        int
	Seq          uint64
	Board        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is one game between two players. All mutation goes through its mutex, so at most
// one move is applied at a time and events leave in commit order.
type Session struct {
	mu sync.Mutex
	// over mirrors turns.Over() so readers never wait on mu
	over atomic.Bool

	id      string
	cfg     variant.Configuration
	players [2]Player
	board   *tafl.Board
	engine  *tafl.Engine
	turns   *tafl.Sequencer
	pub     Publisher

	started   bool
	seq       uint64
	moves     int
	createdAt time.Time
	updatedAt time.Time
	now       func() time.Time
}

// New sets up the board for cfg. Player 0 is the creator. Nothing is emitted until Start.
func New(id string, cfg variant.Configuration, players [2]Player, creatorIsAttacker bool, pub Publisher) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidArgs
	}
	for i := range players {
		players[i].ID = strings.TrimSpace(players[i].ID)
		if players[i].ID == "" {
			return nil, ErrInvalidArgs
		}
	}
	if players[0].ID == players[1].ID {
		return nil, ErrInvalidArgs
	}
	board, err := tafl.Setup(cfg)
	if err != nil {
		return nil, err
	}
	if pub == nil {
		pub = nopPublisher{}
	}
	now := time.Now()
	return &Session{
		id:        id,
		cfg:       cfg,
		players:   players,
		board:     board,
		engine:    tafl.NewEngine(board),
		turns:     tafl.NewSequencer(creatorIsAttacker),
		pub:       pub,
		createdAt: now,
		updatedAt: now,
		now:       time.Now,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start announces the game and the starting layout and hands the first turn to the attacker.
// If the attacker cannot move at all the game ends immediately.
func (s *Session) Start(ctx context.Context) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, ErrAlreadyStarted
	}
	s.started = true

	evs := []Event{{Kind: EventGameStarted, Variant: s.cfg.Name}}
	for _, p := range s.board.Pieces() {
		p := p
		at := p.Loc()
		evs = append(evs, Event{Kind: EventPiecePlaced, Piece: &p, To: &at, Colour: p.Colour})
	}
	step := s.turns.Start(s.engine)
	s.over.Store(s.turns.Over())
	evs = append(evs, s.turnEvent(step))

	obslog.L().Info("session_start",
		zap.String("session_id", s.id),
		zap.String("variant", s.cfg.Name),
		zap.String("attacker", s.players[s.turns.IndexOf(tafl.Attacker)].ID),
		zap.String("defender", s.players[s.turns.IndexOf(tafl.Defender)].ID),
	)
	return s.emit(ctx, evs), nil
}

// Submit validates and commits one move. A rejected move leaves the session untouched and
// emits nothing.
func (s *Session) Submit(ctx context.Context, req MoveRequest) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.turns.Over() {
		return nil, ErrGameOver
	}
	if !s.started {
		return nil, ErrNotStarted
	}
	idx := s.indexOf(req.PlayerID)
	if idx < 0 {
		return nil, ErrNotParticipant
	}
	if idx != s.turns.Holder() {
		return nil, ErrNotYourTurn
	}
	piece, ok := s.board.Piece(req.PieceID)
	if !ok {
		return nil, tafl.ErrUnknownPiece
	}
	if piece.Colour != s.turns.ColourOf(idx) {
		return nil, ErrNotYourPiece
	}

	out, err := s.engine.TryApply(req.PieceID, req.To)
	if err != nil {
		obslog.L().Debug("session_move_rejected",
			zap.String("session_id", s.id),
			zap.String("player", req.PlayerID),
			zap.Int("piece", req.PieceID),
			zap.Stringer("to", req.To),
			zap.Error(err),
		)
		return nil, err
	}
	s.moves++
	step := s.turns.EndTurn(s.engine)
	s.over.Store(s.turns.Over())

	moved := out.Piece
	from, to := out.From, out.To
	evs := []Event{{Kind: EventPieceMoved, Piece: &moved, From: &from, To: &to, Player: req.PlayerID, Colour: moved.Colour}}
	for _, c := range out.Captured {
		c := c
		at := c.Loc()
		evs = append(evs, Event{Kind: EventPieceCaptured, Piece: &c, From: &at, Colour: c.Colour})
	}
	evs = append(evs, s.turnEvent(step))

	return &MoveResult{Outcome: out, Turn: step, Events: s.emit(ctx, evs)}, nil
}

// DeclareDraw ends a running game as a draw, crediting both players.
func (s *Session) DeclareDraw(ctx context.Context) (tafl.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return tafl.Result{}, ErrNotStarted
	}
	res, err := s.turns.Declare(tafl.Draw)
	if err != nil {
		return res, ErrGameOver
	}
	s.over.Store(true)
	s.emit(ctx, []Event{s.endEvent(res)})
	return res, nil
}

// Rebuild replaces the piece set from a replication snapshot. The turn holder is kept and
// is not re-checked for stalemate until its next turn starts. A finished game is frozen.
func (s *Session) Rebuild(pieces []tafl.Piece) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turns.Over() {
		return ErrGameOver
	}
	if err := s.board.Rebuild(pieces); err != nil {
		return err
	}
	s.updatedAt = s.now()
	return nil
}

// Has reports whether playerID plays in this session.
func (s *Session) Has(playerID string) bool { return s.indexOf(playerID) >= 0 }

// Over reports whether the game has a result. It does not take the session lock, so it
// never waits on an in-flight publish.
func (s *Session) Over() bool { return s.over.Load() }

// Winners reports per player index who is credited with a win.
func (s *Session) Winners() [2]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns.Winners()
}

// Snapshot copies the current state under the session lock.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		ID:        s.id,
		Variant:   s.cfg.Name,
		BoardSize: s.board.Size(),
		Players:   s.players,
		Colours:   [2]tafl.Colour{s.turns.ColourOf(0), s.turns.ColourOf(1)},
		Pieces:    s.board.Pieces(),
		Holder:    s.turns.Holder(),
		Result:    s.turns.Result(),
		Moves:     s.moves,
		Seq:       s.seq,
		Board:     s.board.String(),
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	if st.Holder >= 0 {
		st.HolderColour = s.turns.HolderColour()
	}
	return st
}

func (s *Session) indexOf(playerID string) int {
	playerID = strings.TrimSpace(playerID)
	for i, p := range s.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (s *Session) turnEvent(step tafl.TurnStep) Event {
	if step.Ended {
		return s.endEvent(step.Result)
	}
	return Event{Kind: EventTurnChanged, Holder: step.Holder, Player: s.players[step.Holder].ID, Colour: s.turns.ColourOf(step.Holder)}
}

func (s *Session) endEvent(res tafl.Result) Event {
	obslog.L().Info("session_end",
		zap.String("session_id", s.id),
		zap.Stringer("winner", res.Winner),
		zap.String("reason", string(res.Reason)),
		zap.Int("moves", s.moves),
	)
	return Event{Kind: EventGameEnded, Result: &res}
}

// emit stamps and publishes events. Callers hold s.mu.
func (s *Session) emit(ctx context.Context, evs []Event) []Event {
	now := s.now()
	s.updatedAt = now
	for i := range evs {
		s.seq++
		evs[i].SessionID = s.id
		evs[i].Seq = s.seq
		evs[i].At = now
		if err := s.pub.Publish(ctx, evs[i]); err != nil {
			obslog.L().Warn("session_publish_failed",
				zap.String("session_id", s.id),
				zap.Uint64("seq", evs[i].Seq),
				zap.String("kind", string(evs[i].Kind)),
				zap.Error(err),
			)
		}
	}
	return evs
}
