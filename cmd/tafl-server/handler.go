package main

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Tafl/internal/config"
	"github.com/park285/Cheese-Tafl/internal/lobby"
	"github.com/park285/Cheese-Tafl/internal/obslog"
	"github.com/park285/Cheese-Tafl/internal/session"
	"github.com/park285/Cheese-Tafl/internal/tafl"
	"github.com/park285/Cheese-Tafl/pkg/tafldto"
)

var errLobbyDisabled = tafldto.DomainError{Code: "LOBBY_DISABLED", Message: "open tables need TAFL_REDIS_URL"}

type frameSender interface {
	Send(ctx context.Context, f tafldto.Frame) error
}

// handler routes inbound hub frames. lobby is nil when Redis is not configured.
type handler struct {
	cfg      *config.AppConfig
	sessions *session.Manager
	lobby    *lobby.Manager
	out      frameSender
}

func (h *handler) handle(ctx context.Context, f *tafldto.Frame) {
	if f == nil {
		return
	}
	var (
		meta tafldto.RequestMeta
		err  error
	)
	switch {
	case f.Type == tafldto.FrameMove && f.Move != nil:
		meta = f.Move.Meta
		if h.allowed(meta, f.Type) {
			err = h.move(ctx, f.Move)
		}
	case f.Type == tafldto.FrameOpen && f.Open != nil:
		meta = f.Open.Meta
		if h.allowed(meta, f.Type) {
			err = h.open(ctx, f.Open)
		}
	case f.Type == tafldto.FrameJoin && f.Join != nil:
		meta = f.Join.Meta
		if h.allowed(meta, f.Type) {
			err = h.join(ctx, f.Join)
		}
	default:
		return
	}
	if err != nil {
		h.reject(ctx, f, meta, err)
	}
}

func (h *handler) allowed(meta tafldto.RequestMeta, kind string) bool {
	if h.cfg == nil || h.cfg.RoomAllowed(meta.Room) {
		return true
	}
	obslog.L().Debug("frame_ignored", zap.String("type", kind), zap.String("room", meta.Room))
	return false
}

func (h *handler) move(ctx context.Context, req *tafldto.MoveRequest) error {
	player := strings.TrimSpace(req.Meta.Sender)
	res, err := h.sessions.Submit(ctx, req.SessionID, session.MoveRequest{
		PlayerID: player,
		PieceID:  req.PieceID,
		To:       tafl.Location{Row: req.Row, Col: req.Col},
	})
	if err != nil {
		return err
	}
	obslog.L().Info("tafl_move",
		zap.String("player", player),
		zap.Int("piece", res.Outcome.Piece.ID),
		zap.Int("to_row", res.Outcome.To.Row),
		zap.Int("to_col", res.Outcome.To.Col),
		zap.Int("captured", len(res.Outcome.Captured)),
	)
	if res.Turn.Ended && h.lobby != nil && len(res.Events) > 0 {
		sid := res.Events[0].SessionID
		if err := h.lobby.Finish(ctx, player, sid); err != nil && !errors.Is(err, lobby.ErrTableGone) {
			obslog.L().Warn("lobby_finish_error", zap.String("session_id", sid), zap.Error(err))
		}
	}
	return nil
}

func (h *handler) open(ctx context.Context, req *tafldto.OpenTableRequest) error {
	if h.lobby == nil {
		return errLobbyDisabled
	}
	_, err := h.lobby.Make(ctx, req.Meta.Room, req.Meta.Sender, req.Meta.Name, req.Variant, lobby.ParseSideChoice(req.Side))
	return err
}

func (h *handler) join(ctx context.Context, req *tafldto.JoinTableRequest) error {
	if h.lobby == nil {
		return errLobbyDisabled
	}
	_, err := h.lobby.Join(ctx, req.Meta.Room, req.Code, req.Meta.Sender, req.Meta.Name)
	return err
}

// reject answers with an error frame that echoes the request so the hub can route it.
func (h *handler) reject(ctx context.Context, f *tafldto.Frame, meta tafldto.RequestMeta, err error) {
	de := session.ToDomainError(err)
	if c := lobby.Code(err); c != "" {
		de = &tafldto.DomainError{Code: c, Message: err.Error()}
	}
	obslog.L().Info("tafl_reject",
		zap.String("type", f.Type),
		zap.String("room", meta.Room),
		zap.String("sender", meta.Sender),
		zap.String("code", de.Code),
	)
	reply := tafldto.Frame{Type: tafldto.FrameError, Move: f.Move, Open: f.Open, Join: f.Join, Error: de}
	if sendErr := h.out.Send(ctx, reply); sendErr != nil {
		obslog.L().Warn("reject_send_failed", zap.String("code", de.Code), zap.Error(sendErr))
	}
}
