package lobby

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Tafl/internal/obslog"
	"github.com/park285/Cheese-Tafl/internal/session"
)

// Sessions is the part of session.Manager the lobby needs.
type Sessions interface {
	Start(ctx context.Context, req session.StartRequest) (*session.Session, error)
	ActiveFor(playerID string) (*session.Session, error)
}

type Manager struct {
	rdb      *redis.Client
	store    *Store
	sessions Sessions
	now      func() time.Time
}

func NewManager(rdb *redis.Client, sessions Sessions, ttl time.Duration) *Manager {
	return &Manager{rdb: rdb, store: NewStore(rdb, ttl), sessions: sessions, now: time.Now}
}

func (m *Manager) busy(userID string) bool {
	s, err := m.sessions.ActiveFor(userID)
	return err == nil && s != nil
}

// Make opens a table. The variant name is stored as given and resolved when the game starts.
func (m *Manager) Make(ctx context.Context, room, userID, userName, variantName string, side SideChoice) (*MakeResult, error) {
	room, userID = strings.TrimSpace(room), strings.TrimSpace(userID)
	if room == "" || userID == "" {
		return nil, ErrInvalidArgs
	}
	if m.busy(userID) {
		return nil, ErrPlayerBusy
	}
	if open, err := m.openTableOf(ctx, userID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, ErrCreatorHasTable
	}
	if side == "" {
		side = SideRandom
	}

	for i := 0; i < 5; i++ {
		c, err := codeGen()
		if err != nil {
			return nil, err
		}
		ok, err := m.store.Reserve(ctx, c)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		meta := &TableMeta{
			ID:          c,
			State:       StateLobby,
			CreatedAt:   m.now(),
			Variant:     strings.ToLower(strings.TrimSpace(variantName)),
			Side:        side,
			CreatorID:   userID,
			CreatorName: strings.TrimSpace(userName),
			CreatorRoom: room,
		}
		if err := m.store.SaveMeta(ctx, c, meta); err != nil {
			return nil, err
		}
		if err := m.store.AddRoom(ctx, c, room); err != nil {
			return nil, err
		}
		// creator is the first participant so the next join starts the game
		if err := m.store.AddParticipant(ctx, c, userID); err != nil {
			return nil, err
		}
		if err := m.store.AddLobby(ctx, c); err != nil {
			return nil, err
		}
		obslog.L().Info("lobby_make",
			zap.String("code", c),
			zap.String("room", room),
			zap.String("creator_id", userID),
			zap.String("variant", meta.Variant),
			zap.String("side", string(side)),
		)
		return &MakeResult{Code: c, Meta: meta}, nil
	}
	return nil, fmt.Errorf("failed to allocate table code")
}

// Join seats the second player and starts the game.
func (m *Manager) Join(ctx context.Context, room, code, userID, userName string) (*JoinResult, error) {
	room, code, userID = strings.TrimSpace(room), strings.ToUpper(strings.TrimSpace(code)), strings.TrimSpace(userID)
	if room == "" || code == "" || userID == "" {
		return nil, ErrInvalidArgs
	}
	meta, err := m.store.LoadMeta(ctx, code)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, ErrTableGone
	}
	if meta.State != StateLobby {
		return nil, ErrTableActive
	}
	if meta.CreatorID == userID {
		return nil, ErrSelfJoin
	}
	if m.busy(userID) || m.busy(meta.CreatorID) {
		return nil, ErrPlayerBusy
	}

	// WATCH participants to prevent race joins
	partKey := m.store.keyParticipants(code)
	err = m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cnt, err := tx.SCard(ctx, partKey).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if cnt >= 2 {
			return ErrFull
		}
		pipe := tx.TxPipeline()
		pipe.SAdd(ctx, partKey, userID)
		pipe.Expire(ctx, partKey, m.store.ttl)
		pipe.SAdd(ctx, m.store.keyRooms(code), room)
		pipe.Expire(ctx, m.store.keyRooms(code), m.store.ttl)
		pipe.SAdd(ctx, m.store.keyUserIdx(userID), code)
		pipe.Expire(ctx, m.store.keyUserIdx(userID), m.store.ttl)
		_, pErr := pipe.Exec(ctx)
		return pErr
	}, partKey)
	if errors.Is(err, redis.TxFailedErr) {
		err = ErrFull
	}
	if err != nil {
		obslog.L().Warn("lobby_join_error", zap.String("code", code), zap.String("room", room), zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	creatorIsAttacker := m.creatorAttacks(meta.Side)
	s, err := m.sessions.Start(ctx, session.StartRequest{
		Variant:           meta.Variant,
		Players:           [2]session.Player{{ID: meta.CreatorID, Name: meta.CreatorName}, {ID: userID, Name: strings.TrimSpace(userName)}},
		CreatorIsAttacker: creatorIsAttacker,
	})
	if err != nil {
		// free the seat again
		_ = m.store.RemoveParticipant(ctx, code, userID)
		if errors.Is(err, session.ErrPlayerBusy) {
			err = ErrPlayerBusy
		}
		obslog.L().Warn("lobby_start_error", zap.String("code", code), zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	if creatorIsAttacker {
		meta.AttackerID, meta.AttackerName = meta.CreatorID, meta.CreatorName
		meta.DefenderID, meta.DefenderName = userID, strings.TrimSpace(userName)
	} else {
		meta.AttackerID, meta.AttackerName = userID, strings.TrimSpace(userName)
		meta.DefenderID, meta.DefenderName = meta.CreatorID, meta.CreatorName
	}
	meta.State = StateActive
	meta.SessionID = s.ID()
	if err := m.store.SaveMeta(ctx, code, meta); err != nil {
		return nil, err
	}
	// remove from lobby index once game starts
	_ = m.store.RemoveLobby(ctx, code)
	obslog.L().Info("lobby_start_game",
		zap.String("code", code),
		zap.String("session_id", s.ID()),
		zap.String("attacker_id", meta.AttackerID),
		zap.String("defender_id", meta.DefenderID),
	)
	return &JoinResult{Started: true, SessionID: s.ID(), Meta: meta}, nil
}

// Cancel closes the creator's waiting table.
func (m *Manager) Cancel(ctx context.Context, userID string) (*TableMeta, error) {
	meta, err := m.openTableOf(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, ErrTableGone
	}
	meta.State = StateCanceled
	if err := m.store.SaveMeta(ctx, meta.ID, meta); err != nil {
		return nil, err
	}
	_ = m.store.RemoveLobby(ctx, meta.ID)
	obslog.L().Info("lobby_cancel", zap.String("code", meta.ID), zap.String("creator_id", meta.CreatorID))
	return meta, nil
}

// Finish marks the table bound to sessionID as finished.
func (m *Manager) Finish(ctx context.Context, userID, sessionID string) error {
	codes, err := m.store.CodesByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, c := range codes {
		meta, _ := m.store.LoadMeta(ctx, c)
		if meta != nil && meta.SessionID == sessionID {
			meta.State = StateFinished
			return m.store.SaveMeta(ctx, c, meta)
		}
	}
	return ErrTableGone
}

func (m *Manager) Get(ctx context.Context, code string) (*TableMeta, error) {
	meta, err := m.store.LoadMeta(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, ErrTableGone
	}
	return meta, nil
}

// List returns waiting tables, oldest first.
func (m *Manager) List(ctx context.Context) ([]*TableMeta, error) { return m.store.ListLobby(ctx) }

func (m *Manager) Rooms(ctx context.Context, code string) ([]string, error) {
	return m.store.Rooms(ctx, code)
}

// RoomsBySession finds the rooms of the table that started sessionID.
func (m *Manager) RoomsBySession(ctx context.Context, userID, sessionID string) ([]string, error) {
	codes, err := m.store.CodesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range codes {
		meta, _ := m.store.LoadMeta(ctx, c)
		if meta != nil && meta.SessionID == sessionID {
			return m.store.Rooms(ctx, c)
		}
	}
	return nil, nil
}

func (m *Manager) openTableOf(ctx context.Context, userID string) (*TableMeta, error) {
	codes, err := m.store.CodesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range codes {
		meta, err := m.store.LoadMeta(ctx, c)
		if err != nil {
			return nil, err
		}
		if meta != nil && meta.State == StateLobby && meta.CreatorID == userID {
			return meta, nil
		}
	}
	return nil, nil
}

func (m *Manager) creatorAttacks(side SideChoice) bool {
	switch side {
	case SideAttacker:
		return true
	case SideDefender:
		return false
	default:
		n, err := rand.Int(rand.Reader, big.NewInt(2))
		return err == nil && n.Int64() == 0
	}
}
