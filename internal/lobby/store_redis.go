package lobby

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = time.Hour

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, errors.New("redis url required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) keyMeta(code string) string         { return "tb:" + strings.TrimSpace(code) }
func (s *Store) keyRooms(code string) string        { return s.keyMeta(code) + ":rooms" }
func (s *Store) keyParticipants(code string) string { return s.keyMeta(code) + ":participants" }
func (s *Store) keyUserIdx(user string) string      { return "tb:index:user:" + strings.TrimSpace(user) }
func (s *Store) keyLobby() string                   { return "tb:lobby" }

// Reserve claims code if nobody holds it.
func (s *Store) Reserve(ctx context.Context, code string) (bool, error) {
	return s.rdb.SetNX(ctx, s.keyMeta(code), []byte("{}"), s.ttl).Result()
}

func (s *Store) SaveMeta(ctx context.Context, code string, meta *TableMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.keyMeta(code), raw, s.ttl).Err(); err != nil {
		return err
	}
	// companions follow the meta TTL
	_ = s.rdb.Expire(ctx, s.keyRooms(code), s.ttl).Err()
	_ = s.rdb.Expire(ctx, s.keyParticipants(code), s.ttl).Err()
	return nil
}

func (s *Store) LoadMeta(ctx context.Context, code string) (*TableMeta, error) {
	raw, err := s.rdb.Get(ctx, s.keyMeta(code)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m TableMeta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		// reserved but not yet written
		return nil, nil
	}
	return &m, nil
}

func (s *Store) AddRoom(ctx context.Context, code, room string) error {
	if strings.TrimSpace(room) == "" {
		return nil
	}
	if err := s.rdb.SAdd(ctx, s.keyRooms(code), room).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, s.keyRooms(code), s.ttl).Err()
}

func (s *Store) Rooms(ctx context.Context, code string) ([]string, error) {
	rooms, err := s.rdb.SMembers(ctx, s.keyRooms(code)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(rooms)
	return rooms, nil
}

func (s *Store) AddParticipant(ctx context.Context, code, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	if err := s.rdb.SAdd(ctx, s.keyParticipants(code), userID).Err(); err != nil {
		return err
	}
	_ = s.rdb.Expire(ctx, s.keyParticipants(code), s.ttl).Err()
	// index by user → codes
	if err := s.rdb.SAdd(ctx, s.keyUserIdx(userID), code).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, s.keyUserIdx(userID), s.ttl).Err()
}

func (s *Store) RemoveParticipant(ctx context.Context, code, userID string) error {
	pipe := s.rdb.TxPipeline()
	pipe.SRem(ctx, s.keyParticipants(code), userID)
	pipe.SRem(ctx, s.keyUserIdx(userID), code)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Participants(ctx context.Context, code string) ([]string, error) {
	return s.rdb.SMembers(ctx, s.keyParticipants(code)).Result()
}

func (s *Store) ParticipantCount(ctx context.Context, code string) (int64, error) {
	return s.rdb.SCard(ctx, s.keyParticipants(code)).Result()
}

func (s *Store) CodesByUser(ctx context.Context, userID string) ([]string, error) {
	return s.rdb.SMembers(ctx, s.keyUserIdx(userID)).Result()
}

// codeGen returns `TB-` + 6 upper alnum.
func codeGen() (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return fmt.Sprintf("TB-%s", string(b)), nil
}

// Lobby index helpers
func (s *Store) AddLobby(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	if err := s.rdb.SAdd(ctx, s.keyLobby(), code).Err(); err != nil {
		return err
	}
	_ = s.rdb.Expire(ctx, s.keyLobby(), s.ttl).Err()
	return nil
}

func (s *Store) RemoveLobby(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	return s.rdb.SRem(ctx, s.keyLobby(), code).Err()
}

// ListLobby returns waiting tables, oldest first. Expired codes are pruned from the index.
func (s *Store) ListLobby(ctx context.Context) ([]*TableMeta, error) {
	codes, err := s.rdb.SMembers(ctx, s.keyLobby()).Result()
	if err != nil {
		return nil, err
	}
	var out []*TableMeta
	for _, c := range codes {
		m, err := s.LoadMeta(ctx, c)
		if err != nil {
			return nil, err
		}
		if m == nil {
			_ = s.RemoveLobby(ctx, c)
			continue
		}
		if m.State != StateLobby {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
