package lobby

import (
	"errors"
	"strings"
	"time"
)

// TableState is the lifecycle of an open table.
type TableState string

const (
	StateLobby    TableState = "LOBBY"
	StateActive   TableState = "ACTIVE"
	StateFinished TableState = "FINISHED"
	StateCanceled TableState = "CANCELED"
)

// SideChoice is the creator's side preference.
type SideChoice string

const (
	SideAttacker SideChoice = "attacker"
	SideDefender SideChoice = "defender"
	SideRandom   SideChoice = "random"
)

func ParseSideChoice(s string) SideChoice {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attacker", "a", "black", "b":
		return SideAttacker
	case "defender", "d", "white", "w":
		return SideDefender
	default:
		return SideRandom
	}
}

// TableMeta is stored as JSON in Redis under tb:<code>.
type TableMeta struct {
	ID        string     `json:"id"`
	State     TableState `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	Variant   string     `json:"variant"`
	Side      SideChoice `json:"side"`

	CreatorID   string `json:"creator_id"`
	CreatorName string `json:"creator_name"`
	CreatorRoom string `json:"creator_room"`

	AttackerID   string `json:"attacker_id,omitempty"`
	AttackerName string `json:"attacker_name,omitempty"`
	DefenderID   string `json:"defender_id,omitempty"`
	DefenderName string `json:"defender_name,omitempty"`

	SessionID string `json:"session_id,omitempty"`
}

// Results
type MakeResult struct {
	Code string
	Meta *TableMeta
}

type JoinResult struct {
	Started   bool
	SessionID string
	Meta      *TableMeta
}

// Errors
var (
	ErrInvalidArgs = errf("invalid arguments")
	ErrTableGone   = errf("table not found or expired")
	ErrTableActive = errf("table already started")
	ErrFull        = errf("table already has two players")
	ErrSelfJoin    = errf("cannot join your own table")
	// 이미 진행 중인 대국이 있는 플레이어
	ErrPlayerBusy = errf("player has an active game")
	// 같은 사용자가 대기 테이블을 두 개 이상 열 수 없음
	ErrCreatorHasTable = errf("user already has an open table")
)

// Code maps lobby errors onto wire codes; "" for anything else.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgs):
		return "INVALID_ARGS"
	case errors.Is(err, ErrTableGone):
		return "TABLE_GONE"
	case errors.Is(err, ErrTableActive):
		return "TABLE_ACTIVE"
	case errors.Is(err, ErrFull):
		return "TABLE_FULL"
	case errors.Is(err, ErrSelfJoin):
		return "SELF_JOIN"
	case errors.Is(err, ErrPlayerBusy):
		return "PLAYER_BUSY"
	case errors.Is(err, ErrCreatorHasTable):
		return "CREATOR_HAS_TABLE"
	}
	return ""
}

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
