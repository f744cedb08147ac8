package session

var (
	ErrInvalidArgs     = errf("invalid arguments")
	ErrGameOver        = errf("game is over")
	ErrNotStarted      = errf("game has not started")
	ErrAlreadyStarted  = errf("game already started")
	ErrNotParticipant  = errf("player is not in this game")
	ErrNotYourTurn     = errf("not your turn")
	ErrNotYourPiece    = errf("piece belongs to the other side")
	ErrSessionNotFound = errf("session not found")
	ErrTooManySessions = errf("too many concurrent sessions")
	ErrPlayerBusy      = errf("player already has an active game")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
