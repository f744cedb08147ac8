package tafl

import "errors"

// Rejections are ordinary results: a rejected move never touches the board.
var (
	ErrOutOfBounds         = errf("destination is off the board")
	ErrDestinationOccupied = errf("destination is occupied")
	ErrNotOrthogonal       = errf("move must be purely horizontal or vertical")
	ErrPathBlocked         = errf("path to destination is blocked")
	ErrRestrictedTile      = errf("only the king may stop on the throne or a corner")
	ErrUnknownPiece        = errf("unknown piece or stale state")
	ErrGameDecided         = errf("game already has a winner")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }

// Code returns a stable wire code for a rejection, or "" for other errors.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

var codes = []struct {
	err  error
	code string
}{
	{ErrOutOfBounds, "OUT_OF_BOUNDS"},
	{ErrDestinationOccupied, "DESTINATION_OCCUPIED"},
	{ErrNotOrthogonal, "NOT_ORTHOGONAL"},
	{ErrPathBlocked, "PATH_BLOCKED"},
	{ErrRestrictedTile, "RESTRICTED_TILE"},
	{ErrUnknownPiece, "UNKNOWN_PIECE"},
	{ErrGameDecided, "GAME_OVER"},
}
