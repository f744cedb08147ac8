package tafldto

import "time"

// Event is the wire form of a session event. Seq is gap-free per session.
type Event struct {
	SessionID string    `json:"session_id"`
	Seq       uint64    `json:"seq"`
	Kind      string    `json:"kind"`
	At        time.Time `json:"at"`
	Variant   string    `json:"variant,omitempty"`
	Piece     *Piece    `json:"piece,omitempty"`
	From      *Cell     `json:"from,omitempty"`
	To        *Cell     `json:"to,omitempty"`
	Holder    *int      `json:"holder,omitempty"`
	Player    string    `json:"player,omitempty"`
	Colour    string    `json:"colour,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	Loser     string    `json:"loser,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}
