package tafldto

import "time"

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type Piece struct {
	ID     int    `json:"id"`
	Colour string `json:"colour"`
	King   bool   `json:"king,omitempty"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Colour string `json:"colour"`
}

type SessionState struct {
	SessionID  string    `json:"session_id"`
	Variant    string    `json:"variant"`
	BoardSize  int       `json:"board_size"`
	Players    []Player  `json:"players"`
	Pieces     []Piece   `json:"pieces"`
	TurnHolder string    `json:"turn_holder,omitempty"`
	TurnColour string    `json:"turn_colour,omitempty"`
	MoveCount  int       `json:"move_count"`
	Seq        uint64    `json:"seq"`
	Winner     string    `json:"winner,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Board      string    `json:"board,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
