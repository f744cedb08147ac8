package tafldto

type RequestMeta struct {
	Room   string `json:"room,omitempty"`
	Sender string `json:"sender"`
	Name   string `json:"name,omitempty"`
}

// MoveRequest asks to move one piece. Row/Col are zero-based.
type MoveRequest struct {
	Meta      RequestMeta `json:"meta"`
	SessionID string      `json:"session_id,omitempty"`
	PieceID   int         `json:"piece_id"`
	Row       int         `json:"row"`
	Col       int         `json:"col"`
}

type OpenTableRequest struct {
	Meta    RequestMeta `json:"meta"`
	Variant string      `json:"variant,omitempty"`
	Side    string      `json:"side,omitempty"`
}

type JoinTableRequest struct {
	Meta RequestMeta `json:"meta"`
	Code string      `json:"code"`
}
