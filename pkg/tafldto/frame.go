package tafldto

// Frame types carried over the relay websocket.
const (
	FrameMove  = "move"
	FrameOpen  = "open"
	FrameJoin  = "join"
	FrameEvent = "event"
	FrameError = "error"
	FramePing  = "ping"
)

// Frame is one websocket message. Exactly one payload matches Type.
type Frame struct {
	Type  string            `json:"type"`
	Move  *MoveRequest      `json:"move,omitempty"`
	Open  *OpenTableRequest `json:"open,omitempty"`
	Join  *JoinTableRequest `json:"join,omitempty"`
	Event *Event            `json:"event,omitempty"`
	Error *DomainError      `json:"error,omitempty"`
}
