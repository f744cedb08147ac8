package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Tafl/internal/obslog"
	"github.com/park285/Cheese-Tafl/internal/tafl"
)

// EventKind names a committed state change.
type EventKind string

const (
	EventGameStarted   EventKind = "GAME_STARTED"
	EventPiecePlaced   EventKind = "PIECE_PLACED"
	EventPieceMoved    EventKind = "PIECE_MOVED"
	EventPieceCaptured EventKind = "PIECE_CAPTURED"
	EventTurnChanged   EventKind = "TURN_CHANGED"
	EventGameEnded     EventKind = "GAME_ENDED"
)

// Event is one committed state change. Seq starts at 1 and has no gaps within a session.
type Event struct {
	SessionID string
	Seq       uint64
	Kind      EventKind
	At        time.Time
	Variant   string
	Piece     *tafl.Piece
	From      *tafl.Location
	To        *tafl.Location
	Holder    int // new turn holder index, TURN_CHANGED only
	Player    string
	Colour    tafl.Colour
	Result    *tafl.Result
}

// Publisher receives events in commit order. A failed publish never undoes the move.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PublisherFunc adapts a plain function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

// Multi publishes to every target in order and joins their errors.
func Multi(pubs ...Publisher) Publisher {
	var list []Publisher
	for _, p := range pubs {
		if p != nil {
			list = append(list, p)
		}
	}
	return multiPublisher(list)
}

type multiPublisher []Publisher

func (m multiPublisher) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Broadcaster fans events out to in-process subscribers. Each subscriber has its own buffer
// and sees events in publish order; one that falls behind is cut off and its channel closed.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	buffer int
}

type subscriber struct {
	ch     chan Event
	filter string
}

// NewBroadcaster gives each subscriber a buffer of the given size; zero or less means 64.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broadcaster{subs: make(map[uint64]*subscriber), buffer: buffer}
}

// Subscribe registers a listener. sessionID "" receives every session. The returned func
// unsubscribes and is safe to call more than once.
func (b *Broadcaster) Subscribe(sessionID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	sub := &subscriber{ch: make(chan Event, b.buffer), filter: sessionID}
	b.subs[id] = sub
	return sub.ch, func() { b.drop(id) }
}

func (b *Broadcaster) Publish(_ context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subs {
		if sub.filter != "" && sub.filter != ev.SessionID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			obslog.L().Warn("broadcast_subscriber_dropped",
				zap.Uint64("subscriber", id),
				zap.String("session_id", ev.SessionID),
				zap.Uint64("seq", ev.Seq),
			)
			delete(b.subs, id)
			close(sub.ch)
		}
	}
	return nil
}

// Close closes every subscriber channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}

func (b *Broadcaster) drop(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}
