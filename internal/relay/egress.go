package relay

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Tafl/internal/config"
	"github.com/park285/Cheese-Tafl/internal/obslog"
	"github.com/park285/Cheese-Tafl/internal/session"
	"github.com/park285/Cheese-Tafl/pkg/tafldto"
)

// Egress carries session events and reply frames out of the engine.
// Every Egress is a session.Publisher.
type Egress interface {
	Publish(ctx context.Context, ev session.Event) error
	Send(ctx context.Context, f tafldto.Frame) error
}

// NewEgress picks a transport by mode. auto prefers the websocket while it is
// connected and falls back to HTTP once per message.
func NewEgress(mode string, dryRun bool, c *Client, ws *WebSocket) Egress {
	if dryRun {
		return dryRunEgress{}
	}
	switch mode {
	case config.RelayWS:
		return &wsEgress{ws: ws}
	case config.RelayAuto:
		return &autoEgress{ws: &wsEgress{ws: ws}, http: &httpEgress{c: c}}
	case config.RelayHTTP:
		return &httpEgress{c: c}
	default:
		return offEgress{}
	}
}

// httpEgress delegates to Client.
type httpEgress struct{ c *Client }

func (h *httpEgress) Publish(ctx context.Context, ev session.Event) error {
	if h == nil || h.c == nil {
		return errors.New("http egress not available")
	}
	return h.c.PublishEvent(ctx, session.ToDTOEvent(ev))
}

func (h *httpEgress) Send(ctx context.Context, f tafldto.Frame) error {
	if h == nil || h.c == nil {
		return errors.New("http egress not available")
	}
	return h.c.SendFrame(ctx, f)
}

// wsEgress writes frames over the hub socket.
type wsEgress struct{ ws *WebSocket }

func (w *wsEgress) ready() bool { return w != nil && w.ws != nil && w.ws.Connected() }

func (w *wsEgress) Publish(ctx context.Context, ev session.Event) error {
	dto := session.ToDTOEvent(ev)
	return w.Send(ctx, tafldto.Frame{Type: tafldto.FrameEvent, Event: &dto})
}

func (w *wsEgress) Send(ctx context.Context, f tafldto.Frame) error {
	if w == nil || w.ws == nil {
		return errors.New("ws egress not available")
	}
	return w.ws.WriteFrame(ctx, f)
}

type autoEgress struct {
	ws   *wsEgress
	http *httpEgress
}

func (a *autoEgress) Publish(ctx context.Context, ev session.Event) error {
	if a.ws.ready() {
		err := a.ws.Publish(ctx, ev)
		if err == nil {
			return nil
		}
		obslog.L().Warn("egress_fallback", zap.String("type", tafldto.FrameEvent), zap.String("session_id", ev.SessionID), zap.Error(err))
	}
	return a.http.Publish(ctx, ev)
}

func (a *autoEgress) Send(ctx context.Context, f tafldto.Frame) error {
	if a.ws.ready() {
		err := a.ws.Send(ctx, f)
		if err == nil {
			return nil
		}
		obslog.L().Warn("egress_fallback", zap.String("type", f.Type), zap.Error(err))
	}
	return a.http.Send(ctx, f)
}

type dryRunEgress struct{}

func (dryRunEgress) Publish(_ context.Context, ev session.Event) error {
	obslog.L().Info("egress_dryrun",
		zap.String("session_id", ev.SessionID),
		zap.Uint64("seq", ev.Seq),
		zap.String("kind", string(ev.Kind)),
	)
	return nil
}

func (dryRunEgress) Send(_ context.Context, f tafldto.Frame) error {
	obslog.L().Info("egress_dryrun", zap.String("type", f.Type))
	return nil
}

type offEgress struct{}

func (offEgress) Publish(context.Context, session.Event) error { return nil }
func (offEgress) Send(context.Context, tafldto.Frame) error    { return nil }
