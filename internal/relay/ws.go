package relay

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/Cheese-Tafl/internal/obslog"
	"github.com/park285/Cheese-Tafl/pkg/tafldto"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

var ErrNotConnected = errors.New("ws not connected")

type FrameCallback func(f *tafldto.Frame)

type StateCallback func(state State)

// WebSocket keeps a connection to the replication hub. Inbound frames go to
// OnFrame callbacks; outbound frames go through WriteFrame.
type WebSocket struct {
	wsURL string

	conn  *websocket.Conn
	connM sync.Mutex

	state  State
	stateM sync.RWMutex

	frameCbs []FrameCallback
	stateCbs []StateCallback
	cbM      sync.RWMutex

	maxReconnectAttempts int
	pingInterval         time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc

	headerProvider HeaderProvider
}

// NewWebSocket creates a client. maxReconnectAttempts <= 0 disables reconnects.
func NewWebSocket(wsURL string, maxReconnectAttempts int) *WebSocket {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocket{
		wsURL:                wsURL,
		state:                StateDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
		rootCtx:              ctx,
		rootCancel:           cancel,
	}
}

// SetHeaderProvider injects headers into the handshake (e.g. X-User-*).
func (ws *WebSocket) SetHeaderProvider(h HeaderProvider) { ws.headerProvider = h }

func (ws *WebSocket) OnFrame(cb FrameCallback) {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.frameCbs = append(ws.frameCbs, cb)
}

func (ws *WebSocket) OnStateChange(cb StateCallback) {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.stateCbs = append(ws.stateCbs, cb)
}

func (ws *WebSocket) State() State {
	ws.stateM.RLock()
	defer ws.stateM.RUnlock()
	return ws.state
}

func (ws *WebSocket) Connected() bool { return ws.State() == StateConnected }

func (ws *WebSocket) Connect(ctx context.Context) error {
	switch ws.State() {
	case StateConnected, StateConnecting:
		return nil
	}
	ws.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := ws.dial(dialCtx)
	if err != nil {
		ws.setState(StateFailed)
		ws.scheduleReconnect()
		return err
	}
	ws.attach(conn)
	return nil
}

func (ws *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, ws.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      ws.buildHeaders(),
	})
	return conn, err
}

func (ws *WebSocket) attach(conn *websocket.Conn) {
	ws.connM.Lock()
	ws.conn = conn
	ws.connM.Unlock()
	ws.setState(StateConnected)

	ws.wg.Add(2)
	go ws.listen(conn)
	go ws.pingLoop(conn)
}

func (ws *WebSocket) current() *websocket.Conn {
	ws.connM.Lock()
	defer ws.connM.Unlock()
	return ws.conn
}

// WriteFrame sends one frame. Without a caller deadline the write is bounded to 5s.
func (ws *WebSocket) WriteFrame(ctx context.Context, f tafldto.Frame) error {
	conn := ws.current()
	if conn == nil || !ws.Connected() {
		return ErrNotConnected
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return wsjson.Write(ctx, conn, f)
}

func (ws *WebSocket) listen(conn *websocket.Conn) {
	defer ws.wg.Done()
	for {
		var f tafldto.Frame
		if err := wsjson.Read(ws.rootCtx, conn, &f); err != nil {
			if ws.isStopping() {
				return
			}
			obslog.L().Warn("relay_ws_read_error", zap.Error(err))
			ws.drop(conn, "reconnect")
			return
		}
		if f.Type == tafldto.FramePing {
			continue
		}

		ws.cbM.RLock()
		callbacks := append([]FrameCallback(nil), ws.frameCbs...)
		ws.cbM.RUnlock()
		for _, cb := range callbacks {
			if cb != nil {
				cb(&f)
			}
		}
	}
}

func (ws *WebSocket) pingLoop(conn *websocket.Conn) {
	defer ws.wg.Done()
	t := time.NewTicker(ws.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ws.stopCh:
			return
		case <-ws.rootCtx.Done():
			return
		case <-t.C:
			if ws.current() != conn {
				return
			}
			ctx, cancel := context.WithTimeout(ws.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				if !ws.isStopping() {
					ws.drop(conn, "ping failure")
				}
				return
			}
		}
	}
}

// drop closes conn if it is still current and starts reconnecting.
func (ws *WebSocket) drop(conn *websocket.Conn, reason string) {
	ws.connM.Lock()
	if ws.conn != conn {
		ws.connM.Unlock()
		return
	}
	ws.conn = nil
	ws.connM.Unlock()

	_ = conn.Close(websocket.StatusGoingAway, reason)
	ws.setState(StateDisconnected)
	ws.scheduleReconnect()
}

func (ws *WebSocket) scheduleReconnect() {
	if ws.maxReconnectAttempts <= 0 || ws.isStopping() {
		return
	}
	ws.setState(StateReconnecting)

	go func() {
		for attempt := 1; attempt <= ws.maxReconnectAttempts; attempt++ {
			select {
			case <-ws.stopCh:
				return
			case <-time.After(backoffDuration(attempt)):
			}

			dialCtx, cancel := context.WithTimeout(ws.rootCtx, 10*time.Second)
			conn, err := ws.dial(dialCtx)
			cancel()
			if err != nil {
				obslog.L().Debug("relay_ws_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			if ws.isStopping() {
				_ = conn.Close(websocket.StatusNormalClosure, "close")
				return
			}
			obslog.L().Info("relay_ws_reconnected", zap.Int("attempt", attempt))
			ws.attach(conn)
			return
		}
		ws.setState(StateFailed)
	}()
}

func (ws *WebSocket) setState(state State) {
	ws.stateM.Lock()
	ws.state = state
	ws.stateM.Unlock()

	ws.cbM.RLock()
	callbacks := append([]StateCallback(nil), ws.stateCbs...)
	ws.cbM.RUnlock()
	for _, cb := range callbacks {
		if cb != nil {
			cb(state)
		}
	}
}

func (ws *WebSocket) Close(ctx context.Context) error {
	ws.stopOnce.Do(func() { close(ws.stopCh) })

	ws.connM.Lock()
	conn := ws.conn
	ws.conn = nil
	ws.connM.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	ws.rootCancel()
	ws.setState(StateDisconnected)

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (ws *WebSocket) isStopping() bool {
	select {
	case <-ws.stopCh:
		return true
	default:
		return false
	}
}

func (ws *WebSocket) buildHeaders() http.Header {
	hdr := http.Header{}
	if ws.headerProvider == nil {
		return hdr
	}
	for k, v := range ws.headerProvider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
