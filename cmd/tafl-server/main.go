package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Tafl/internal/config"
	"github.com/park285/Cheese-Tafl/internal/lobby"
	"github.com/park285/Cheese-Tafl/internal/obslog"
	"github.com/park285/Cheese-Tafl/internal/relay"
	"github.com/park285/Cheese-Tafl/internal/session"
	"github.com/park285/Cheese-Tafl/internal/variant"
	"github.com/park285/Cheese-Tafl/pkg/tafldto"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.Init(cfg.Log); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	catalog, err := variant.New(cfg.VariantDir)
	if err != nil {
		logger.Fatal("variant_catalog_error", zap.Error(err))
	}

	var client *relay.Client
	if cfg.RelayBaseURL != "" {
		client = relay.NewClient(cfg.RelayBaseURL,
			relay.WithHeaderProvider(cfg.RelayHeaders),
			relay.WithTimeout(cfg.RelayTimeout),
			relay.WithRetry(cfg.RelayRetry),
		)
	}
	var ws *relay.WebSocket
	if cfg.RelayWSURL != "" && cfg.RelayMode != config.RelayHTTP && cfg.RelayMode != config.RelayOff {
		ws = relay.NewWebSocket(cfg.RelayWSURL, 5)
		ws.SetHeaderProvider(cfg.RelayHeaders)
		ws.OnStateChange(func(state relay.State) {
			logger.Info("relay_ws_state", zap.String("state", state.String()))
		})
	}
	egress := relay.NewEgress(cfg.RelayMode, cfg.RelayDryRun, client, ws)

	broadcaster := session.NewBroadcaster(cfg.EventBuffer)
	pubs := []session.Publisher{broadcaster, egress}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err = lobby.Connect(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			logger.Fatal("redis_connect_error", zap.Error(err))
		}
		pubs = append(pubs, relay.NewRedisPublisher(rdb))
	}

	sessions := session.NewManager(session.Options{
		MaxSessions:    cfg.MaxSessions,
		Catalog:        catalog,
		DefaultVariant: cfg.DefaultVariant,
		Publisher:      session.Multi(pubs...),
	})

	h := &handler{cfg: cfg, sessions: sessions, out: egress}
	if rdb != nil {
		h.lobby = lobby.NewManager(rdb, sessions, cfg.LobbyTTL)
	}

	events, unsubscribe := broadcaster.Subscribe("")
	go logEvents(logger, events)

	if ws != nil {
		ws.OnFrame(func(f *tafldto.Frame) {
			// WS 읽기 루프를 막지 않도록 분리
			go h.handle(context.Background(), f)
		})
		cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := ws.Connect(cctx); err != nil {
			logger.Warn("relay_ws_connect_error", zap.Error(err))
		}
		cancel()
	}

	logger.Info("tafl_server_started",
		zap.Strings("variants", catalog.Names()),
		zap.String("relay_mode", cfg.RelayMode),
		zap.Bool("lobby", h.lobby != nil),
	)

	prune := time.NewTicker(time.Minute)
	defer prune.Stop()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

loop:
	for {
		select {
		case <-prune.C:
			if n := sessions.Prune(); n > 0 {
				logger.Debug("sessions_pruned", zap.Int("count", n))
			}
		case sig := <-sigCh:
			logger.Info("tafl_server_stopping", zap.String("signal", sig.String()))
			break loop
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ws != nil {
		_ = ws.Close(ctx)
	}
	unsubscribe()
	broadcaster.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
}

func logEvents(logger *zap.Logger, events <-chan session.Event) {
	for ev := range events {
		if ev.Kind == session.EventGameEnded && ev.Result != nil {
			logger.Info("tafl_game_end",
				zap.String("session_id", ev.SessionID),
				zap.String("winner", ev.Result.Winner.String()),
				zap.String("reason", string(ev.Result.Reason)),
			)
			continue
		}
		logger.Debug("tafl_event",
			zap.String("session_id", ev.SessionID),
			zap.Uint64("seq", ev.Seq),
			zap.String("kind", string(ev.Kind)),
		)
	}
}
