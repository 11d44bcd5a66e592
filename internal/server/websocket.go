package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/worldbreakers/worldbreakers-server-go/internal/config"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
	"github.com/worldbreakers/worldbreakers-server-go/internal/session"
)

// Message types of the websocket protocol.
const (
	MsgCreateGame  = "create_game"
	MsgJoinGame    = "join_game"
	MsgAction      = "action"
	MsgGameCreated = "game_created"
	MsgGameState   = "game_state"
	MsgError       = "error"
)

// WSMessage is the single frame type of the websocket protocol. Clients send
// create_game, join_game and action; the server answers with game_created,
// game_state and error, and pushes game_state to every joined client after
// each accepted action.
type WSMessage struct {
	Type   string              `json:"type"`
	GameID string              `json:"gameId,omitempty"`
	Player rules.PlayerID      `json:"player,omitempty"`
	Config *game.GameConfig    `json:"config,omitempty"`
	Action *game.Action        `json:"action,omitempty"`
	View   *session.PlayerView `json:"view,omitempty"`
	Events []rules.Event       `json:"events,omitempty"`
	Legal  []game.PlayerAction `json:"legal,omitempty"`
	Error  string              `json:"error,omitempty"`
}

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
)

type wsClient struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	gameID string
	player rules.PlayerID
}

func (c *wsClient) seat() (string, rules.PlayerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameID, c.player
}

func (c *wsClient) sit(gameID string, player rules.PlayerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameID, c.player = gameID, player
}

type outbound struct {
	client *wsClient
	msg    WSMessage
}

type gameEvents struct {
	gameID string
	events []rules.Event
}

// Hub owns the websocket clients. Only its run loop writes to a client's
// send channel.
type Hub struct {
	sessions *session.Manager
	logger   *zap.Logger
	upgrader websocket.Upgrader

	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	direct     chan outbound
	updates    chan gameEvents
	done       chan struct{}
}

// NewHub creates a hub pushing updates from the session manager's bus.
// Call Run to start it.
func NewHub(sessions *session.Manager, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions: sessions,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		direct:     make(chan outbound, sendBuffer),
		updates:    make(chan gameEvents, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run delivers messages until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	handle := h.sessions.Bus().Subscribe(func(gameID string, events []rules.Event) {
		select {
		case h.updates <- gameEvents{gameID: gameID, events: events}:
		case <-h.done:
		}
	})
	defer h.sessions.Bus().Unsubscribe(handle)
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.logger.Debug("websocket client registered")

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				h.logger.Debug("websocket client unregistered")
			}

		case out := <-h.direct:
			if h.clients[out.client] {
				h.deliver(out.client, out.msg)
			}

		case u := <-h.updates:
			for c := range h.clients {
				gameID, player := c.seat()
				if gameID != u.gameID {
					continue
				}
				h.deliver(c, h.stateMessage(gameID, player, u.events))
			}
		}
	}
}

func (h *Hub) drop(c *wsClient) {
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) deliver(c *wsClient, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode websocket message", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	default:
		h.logger.Warn("dropping slow websocket client", zap.String("game_id", msg.GameID))
		h.drop(c)
	}
}

func (h *Hub) stateMessage(gameID string, player rules.PlayerID, events []rules.Event) WSMessage {
	view, err := h.sessions.View(gameID, player)
	if err != nil {
		return WSMessage{Type: MsgError, GameID: gameID, Error: err.Error()}
	}
	legal, err := h.sessions.LegalActions(gameID, player)
	if err != nil {
		return WSMessage{Type: MsgError, GameID: gameID, Error: err.Error()}
	}
	return WSMessage{Type: MsgGameState, GameID: gameID, Player: player, View: view, Events: events, Legal: legal}
}

func (h *Hub) reply(c *wsClient, msg WSMessage) {
	select {
	case h.direct <- outbound{client: c, msg: msg}:
	case <-h.done:
	}
}

func (h *Hub) handleMessage(ctx context.Context, c *wsClient, msg WSMessage) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic in websocket handler",
				zap.String("type", msg.Type),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			h.reply(c, WSMessage{Type: MsgError, Error: "internal error"})
		}
	}()

	switch msg.Type {
	case MsgCreateGame:
		if msg.Config == nil {
			h.reply(c, WSMessage{Type: MsgError, Error: "config is required"})
			return
		}
		id, err := h.sessions.Create(ctx, *msg.Config)
		if err != nil {
			h.reply(c, WSMessage{Type: MsgError, Error: err.Error()})
			return
		}
		h.reply(c, WSMessage{Type: MsgGameCreated, GameID: id})

	case MsgJoinGame:
		if !msg.Player.Valid() {
			h.reply(c, WSMessage{Type: MsgError, GameID: msg.GameID, Error: "invalid player"})
			return
		}
		state := h.stateMessage(msg.GameID, msg.Player, nil)
		if state.Type == MsgGameState {
			c.sit(msg.GameID, msg.Player)
		}
		h.reply(c, state)

	case MsgAction:
		gameID, player := c.seat()
		if gameID == "" {
			h.reply(c, WSMessage{Type: MsgError, Error: "join a game first"})
			return
		}
		if msg.Action == nil {
			h.reply(c, WSMessage{Type: MsgError, GameID: gameID, Error: "action is required"})
			return
		}
		// Accepted actions reach every joined client through the bus.
		if _, err := h.sessions.Submit(ctx, gameID, game.PlayerAction{Player: player, Action: *msg.Action}); err != nil {
			h.reply(c, WSMessage{Type: MsgError, GameID: gameID, Error: err.Error()})
		}

	default:
		h.reply(c, WSMessage{Type: MsgError, Error: "unknown message type " + msg.Type})
	}
}

// ServeHTTP upgrades the request and serves the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go h.readPump(c)
}

// readPump outlives the upgrade request, so it does not use its context.
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(c, WSMessage{Type: MsgError, Error: "malformed message"})
			continue
		}
		h.handleMessage(context.Background(), c, msg)
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// StartWebSocketServer serves the websocket protocol on cfg.Address at
// cfg.Path until ctx is cancelled.
func StartWebSocketServer(ctx context.Context, cfg config.WebSocketConfig, sessions *session.Manager, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := NewHub(sessions, logger)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, hub)
	srv := &http.Server{Addr: cfg.Address, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting websocket server",
		zap.String("address", cfg.Address),
		zap.String("path", cfg.Path),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
