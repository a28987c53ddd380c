// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taibuivan/gymroster/internal/platform/constants"
)

// # Live Roster Feed

// feedBufferSize is the number of frames a slow subscriber may lag behind.
const feedBufferSize = 32

// FeedHub pushes roster events to WebSocket subscribers of a session.
//
// It is a [Sink]: the dispatcher hands it every event and the hub forwards the
// frame to the subscribers of that session. A subscriber whose buffer is full is
// disconnected instead of stalling the dispatcher.
type FeedHub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu          sync.RWMutex
	subscribers map[string]map[*feedClient]struct{}
}

type feedClient struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

// NewFeedHub constructs a [FeedHub]. checkOrigin may be nil to allow any origin.
func NewFeedHub(logger *slog.Logger, checkOrigin func(*http.Request) bool) *FeedHub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &FeedHub{
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      checkOrigin,
		},
		logger:      logger,
		subscribers: make(map[string]map[*feedClient]struct{}),
	}
}

// Name implements [Sink].
func (hub *FeedHub) Name() string { return "feed" }

// Deliver implements [Sink].
func (hub *FeedHub) Deliver(_ context.Context, event RosterChanged) error {
	frame, err := json.Marshal(event)
	if err != nil {
		return err
	}

	hub.mu.RLock()
	var lagging []*feedClient
	for client := range hub.subscribers[event.SessionID] {
		select {
		case client.send <- frame:
		default:
			lagging = append(lagging, client)
		}
	}
	hub.mu.RUnlock()

	for _, client := range lagging {
		hub.logger.Warn("feed_subscriber_dropped",
			slog.String("session_id", event.SessionID),
			slog.String("reason", "buffer_full"),
		)
		hub.unsubscribe(event.SessionID, client)
	}
	return nil
}

// Subscribers returns the number of live connections for the session.
func (hub *FeedHub) Subscribers(sessionID string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subscribers[sessionID])
}

// Close sends a going-away frame to every subscriber and disconnects them.
// http.Server.Shutdown does not track hijacked connections, so the server
// registers this as a shutdown hook.
func (hub *FeedHub) Close() {
	hub.mu.Lock()
	subscribers := hub.subscribers
	hub.subscribers = make(map[string]map[*feedClient]struct{})
	hub.mu.Unlock()

	frame := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	deadline := time.Now().Add(constants.FeedWriteTimeout)

	closed := 0
	for _, clients := range subscribers {
		for client := range clients {
			_ = client.conn.WriteControl(websocket.CloseMessage, frame, deadline)
			client.close()
			closed++
		}
	}
	hub.logger.Info("feed_hub_closed", slog.Int("subscribers", closed))
}

// Serve upgrades the request and streams the session's roster events until the
// client disconnects.
func (hub *FeedHub) Serve(writer http.ResponseWriter, request *http.Request, sessionID string) error {
	conn, err := hub.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		return err
	}

	client := &feedClient{
		conn: conn,
		send: make(chan []byte, feedBufferSize),
		done: make(chan struct{}),
	}
	hub.subscribe(sessionID, client)

	hub.logger.Info("feed_subscribed", slog.String("session_id", sessionID))

	go hub.writeLoop(sessionID, client)
	hub.readLoop(sessionID, client)
	return nil
}

func (hub *FeedHub) subscribe(sessionID string, client *feedClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	clients, found := hub.subscribers[sessionID]
	if !found {
		clients = make(map[*feedClient]struct{})
		hub.subscribers[sessionID] = clients
	}
	clients[client] = struct{}{}
}

func (hub *FeedHub) unsubscribe(sessionID string, client *feedClient) {
	hub.mu.Lock()
	if clients, found := hub.subscribers[sessionID]; found {
		delete(clients, client)
		if len(clients) == 0 {
			delete(hub.subscribers, sessionID)
		}
	}
	hub.mu.Unlock()

	client.close()
}

// readLoop discards inbound frames and returns when the peer goes away.
func (hub *FeedHub) readLoop(sessionID string, client *feedClient) {
	defer hub.unsubscribe(sessionID, client)

	client.conn.SetReadLimit(512)
	_ = client.conn.SetReadDeadline(time.Now().Add(2 * constants.FeedPingInterval))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(2 * constants.FeedPingInterval))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop is the only writer on the connection.
func (hub *FeedHub) writeLoop(sessionID string, client *feedClient) {
	ticker := time.NewTicker(constants.FeedPingInterval)
	defer ticker.Stop()
	defer hub.unsubscribe(sessionID, client)

	for {
		select {
		case frame := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(constants.FeedWriteTimeout))
			if err := client.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(constants.FeedWriteTimeout))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-client.done:
			return
		}
	}
}

func (client *feedClient) close() {
	client.closeOnce.Do(func() {
		close(client.done)
		_ = client.conn.Close()
	})
}
