// SPDX-License-Identifier: MIT
package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "timbre/internal/log"
)

const writeTimeout = 5 * time.Second

// WebSocketTransport broadcasts payloads as JSON to every connected client.
// The last payload is retained and sent to clients as soon as they connect,
// so a spectrum computed before anyone listens is not lost.
type WebSocketTransport struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	latest    any
	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once
}

// NewWebSocketTransport creates a transport and starts its broadcast loop.
// Mount Handler on an HTTP server to accept clients.
func NewWebSocketTransport() *WebSocketTransport {
	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 16),
		done:      make(chan struct{}),
	}
	go wst.handleBroadcasts()
	return wst
}

// Handler upgrades HTTP requests to WebSocket connections.
func (wst *WebSocketTransport) Handler() http.Handler {
	return http.HandlerFunc(wst.handleWebSocket)
}

func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("transport: websocket upgrade from %s: %v", r.RemoteAddr, err)
		return
	}

	select {
	case <-wst.done:
		conn.Close()
		return
	default:
	}

	// Register the client and replay the latest payload under the same
	// lock so it cannot interleave with a broadcast.
	wst.clientsMu.Lock()
	if wst.latest != nil {
		if err := wst.write(conn, wst.latest); err != nil {
			wst.clientsMu.Unlock()
			applog.Warnf("transport: sending latest payload to %s: %v", r.RemoteAddr, err)
			conn.Close()
			return
		}
	}
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("transport: client %s connected, total: %d", r.RemoteAddr, total)

	// Clients never send; reading only detects the disconnect.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		wst.drop(conn)
	}()
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	conn.Close()
	if ok {
		applog.Infof("transport: client disconnected, total: %d", total)
	}
}

func (wst *WebSocketTransport) write(conn *websocket.Conn, data any) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(data)
}

// handleBroadcasts sends queued payloads to all connected clients.
func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case <-wst.done:
			return
		case data := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				if err := wst.write(client, data); err != nil {
					applog.Warnf("transport: sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		}
	}
}

// Send records data as the latest payload and queues it for broadcast.
// When the queue is full the broadcast is dropped; late clients still
// receive the latest payload on connect.
func (wst *WebSocketTransport) Send(data any) error {
	wst.clientsMu.Lock()
	wst.latest = data
	wst.clientsMu.Unlock()

	select {
	case wst.broadcast <- data:
	default:
		applog.Debug("transport: broadcast queue full, dropping payload")
	}
	return nil
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// Close stops the broadcast loop and disconnects all clients.
func (wst *WebSocketTransport) Close() error {
	wst.closeOnce.Do(func() {
		close(wst.done)

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
				time.Now().Add(time.Second))
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()
		applog.Debug("transport: websocket transport closed")
	})
	return nil
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
