// SPDX-License-Identifier: MIT
package transport

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	applog "earshot/internal/log"
)

// WebSocketTransport broadcasts events as JSON to every connected client.
// Visualizers subscribe at ws://<addr>/events.
type WebSocketTransport struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	server    *http.Server
	done      chan struct{}
}

// NewWebSocketTransport starts an event server on addr and returns the
// transport. The server keeps running until Close.
func NewWebSocketTransport(addr string) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser visualizers connect from arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 256),
		done:      make(chan struct{}),
	}
	wst.start()
	return wst
}

func (wst *WebSocketTransport) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", wst.handleConnection)

	wst.server = &http.Server{Addr: wst.addr, Handler: mux}

	go func() {
		applog.Infof("Transport: WebSocket server listening on %s", wst.addr)
		if err := wst.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Errorf("Transport: WebSocket server error: %v", err)
		}
	}()

	go wst.broadcastLoop()
}

func (wst *WebSocketTransport) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("Transport: WebSocket upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("Transport: client connected, total: %d", total)

	// Drain reads until the client goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		wst.clientsMu.Lock()
		delete(wst.clients, conn)
		total := len(wst.clients)
		wst.clientsMu.Unlock()
		conn.Close()
		applog.Infof("Transport: client disconnected, total: %d", total)
	}()
}

func (wst *WebSocketTransport) broadcastLoop() {
	for {
		select {
		case event := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				if err := client.WriteJSON(event); err != nil {
					applog.Warnf("Transport: dropping client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		case <-wst.done:
			return
		}
	}
}

// Send queues the event for broadcast. When the queue is full the event is
// dropped rather than stalling the analysis loop.
func (wst *WebSocketTransport) Send(event any) error {
	select {
	case wst.broadcast <- event:
	default:
	}
	return nil
}

// Close disconnects all clients and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	close(wst.done)

	wst.clientsMu.Lock()
	for client := range wst.clients {
		client.Close()
	}
	wst.clients = make(map[*websocket.Conn]bool)
	wst.clientsMu.Unlock()

	if wst.server != nil {
		return wst.server.Close()
	}
	return nil
}

var _ Transport = (*WebSocketTransport)(nil)
