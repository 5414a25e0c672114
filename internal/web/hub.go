// internal/web/hub.go
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tamzrod/ppe-monitor/internal/display"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	// the dashboard is served on the station's local interface only
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message types sent by dashboard clients.
const (
	msgVisibility  = "visibility"
	msgVideoLoad   = "video_load"
	msgVideoError  = "video_error"
	msgReloadVideo = "reload_video"
	msgReconnect   = "reconnect"
	msgError       = "error"
)

type clientMessage struct {
	Type    string `json:"type"`
	Visible bool   `json:"visible,omitempty"`
	Message string `json:"message,omitempty"`
}

type serverMessage struct {
	Type string       `json:"type"`
	View display.View `json:"view"`
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte // latest-wins, capacity 1
	visible bool
}

// Hub tracks dashboard websocket clients and pushes views to them.
type Hub struct {
	ctl   Controller
	pause bool
	log   *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte
	view    display.View
	hasView bool
	watched bool
	closed  bool
}

func NewHub(ctl Controller, pauseWhenUnwatched bool, log *slog.Logger) *Hub {
	return &Hub{
		ctl:     ctl,
		pause:   pauseWhenUnwatched,
		log:     log,
		clients: make(map[*client]struct{}),
	}
}

// Broadcast encodes v once and offers it to every client.
func (h *Hub) Broadcast(v display.View) error {
	data, err := json.Marshal(serverMessage{Type: "view", View: v})
	if err != nil {
		return fmt.Errorf("web: encode view: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = data
	h.view = v
	h.hasView = true

	for c := range h.clients {
		offer(c.send, data)
	}
	return nil
}

// Latest returns the last broadcast view.
func (h *Hub) Latest() (display.View, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.view, h.hasView
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		_ = c.conn.Close()
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 1)}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	h.log.Debug("dashboard client connected", "remote_addr", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)

	h.unregister(c)
	h.log.Debug("dashboard client disconnected", "remote_addr", r.RemoteAddr)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		offer(c.send, h.latest)
	}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.recountLocked()
	h.mu.Unlock()

	_ = c.conn.Close()
}

func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				h.log.Debug("ignoring malformed dashboard message", "error", err)
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("dashboard client read failed", "error", err)
			}
			return
		}
		h.dispatch(c, msg)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) dispatch(c *client, msg clientMessage) {
	switch msg.Type {
	case msgVisibility:
		h.mu.Lock()
		c.visible = msg.Visible
		h.recountLocked()
		h.mu.Unlock()
	case msgVideoLoad:
		h.ctl.ReportVideoLoad()
	case msgVideoError:
		h.ctl.ReportVideoError()
	case msgReloadVideo:
		h.ctl.ReloadVideo()
	case msgReconnect:
		h.ctl.Reconnect()
	case msgError:
		h.ctl.ReportSystemError(fmt.Errorf("dashboard: %s", msg.Message))
	default:
		h.log.Debug("unknown dashboard message", "type", msg.Type)
	}
}

// recountLocked recomputes whether any client is visible and, when
// pausing is enabled, forwards a change to the monitor. Callers hold h.mu
// so transitions reach the monitor in order.
func (h *Hub) recountLocked() {
	watched := false
	for c := range h.clients {
		if c.visible {
			watched = true
			break
		}
	}
	if watched == h.watched {
		return
	}
	h.watched = watched

	if h.pause {
		h.log.Info("dashboard visibility changed", "watched", watched)
		h.ctl.SetVisible(watched)
	}
}

// offer replaces any pending message with msg.
func offer(ch chan []byte, msg []byte) {
	select {
	case ch <- msg:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- msg:
	default:
	}
}
