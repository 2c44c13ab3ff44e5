package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type wsMessage struct {
	Type  string    `json:"type"`
	State stateView `json:"state"`
}

// hub tracks open websocket clients so changes outside the controller, like
// the theme, can ask them to resend.
type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn   *websocket.Conn
	resend chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newHub() *hub {
	return &hub{clients: make(map[*wsClient]struct{})}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// nudge asks every client to send the current state again.
func (h *hub) nudge() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.resend <- struct{}{}:
		default:
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
	}
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.done) })
}

// GET /api/ws pushes a snapshot on connect and after every change.
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return nil
	}
	client := &wsClient{conn: conn, resend: make(chan struct{}, 1), done: make(chan struct{})}
	s.hub.add(client)
	defer func() {
		s.hub.remove(client)
		client.close()
		conn.Close()
	}()

	go client.readPump()

	updates, cancel := s.Controller.Subscribe()
	defer cancel()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			if err := client.write(wsMessage{Type: "state", State: s.view(st)}); err != nil {
				return nil
			}
		case <-client.resend:
			if err := client.write(wsMessage{Type: "state", State: s.view(s.Controller.State())}); err != nil {
				return nil
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-client.done:
			return nil
		case <-s.Ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return nil
		}
	}
}

func (c *wsClient) write(msg wsMessage) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Debug("websocket write failed", "error", err)
		return err
	}
	return nil
}

// readPump discards client messages and notices when the peer goes away.
func (c *wsClient) readPump() {
	defer c.close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
