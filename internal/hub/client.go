package hub

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/event"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// tuning parameters
	writeWait      = 10 * time.Second    // time allowed to write a message to the peer
	pongWait       = 20 * time.Second    // time allowed to read the next pong message from the peer
	pingInterval   = (pongWait * 9) / 10 // send pings to peer with this period
	maxMessageSize = 64 * 1024           // max inbound message size (64KB)
	sendBufSize    = 256                 // per-connection outbound buffer size
	workerPoolSize = 16                  // number of workers to process inbound events
	sendTimeout    = 2 * time.Second     // timeout for enqueuing outbound events
)

// Client is one live authenticated connection. The websocket is only
// touched by the read and write pumps; everything else communicates
// through the egress channel, so delivery never blocks on a peer.
type Client struct {
	ID     string
	UserID string
	Name   string
	Email  string

	conn   *websocket.Conn
	hub    *Hub
	egress chan event.WsEvent

	ctx            context.Context
	cancel         context.CancelFunc
	closeOnce      sync.Once
	disconnectOnce sync.Once
	closeCode      int
	closeReason    string
}

func newClient(userID, name, email string, conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(h.ctx)
	return &Client{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Email:       email,
		conn:        conn,
		hub:         h,
		egress:      make(chan event.WsEvent, sendBufSize),
		ctx:         ctx,
		cancel:      cancel,
		closeCode:   websocket.CloseNormalClosure,
		closeReason: "",
	}
}

func (c *Client) readPump() {
	defer c.hub.handleDisconnect(c)

	c.conn.SetReadLimit(int64(maxMessageSize))
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev event.WsEvent
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				c.hub.logger.Debug("client disconnected", zap.String("client_id", c.ID))
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				c.hub.logger.Debug("client timed out", zap.String("client_id", c.ID))
				return
			}
			c.hub.logger.Debug("read error",
				zap.String("client_id", c.ID),
				zap.Error(err),
			)
			return
		}

		select {
		case c.hub.inbound <- inboundEvent{client: c, event: ev}:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			msg := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		case ev, ok := <-c.egress:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.hub.logger.Debug("write error",
					zap.String("client_id", c.ID),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Send enqueues an event for delivery. A peer that cannot drain its
// buffer within sendTimeout is disconnected rather than allowed to
// stall fan-out.
func (c *Client) Send(ev event.WsEvent) bool {
	select {
	case c.egress <- ev:
		return true
	case <-c.ctx.Done():
		return false
	case <-time.After(sendTimeout):
		c.hub.logger.Warn("egress full, disconnecting client",
			zap.String("client_id", c.ID),
			zap.String("user_id", c.UserID),
		)
		c.close(websocket.CloseGoingAway, "send buffer full")
		return false
	}
}

// TrySend enqueues without waiting; it reports whether the event was
// accepted.
func (c *Client) TrySend(ev event.WsEvent) bool {
	select {
	case c.egress <- ev:
		return true
	case <-c.ctx.Done():
		return false
	default:
		return false
	}
}

// close ends the connection with the given close code. Superseded
// sessions get a normal closure.
func (c *Client) close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		c.cancel()
	})
}
