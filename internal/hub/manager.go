package hub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/auth"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/event"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/service"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const storeCallTimeout = 10 * time.Second

type inboundEvent struct {
	event  event.WsEvent
	client *Client
}

// Hub owns every live connection's lifecycle: handshake auth, presence
// registration, room membership, event dispatch and disconnect cleanup.
type Hub struct {
	presence *Presence

	roomsMu sync.RWMutex
	rooms   map[string]map[string]*Client // roomID -> clientID -> client

	inbound chan inboundEvent

	chat     service.ChatService
	verifier *auth.Verifier
	logger   *zap.Logger
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub builds the hub and starts its event workers.
func NewHub(chat service.ChatService, verifier *auth.Verifier, allowedOrigins []string, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[origin] = struct{}{}
	}

	h := &Hub{
		presence: NewPresence(),
		rooms:    make(map[string]map[string]*Client),
		inbound:  make(chan inboundEvent, 4096),
		chat:     chat,
		verifier: verifier,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
	}

	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-h.inbound:
					if !ok {
						return
					}
					h.route(in.event, in.client)
				}
			}
		}()
	}

	return h
}

// ServeWS authenticates the handshake and, on success, upgrades the
// connection and attaches it. A missing or invalid token rejects the
// request before any event is processed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	identity, err := h.verifier.VerifyCredential(token)
	if err != nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(identity.UserID, identity.Name, identity.Email, conn, h)
	h.attach(client)
}

// attach moves a freshly authenticated client into the Active state:
// presence registration (evicting any prior session), personal room
// join, online flag, presence broadcast and the online-users snapshot.
func (h *Hub) attach(c *Client) {
	prior := h.presence.Register(c.UserID, c)
	if prior != nil {
		h.leaveAllRooms(prior)
		prior.close(websocket.CloseNormalClosure, "session superseded")
		h.logger.Info("prior session evicted",
			zap.String("user_id", c.UserID),
			zap.String("old_client_id", prior.ID),
			zap.String("new_client_id", c.ID),
		)
	}

	go c.readPump()
	go c.writePump()

	h.joinRoom(c.UserID, c)

	ctx, cancelStore := context.WithTimeout(h.ctx, storeCallTimeout)
	if err := h.chat.SetOnline(ctx, c.UserID, true); err != nil {
		h.logger.Error("failed to mark user online",
			zap.String("user_id", c.UserID),
			zap.Error(err),
		)
	}
	cancelStore()

	h.broadcastAll(event.New(event.EventUserStatus, event.UserStatusPayload{
		UserID: c.UserID,
		Status: event.StatusOnline,
	}), c.UserID)

	c.Send(event.New(event.EventOnlineUsers, event.OnlineUsersPayload{
		Users: h.onlineUsersExcept(c.UserID),
	}))

	h.logger.Info("client attached",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.UserID),
	)
}

// handleDisconnect runs the Active -> Disconnected transition exactly
// once per connection, even when natural disconnect races with forced
// eviction.
func (h *Hub) handleDisconnect(c *Client) {
	c.disconnectOnce.Do(func() {
		h.leaveAllRooms(c)

		wasLive := h.presence.Unregister(c.UserID, c)
		c.close(websocket.CloseNormalClosure, "")

		if !wasLive {
			// Superseded by a newer session: the user is still
			// online through that session, no offline notice.
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
		defer cancel()
		if err := h.chat.SetOnline(ctx, c.UserID, false); err != nil {
			h.logger.Error("failed to mark user offline",
				zap.String("user_id", c.UserID),
				zap.Error(err),
			)
		}

		h.broadcastAll(event.New(event.EventUserStatus, event.UserStatusPayload{
			UserID: c.UserID,
			Status: event.StatusOffline,
		}), c.UserID)

		h.logger.Info("client detached",
			zap.String("client_id", c.ID),
			zap.String("user_id", c.UserID),
		)
	})
}

// -----------------------------------------------------------------
// Rooms
// -----------------------------------------------------------------

func (h *Hub) joinRoom(roomID string, c *Client) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()

	room := h.rooms[roomID]
	if room == nil {
		room = make(map[string]*Client)
		h.rooms[roomID] = room
	}
	room[c.ID] = c
}

func (h *Hub) leaveRoom(roomID string, c *Client) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	h.leaveRoomLocked(roomID, c)
}

func (h *Hub) leaveRoomLocked(roomID string, c *Client) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(room, c.ID)
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) leaveAllRooms(c *Client) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	for roomID := range h.rooms {
		h.leaveRoomLocked(roomID, c)
	}
}

// broadcastRoom delivers ev to every room member except exceptUserID.
// Members are collected under the read lock and delivery happens
// outside it so one slow peer cannot block the room.
func (h *Hub) broadcastRoom(roomID string, ev event.WsEvent, exceptUserID string) int {
	h.roomsMu.RLock()
	room := h.rooms[roomID]
	clients := make([]*Client, 0, len(room))
	for _, c := range room {
		if exceptUserID != "" && c.UserID == exceptUserID {
			continue
		}
		clients = append(clients, c)
	}
	h.roomsMu.RUnlock()

	delivered := 0
	for _, c := range clients {
		if c.Send(ev) {
			delivered++
		}
	}
	return delivered
}

// broadcastAll delivers ev to every connected client except
// exceptUserID. Delivery is best effort: a peer with a full buffer
// misses the notice instead of being kicked.
func (h *Hub) broadcastAll(ev event.WsEvent, exceptUserID string) {
	for _, c := range h.presence.Clients() {
		if exceptUserID != "" && c.UserID == exceptUserID {
			continue
		}
		c.TrySend(ev)
	}
}

// notifyUser delivers ev to the user's personal room; reports whether
// the user was reachable.
func (h *Hub) notifyUser(userID string, ev event.WsEvent) bool {
	c, ok := h.presence.Lookup(userID)
	if !ok {
		return false
	}
	return c.Send(ev)
}

func (h *Hub) onlineUsersExcept(userID string) []string {
	snapshot := h.presence.Snapshot()
	users := make([]string, 0, len(snapshot))
	for _, id := range snapshot {
		if id != userID {
			users = append(users, id)
		}
	}
	return users
}

// Stop shuts the hub down: closes every connection and drains the
// workers.
func (h *Hub) Stop() {
	for _, c := range h.presence.Clients() {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}
	h.cancel()
	h.wg.Wait()
}
