package hub

import "sync"

// Presence is the single source of truth for which users are currently
// reachable and through which client. It holds at most one entry per
// user; a newer handshake always supersedes the old one. It never
// touches storage or the network, callers own the side effects.
type Presence struct {
	mu     sync.RWMutex
	byUser map[string]*Client
}

// NewPresence returns an empty presence table.
func NewPresence() *Presence {
	return &Presence{byUser: make(map[string]*Client)}
}

// Register maps userID to c and returns the prior client when one was
// registered. The swap is atomic: callers must close the returned
// client to enforce the single-session policy.
func (p *Presence) Register(userID string, c *Client) (prior *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prior = p.byUser[userID]
	p.byUser[userID] = c
	return prior
}

// Unregister removes the entry for userID provided it still points at
// c, and reports whether it did. Calling it for an already-superseded
// or absent client is a no-op, which makes disconnect cleanup safe to
// run concurrently with eviction from a newer session.
func (p *Presence) Unregister(userID string, c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.byUser[userID]
	if !ok || current != c {
		return false
	}
	delete(p.byUser, userID)
	return true
}

// Lookup returns the live client for userID, if any.
func (p *Presence) Lookup(userID string) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	c, ok := p.byUser[userID]
	return c, ok
}

// Snapshot returns the ids of all currently registered users.
func (p *Presence) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]string, 0, len(p.byUser))
	for userID := range p.byUser {
		users = append(users, userID)
	}
	return users
}

// Clients returns all currently registered clients.
func (p *Presence) Clients() []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()

	clients := make([]*Client, 0, len(p.byUser))
	for _, c := range p.byUser {
		clients = append(clients, c)
	}
	return clients
}

// Len returns the number of registered users.
func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byUser)
}
