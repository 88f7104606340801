// Package realtime streams collection cycle events to WebSocket watchers.
// The worker publishes events over Redis; each server instance fans them out
// to the clients watching that organization.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains org slug -> set of connections and broadcasts cycle events.
// Uses Redis pub/sub for horizontal scaling: the worker publishes, every
// server instance subscribes for the orgs it has watchers on.
type Hub struct {
	// org slug -> map[clientID]*Client
	orgs   map[string]map[string]*Client
	subs   map[string]func() // cancel Redis subscription per org
	mu     sync.RWMutex
	logger *zap.Logger
	sub    Subscriber
}

// Subscriber subscribes to an org's event channel and invokes handler for
// incoming events.
type Subscriber interface {
	SubscribeOrg(orgSlug string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, sub Subscriber) *Hub {
	return &Hub{
		orgs:   make(map[string]map[string]*Client),
		subs:   make(map[string]func()),
		logger: logger,
		sub:    sub,
	}
}

// Register adds a client to an org room. Starts the Redis subscription for
// the org when the first watcher arrives.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.orgs[c.OrgSlug] == nil {
		h.orgs[c.OrgSlug] = make(map[string]*Client)
	}
	// Subscribe on the first watcher; if an earlier attempt failed the room
	// exists without a subscription, so retry for every new watcher.
	if h.sub != nil && h.subs[c.OrgSlug] == nil {
		cancel, err := h.sub.SubscribeOrg(c.OrgSlug, func(event string, payload []byte) {
			h.Broadcast(c.OrgSlug, event, json.RawMessage(payload))
		})
		if err != nil {
			h.logger.Error("org subscription failed", zap.String("org", c.OrgSlug), zap.Error(err))
		} else {
			h.subs[c.OrgSlug] = cancel
		}
	}
	h.orgs[c.OrgSlug][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("watcher joined", zap.String("client_id", c.ID), zap.String("org", c.OrgSlug))
}

// Unregister removes a client. Cancels the Redis subscription when the last
// watcher leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.orgs[c.OrgSlug]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.orgs, c.OrgSlug)
			if cancel, ok := h.subs[c.OrgSlug]; ok {
				cancel()
				delete(h.subs, c.OrgSlug)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("watcher left", zap.String("client_id", c.ID), zap.String("org", c.OrgSlug))
}

// Broadcast sends an event to every local client watching the org.
func (h *Hub) Broadcast(orgSlug, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	// Hold the read lock across the fan-out: Register mutates the inner map,
	// and the sends are non-blocking so this cannot stall.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.orgs[orgSlug] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// WatcherCount returns the number of connected clients for an org.
func (h *Hub) WatcherCount(orgSlug string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.orgs[orgSlug])
}
