// Package server coordinates client registration, room-scoped broadcast, and
// connection cleanup for the chat relay via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// broadcastRequest carries one marshaled frame destined for every current
// member of a room.
type broadcastRequest struct {
	RoomID  string
	Payload []byte
}

// Hub owns the room registry and all live connections. Registration,
// unregistration, and broadcast fan-out are serialized through its run loop,
// so broadcasts are processed in the order they are requested. Each Hub is an
// independent instance; construct one per process (or per test).
type Hub struct {
	registry *Registry
	log      *slog.Logger

	clients    map[*Client]bool
	broadcast  chan broadcastRequest
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub with a fresh, empty room registry. A nil logger
// defaults to slog.Default.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:   NewRegistry(),
		log:        logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan broadcastRequest),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Registry exposes the hub's room registry for membership queries.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Broadcast queues payload for delivery to every current member of roomID.
// It returns once the request is accepted by the run loop, or immediately if
// the hub is shutting down.
func (h *Hub) Broadcast(roomID string, payload []byte) {
	select {
	case h.broadcast <- broadcastRequest{RoomID: roomID, Payload: payload}:
	case <-h.ctx.Done():
	}
}

// requestRegister hands a new client to the run loop, which starts its pumps.
func (h *Hub) requestRegister(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// requestUnregister hands a departing client to the run loop.
func (h *Hub) requestUnregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// safeSend queues payload on one client's send channel. It reports false when
// the client is gone, closed, or its buffer is full; a failed send is a
// dropped delivery, never a blocked one.
func (h *Hub) safeSend(client *Client, payload []byte) bool {
	// Hold the lock for the whole send so the channel cannot be closed
	// between the membership check and the send.
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, exists := h.clients[client]; !exists || client.closed {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop. Call it in its own goroutine; it
// returns only when the hub shuts down.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("nil client registration; skipping")
				continue
			}
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case request := <-h.broadcast:
			h.handleBroadcast(request)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	total := len(h.clients)
	h.mutex.Unlock()

	activeConnections.Set(float64(total))
	h.log.Info("client connected", "addr", client.addr, "total", total)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	client.closed = true
	total := len(h.clients)
	h.mutex.Unlock()

	// Close the channel after releasing the lock.
	close(client.send)
	activeConnections.Set(float64(total))
	h.log.Info("client disconnected", "addr", client.addr, "total", total)
}

// handleBroadcast delivers one frame to every member of the target room.
// Delivery is independent per recipient: a member whose send buffer is full or
// whose connection is closing is skipped, and the rest still receive the
// frame. Disconnect cleanup belongs to the read pump, not to broadcast.
func (h *Hub) handleBroadcast(request broadcastRequest) {
	members := h.registry.Members(request.RoomID)
	if len(members) == 0 {
		return
	}

	messagesBroadcast.Inc()
	for _, member := range members {
		if !h.safeSend(member, request.Payload) {
			deliveriesDropped.Inc()
			h.log.Debug("delivery dropped", "addr", member.addr, "room", request.RoomID)
		}
	}
}

// shutdownClients closes every active connection during hub shutdown.
func (h *Hub) shutdownClients() {
	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn == nil {
			continue
		}
		if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
			h.log.Warn("close client connection", "addr", client.addr, "err", err)
		}
	}

	h.log.Info("closed client connections", "count", len(clients))
}

// Shutdown stops the run loop, closes all client connections, and waits for
// the pump goroutines to finish or the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("hub shutdown initiated")

	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		h.log.Info("hub shutdown complete")
		return nil
	case <-time.After(timeout):
		h.log.Warn("hub shutdown timed out")
		return context.DeadlineExceeded
	}
}
