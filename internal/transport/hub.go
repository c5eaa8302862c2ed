package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/event"
	"github.com/ttbud/ttbud-sub001/internal/grid"
	"github.com/ttbud/ttbud-sub001/internal/logging"
	"github.com/ttbud/ttbud-sub001/internal/reconcile"
)

// DefaultPeerBuffer is the number of undelivered events a peer may queue.
const DefaultPeerBuffer = 256

// ErrClosed indicates use of a closed peer.
var ErrClosed = errors.New("transport closed")

// Hub relays events between peers of one board and keeps the board's current
// contents so that joining peers can be seeded. It is safe for concurrent use.
type Hub struct {
	mu     sync.Mutex
	store  *board.Store
	state  *reconcile.Reconciler
	peers  map[*Peer]struct{}
	buffer int
	log    *logging.Logger
}

// NewHub creates an empty hub.
func NewHub(q grid.Quantizer, log *logging.Logger) *Hub {
	if log == nil {
		log = logging.Discard()
	}
	store := board.NewStore(q)
	return &Hub{
		store:  store,
		state:  reconcile.New(store, "", log),
		peers:  make(map[*Peer]struct{}),
		buffer: DefaultPeerBuffer,
		log:    log,
	}
}

// Seed replaces the hub's board contents.
func (h *Hub) Seed(tokens []board.Token) []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Seed(tokens)
}

// Connect attaches a new peer.
func (h *Hub) Connect() *Peer {
	p := &Peer{hub: h, events: make(chan event.Event, h.buffer)}
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
	return p
}

// Tokens returns the hub's current board contents.
func (h *Hub) Tokens() []board.Token {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.List()
}

// Peers returns the number of connected peers.
func (h *Hub) Peers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *Hub) broadcast(from *Peer, ev event.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.peers[from]; !ok {
		return
	}
	res := h.state.Apply(ev)
	if res.Outcome == reconcile.Dropped && errors.Is(res.Err, board.ErrInvalidEntity) {
		return
	}
	for p := range h.peers {
		if p == from {
			continue
		}
		select {
		case p.events <- ev:
		default:
			// A peer that cannot keep up is disconnected, never skipped.
			delete(h.peers, p)
			close(p.events)
			h.log.Warn("peer queue full, disconnecting peer", logging.Fields{
				"op":     string(ev.Op),
				"id":     string(ev.ID),
				"buffer": h.buffer,
			})
		}
	}
}

func (h *Hub) disconnect(p *Peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[p]; !ok {
		return false
	}
	delete(h.peers, p)
	close(p.events)
	return true
}

// Peer is one session's connection to a Hub. It implements Transport.
type Peer struct {
	hub    *Hub
	events chan event.Event
}

var _ Transport = (*Peer)(nil)

// Publish relays ev to every other peer.
func (p *Peer) Publish(ev event.Event) {
	p.hub.broadcast(p, ev)
}

// Events delivers events published by other peers.
func (p *Peer) Events() <-chan event.Event {
	return p.events
}

// Snapshot returns the hub's board contents.
func (p *Peer) Snapshot(ctx context.Context) ([]board.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.hub.mu.Lock()
	_, connected := p.hub.peers[p]
	p.hub.mu.Unlock()
	if !connected {
		return nil, ErrClosed
	}
	return p.hub.Tokens(), nil
}

// Close detaches the peer and closes its event channel.
func (p *Peer) Close() error {
	if !p.hub.disconnect(p) {
		return ErrClosed
	}
	return nil
}
