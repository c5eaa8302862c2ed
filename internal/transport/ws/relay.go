package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ttbud/ttbud-sub001/internal/event"
	"github.com/ttbud/ttbud-sub001/internal/grid"
	"github.com/ttbud/ttbud-sub001/internal/logging"
	"github.com/ttbud/ttbud-sub001/internal/transport"
)

// Relay serves boards to websocket clients. Each board lives in memory only
// for as long as the relay runs.
type Relay struct {
	mu        sync.Mutex
	hubs      map[string]*transport.Hub
	quantizer grid.Quantizer
	upgrader  websocket.Upgrader
	log       *logging.Logger
}

// NewRelay creates a relay whose boards snap positions with q.
func NewRelay(q grid.Quantizer, log *logging.Logger) *Relay {
	if log == nil {
		log = logging.Discard()
	}
	return &Relay{
		hubs:      make(map[string]*transport.Hub),
		quantizer: q,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Routes returns the relay's HTTP handler.
func (rl *Relay) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/boards/{board}", func(r chi.Router) {
		r.Get("/snapshot", rl.snapshot)
		r.Get("/ws", rl.subscribe)
	})

	return r
}

// Hub returns the hub for boardID, creating it on first use.
func (rl *Relay) Hub(boardID string) *transport.Hub {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	hub, ok := rl.hubs[boardID]
	if !ok {
		hub = transport.NewHub(rl.quantizer, rl.log.With(logging.Fields{"board": boardID}))
		rl.hubs[boardID] = hub
	}
	return hub
}

func (rl *Relay) snapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, rl.Hub(chi.URLParam(r, "board")).Tokens())
}

func (rl *Relay) subscribe(w http.ResponseWriter, r *http.Request) {
	boardID := chi.URLParam(r, "board")

	// Subscribe before the handshake completes: once the client sees the
	// upgrade it may fetch a snapshot, and every later event must reach it.
	peer := rl.Hub(boardID).Connect()
	conn, err := rl.upgrader.Upgrade(w, r, nil)
	if err != nil {
		_ = peer.Close()
		rl.log.Warn("websocket upgrade failed", logging.Fields{"board": boardID, "error": err.Error()})
		return
	}
	rl.log.Info("subscriber joined", logging.Fields{"board": boardID})

	go rl.forward(conn, peer)

	defer func() {
		_ = peer.Close()
		_ = conn.Close()
		rl.log.Info("subscriber left", logging.Fields{"board": boardID})
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ev, err := event.Decode(data)
		if err != nil {
			rl.log.Warn("discarding malformed event", logging.Fields{"board": boardID, "error": err.Error()})
			continue
		}
		peer.Publish(ev)
	}
}

// forward writes hub events to the websocket until the peer is closed. The
// connection is closed on return so a peer the hub dropped sees a disconnect.
func (rl *Relay) forward(conn *websocket.Conn, peer *transport.Peer) {
	defer conn.Close()
	for ev := range peer.Events() {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
