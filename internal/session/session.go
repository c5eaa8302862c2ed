// Package session wires a board's entity store, reconciler and placement
// controller to a transport.
//
// A Session is owned by one goroutine. Pointer gestures (through Controller)
// and remote events (through Apply) must both be delivered on that goroutine;
// each call runs to completion before the next, so the store needs no locks.
package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/clock"
	"github.com/ttbud/ttbud-sub001/internal/event"
	"github.com/ttbud/ttbud-sub001/internal/grid"
	"github.com/ttbud/ttbud-sub001/internal/logging"
	"github.com/ttbud/ttbud-sub001/internal/placement"
	"github.com/ttbud/ttbud-sub001/internal/reconcile"
	"github.com/ttbud/ttbud-sub001/internal/transport"
	"github.com/ttbud/ttbud-sub001/internal/tray"
)

// Options configures a session. Zero values fall back to defaults.
type Options struct {
	CellSize int
	Catalog  *tray.Catalog
	Clock    clock.Clock
	Origin   string
	IDSource board.IDSource
	Log      *logging.Logger
}

// Session is one user's view of a shared board.
type Session struct {
	origin    string
	transport transport.Transport
	store     *board.Store
	rec       *reconcile.Reconciler
	ctl       *placement.Controller
	log       *logging.Logger

	// snapshots collapses overlapping snapshot requests into one.
	snapshots singleflight.Group

	// While a resync is in flight every applied or published event is kept
	// here and replayed on top of the snapshot by Reseed.
	resyncing bool
	backlog   []event.Event
}

// Join creates a session on t. The transport is expected to be subscribed
// already, so events published while the snapshot is in flight are queued
// and reconciled afterwards.
func Join(ctx context.Context, t transport.Transport, opts Options) (*Session, error) {
	if opts.CellSize == 0 {
		opts.CellSize = grid.DefaultCellSize
	}
	q, err := grid.New(opts.CellSize)
	if err != nil {
		return nil, err
	}
	if opts.Origin == "" {
		opts.Origin = uuid.NewString()
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	catalog := tray.Default(opts.CellSize)
	if opts.Catalog != nil {
		catalog = *opts.Catalog
	}
	log := opts.Log.With(logging.Fields{"session": opts.Origin})

	var storeOpts []board.Option
	if opts.IDSource != nil {
		storeOpts = append(storeOpts, board.WithIDSource(opts.IDSource))
	}
	store := board.NewStore(q, storeOpts...)
	rec := reconcile.New(store, opts.Origin, log)

	s := &Session{
		origin:    opts.Origin,
		transport: t,
		store:     store,
		rec:       rec,
		log:       log,
	}
	s.ctl = placement.New(store, rec, catalog, s, opts.Clock, opts.Origin, log)

	tokens, err := s.FetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	s.Reseed(tokens)
	log.Info("joined board", logging.Fields{"tokens": store.Len()})
	return s, nil
}

// Origin returns the id this session stamps on published events.
func (s *Session) Origin() string {
	return s.origin
}

// Controller returns the placement controller for local gestures.
func (s *Session) Controller() *placement.Controller {
	return s.ctl
}

// Events returns the transport's incoming event stream.
func (s *Session) Events() <-chan event.Event {
	return s.transport.Events()
}

// Apply merges one remote event.
func (s *Session) Apply(ev event.Event) reconcile.Result {
	s.record(ev)
	return s.rec.Apply(ev)
}

// Publish sends a local mutation to the other sessions.
func (s *Session) Publish(ev event.Event) {
	s.record(ev)
	s.transport.Publish(ev)
}

func (s *Session) record(ev event.Event) {
	if s.resyncing {
		s.backlog = append(s.backlog, ev)
	}
}

// State returns the reconciliation state of a token.
func (s *Session) State(id board.ID) reconcile.State {
	return s.rec.State(id)
}

// Tokens returns the board in render order.
func (s *Session) Tokens() []board.Token {
	return s.store.RenderOrder()
}

// Token returns a single token.
func (s *Session) Token(id board.ID) (board.Token, error) {
	return s.store.Get(id)
}

// Quantizer returns the session's grid.
func (s *Session) Quantizer() grid.Quantizer {
	return s.store.Quantizer()
}

// FetchSnapshot requests the board's current contents. It does not touch
// session state and may run off the owning goroutine. Callers that overlap an
// in-flight request share its result.
func (s *Session) FetchSnapshot(ctx context.Context) ([]board.Token, error) {
	v, err, _ := s.snapshots.Do("snapshot", func() (interface{}, error) {
		return s.transport.Snapshot(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board snapshot: %w", err)
	}
	tokens := v.([]board.Token)
	out := make([]board.Token, len(tokens))
	copy(out, tokens)
	return out, nil
}

// BeginResync marks the start of a snapshot fetch whose result will be passed
// to Reseed. Events seen until then are replayed over the snapshot, so nothing
// that happens while the fetch is in flight is lost. Calling it again before
// Reseed keeps the existing backlog.
func (s *Session) BeginResync() {
	s.resyncing = true
}

// Resyncing reports whether BeginResync has not yet been followed by Reseed or
// AbortResync.
func (s *Session) Resyncing() bool {
	return s.resyncing
}

// AbortResync forgets a resync that will not be completed.
func (s *Session) AbortResync() {
	s.resyncing = false
	s.backlog = nil
}

// Reseed replaces the board with a snapshot. An active drag is cancelled
// first. If BeginResync was called, the events recorded since are applied on
// top; creates of present tokens are ignored, moves are absolute and deletes
// are tombstoned, so replaying events the snapshot already reflects is
// harmless.
func (s *Session) Reseed(tokens []board.Token) {
	s.ctl.Cancel()
	backlog := s.backlog
	s.AbortResync()

	s.rec.Seed(tokens)
	for _, ev := range backlog {
		// Local mutations are replayed as if they came from elsewhere so the
		// self-echo filter does not discard them.
		ev.Origin = ""
		s.rec.Apply(ev)
	}
	if len(backlog) > 0 {
		s.log.Debug("replayed events over snapshot", logging.Fields{"events": len(backlog)})
	}
}

// Run applies remote events until ctx is done or the event stream closes.
// Use it only when nothing else drives the session.
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.transport.Events():
			if !ok {
				return transport.ErrClosed
			}
			s.Apply(ev)
		}
	}
}

// Close closes the transport.
func (s *Session) Close() error {
	s.ctl.Cancel()
	return s.transport.Close()
}
