// Package reconcile merges mutation events from other sessions into the local
// board without disturbing a gesture the local user has in flight.
//
// Every token id is in one of three states:
//
//	Absent        not on the board
//	Settled       on the board, no local gesture in flight
//	LocalPending  a local gesture holds the token
//
// Remote moves and deletes that target a LocalPending token are buffered until
// the gesture is released. When a gesture commits, buffered moves are
// discarded as superseded by the local commit and a buffered delete is applied
// after it, so every session converges on the token being gone. When a gesture
// is cancelled, buffered events are applied in arrival order.
//
// Deleted ids are remembered: ids are never reused, so a late or duplicated
// create or move for a deleted token is ignored rather than resurrecting it.
package reconcile

import (
	"errors"
	"sort"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/event"
	"github.com/ttbud/ttbud-sub001/internal/logging"
)

// State is the reconciliation state of a single token id.
type State int

const (
	Absent State = iota
	Settled
	LocalPending
)

func (s State) String() string {
	switch s {
	case Settled:
		return "settled"
	case LocalPending:
		return "local-pending"
	default:
		return "absent"
	}
}

// Outcome describes what happened to a remote event.
type Outcome int

const (
	// Applied means the event mutated the board.
	Applied Outcome = iota
	// Buffered means the event is waiting for a local gesture to finish.
	Buffered
	// Ignored covers duplicates, self echoes and events for deleted ids.
	Ignored
	// Superseded means a buffered event was discarded after a local commit.
	Superseded
	// Dropped means the event was malformed or its target was gone.
	Dropped
)

func (o Outcome) String() string {
	return [...]string{"applied", "buffered", "ignored", "superseded", "dropped"}[o]
}

// Result reports the fate of one event. Err is set for Dropped events and
// wraps board.ErrNotFound or board.ErrInvalidEntity.
type Result struct {
	Event   event.Event
	Outcome Outcome
	Err     error
}

// Reconciler applies remote events to a Store. It must be driven from the same
// goroutine that owns the Store.
type Reconciler struct {
	store   *board.Store
	origin  string
	held    map[board.ID][]event.Event
	deleted map[board.ID]struct{}
	log     *logging.Logger
}

// New creates a Reconciler for store. Events whose origin equals origin are
// echoes of local mutations and are ignored.
func New(store *board.Store, origin string, log *logging.Logger) *Reconciler {
	if log == nil {
		log = logging.Discard()
	}
	return &Reconciler{
		store:   store,
		origin:  origin,
		held:    make(map[board.ID][]event.Event),
		deleted: make(map[board.ID]struct{}),
		log:     log,
	}
}

// Seed replaces the board with a snapshot and forgets all reconciliation
// state. Invalid snapshot tokens are skipped and returned.
func (r *Reconciler) Seed(tokens []board.Token) []error {
	r.held = make(map[board.ID][]event.Event)
	r.deleted = make(map[board.ID]struct{})
	errs := r.store.Reset(tokens)
	for _, err := range errs {
		r.log.Warn("skipped snapshot token", logging.Fields{"error": err.Error()})
	}
	return errs
}

// State returns the reconciliation state of id.
func (r *Reconciler) State(id board.ID) State {
	if _, ok := r.held[id]; ok {
		return LocalPending
	}
	if r.store.Contains(id) {
		return Settled
	}
	return Absent
}

// Apply merges one remote event.
func (r *Reconciler) Apply(ev event.Event) Result {
	if err := ev.Validate(); err != nil {
		return r.report(Result{Event: ev, Outcome: Dropped, Err: err})
	}
	if r.origin != "" && ev.Origin == r.origin {
		return r.report(Result{Event: ev, Outcome: Ignored})
	}
	if _, gone := r.deleted[ev.ID]; gone {
		return r.report(Result{Event: ev, Outcome: Ignored})
	}
	if buf, ok := r.held[ev.ID]; ok && ev.Op != event.OpCreate {
		r.held[ev.ID] = append(buf, ev)
		return r.report(Result{Event: ev, Outcome: Buffered})
	}
	return r.report(r.applyNow(ev))
}

func (r *Reconciler) applyNow(ev event.Event) Result {
	switch ev.Op {
	case event.OpCreate:
		err := r.store.Insert(ev.Token())
		if errors.Is(err, board.ErrExists) {
			return Result{Event: ev, Outcome: Ignored}
		}
		if err != nil {
			return Result{Event: ev, Outcome: Dropped, Err: err}
		}
	case event.OpMove:
		if err := r.store.Move(ev.ID, *ev.Pos); err != nil {
			return Result{Event: ev, Outcome: Dropped, Err: err}
		}
	case event.OpDelete:
		r.deleted[ev.ID] = struct{}{}
		if err := r.store.Delete(ev.ID); err != nil {
			return Result{Event: ev, Outcome: Dropped, Err: err}
		}
	}
	return Result{Event: ev, Outcome: Applied}
}

// Hold marks id as LocalPending for the duration of a local gesture. Holding
// a token that is not on the board fails with board.ErrNotFound.
func (r *Reconciler) Hold(id board.ID) error {
	if _, err := r.store.Get(id); err != nil {
		return err
	}
	if _, ok := r.held[id]; !ok {
		r.held[id] = nil
	}
	return nil
}

// Release ends the local gesture on id and settles any events buffered while
// it was held. committed reports whether the gesture wrote a new position.
func (r *Reconciler) Release(id board.ID, committed bool) []Result {
	buf, ok := r.held[id]
	if !ok {
		return nil
	}
	delete(r.held, id)

	results := make([]Result, 0, len(buf))
	for _, ev := range buf {
		var res Result
		switch {
		case committed && ev.Op == event.OpMove:
			res = Result{Event: ev, Outcome: Superseded}
		case ev.Op == event.OpMove && r.isDeleted(id):
			res = Result{Event: ev, Outcome: Ignored}
		default:
			res = r.applyNow(ev)
		}
		results = append(results, r.report(res))
	}
	return results
}

// Forget records a local delete of id: it can no longer be held and later
// remote events for it are ignored.
func (r *Reconciler) Forget(id board.ID) {
	delete(r.held, id)
	r.deleted[id] = struct{}{}
}

func (r *Reconciler) isDeleted(id board.ID) bool {
	_, ok := r.deleted[id]
	return ok
}

// Pending returns the ids currently held by local gestures, sorted.
func (r *Reconciler) Pending() []board.ID {
	ids := make([]board.ID, 0, len(r.held))
	for id := range r.held {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Reconciler) report(res Result) Result {
	fields := logging.Fields{
		"op":      string(res.Event.Op),
		"id":      string(res.Event.ID),
		"origin":  res.Event.Origin,
		"outcome": res.Outcome.String(),
	}
	if res.Outcome == Dropped {
		if res.Err != nil {
			fields["error"] = res.Err.Error()
		}
		r.log.Warn("discarded remote event", fields)
		return res
	}
	r.log.Debug("remote event", fields)
	return res
}
