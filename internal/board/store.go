// Package board holds the entity store for placed tokens.
//
// Tokens are addressed by ID only. The ordered sequence exists purely for
// render stacking and is never used to locate a token, so concurrent inserts
// and deletes cannot cause a mutation to land on the wrong token.
//
// A Store is owned by a single goroutine (the session's event loop) and is not
// safe for concurrent use.
package board

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ttbud/ttbud-sub001/internal/grid"
)

// IDSource allocates fresh token ids.
type IDSource func() ID

// NewUUID allocates a random UUID-based id.
func NewUUID() ID {
	return ID(uuid.NewString())
}

// Store is an arena of tokens keyed by ID plus their append order.
type Store struct {
	quantizer grid.Quantizer
	newID     IDSource
	tokens    map[ID]Token
	order     []ID
}

// Option configures a Store.
type Option func(*Store)

// WithIDSource overrides id allocation, mainly for deterministic tests.
func WithIDSource(src IDSource) Option {
	return func(s *Store) {
		s.newID = src
	}
}

// NewStore creates an empty store. Every committed position is snapped with q.
func NewStore(q grid.Quantizer, opts ...Option) *Store {
	s := &Store{
		quantizer: q,
		newID:     NewUUID,
		tokens:    make(map[ID]Token),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create places a new token at the end of the stacking order and returns its id.
func (s *Store) Create(kind Kind, iconRef string, pos grid.Pos) ID {
	id := s.newID()
	for s.has(id) {
		id = s.newID()
	}
	s.insert(Token{ID: id, Kind: kind, IconRef: iconRef, Pos: pos})
	return id
}

// Insert places a token whose id was allocated elsewhere (e.g. by another
// session). It fails with ErrExists if the id is already present.
func (s *Store) Insert(t Token) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if s.has(t.ID) {
		return fmt.Errorf("%w: %s", ErrExists, t.ID)
	}
	s.insert(t)
	return nil
}

func (s *Store) insert(t Token) {
	t.Pos = s.quantizer.Snap(t.Pos)
	s.tokens[t.ID] = t
	s.order = append(s.order, t.ID)
}

// Move replaces the position of a token. Stacking order is unchanged.
func (s *Store) Move(id ID, pos grid.Pos) error {
	t, ok := s.tokens[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	t.Pos = s.quantizer.Snap(pos)
	s.tokens[id] = t
	return nil
}

// Delete removes a token. Deleting an absent id returns ErrNotFound and
// leaves the store untouched.
func (s *Store) Delete(id ID) error {
	if !s.has(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.tokens, id)
	for i, cur := range s.order {
		if cur == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the token with the given id.
func (s *Store) Get(id ID) (Token, error) {
	t, ok := s.tokens[id]
	if !ok {
		return Token{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// Contains reports whether id is on the board.
func (s *Store) Contains(id ID) bool {
	return s.has(id)
}

func (s *Store) has(id ID) bool {
	_, ok := s.tokens[id]
	return ok
}

// Len returns the number of tokens on the board.
func (s *Store) Len() int {
	return len(s.order)
}

// List returns a copy of every token in append order.
func (s *Store) List() []Token {
	out := make([]Token, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tokens[id])
	}
	return out
}

// RenderOrder returns the tokens in draw order: floor tiles first, then
// characters, each group in append order.
func (s *Store) RenderOrder() []Token {
	out := s.List()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Kind.layer() < out[j].Kind.layer()
	})
	return out
}

// Reset replaces the board contents with a snapshot. Invalid or duplicate
// tokens in the snapshot are skipped and returned as errors.
func (s *Store) Reset(tokens []Token) []error {
	s.tokens = make(map[ID]Token, len(tokens))
	s.order = make([]ID, 0, len(tokens))

	var errs []error
	for _, t := range tokens {
		if err := s.Insert(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Quantizer returns the quantizer used to snap committed positions.
func (s *Store) Quantizer() grid.Quantizer {
	return s.quantizer
}
