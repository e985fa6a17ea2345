package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yeremiapane/cafe-pos/config"
	"github.com/yeremiapane/cafe-pos/models"
)

// Session is one cashier's working state: the selected table, the open
// order for it and the cart mirroring that order. The generation counter
// changes whenever the session switches to a different table or order,
// so responses issued against an older generation can be dropped.
type Session struct {
	ID          string
	CashierID   uint
	CashierName string
	CreatedAt   time.Time

	mu         sync.Mutex
	createMu   sync.Mutex
	table      *models.Table
	order      *models.Order
	cart       *Cart
	generation uint64
}

// SessionView is a consistent copy of a session for callers outside the
// service layer.
type SessionView struct {
	ID          string             `json:"id"`
	CashierName string             `json:"cashier_name"`
	Table       *models.Table      `json:"table,omitempty"`
	Order       *models.Order      `json:"order,omitempty"`
	Items       []models.OrderItem `json:"items"`
	Total       models.Money       `json:"total"`
	Generation  uint64             `json:"generation"`
}

func NewSession(cashierID uint, cashierName string, limits config.CartLimits) *Session {
	return &Session{
		ID:          uuid.NewString(),
		CashierID:   cashierID,
		CashierName: cashierName,
		CreatedAt:   time.Now(),
		cart:        NewCart(limits),
	}
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := SessionView{
		ID:          s.ID,
		CashierName: s.CashierName,
		Order:       s.order.Clone(),
		Items:       s.cart.Items(),
		Total:       s.cart.Total(),
		Generation:  s.generation,
	}
	if s.table != nil {
		t := *s.table
		view.Table = &t
	}
	return view
}

// Generation returns the current generation together with the id of the
// order the session holds (0 when none).
func (s *Session) Generation() (uint64, uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil {
		return s.generation, 0
	}
	return s.generation, s.order.ID
}

// switchTable resets the session onto table and returns the new generation.
func (s *Session) switchTable(table models.Table) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = &table
	s.order = nil
	s.cart.Clear()
	s.generation++
	return s.generation
}

// reset forgets the held order, keeping the selected table.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.cart.Clear()
	s.generation++
}

// ApplyServerOrder adopts order as the authoritative state if it still
// belongs to this session: same generation, and either no order held
// yet or the same order id. A terminal order clears the session.
// It reports whether the order was applied.
func (s *Session) ApplyServerOrder(generation uint64, order *models.Order, catalog ProductCatalog) bool {
	if order == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return false
	}
	if s.order != nil && s.order.ID != order.ID {
		return false
	}
	if s.order == nil && s.table != nil && order.TableID != s.table.ID {
		return false
	}

	if order.IsTerminal() {
		s.order = nil
		s.cart.Clear()
		s.generation++
		return true
	}

	s.order = order.Clone()
	s.cart.LoadFromOrder(order.Items, catalog)
	return true
}

// SessionStore holds the live sessions of this terminal, keyed by
// session id.
type SessionStore struct {
	mu       sync.RWMutex
	limits   config.CartLimits
	sessions map[string]*Session
}

func NewSessionStore(limits config.CartLimits) *SessionStore {
	return &SessionStore{
		limits:   limits,
		sessions: make(map[string]*Session),
	}
}

func (st *SessionStore) Open(cashierID uint, cashierName string) *Session {
	s := NewSession(cashierID, cashierName, st.limits)
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *SessionStore) Close(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// All returns the sessions in no particular order.
func (st *SessionStore) All() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	return out
}

// inspect runs fn while the session is locked. fn must not block.
func (s *Session) inspect(fn func(table *models.Table, order *models.Order, cart *Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.table, s.order, s.cart)
}
