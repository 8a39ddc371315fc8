package gateway

import (
	"sync"

	"roomchat/internal/room"
)

// Table is the live connection lookup the room registry broadcasts
// through. It maps connection IDs to their senders and nothing else.
type Table struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewTable creates an empty connection table.
func NewTable() *Table {
	return &Table{conns: make(map[string]*Conn)}
}

func (t *Table) add(c *Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[c.ID()] = c
}

func (t *Table) get(connID string) (*Conn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.conns[connID]
	return c, ok
}

func (t *Table) remove(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, connID)
}

// Resolve implements room.Resolver.
func (t *Table) Resolve(connID string) (room.Sender, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.conns[connID]
	if !ok {
		return nil, false
	}
	return c, true
}

// Count returns the number of live connections.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conns)
}
