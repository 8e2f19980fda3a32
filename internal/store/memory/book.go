// Package memory holds the authoritative in-memory position book. The book
// is the single source of truth for open positions; durable snapshots are
// written from it, never the other way around while the process is live.
package memory

import (
	"sync"

	"github.com/ckartal/snipebot/internal/domain"
)

// Book is a mutex-guarded mapping of token mint to open position. All
// mutations go through the lifecycle engine, which serializes read-modify-
// write sequences behind its own lock; the book's internal lock additionally
// keeps individual accessors safe for concurrent readers.
type Book struct {
	mu        sync.RWMutex
	positions map[string]domain.Position
}

// NewBook returns an empty position book.
func NewBook() *Book {
	return &Book{positions: make(map[string]domain.Position)}
}

// Get returns the open position for mint, if any.
func (b *Book) Get(mint string) (domain.Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pos, ok := b.positions[mint]
	return pos, ok
}

// Put stores or replaces the position keyed by its mint.
func (b *Book) Put(pos domain.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions[pos.Mint] = pos
}

// Remove deletes the position for mint and reports whether it existed.
func (b *Book) Remove(mint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.positions[mint]
	delete(b.positions, mint)
	return ok
}

// Len returns the number of open positions.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.positions)
}

// Keys returns a stable snapshot of the mints present right now. Evaluation
// batches iterate this snapshot so positions closed mid-batch are simply
// absent on lookup rather than corrupting iteration.
func (b *Book) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.positions))
	for mint := range b.positions {
		keys = append(keys, mint)
	}
	return keys
}

// List returns a copy of every open position.
func (b *Book) List() []domain.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Position, 0, len(b.positions))
	for _, pos := range b.positions {
		out = append(out, pos)
	}
	return out
}

// Replace swaps the entire book content, used when restoring a snapshot.
// Duplicate mints in the input collapse to the last entry.
func (b *Book) Replace(entries []domain.PositionEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions = make(map[string]domain.Position, len(entries))
	for _, e := range entries {
		pos := e.Position
		if pos.Mint == "" {
			pos.Mint = e.Mint
		}
		b.positions[e.Mint] = pos
	}
}

// Entries returns the book as (mint, position) pairs for snapshotting.
func (b *Book) Entries() []domain.PositionEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.PositionEntry, 0, len(b.positions))
	for mint, pos := range b.positions {
		out = append(out, domain.PositionEntry{Mint: mint, Position: pos})
	}
	return out
}
