package observe

import (
	"sync"

	"github.com/hordecore/hordecore/internal/game"
	"github.com/hordecore/hordecore/internal/meta"
)

// Board is the hand-off point between the game loop, which publishes, and
// HTTP handlers, which read. The simulation itself is never touched from
// handler goroutines.
type Board struct {
	mu       sync.RWMutex
	snapshot game.Snapshot
	profile  meta.State
	summary  *game.RunSummary
}

func NewBoard() *Board { return &Board{} }

func (b *Board) Publish(s game.Snapshot) {
	b.mu.Lock()
	b.snapshot = s
	b.mu.Unlock()
}

func (b *Board) SetProfile(p meta.State) {
	p = p.Clone()
	b.mu.Lock()
	b.profile = p
	b.mu.Unlock()
}

func (b *Board) SetSummary(s game.RunSummary) {
	b.mu.Lock()
	b.summary = &s
	b.mu.Unlock()
}

func (b *Board) Snapshot() game.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot
}

func (b *Board) Profile() meta.State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.profile.Clone()
}

// Summary returns the finished run's summary, if any.
func (b *Board) Summary() (game.RunSummary, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.summary == nil {
		return game.RunSummary{}, false
	}
	return *b.summary, true
}
