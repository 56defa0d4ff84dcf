package system

import (
	"time"

	coresys "github.com/hordecore/hordecore/internal/core/system"
	"github.com/hordecore/hordecore/internal/world"
)

// CleanupSystem flushes the deferred removal queues at frame end and resets
// the frame log.
type CleanupSystem struct {
	store *world.Store
	frame *world.FrameLog
	clock *world.Clock
}

func NewCleanupSystem(ws *world.State) *CleanupSystem {
	return &CleanupSystem{store: ws.Store, frame: ws.Frame, clock: ws.Clock}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.store.Flush()
	s.frame.Reset()
}
