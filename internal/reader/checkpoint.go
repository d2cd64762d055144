package reader

import (
	"sync"
	"time"
)

// DefaultCheckpointInterval is the minimum spacing between scroll-driven saves.
const DefaultCheckpointInterval = 800 * time.Millisecond

// Checkpoint is one save request: the section being read plus the position in it.
type Checkpoint struct {
	SectionID    uint `json:"sectionId"`
	SectionIndex int  `json:"sectionIndex"`
	Position
}

// SaveFunc persists a checkpoint. It is called synchronously by the Checkpointer.
type SaveFunc func(Checkpoint)

// Checkpointer throttles checkpoint saves. Scroll saves closer together than
// the interval are dropped; flushes (tab hidden, page unload) always go
// through. Nothing is saved while suppressed.
type Checkpointer struct {
	mu         sync.Mutex
	save       SaveFunc
	interval   time.Duration
	now        func() time.Time
	last       time.Time
	suppressed bool
}

func NewCheckpointer(save SaveFunc, interval time.Duration) *Checkpointer {
	if interval <= 0 {
		interval = DefaultCheckpointInterval
	}
	return &Checkpointer{
		save:     save,
		interval: interval,
		now:      time.Now,
	}
}

// Offer saves cp unless a save happened within the interval. Reports whether it saved.
func (c *Checkpointer) Offer(cp Checkpoint) bool {
	c.mu.Lock()
	if c.suppressed {
		c.mu.Unlock()
		return false
	}
	now := c.now()
	if !c.last.IsZero() && now.Sub(c.last) < c.interval {
		c.mu.Unlock()
		return false
	}
	c.last = now
	c.mu.Unlock()

	c.save(cp)
	return true
}

// Flush saves cp regardless of the throttle.
func (c *Checkpointer) Flush(cp Checkpoint) bool {
	c.mu.Lock()
	if c.suppressed {
		c.mu.Unlock()
		return false
	}
	c.last = c.now()
	c.mu.Unlock()

	c.save(cp)
	return true
}

// Suppress turns saving off or back on.
func (c *Checkpointer) Suppress(on bool) {
	c.mu.Lock()
	c.suppressed = on
	c.mu.Unlock()
}

func (c *Checkpointer) Suppressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suppressed
}
