package reader

import (
	"fmt"
	"sync"
)

// State of a reading session within one section.
type State int

const (
	StateIdle State = iota
	StateRestoring
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRestoring:
		return "restoring"
	case StateSettled:
		return "settled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Trigger is what caused a checkpoint.
type Trigger int

const (
	TriggerScroll Trigger = iota
	TriggerHide
	TriggerUnload
)

// FetchToken identifies the section load a fetch was issued for.
type FetchToken struct {
	sectionID uint
	seq       uint64
}

// Session tracks one reader's position while they move through a book.
//
//	idle ──Restore──▶ restoring ──Settle──▶ settled
//	  ▲                                        │
//	  └───────────────── Open ─────────────────┘
//
// Restore goes straight to settled when there is nothing to restore.
// Checkpoints are only emitted while settled, so the transient scroll
// positions of a section that is still loading or being restored are never saved.
type Session struct {
	mu           sync.Mutex
	state        State
	sectionID    uint
	sectionIndex int
	seq          uint64
	checkpoints  *Checkpointer
}

func NewSession(checkpoints *Checkpointer) *Session {
	s := &Session{checkpoints: checkpoints}
	checkpoints.Suppress(true)
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SectionID returns the active section.
func (s *Session) SectionID() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sectionID
}

// Open switches to a section and returns the token its content fetch must carry.
// Results of fetches issued for earlier sections are rejected from now on.
func (s *Session) Open(sectionID uint, sectionIndex int) FetchToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.sectionID = sectionID
	s.sectionIndex = sectionIndex
	s.state = StateIdle
	s.checkpoints.Suppress(true)
	return FetchToken{sectionID: sectionID, seq: s.seq}
}

// Current reports whether a fetch result is still for the active section load.
func (s *Session) Current(token FetchToken) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(token)
}

func (s *Session) current(token FetchToken) bool {
	return token.seq == s.seq && token.sectionID == s.sectionID
}

// Restore decides where to scroll once the section's content is rendered.
// It returns false when token is stale, in which case the caller discards the
// result. A resolution that needs restoring leaves the session in restoring
// until Settle is called.
func (s *Session) Restore(token FetchToken, in Inputs) (Resolution, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(token) || s.state != StateIdle {
		return Resolution{}, false
	}
	res := Resolve(in)
	if res.Restoring {
		s.state = StateRestoring
	} else {
		s.settle()
	}
	return res, true
}

// Settle ends a restoration attempt, successful or not.
func (s *Session) Settle(token FetchToken) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(token) || s.state != StateRestoring {
		return false
	}
	s.settle()
	return true
}

func (s *Session) settle() {
	s.state = StateSettled
	s.checkpoints.Suppress(false)
}

// Checkpoint records the position at scrollTop. Scroll triggers are throttled;
// hide and unload are flushed. Reports whether a save was made.
func (s *Session) Checkpoint(trigger Trigger, scrollTop float64, vp Viewport, chunks []ChunkBox) bool {
	s.mu.Lock()
	if s.state != StateSettled {
		s.mu.Unlock()
		return false
	}
	cp := Checkpoint{
		SectionID:    s.sectionID,
		SectionIndex: s.sectionIndex,
		Position:     Locate(scrollTop, vp, chunks),
	}
	s.mu.Unlock()

	if trigger == TriggerScroll {
		return s.checkpoints.Offer(cp)
	}
	return s.checkpoints.Flush(cp)
}
