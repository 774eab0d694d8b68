// Package scroll decides where the transcript viewport should sit while
// answers stream in.
package scroll

import (
	"sync"
	"time"
)

type Mode int

const (
	// ModeBottom keeps the newest content visible.
	ModeBottom Mode = iota
	// ModeAnchor pins the latest user turn to the top of the viewport.
	ModeAnchor
	// ModeManual leaves the viewport where the user put it.
	ModeManual
)

func (m Mode) String() string {
	switch m {
	case ModeBottom:
		return "bottom"
	case ModeAnchor:
		return "anchor"
	case ModeManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Viewport is the host's scrollable transcript container. Positions are
// read from live layout on every call.
type Viewport interface {
	// OffsetTop is the distance from the top of the content to the turn.
	OffsetTop(turnID time.Time) (float64, bool)
	PaddingTop() float64
	ScrollHeight() float64
	SetScrollTop(offset float64)
}

// Controller is safe for concurrent use. A nil Viewport makes every
// adjustment a no-op while still tracking the mode.
type Controller struct {
	mu     sync.Mutex
	mode   Mode
	anchor time.Time
	view   Viewport
}

func NewController(view Viewport) *Controller {
	return &Controller{mode: ModeBottom, view: view}
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// MessageSent anchors the viewport to the user turn that was just added.
func (c *Controller) MessageSent(turnID time.Time) {
	c.mu.Lock()
	c.mode = ModeAnchor
	c.anchor = turnID
	c.mu.Unlock()
	c.adjust()
}

// ManualInput records a wheel, pointer or touch gesture on the viewport.
func (c *Controller) ManualInput() {
	c.mu.Lock()
	c.mode = ModeManual
	c.mu.Unlock()
}

// StreamCompleted returns to following the bottom unless the user took over.
func (c *Controller) StreamCompleted() {
	c.mu.Lock()
	if c.mode != ModeManual {
		c.mode = ModeBottom
	}
	c.mu.Unlock()
	c.adjust()
}

// TranscriptChanged re-applies the current mode after layout changed.
func (c *Controller) TranscriptChanged() {
	c.adjust()
}

func (c *Controller) adjust() {
	c.mu.Lock()
	mode, anchor, view := c.mode, c.anchor, c.view
	c.mu.Unlock()

	if view == nil {
		return
	}
	switch mode {
	case ModeBottom:
		view.SetScrollTop(view.ScrollHeight())
	case ModeAnchor:
		offset, ok := view.OffsetTop(anchor)
		if !ok {
			return
		}
		view.SetScrollTop(max(0, offset-view.PaddingTop()))
	}
}
