// Package interaction maps pointer events on a (possibly scaled) preview
// surface to logical label positions: click-to-grab hit-testing, drag
// repositioning, and hover affordance hints.
//
// A Controller is a synchronous state machine; no call blocks. It is confined
// to a single logical thread: the host delivering the events is responsible
// for serializing them (the HTTP session layer does this with a per-session
// mutex).
package interaction

import (
	"github.com/jimwhimpey/beforeafterify/pkg/layout"
)

// Policy decides what a drag moves.
type Policy int

const (
	// MoveIndependent moves only the grabbed label.
	MoveIndependent Policy = iota
	// MoveTogether mirrors the dragged position onto both labels.
	MoveTogether
)

// Cursor is the affordance hint the host UI should show.
type Cursor string

const (
	CursorDefault  Cursor = "default"
	CursorGrab     Cursor = "grab"
	CursorGrabbing Cursor = "grabbing"
)

// DragSession records which label is being moved and the pointer-to-label
// offset captured at grab time, in surface pixels. It exists only between a
// successful grab and the next pointer-up or pointer-leave.
type DragSession struct {
	Label   int
	OffsetX float64
	OffsetY float64
}

// Surface describes the interactive surface an event occurred on: its pixel
// dimensions and the logical scale it was rendered at.
type Surface struct {
	Width  float64
	Height float64
	Scale  float64
}

// Controller owns the transient interaction state for one editing surface and
// mutates the label configs it was given in response to pointer events.
type Controller struct {
	engine *layout.Engine
	labels [2]*layout.LabelConfig
	policy Policy

	drag     *DragSession
	hovering bool
}

// NewController creates a controller over the two labels. The labels are
// mutated in place as drags happen.
func NewController(engine *layout.Engine, label1, label2 *layout.LabelConfig, policy Policy) *Controller {
	return &Controller{
		engine: engine,
		labels: [2]*layout.LabelConfig{label1, label2},
		policy: policy,
	}
}

// Dragging reports whether a drag session is active.
func (c *Controller) Dragging() bool { return c.drag != nil }

// Session returns a copy of the active drag session, if any.
func (c *Controller) Session() (DragSession, bool) {
	if c.drag == nil {
		return DragSession{}, false
	}
	return *c.drag, true
}

// Cursor returns the affordance hint for the current state.
func (c *Controller) Cursor() Cursor {
	switch {
	case c.drag != nil:
		return CursorGrabbing
	case c.hovering:
		return CursorGrab
	default:
		return CursorDefault
	}
}

// PointerDown hit-tests both labels at the pointer position and, on a hit,
// opens a drag session. Label 1 (index 0) wins when the two labels overlap.
// Returns true if a label was grabbed.
func (c *Controller) PointerDown(x, y float64, s Surface) bool {
	for i, label := range c.labels {
		if label == nil {
			continue
		}
		hit, err := c.engine.HitTest(*label, s.Width, s.Height, s.Scale, x, y)
		if err != nil || !hit {
			continue
		}
		c.drag = &DragSession{
			Label:   i,
			OffsetX: x - label.X*s.Scale,
			OffsetY: y - label.Y*s.Scale,
		}
		return true
	}
	return false
}

// PointerMove repositions the grabbed label while a drag session is active,
// converting the pointer position back to logical coordinates through the
// captured grab offset. With no active session it only refreshes the hover
// affordance.
func (c *Controller) PointerMove(x, y float64, s Surface) {
	if c.drag == nil {
		c.hovering = c.hitAny(x, y, s)
		return
	}

	label := c.labels[c.drag.Label]
	if label == nil || s.Scale <= 0 {
		return
	}

	newX := (x - c.drag.OffsetX) / s.Scale
	newY := (y - c.drag.OffsetY) / s.Scale

	if c.policy == MoveTogether {
		for _, l := range c.labels {
			if l != nil {
				l.X = newX
				l.Y = newY
			}
		}
		return
	}
	label.X = newX
	label.Y = newY
}

// PointerUp ends any active drag session, regardless of pointer position.
func (c *Controller) PointerUp() {
	c.drag = nil
}

// PointerLeave ends any active drag session and clears the hover affordance.
func (c *Controller) PointerLeave() {
	c.drag = nil
	c.hovering = false
}

func (c *Controller) hitAny(x, y float64, s Surface) bool {
	for _, label := range c.labels {
		if label == nil {
			continue
		}
		if hit, err := c.engine.HitTest(*label, s.Width, s.Height, s.Scale, x, y); err == nil && hit {
			return true
		}
	}
	return false
}
