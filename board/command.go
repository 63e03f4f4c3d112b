package board

import (
	"fmt"
	"time"
)

// CommandKind names the drawing primitives a timeline can carry.
type CommandKind string

const (
	KindText   CommandKind = "text"
	KindLine   CommandKind = "line"
	KindRect   CommandKind = "rect"
	KindCircle CommandKind = "circle"
	KindArrow  CommandKind = "arrow"
	KindImage  CommandKind = "image"
	KindClear  CommandKind = "clear"
)

// Point is a board coordinate in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Command is one immutable drawing instruction. Fields beyond Kind, ID and
// ScheduledAt are populated per kind; unused ones stay at their zero value
// and are omitted from the wire form.
type Command struct {
	ID          string      `json:"id"`
	Kind        CommandKind `json:"type"`
	ScheduledAt int64       `json:"time"` // unix milliseconds

	Position Point   `json:"position"`
	End      *Point  `json:"end,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Radius   float64 `json:"radius,omitempty"`

	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Color    string  `json:"color,omitempty"`
	URL      string  `json:"url,omitempty"`
}

// newID stamps a command the way the board always has: kind plus the
// wall-clock nanosecond it was created.
func newID(kind CommandKind) string {
	return fmt.Sprintf("%s-%d", kind, time.Now().UnixNano())
}

// Layout fixes where auto-placed text lands on the canvas. Rows cycle
// vertically through a band: row n sits at BaseY + (n*RowHeight) mod
// BandHeight. Once the band wraps, new rows reuse earlier slots and may
// overlap what is already there; that is the board's long-standing
// behavior and callers clear the board when it gets crowded.
type Layout struct {
	LeftMargin float64
	BaseY      float64
	RowHeight  float64
	BandHeight float64
	FontSize   float64
	Color      string
}

// DefaultLayout matches the classroom canvas.
func DefaultLayout() Layout {
	return Layout{
		LeftMargin: 50,
		BaseY:      100,
		RowHeight:  50,
		BandHeight: 400,
		FontSize:   24,
		Color:      "#333",
	}
}

// TextPosition returns where the n-th auto-placed text row lands.
func (l Layout) TextPosition(n int) Point {
	offset := float64(n) * l.RowHeight
	if l.BandHeight > 0 {
		offset = float64((int64(offset)) % int64(l.BandHeight))
	}
	return Point{X: l.LeftMargin, Y: l.BaseY + offset}
}
