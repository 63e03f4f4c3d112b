package board

import (
	"sync"
	"time"
)

// Timeline is the append-only command log behind a whiteboard. Commands
// are immutable once appended; the only way to remove content is Clear,
// which drops the whole log. Text rows are auto-placed by the Layout.
type Timeline struct {
	mu       sync.RWMutex
	layout   Layout
	commands []Command
	textRows int // rows placed since the last clear, drives the cycling Y
}

// NewTimeline returns an empty timeline using the given layout.
func NewTimeline(layout Layout) *Timeline {
	return &Timeline{layout: layout}
}

// Append adds a fully specified command. The ID and timestamp are filled
// in when the caller left them empty.
func (t *Timeline) Append(cmd Command) Command {
	if cmd.ID == "" {
		cmd.ID = newID(cmd.Kind)
	}
	if cmd.ScheduledAt == 0 {
		cmd.ScheduledAt = time.Now().UnixMilli()
	}

	t.mu.Lock()
	t.commands = append(t.commands, cmd)
	t.mu.Unlock()
	return cmd
}

// AppendText places a text row at the next auto-cycled position.
func (t *Timeline) AppendText(text string) Command {
	t.mu.Lock()
	pos := t.layout.TextPosition(t.textRows)
	t.textRows++
	cmd := Command{
		ID:          newID(KindText),
		Kind:        KindText,
		ScheduledAt: time.Now().UnixMilli(),
		Position:    pos,
		Text:        text,
		FontSize:    t.layout.FontSize,
		Color:       t.layout.Color,
	}
	t.commands = append(t.commands, cmd)
	t.mu.Unlock()
	return cmd
}

// Clear drops every command and resets the row cursor, so the next text
// row starts back at the top of the band.
func (t *Timeline) Clear() {
	t.mu.Lock()
	t.commands = nil
	t.textRows = 0
	t.mu.Unlock()
}

// Snapshot copies the current command log in append order.
func (t *Timeline) Snapshot() []Command {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Command, len(t.commands))
	copy(out, t.commands)
	return out
}

// Len reports how many commands the log holds.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.commands)
}
