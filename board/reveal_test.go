package board

import "testing"

func TestRevealTicksToFullText(t *testing.T) {
	r := NewReveal()
	r.SetText("hello")

	if got := r.Visible(); got != "" {
		t.Fatalf("Visible before any tick = %q, want empty", got)
	}
	for i := 1; i <= 5; i++ {
		r.Tick()
		if got := r.Visible(); got != "hello"[:i] {
			t.Fatalf("after %d ticks Visible = %q, want %q", i, got, "hello"[:i])
		}
	}
	if !r.Done() {
		t.Fatal("Done = false after revealing everything")
	}

	// Extra ticks past the end must not panic or change anything.
	r.Tick()
	r.Tick()
	if got := r.Visible(); got != "hello" {
		t.Fatalf("Visible after overshoot = %q, want %q", got, "hello")
	}
}

func TestRevealCountsRunesNotBytes(t *testing.T) {
	r := NewReveal()
	r.SetText("πr²")

	r.Tick()
	if got := r.Visible(); got != "π" {
		t.Fatalf("after 1 tick Visible = %q, want %q", got, "π")
	}
	r.Tick()
	r.Tick()
	if got := r.Visible(); got != "πr²" {
		t.Fatalf("after 3 ticks Visible = %q, want %q", got, "πr²")
	}
	if !r.Done() {
		t.Fatal("Done = false after 3 ticks of a 3-rune text")
	}
}

func TestRevealSetTextRestarts(t *testing.T) {
	r := NewReveal()
	r.SetText("first")
	r.Tick()
	r.Tick()

	r.SetText("second")
	if got := r.Visible(); got != "" {
		t.Fatalf("Visible after text change = %q, want empty", got)
	}
	if r.Done() {
		t.Fatal("Done = true right after a text change")
	}
}

func TestRevealSameTextDoesNotRestart(t *testing.T) {
	r := NewReveal()
	r.SetText("steady")
	r.Tick()
	r.Tick()

	r.SetText("steady")
	if got := r.Visible(); got != "st" {
		t.Fatalf("Visible = %q, want %q (same text must not rewind)", got, "st")
	}
}

func TestRevealClear(t *testing.T) {
	r := NewReveal()
	r.SetText("gone soon")
	r.Tick()

	r.Clear()
	if got := r.Visible(); got != "" {
		t.Fatalf("Visible after Clear = %q, want empty", got)
	}
	if got := r.Text(); got != "" {
		t.Fatalf("Text after Clear = %q, want empty", got)
	}
	if !r.Done() {
		t.Fatal("empty reveal should report Done")
	}
}
