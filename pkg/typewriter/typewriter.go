// Package typewriter reveals a text one rune at a time.
//
// Typewriter is a plain state machine advanced by ticks that carry the
// generation they were scheduled for; restarting or stopping bumps the
// generation so that ticks from an earlier run are ignored. Model wires it
// into bubbletea, Runner drives it from a goroutine.
package typewriter

import (
	"time"
)

const DefaultSpeed = 15 * time.Millisecond

// Typewriter is not safe for concurrent use.
type Typewriter struct {
	target    []rune
	shown     int
	gen       uint64
	running   bool
	completed bool
}

func New() *Typewriter {
	return &Typewriter{}
}

// Start resets the visible text to empty and starts revealing text. It
// returns the generation to tag ticks with.
func (t *Typewriter) Start(text string) uint64 {
	t.gen++
	t.target = []rune(text)
	t.shown = 0
	t.running = true
	t.completed = false
	return t.gen
}

// Step reveals one more rune if gen is the current generation. completed is
// true exactly once per run, on the step that reveals the last rune (or the
// first step of an empty text).
func (t *Typewriter) Step(gen uint64) (changed bool, completed bool) {
	if gen != t.gen || !t.running {
		return false, false
	}
	if t.shown < len(t.target) {
		t.shown++
		changed = true
	}
	if t.shown >= len(t.target) {
		t.running = false
		t.completed = true
		return changed, true
	}
	return changed, false
}

// Stop cancels the current run; pending ticks become stale.
func (t *Typewriter) Stop() {
	t.gen++
	t.running = false
}

// Finish reveals the whole text at once. It reports whether the run was
// still going, in which case it counts as completing it.
func (t *Typewriter) Finish() bool {
	if !t.running {
		return false
	}
	t.shown = len(t.target)
	t.running = false
	t.completed = true
	t.gen++
	return true
}

func (t *Typewriter) Text() string {
	return string(t.target[:t.shown])
}

func (t *Typewriter) Target() string {
	return string(t.target)
}

func (t *Typewriter) Running() bool {
	return t.running
}

func (t *Typewriter) Completed() bool {
	return t.completed
}

func (t *Typewriter) Generation() uint64 {
	return t.gen
}
