package recognition

import (
	"strings"
	"sync"
)

// Accumulator folds a stream of transcript events into one growing final
// transcript. Only final, non-blank fragments are kept; interim fragments
// are revisable noise and never accumulated. Blank finals are dropped
// silently, mirroring upstream behavior.
type Accumulator struct {
	mu   sync.Mutex
	text string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Fold applies one event. Safe for concurrent use with Text.
func (a *Accumulator) Fold(ev TranscriptEvent) {
	if !ev.IsFinal {
		return
	}
	fragment := strings.TrimSpace(ev.Text)
	if fragment == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.text == "" {
		a.text = fragment
	} else {
		a.text += " " + fragment
	}
}

// Text returns the transcript accumulated so far. It may be called while
// events are still arriving.
func (a *Accumulator) Text() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.text
}
