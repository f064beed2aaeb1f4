package recognition

import (
	"fmt"
	"sync"
	"testing"
)

func TestAccumulator_KeepsOnlyFinalFragments(t *testing.T) {
	acc := NewAccumulator()
	events := []TranscriptEvent{
		{Text: "h", IsFinal: false},
		{Text: "hello", IsFinal: true},
		{Text: "", IsFinal: true},
		{Text: "world", IsFinal: true},
	}
	for _, ev := range events {
		acc.Fold(ev)
	}
	if got := acc.Text(); got != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", got)
	}
}

func TestAccumulator_TrimsWhitespace(t *testing.T) {
	acc := NewAccumulator()
	acc.Fold(TranscriptEvent{Text: "  hello  ", IsFinal: true})
	acc.Fold(TranscriptEvent{Text: "\t\n", IsFinal: true})
	acc.Fold(TranscriptEvent{Text: " there ", IsFinal: true})
	if got := acc.Text(); got != "hello there" {
		t.Fatalf("expected %q, got %q", "hello there", got)
	}
}

func TestAccumulator_EmptyStaysEmpty(t *testing.T) {
	acc := NewAccumulator()
	acc.Fold(TranscriptEvent{Text: "interim only", IsFinal: false})
	if got := acc.Text(); got != "" {
		t.Fatalf("expected empty transcript, got %q", got)
	}
}

func TestAccumulator_TextIsMonotonic(t *testing.T) {
	acc := NewAccumulator()
	previous := ""
	for i := 0; i < 10; i++ {
		acc.Fold(TranscriptEvent{Text: fmt.Sprintf("w%d", i), IsFinal: i%2 == 0})
		current := acc.Text()
		if len(current) < len(previous) {
			t.Fatalf("transcript shrank from %q to %q", previous, current)
		}
		previous = current
	}
}

func TestAccumulator_ConcurrentFoldAndText(t *testing.T) {
	acc := NewAccumulator()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			acc.Fold(TranscriptEvent{Text: fmt.Sprintf("w%d", n), IsFinal: true})
		}(i)
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = acc.Text()
		}()
	}

	wg.Wait()
	if acc.Text() == "" {
		t.Fatal("expected accumulated text after concurrent folds")
	}
}
