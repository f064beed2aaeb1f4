package speech

import "context"

// Synthesizer is the text-to-speech boundary. One attempt per call; callers
// treat failures as a non-fatal degradation.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, format string) ([]byte, error)
}

// DefaultVoice is used when a request does not name one.
const DefaultVoice = "longxiaochun"

// Voices returns the synthesis voices the service exposes.
func Voices() []string {
	return []string{
		"longxiaochun",
		"longxiaoxia",
		"longxiaocheng",
		"longwan",
		"longcheng",
		"longhua",
		"longshu",
		"longshuo",
		"longjing",
		"longlaotie",
	}
}
