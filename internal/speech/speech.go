// Package speech defines the guidance executor's speech collaborator
// capability (spec §4.8) and a console-based reference implementation used
// in development and tests.
package speech

import "context"

// Priority mirrors spec §4.8's speech priority set. Urgent preempts
// whatever is currently speaking; Normal queues; Info is reserved for
// future non-interrupting chatter.
type Priority int

const (
	Info Priority = iota
	Normal
	Urgent
)

// Speaker is the capability set the guidance executor consumes. It never
// sees synthesizer internals — only text, priority, and completion.
type Speaker interface {
	// Speak begins speaking text at the given priority and returns a
	// channel closed when the utterance completes (or is interrupted).
	Speak(ctx context.Context, text string, priority Priority) (<-chan struct{}, error)
	Interrupt()
	Pause()
	Resume()
	Stop()
}
