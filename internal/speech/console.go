package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	wordsPerMinute  = 150.0
	nominalRateMult = 2.0 // spec §4.8: ~0.5x nominal rate, i.e. takes twice as long
)

// ConsoleSpeaker is a reference Speaker that logs each utterance and
// simulates its speech duration with a timer, standing in for the
// out-of-scope hardware synthesizer (spec §4.8, §9's capability-based
// collaborator guidance).
type ConsoleSpeaker struct {
	log *logrus.Logger

	mu        sync.Mutex
	done      chan struct{}
	cancelRun context.CancelFunc
	paused    bool
	pauseCh   chan struct{}
}

// NewConsoleSpeaker builds a ConsoleSpeaker that logs through log.
func NewConsoleSpeaker(log *logrus.Logger) *ConsoleSpeaker {
	return &ConsoleSpeaker{log: log}
}

func estimatedDurationMs(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(float64(words) / wordsPerMinute * 60_000 * nominalRateMult)
}

// Speak logs the utterance at its priority and simulates its duration.
// Any utterance already in progress is interrupted first, matching how the
// guidance executor's Urgent preemption is expected to behave.
func (c *ConsoleSpeaker) Speak(ctx context.Context, text string, priority Priority) (<-chan struct{}, error) {
	c.Interrupt()

	c.mu.Lock()
	runCtx, cancel := context.WithCancel(ctx)
	c.cancelRun = cancel
	done := make(chan struct{})
	c.done = done
	c.paused = false
	c.pauseCh = make(chan struct{})
	c.mu.Unlock()

	durationMs := estimatedDurationMs(text)
	c.log.WithFields(logrus.Fields{
		"priority":    priorityName(priority),
		"duration_ms": durationMs,
	}).Infof("speak: %s", text)

	go func() {
		defer close(done)
		remaining := time.Duration(durationMs) * time.Millisecond
		for remaining > 0 {
			c.mu.Lock()
			paused := c.paused
			pauseCh := c.pauseCh
			c.mu.Unlock()

			if paused {
				select {
				case <-pauseCh:
					continue
				case <-runCtx.Done():
					return
				}
			}

			const tick = 20 * time.Millisecond
			step := tick
			if remaining < step {
				step = remaining
			}
			timer := time.NewTimer(step)
			select {
			case <-timer.C:
				remaining -= step
			case <-runCtx.Done():
				timer.Stop()
				return
			}
		}
	}()

	return done, nil
}

// Interrupt cancels any utterance in progress.
func (c *ConsoleSpeaker) Interrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelRun != nil {
		c.cancelRun()
	}
}

// Pause suspends the currently playing utterance's timer.
func (c *ConsoleSpeaker) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Resume unblocks a paused utterance.
func (c *ConsoleSpeaker) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		c.paused = false
		close(c.pauseCh)
		c.pauseCh = make(chan struct{})
	}
}

// Stop is equivalent to Interrupt for the console reference speaker: there
// is no persistent hardware state to release.
func (c *ConsoleSpeaker) Stop() {
	c.Interrupt()
}

func priorityName(p Priority) string {
	switch p {
	case Urgent:
		return "urgent"
	case Normal:
		return "normal"
	default:
		return "info"
	}
}
