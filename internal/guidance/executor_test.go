package guidance_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/open-eyes/handheld/internal/guidance"
	"github.com/open-eyes/handheld/internal/rules"
	"github.com/open-eyes/handheld/internal/snapshot"
	"github.com/open-eyes/handheld/internal/speech"
)

// fakeSpeaker completes every utterance instantly, recording what it was
// asked to say.
type fakeSpeaker struct {
	mu    sync.Mutex
	said  []string
	inter int
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string, priority speech.Priority) (<-chan struct{}, error) {
	f.mu.Lock()
	f.said = append(f.said, text)
	f.mu.Unlock()

	done := make(chan struct{})
	close(done)
	return done, nil
}

func (f *fakeSpeaker) Interrupt() {
	f.mu.Lock()
	f.inter++
	f.mu.Unlock()
}
func (f *fakeSpeaker) Pause()  {}
func (f *fakeSpeaker) Resume() {}
func (f *fakeSpeaker) Stop()   {}

func (f *fakeSpeaker) Said() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.said))
	copy(out, f.said)
	return out
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestExecutorSpeaksNonImmediateInstructionAndReturnsToIdle(t *testing.T) {
	fs := &fakeSpeaker{}
	e := guidance.New(fs, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	e.Process(rules.NewInstruction(rules.Guidance, "clear, continue"), snapshot.Snapshot{})

	waitFor(t, func() bool { return len(fs.Said()) == 1 })
	assert.Equal(t, []string{"clear, continue"}, fs.Said())
	waitFor(t, func() bool { return e.State() == guidance.Idle })
}

func TestExecutorImmediateInstructionInterruptsCurrent(t *testing.T) {
	fs := &fakeSpeaker{}
	e := guidance.New(fs, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	e.Process(rules.NewInstruction(rules.Warning, "head-height obstacle, attention").WithImmediate(), snapshot.Snapshot{})

	waitFor(t, func() bool {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		return fs.inter >= 1
	})
}

func TestExecutorEntersNavigatingWhenDistanceRequiresMovement(t *testing.T) {
	fs := &fakeSpeaker{}
	e := guidance.New(fs, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	instr := rules.NewInstruction(rules.Guidance, "prepare to turn").WithDistance(1.0).
		WithFollowUp(rules.FollowUpAction{Kind: rules.TurnRight})
	e.Process(instr, snapshot.Snapshot{Yaw: 0})

	waitFor(t, func() bool { return e.State() == guidance.Navigating })
}

func TestExecutorEmitsFollowUpAfterDisplacementReachesTarget(t *testing.T) {
	fs := &fakeSpeaker{}
	e := guidance.New(fs, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	instr := rules.NewInstruction(rules.Guidance, "prepare to turn").WithDistance(0.5).
		WithFollowUp(rules.FollowUpAction{Kind: rules.Stop})
	e.Process(instr, snapshot.Snapshot{Yaw: 0})
	waitFor(t, func() bool { return e.State() == guidance.Navigating })

	// avg walking speed 1.4 m/s; a 1s tick covers more than the 0.5m target.
	e.Tick(snapshot.Snapshot{Yaw: 0, Pitch: 0})
	time.Sleep(1100 * time.Millisecond)
	e.Tick(snapshot.Snapshot{Yaw: 0, Pitch: 0})

	waitFor(t, func() bool {
		said := fs.Said()
		return len(said) >= 2 && said[len(said)-1] == "stop"
	})
	waitFor(t, func() bool { return e.State() == guidance.Idle })
}
