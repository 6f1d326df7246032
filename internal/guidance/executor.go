// Package guidance implements the guidance executor (spec §4.7): a state
// machine that serializes rule-engine instructions to the speech
// collaborator, tracks walked displacement toward any movement target, and
// emits follow-up utterances once the target is reached.
package guidance

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/open-eyes/handheld/internal/rules"
	"github.com/open-eyes/handheld/internal/snapshot"
	"github.com/open-eyes/handheld/internal/speech"
)

// State is the executor's coarse activity for observers/diagnostics.
type State int

const (
	Idle State = iota
	Speaking
	Navigating
	Alerting
	Paused
)

func (s State) String() string {
	switch s {
	case Speaking:
		return "speaking"
	case Navigating:
		return "navigating"
	case Alerting:
		return "alerting"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

const stuckTimeout = 5 * time.Second

type pending struct {
	instr   rules.Instruction
	atEmit  snapshot.Snapshot
}

type submission struct {
	instr  rules.Instruction
	atEmit snapshot.Snapshot
}

// Executor drives one Speaker collaborator from a stream of instructions.
// Instructions and displacement ticks are handled on the loop goroutine
// started by Run; speech completions are handled on their own goroutines,
// so the state, queue and tracker they share are guarded by mu.
type Executor struct {
	speaker speech.Speaker
	log     *logrus.Logger

	mu    sync.Mutex
	state State
	queue *list.List

	tracker         *displacementTracker
	lastUpdate      time.Time
	pendingFollowUp *rules.FollowUpAction

	instrCh chan submission
	tickCh  chan currentSnapshot
}

// New builds an Executor around a Speaker collaborator.
func New(speaker speech.Speaker, log *logrus.Logger) *Executor {
	return &Executor{
		speaker: speaker,
		log:     log,
		queue:   list.New(),
		tracker: newDisplacementTracker(),
		instrCh: make(chan submission, 16),
		tickCh:  make(chan currentSnapshot, 16),
	}
}

// State returns the executor's current activity, safe for concurrent read.
func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Process submits an (instruction, snapshot) pair, as produced by the
// pipeline forwarding the rule engine's decision (spec §4.6 step 6). It is
// safe to call from any goroutine; the executor serializes work internally.
func (e *Executor) Process(instr rules.Instruction, atEmission snapshot.Snapshot) {
	e.instrCh <- submission{instr: instr, atEmit: atEmission}
}

// Tick feeds a displacement-tracker update derived from the latest
// snapshot's orientation.
func (e *Executor) Tick(s snapshot.Snapshot) {
	e.tickCh <- currentSnapshot{yaw: s.Yaw, pitch: s.Pitch}
}

// Run drives the executor's single loop goroutine until ctx is cancelled.
func (e *Executor) Run(ctx context.Context) {
	stuck := time.NewTicker(time.Second)
	defer stuck.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-e.instrCh:
			e.handleInstruction(ctx, sub.instr, sub.atEmit)
		case cur := <-e.tickCh:
			e.handleTick(cur)
		case <-stuck.C:
			e.checkStuck()
		}
	}
}

func (e *Executor) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Executor) handleInstruction(ctx context.Context, instr rules.Instruction, atEmit snapshot.Snapshot) {
	if instr.Immediate {
		e.speaker.Interrupt()
		e.speakAndTrack(ctx, instr, atEmit, speech.Urgent)
		return
	}

	e.mu.Lock()
	speaking := e.state == Speaking
	if speaking {
		e.queue.PushBack(pending{instr: instr, atEmit: atEmit})
	}
	e.mu.Unlock()

	if speaking {
		return
	}
	e.speakAndTrack(ctx, instr, atEmit, speech.Normal)
}

func (e *Executor) speakAndTrack(ctx context.Context, instr rules.Instruction, atEmit snapshot.Snapshot, priority speech.Priority) {
	e.setState(Speaking)
	done, err := e.speaker.Speak(ctx, instr.Message, priority)
	if err != nil {
		e.log.WithError(err).Warn("speech collaborator error")
		e.setState(Idle)
		return
	}

	go func() {
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
		e.onSpeechComplete(ctx, instr, atEmit)
	}()
}

func (e *Executor) onSpeechComplete(ctx context.Context, instr rules.Instruction, atEmit snapshot.Snapshot) {
	requiresMovement := instr.DistanceM != nil && *instr.DistanceM > 0
	if requiresMovement {
		e.mu.Lock()
		e.tracker.Begin(atEmit.Yaw, *instr.DistanceM)
		e.lastUpdate = time.Now()
		e.pendingFollowUp = instr.FollowUp
		e.state = Navigating
		e.mu.Unlock()
		return
	}

	if instr.FollowUp != nil {
		e.speakFollowUp(ctx, *instr.FollowUp)
		return
	}

	e.setState(Idle)
	e.drainQueue(ctx)
}

func (e *Executor) handleTick(cur currentSnapshot) {
	e.mu.Lock()
	if !e.tracker.Active() {
		e.mu.Unlock()
		return
	}
	now := time.Now()
	dt := now.Sub(e.lastUpdate).Seconds()
	e.lastUpdate = now
	reached := e.tracker.Tick(dt, cur)
	followUp := e.pendingFollowUp
	if reached {
		e.tracker.Reset()
	}
	e.mu.Unlock()

	if reached {
		e.setState(Idle)
		if followUp != nil {
			e.speakFollowUp(context.Background(), *followUp)
		}
	}
}

func (e *Executor) speakFollowUp(ctx context.Context, action rules.FollowUpAction) {
	text := followUpText(action)
	e.speakAndTrack(ctx, rules.NewInstruction(rules.Guidance, text), snapshot.Snapshot{}, speech.Normal)
}

func followUpText(action rules.FollowUpAction) string {
	switch action.Kind {
	case rules.TurnLeft:
		return "turn left now"
	case rules.TurnRight:
		return "turn right now"
	case rules.Stop:
		return "stop"
	case rules.Continue:
		return "continue straight"
	case rules.Raw:
		return action.Text
	default:
		return ""
	}
}

func (e *Executor) drainQueue(ctx context.Context) {
	e.mu.Lock()
	front := e.queue.Front()
	var next *pending
	if front != nil {
		e.queue.Remove(front)
		p := front.Value.(pending)
		next = &p
	}
	e.mu.Unlock()

	if next != nil {
		e.speakAndTrack(ctx, next.instr, next.atEmit, speech.Normal)
	}
}

func (e *Executor) checkStuck() {
	e.mu.Lock()
	active := e.tracker.Active()
	last := e.lastUpdate
	e.mu.Unlock()

	if active && time.Since(last) > stuckTimeout {
		e.log.Warn("displacement tracker stuck: no update in over 5s")
	}
}
