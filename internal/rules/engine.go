// Package rules implements the priority-ordered expert engine that turns a
// decision-ready Snapshot into exactly one voice Instruction (spec §4.5).
package rules

import (
	"errors"
	"sort"

	"github.com/open-eyes/handheld/internal/snapshot"
)

// ErrNoRuleApplicable indicates the engine found no matching rule. This
// should be unreachable given the always-matching ClearPath fallback; its
// presence lets the caller fail loudly instead of panicking if a future
// rule set removes the fallback (spec §7).
var ErrNoRuleApplicable = errors.New("rules: no applicable rule")

// Rule is a priority-tagged predicate/action pair. Matches and Apply may
// read or update the rule's private state (the one-shot rules clear their
// latch in Matches and set it in Apply) but must not mutate the snapshot.
type Rule interface {
	Name() string
	Priority() int
	Matches(s snapshot.Snapshot) bool
	Apply(s snapshot.Snapshot) Instruction
}

// Engine holds an ordered rule set and the deduplication cache described in
// spec §4.5.
type Engine struct {
	rules          []Rule
	lastInstr      *Instruction
	gpsLost        bool
}

// NewEngine sorts rules by descending priority once at construction so
// Evaluate never has to re-sort per call.
func NewEngine(rs []Rule) *Engine {
	ordered := make([]Rule, len(rs))
	copy(ordered, rs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() > ordered[j].Priority()
	})
	e := &Engine{rules: ordered}
	bindEngine(ordered, e)
	return e
}

// SetGpsLost is driven by the pipeline's consecutive-invalid-fix counter
// (spec §4.6); GpsLostDuringNavigation reads it through GpsLost().
func (e *Engine) SetGpsLost(lost bool) {
	e.gpsLost = lost
}

// GpsLost reports the pipeline-driven GPS loss flag.
func (e *Engine) GpsLost() bool {
	return e.gpsLost
}

// Evaluate picks the first matching rule in descending priority order,
// applies it, and runs the deduplication policy against the last emitted
// instruction. It returns (instruction, emit, error): emit is false when
// the instruction was suppressed as a duplicate.
func (e *Engine) Evaluate(s snapshot.Snapshot) (Instruction, bool, error) {
	for _, r := range e.rules {
		if !r.Matches(s) {
			continue
		}
		instr := r.Apply(s)
		instr.RuleName = r.Name()
		instr.RulePriority = r.Priority()

		emit := e.shouldEmit(instr)
		if emit {
			saved := instr
			e.lastInstr = &saved
		}
		return instr, emit, nil
	}
	return Instruction{}, false, ErrNoRuleApplicable
}

// shouldEmit implements spec §4.5's dedup policy: emit iff there is no
// prior instruction, the new one is immediate, or it differs in kind or
// message from the last one.
func (e *Engine) shouldEmit(instr Instruction) bool {
	if instr.Immediate {
		return true
	}
	if e.lastInstr == nil {
		return true
	}
	return !instr.Equivalent(*e.lastInstr)
}

// Rules returns the engine's ordered rule set, for introspection/testing.
func (e *Engine) Rules() []Rule {
	return e.rules
}
