// Package pipeline implements the stream orchestrator that wires a
// PacketSource to the filter, temporal state, route navigator, snapshot
// adapter and rule engine stages, forwarding decisions to the guidance
// executor (spec §4.6). It follows the teacher's Vehicle/System lifecycle
// idiom: a stop channel plus a WaitGroup, started and stopped explicitly.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/open-eyes/handheld/internal/model"
	"github.com/open-eyes/handheld/internal/navigator"
	"github.com/open-eyes/handheld/internal/obslog"
	"github.com/open-eyes/handheld/internal/rules"
	"github.com/open-eyes/handheld/internal/snapshot"
	"github.com/open-eyes/handheld/internal/state"
	"github.com/open-eyes/handheld/internal/transport"
)

// Filterer is the sliding-window pre-processor the pipeline drives each
// cycle. It is an interface so tests can substitute a passthrough.
type Filterer interface {
	Filter(p model.Packet) model.Packet
	IsWarmedUp() bool
}

// Decision is broadcast on the pipeline's observer channel once for every
// accepted packet with only FlowID and State set, and a second time when a
// snapshot was built and evaluated, then also carrying Snapshot,
// Instruction and Emit (spec §4.6 steps 4 and 6, §4A's flow-id correlation).
type Decision struct {
	FlowID      string
	State       *state.TemporalState
	Snapshot    snapshot.Snapshot
	Instruction rules.Instruction
	Emit        bool
}

// Listener receives each cycle's forwarded (instruction, snapshot) pair,
// e.g. the guidance executor.
type Listener interface {
	Process(instr rules.Instruction, atEmission snapshot.Snapshot)
}

// Stats is a point-in-time snapshot of the pipeline's counters, available
// on demand per spec §4.6.
type Stats struct {
	Received       uint64
	Processed      uint64
	Errored        uint64
	FilterWarm     bool
	NavigatorState string
	GpsLost        bool
}

// DefaultGpsLossThreshold is the number of consecutive invalid GPS fixes
// (while routing) that mark the fix as lost, per spec §4.6/§5. Overridable
// via WithGpsLossThreshold from config.GlobalConfig.GpsLossPacketCount.
const DefaultGpsLossThreshold = 3

// Pipeline drives one packet source end to end. All mutable stage state
// (filter windows, last TemporalState, navigator position, engine dedup
// cache) is touched only from the single loop goroutine started by Start,
// matching spec §5's single-writer rule.
type Pipeline struct {
	source   transport.PacketSource
	filter   Filterer
	engine   *rules.Engine
	nav      *navigator.RouteNavigator
	listener Listener
	log      *logrus.Logger

	observers chan Decision

	mu                    sync.Mutex
	lastState             *state.TemporalState
	consecutiveInvalidFix int
	gpsLossThreshold      int
	gpsLost               bool

	received  uint64
	processed uint64
	errored   uint64

	stop    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// New builds a Pipeline. nav and listener may be nil (no route context /
// no forwarding), matching spec §4.6's "if route navigator present" /
// "if engine present" guards.
func New(source transport.PacketSource, filter Filterer, engine *rules.Engine, nav *navigator.RouteNavigator, listener Listener, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		source:           source,
		filter:           filter,
		engine:           engine,
		nav:              nav,
		listener:         listener,
		log:              log,
		observers:        make(chan Decision, 32),
		stop:             make(chan struct{}),
		gpsLossThreshold: DefaultGpsLossThreshold,
	}
}

// WithGpsLossThreshold overrides the consecutive-invalid-fix count that
// marks GPS as lost (config.GlobalConfig.GpsLossPacketCount).
func (p *Pipeline) WithGpsLossThreshold(count int) *Pipeline {
	if count > 0 {
		p.gpsLossThreshold = count
	}
	return p
}

// Observe returns the broadcast channel of per-cycle decisions, consumed by
// the telemetry hub and/or tests.
func (p *Pipeline) Observe() <-chan Decision {
	return p.observers
}

// Stats returns a consistent snapshot of the pipeline's counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	navState := "no route"
	if p.nav != nil {
		navState = p.nav.String()
	}
	return Stats{
		Received:       p.received,
		Processed:      p.processed,
		Errored:        p.errored,
		FilterWarm:     p.filter.IsWarmedUp(),
		NavigatorState: navState,
		GpsLost:        p.gpsLost,
	}
}

// Start connects the source and begins the single processing loop. It is
// idempotent: calling Start twice on an already-running pipeline is a
// no-op.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stop = make(chan struct{})
	p.mu.Unlock()

	if err := p.source.Connect(ctx); err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransport, err)
	}
	packets, err := p.source.Stream(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransport, err)
	}

	p.wg.Add(1)
	go p.run(ctx, packets)
	return nil
}

// Stop cancels the packet subscription and waits for the loop goroutine to
// drain, per spec §5's cancellation contract.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	p.mu.Unlock()

	_ = p.source.Disconnect()
	p.wg.Wait()
}

// Restart stops and starts the pipeline again, resetting no stage state
// (filter windows and navigator progress survive a restart; only the
// transport connection is cycled).
func (p *Pipeline) Restart(ctx context.Context) error {
	p.Stop()
	return p.Start(ctx)
}

// Dispose stops the pipeline and closes the observer channel. The Pipeline
// must not be reused after Dispose.
func (p *Pipeline) Dispose() {
	p.Stop()
	close(p.observers)
}

func (p *Pipeline) run(ctx context.Context, packets <-chan model.Packet) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case pkt, ok := <-packets:
			if !ok {
				return
			}
			p.processPacket(pkt)
		}
	}
}

func (p *Pipeline) processPacket(pkt model.Packet) {
	p.mu.Lock()
	p.received++
	p.mu.Unlock()

	nowMs := time.Now().UnixMilli()
	if !pkt.ValidForPipeline(nowMs) {
		p.mu.Lock()
		p.errored++
		p.mu.Unlock()
		p.log.WithField("age_ms", pkt.AgeMs(nowMs)).Warn("dropping invalid packet")
		return
	}

	flowID := uuid.NewString()
	filtered := p.filter.Filter(pkt)

	p.mu.Lock()
	previous := p.lastState
	p.mu.Unlock()

	ts := state.FromPacket(filtered, previous, nowMs)

	p.mu.Lock()
	p.lastState = ts
	p.processed++
	p.mu.Unlock()

	p.updateGpsLoss(ts.Packet.GPS)

	if p.nav != nil {
		p.nav.UpdatePosition(ts.Packet.GPS)
	}

	decision := Decision{FlowID: flowID, State: ts}
	p.emitObserver(decision)

	if p.engine == nil {
		return
	}

	snap, err := snapshot.Build(ts, p.nav, nowMs)
	if err != nil {
		obslog.WithFlow(p.log, flowID).WithError(err).Debug("skipping cycle: snapshot invalid")
		return
	}

	instr, emit, err := p.engine.Evaluate(snap)
	if err != nil {
		obslog.WithFlow(p.log, flowID).WithError(err).Error("rule engine produced no instruction")
		return
	}

	decision = Decision{FlowID: flowID, State: ts, Snapshot: snap, Instruction: instr, Emit: emit}
	p.emitObserver(decision)

	if emit && p.listener != nil {
		p.listener.Process(instr, snap)
	}
}

// updateGpsLoss implements spec §4.6's "three consecutive invalid fixes"
// rule, only meaningful while a destination is active.
func (p *Pipeline) updateGpsLoss(gps model.GpsFix) {
	if p.nav == nil || !p.nav.HasActiveDestination() {
		return
	}

	p.mu.Lock()
	if gps.HasFix() {
		p.consecutiveInvalidFix = 0
		p.gpsLost = false
	} else {
		p.consecutiveInvalidFix++
		if p.consecutiveInvalidFix >= p.gpsLossThreshold {
			p.gpsLost = true
		}
	}
	lost := p.gpsLost
	p.mu.Unlock()

	if p.engine != nil {
		p.engine.SetGpsLost(lost)
	}
}

func (p *Pipeline) emitObserver(d Decision) {
	select {
	case p.observers <- d:
	default:
		// Non-blocking: a slow observer must never stall the decision loop.
	}
}
