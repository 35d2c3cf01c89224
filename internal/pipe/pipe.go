// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipe

import (
	"sync"

	"code.hybscloud.com/atomix"

	"github.com/ulala-x/serverlink/internal/queue"
	"github.com/ulala-x/serverlink/internal/wire"
)

// granularity is the chunk size for message-pipe queues (spec: 256
// slots, distinct from the mailbox's 16-slot command granularity).
const granularity = 256

// defaultCreditBatch is the read-batch threshold used when a pipe's
// inbound HWM is unlimited (0).
const defaultCreditBatch = 64

// State is a pipe's position in its shutdown handshake.
type State int32

const (
	StateActive State = iota
	StateWaitingForDelimiter
	StateDelimiterReceived
	StateTerminating
	StateTermAckSent
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateWaitingForDelimiter:
		return "waiting-for-delimiter"
	case StateDelimiterReceived:
		return "delimiter-received"
	case StateTerminating:
		return "terminating"
	case StateTermAckSent:
		return "term-ack-sent"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// HWM bundles a pipe endpoint's high-water marks. Zero means
// unlimited.
type HWM struct {
	Send int
	Recv int
}

// Pipe is one endpoint of a pipe pair: an outbound queue the owner
// writes to, an inbound queue the owner reads from, and the shutdown
// state machine described in the engine's pipe-pair contract.
type Pipe struct {
	out *queue.Queue[wire.Message]
	in  *queue.Queue[wire.Message]

	peer *Pipe

	outHWM          int
	creditThreshold int

	outstanding   atomix.Int32
	delimiterSeen atomix.Bool
	readSinceAck  int

	// stateMu guards the handful of cross-goroutine shutdown-handshake
	// transitions below. The pipe's read/write fast path above never
	// takes it: only Terminate and the delimiter/term-ack callbacks,
	// which run rarely and on both owners' threads, do.
	stateMu         sync.Mutex
	state           State
	termAckReceived bool

	onTerminated  func(*Pipe)
	onCreditGrant func()

	identity []byte
}

// NewPair creates two cross-wired pipes. a's outbound queue is b's
// inbound queue and vice versa, so both halves are visible to each
// other before either is returned. wakeA/wakeB are invoked when data
// newly published on a pipe wakes a sleeping reader on the other side;
// pass nil if that side never parks.
func NewPair(hwmA, hwmB HWM, wakeA, wakeB func()) (a, b *Pipe) {
	qAtoB := queue.New[wire.Message](granularity, wakeB)
	qBtoA := queue.New[wire.Message](granularity, wakeA)

	a = &Pipe{out: qAtoB, in: qBtoA, outHWM: hwmA.Send, creditThreshold: creditThreshold(hwmA.Recv)}
	b = &Pipe{out: qBtoA, in: qAtoB, outHWM: hwmB.Send, creditThreshold: creditThreshold(hwmB.Recv)}
	a.peer = b
	b.peer = a
	return a, b
}

func creditThreshold(rcvHWM int) int {
	if rcvHWM <= 0 {
		return defaultCreditBatch
	}
	if t := rcvHWM / 4; t > 0 {
		return t
	}
	return 1
}

// OnTerminated registers the callback invoked exactly once, after both
// halves of the pair have completed the shutdown handshake.
func (p *Pipe) OnTerminated(fn func(*Pipe)) {
	p.onTerminated = fn
}

// OnCreditGranted registers the callback invoked whenever the peer
// grants this pipe's outstanding-write budget back, so a writer parked
// on a full high-water mark can be woken.
func (p *Pipe) OnCreditGranted(fn func()) {
	p.onCreditGrant = fn
}

// SetIdentity records the routing identity the transport resolved for
// this pipe's peer during connection setup (handshake, in the wire
// protocol's terms). ROUTER reads this once, on attach.
func (p *Pipe) SetIdentity(id []byte) {
	p.identity = id
}

// Identity returns the routing identity set by SetIdentity, or nil if
// none was assigned.
func (p *Pipe) Identity() []byte {
	return p.identity
}

// State reports the pipe's current lifecycle state.
func (p *Pipe) State() State {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.state
}

// CheckWrite reports whether a Write would currently succeed: the
// number of outstanding (written, not yet credited-back) messages is
// below the outbound high-water mark.
func (p *Pipe) CheckWrite() bool {
	if p.outHWM <= 0 {
		return true
	}
	return int(p.outstanding.Load()) < p.outHWM
}

// Write enqueues msg on the outbound queue. It reports false without
// enqueuing anything if CheckWrite would return false; the caller must
// then either drop the message (lossy) or surface would-block.
func (p *Pipe) Write(msg wire.Message) bool {
	if !p.CheckWrite() {
		return false
	}
	p.out.Write(msg)
	p.outstanding.Add(1)
	return true
}

// Flush publishes pending writes, waking a sleeping peer reader if
// one is parked.
func (p *Pipe) Flush() {
	p.out.Flush()
}

// Read removes and returns the next inbound message. It reports false
// if no message is available or the pipe has already observed its
// peer's delimiter. Crossing the credit threshold grants the peer's
// outstanding-write budget back directly — an in-process shortcut for
// the credit frame the wire protocol would otherwise carry.
func (p *Pipe) Read() (wire.Message, bool) {
	if p.delimiterSeen.Load() {
		return wire.Message{}, false
	}
	msg, ok := p.in.Read()
	if !ok {
		return wire.Message{}, false
	}
	if wire.IsDelimiter(&msg) {
		p.delimiterSeen.Store(true)
		p.onPeerDelimiterSeen()
		return wire.Message{}, false
	}
	p.readSinceAck++
	if p.readSinceAck >= p.creditThreshold {
		if p.peer != nil {
			p.peer.grantCredit(p.readSinceAck)
		}
		p.readSinceAck = 0
	}
	return msg, true
}

func (p *Pipe) grantCredit(n int) {
	p.outstanding.Add(-int32(n))
	if p.onCreditGrant != nil {
		p.onCreditGrant()
	}
}

// HasIn reports whether an inbound message is ready to be read.
func (p *Pipe) HasIn() bool {
	return !p.delimiterSeen.Load() && !p.in.Empty()
}

// HasOut reports whether the pipe currently has outbound room.
func (p *Pipe) HasOut() bool {
	return p.CheckWrite()
}

// Terminate initiates orderly shutdown: a delimiter is written to the
// outbound queue so the peer observes end-of-stream after draining
// whatever precedes it. If delay is false the pipe is torn down
// immediately, without waiting for the peer's own delimiter or the
// mutual acknowledgement handshake — any unread inbound data is
// discarded.
func (p *Pipe) Terminate(delay bool) {
	delim := wire.InitDelimiter()
	p.out.Write(delim)
	p.out.Flush()

	if !delay {
		p.delimiterSeen.Store(true)
		p.stateMu.Lock()
		p.state = StateTerminating
		p.stateMu.Unlock()
		p.finish()
		return
	}
	p.onOurDelimiterSent()
}

func (p *Pipe) onOurDelimiterSent() {
	reachedTermAck := false
	p.stateMu.Lock()
	switch p.state {
	case StateActive:
		p.state = StateWaitingForDelimiter
	case StateDelimiterReceived:
		p.state = StateTermAckSent
		reachedTermAck = true
	}
	p.stateMu.Unlock()
	if reachedTermAck {
		p.onReachedTermAckSent()
	}
}

func (p *Pipe) onPeerDelimiterSeen() {
	reachedTermAck := false
	p.stateMu.Lock()
	switch p.state {
	case StateActive:
		p.state = StateDelimiterReceived
	case StateWaitingForDelimiter:
		p.state = StateTermAckSent
		reachedTermAck = true
	}
	p.stateMu.Unlock()
	if reachedTermAck {
		p.onReachedTermAckSent()
	}
}

// onReachedTermAckSent fires once this pipe has observed both its own
// and its peer's delimiter. It notifies the peer so both sides can
// agree termination is mutual before either releases resources.
func (p *Pipe) onReachedTermAckSent() {
	if p.peer != nil {
		p.peer.receiveTermAck()
	}
	p.maybeFinish()
}

func (p *Pipe) receiveTermAck() {
	p.stateMu.Lock()
	p.termAckReceived = true
	ready := p.state == StateTermAckSent
	p.stateMu.Unlock()
	if ready {
		p.finish()
	}
}

func (p *Pipe) maybeFinish() {
	p.stateMu.Lock()
	ready := p.termAckReceived
	p.stateMu.Unlock()
	if ready {
		p.finish()
	}
}

// finish transitions to terminated exactly once, even if called
// concurrently from Terminate(false) and the term-ack handshake.
func (p *Pipe) finish() {
	p.stateMu.Lock()
	if p.state == StateTerminated {
		p.stateMu.Unlock()
		return
	}
	p.state = StateTerminated
	p.stateMu.Unlock()
	if p.onTerminated != nil {
		p.onTerminated(p)
	}
}
