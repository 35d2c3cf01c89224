// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk

import (
	"strconv"

	"github.com/ulala-x/serverlink/internal/fq"
	"github.com/ulala-x/serverlink/internal/pipe"
	"github.com/ulala-x/serverlink/internal/wire"
)

// NewRouter creates a ROUTER socket: identity-addressed many-to-many.
// Every inbound message is prefixed with a frame naming its sender;
// every outbound message's first frame names its destination.
func NewRouter(ctx *Context) (*Socket, error) {
	return newSocket(ctx, KindRouter, &routerPattern{
		fq:         fq.New(),
		byIdentity: make(map[string]*pipe.Pipe),
		identityOf: make(map[*pipe.Pipe][]byte),
		atBoundary: make(map[*pipe.Pipe]bool),
	})
}

type routerPattern struct {
	fq *fq.FairQueue

	byIdentity    map[string]*pipe.Pipe
	identityOf    map[*pipe.Pipe][]byte
	nextSynthetic uint64

	// atBoundary tracks, per origin, whether the next real frame read
	// from it begins a new logical message (and therefore needs an
	// identity frame synthesized ahead of it).
	atBoundary map[*pipe.Pipe]bool

	// held buffers one already-read real frame between two xRecv calls:
	// the identity frame manufactured for it is returned first, and the
	// real frame follows on the very next call.
	heldOrigin *pipe.Pipe
	heldMsg    wire.Message
	hasHeld    bool

	// sendTarget/sendInProgress track outbound addressing state across
	// the sequence of xSend calls that make up one logical message: the
	// destination is resolved once, from the first frame, and every
	// subsequent frame of that message is routed (or dropped) the same
	// way.
	sendTarget     *pipe.Pipe
	sendInProgress bool
	sendDropping   bool
}

func (x *routerPattern) xAttachPipe(s *Socket, p *pipe.Pipe) {
	id := p.Identity()
	if len(id) == 0 {
		x.nextSynthetic++
		id = syntheticIdentity(x.nextSynthetic)
	}
	if existing, ok := x.byIdentity[string(id)]; ok {
		if !s.opts.routerHandover {
			// Reject the new peer outright; the existing mapping wins.
			p.Terminate(false)
			return
		}
		delete(x.identityOf, existing)
		delete(x.atBoundary, existing)
		x.fq.PipeTerminated(existing)
		existing.Terminate(false)
	}
	x.byIdentity[string(id)] = p
	x.identityOf[p] = id
	x.atBoundary[p] = true
	x.fq.Attach(p)
}

// syntheticIdentity mirrors the engine's NUL-prefixed counter identity
// assigned to a peer that never set its own routing-id.
func syntheticIdentity(n uint64) []byte {
	return append([]byte{0}, strconv.FormatUint(n, 10)...)
}

func (x *routerPattern) xPipeTerminated(s *Socket, p *pipe.Pipe) {
	if id, ok := x.identityOf[p]; ok {
		delete(x.byIdentity, string(id))
		delete(x.identityOf, p)
	}
	delete(x.atBoundary, p)
	x.fq.PipeTerminated(p)
	if x.sendTarget == p {
		x.sendTarget = nil
	}
	if x.heldOrigin == p {
		x.hasHeld = false
		x.heldOrigin = nil
	}
}

func (x *routerPattern) xReadActivated(s *Socket, p *pipe.Pipe) {
	x.fq.ReadActivated(p)
}

func (x *routerPattern) xWriteActivated(s *Socket, p *pipe.Pipe) {}

// xSend consumes one frame of an outbound logical message. The first
// frame is always the destination routing identity, consumed here and
// never forwarded; every frame after it is written to (or, if the
// identity was unresolved and router-mandatory is unset, silently
// dropped from) the resolved target pipe.
func (x *routerPattern) xSend(s *Socket, msg Message, flags Flag) error {
	if !x.sendInProgress {
		more := msg.More()
		identity := msg.Data()
		p, ok := x.byIdentity[string(identity)]
		msg.Close()
		if !ok {
			if s.opts.routerMandatory {
				return newError("send", KindBackpressure, ErrHostUnreachable)
			}
			x.sendDropping = true
			x.sendTarget = nil
		} else {
			x.sendDropping = false
			x.sendTarget = p
		}
		x.sendInProgress = more
		return nil
	}

	more := msg.More()
	if x.sendDropping || x.sendTarget == nil {
		msg.Close()
	} else if !x.sendTarget.Write(msg) {
		msg.Close()
	} else {
		x.sendTarget.Flush()
	}
	if !more {
		x.sendInProgress = false
		x.sendDropping = false
		x.sendTarget = nil
	}
	return nil
}

// xRecv returns the next frame of an inbound logical message, prepending
// a synthesized identity frame naming the sender ahead of each message's
// real first frame.
func (x *routerPattern) xRecv(s *Socket) (Message, error) {
	if x.hasHeld {
		m := x.heldMsg
		origin := x.heldOrigin
		x.hasHeld = false
		x.heldOrigin = nil
		x.atBoundary[origin] = !m.More()
		return m, nil
	}

	origin, msg, ok := x.fq.Recv()
	if !ok {
		return Message{}, ErrWouldBlock
	}
	atStart, tracked := x.atBoundary[origin]
	if !tracked {
		atStart = true
	}
	if !atStart {
		x.atBoundary[origin] = !msg.More()
		return msg, nil
	}

	x.heldMsg = msg
	x.heldOrigin = origin
	x.hasHeld = true
	idFrame := wire.NewData(append([]byte(nil), x.identityOf[origin]...))
	idFrame.SetMore(true)
	return idFrame, nil
}

func (x *routerPattern) xHasIn(s *Socket) bool {
	return x.hasHeld || x.fq.HasIn()
}

func (x *routerPattern) xHasOut(s *Socket) bool {
	return len(x.byIdentity) > 0
}

func (x *routerPattern) xSetOption(s *Socket, opt SockOpt, value any) (bool, error) {
	switch opt {
	case OptRouterMandatory:
		v, ok := value.(bool)
		if !ok {
			return true, newError("setsockopt", KindInvalidArgument, nil)
		}
		s.opts.routerMandatory = v
		return true, nil
	case OptRouterHandover:
		v, ok := value.(bool)
		if !ok {
			return true, newError("setsockopt", KindInvalidArgument, nil)
		}
		s.opts.routerHandover = v
		return true, nil
	}
	return false, nil
}

func (x *routerPattern) xGetOption(s *Socket, opt SockOpt) (any, bool, error) {
	return nil, false, nil
}
