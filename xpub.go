// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk

import (
	"github.com/ulala-x/serverlink/internal/dist"
	"github.com/ulala-x/serverlink/internal/mtrie"
	"github.com/ulala-x/serverlink/internal/pipe"
	"github.com/ulala-x/serverlink/internal/wire"
)

// NewXPub creates an XPUB socket: like PUB, but surfaces subscribe and
// cancel events from its peers on its own receive side.
func NewXPub(ctx *Context) (*Socket, error) {
	return newSocket(ctx, KindXPub, &xpubPattern{
		verbose:      true,
		subs:         mtrie.New[*pipe.Pipe](),
		dist:         dist.New(),
		atFrameStart: make(map[*pipe.Pipe]bool),
	})
}

// NewPub creates a PUB socket: an XPUB that never surfaces sub/cancel
// events upstream, only applies them to its subscription table.
func NewPub(ctx *Context) (*Socket, error) {
	return newSocket(ctx, KindPub, &xpubPattern{
		verbose:      false,
		subs:         mtrie.New[*pipe.Pipe](),
		dist:         dist.New(),
		atFrameStart: make(map[*pipe.Pipe]bool),
	})
}

// xpubPattern implements both PUB and XPUB: the only behavioural
// difference is whether sub/cancel events are ever surfaced via Recv,
// governed by the `verbose` (really: "is this an XPUB") flag plus the
// xpub-verbose/xpub-verboser options XPUB alone exposes.
type xpubPattern struct {
	verbose bool // true for XPUB, false for PUB — PUB never surfaces

	subs *mtrie.MultiTrie[*pipe.Pipe]
	dist *dist.Distributor

	verboseSubs   bool
	verboseUnsubs bool
	nodrop        bool
	manual        bool
	welcomeMsg    []byte
	lastPipe      *pipe.Pipe // most recent peer to send a sub/cancel, scoped for manual mode

	pending     []wire.Message     // events surfaced to Recv, XPUB only
	atFrameStart map[*pipe.Pipe]bool // tracks multipart position per peer, for only-first-subscribe
}

func (x *xpubPattern) xAttachPipe(s *Socket, p *pipe.Pipe) {
	x.dist.Attach(p)
	if len(x.welcomeMsg) > 0 {
		p.Write(wire.NewData(append([]byte(nil), x.welcomeMsg...)))
		p.Flush()
	}
	// Subscriptions written before the attach was processed raised no
	// wake (the reader had never slept), so read them now.
	x.xReadActivated(s, p)
}

func (x *xpubPattern) xPipeTerminated(s *Socket, p *pipe.Pipe) {
	x.dist.PipeTerminated(p)
	delete(x.atFrameStart, p)
	x.subs.RmPeer(p, true, func(prefix []byte) {
		x.surface(false, prefix)
	})
}

// xReadActivated drains every pending sub/cancel frame a subscriber
// wrote upstream and applies it to the subscription table, deciding
// per spec.4.7.2 whether to surface the change to Recv.
func (x *xpubPattern) xReadActivated(s *Socket, p *pipe.Pipe) {
	atStart, tracked := x.atFrameStart[p]
	if !tracked {
		atStart = true
	}
	for {
		msg, ok := p.Read()
		if !ok {
			x.atFrameStart[p] = atStart
			return
		}
		isFirst := atStart
		atStart = !msg.More()
		if s.opts.onlyFirstSub && !isFirst {
			// Only the first frame of a multipart message may be a
			// subscribe/cancel directive; the rest is user data this
			// pattern has no recv path for, so it is simply dropped.
			continue
		}
		topic, subscribe, ok := wire.DecodeSubscribe(&msg)
		if !ok {
			continue
		}
		x.lastPipe = p
		if x.manual {
			x.pending = append(x.pending, msg)
			continue
		}
		x.applySubscription(p, topic, subscribe)
	}
}

func (x *xpubPattern) applySubscription(p *pipe.Pipe, topic []byte, subscribe bool) {
	if subscribe {
		isNew := x.subs.Add(append([]byte(nil), topic...), p)
		if isNew || x.verboseSubs {
			x.surface(true, topic)
		}
		return
	}
	result := x.subs.Rm(append([]byte(nil), topic...), p)
	if result == mtrie.LastValueRemoved || x.verboseUnsubs {
		x.surface(false, topic)
	}
}

func (x *xpubPattern) surface(subscribe bool, topic []byte) {
	if !x.verbose {
		return
	}
	var m wire.Message
	if subscribe {
		m = wire.InitSubscribe(topic)
	} else {
		m = wire.InitCancel(topic)
	}
	x.pending = append(x.pending, m)
}

func (x *xpubPattern) xWriteActivated(s *Socket, p *pipe.Pipe) {}

func (x *xpubPattern) xSend(s *Socket, msg Message, flags Flag) error {
	if !x.dist.Sending() {
		topic := msg.Data()
		x.dist.Unmatch()
		x.subs.Match(topic, func(p *pipe.Pipe) {
			x.dist.Match(p)
		})
	}
	if x.nodrop {
		if !x.dist.CheckHWM() {
			return ErrWouldBlock
		}
	}
	x.dist.SendToMatching(msg)
	return nil
}

func (x *xpubPattern) xRecv(s *Socket) (Message, error) {
	if len(x.pending) == 0 {
		return Message{}, ErrWouldBlock
	}
	m := x.pending[0]
	x.pending = x.pending[1:]
	return m, nil
}

func (x *xpubPattern) xHasIn(s *Socket) bool {
	return len(x.pending) > 0
}

func (x *xpubPattern) xHasOut(s *Socket) bool {
	return x.dist.HasOut()
}

func (x *xpubPattern) xSetOption(s *Socket, opt SockOpt, value any) (bool, error) {
	switch opt {
	case OptXPubVerbose:
		v, ok := value.(bool)
		if !ok {
			return true, newError("setsockopt", KindInvalidArgument, nil)
		}
		x.verboseSubs = v
		return true, nil
	case OptXPubVerboser:
		v, ok := value.(bool)
		if !ok {
			return true, newError("setsockopt", KindInvalidArgument, nil)
		}
		x.verboseUnsubs = v
		return true, nil
	case OptXPubNoDrop:
		v, ok := value.(bool)
		if !ok {
			return true, newError("setsockopt", KindInvalidArgument, nil)
		}
		x.nodrop = v
		return true, nil
	case OptXPubManual:
		v, ok := value.(bool)
		if !ok {
			return true, newError("setsockopt", KindInvalidArgument, nil)
		}
		x.manual = v
		return true, nil
	case OptXPubWelcomeMsg:
		v, ok := value.([]byte)
		if !ok {
			return true, newError("setsockopt", KindInvalidArgument, nil)
		}
		x.welcomeMsg = append([]byte(nil), v...)
		return true, nil
	case OptOnlyFirstSubscribe:
		v, ok := value.(bool)
		if !ok {
			return true, newError("setsockopt", KindInvalidArgument, nil)
		}
		s.opts.onlyFirstSub = v
		return true, nil
	case OptSubscribe, OptUnsubscribe:
		// Manual-mode application of a deferred sub/cancel frame,
		// scoped to the peer that most recently sent one.
		if !x.manual || x.lastPipe == nil {
			return true, newError("setsockopt", KindInvalidArgument, nil)
		}
		topic, ok := value.([]byte)
		if !ok {
			return true, newError("setsockopt", KindInvalidArgument, nil)
		}
		x.applySubscription(x.lastPipe, topic, opt == OptSubscribe)
		return true, nil
	}
	return false, nil
}

func (x *xpubPattern) xGetOption(s *Socket, opt SockOpt) (any, bool, error) {
	if opt == OptTopicsCount {
		return x.subs.NumPrefixes(), true, nil
	}
	return nil, false, nil
}
