// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk

import (
	"github.com/ulala-x/serverlink/internal/fq"
	"github.com/ulala-x/serverlink/internal/pipe"
	"github.com/ulala-x/serverlink/internal/trie"
	"github.com/ulala-x/serverlink/internal/wire"
)

// NewSub creates a SUB socket: it filters inbound messages against a
// local subscription table and propagates subscribe/cancel frames
// upstream to every connected publisher, but has no public Send path
// of its own — subscription changes travel through SetOption, not
// through the data plane.
func NewSub(ctx *Context) (*Socket, error) {
	return newSocket(ctx, KindSub, &subPattern{
		xsub:     false,
		subs:     trie.New(),
		patterns: trie.NewPattern(),
		fq:       fq.New(),
	})
}

// NewXSub creates an XSUB socket: like SUB, but subscribe/cancel
// frames are also available on the ordinary data plane — a caller may
// Send one directly instead of going through SetOption, and raw
// messages may be broadcast upstream the same way. Per the supplemented
// default described for XSUB, its linger starts at 0: an XSUB is
// typically a transient fan-in stage that should not block process
// shutdown waiting on slow publishers.
func NewXSub(ctx *Context) (*Socket, error) {
	s, err := newSocket(ctx, KindXSub, &subPattern{
		xsub:     true,
		subs:     trie.New(),
		patterns: trie.NewPattern(),
		fq:       fq.New(),
	})
	if err != nil {
		return nil, err
	}
	s.opts.lingerMS = 0
	return s, nil
}

// subPattern implements both SUB and XSUB: the only behavioural
// difference is whether subscribe/cancel frames and raw data are also
// reachable through Send/Recv (XSUB) or only through SetOption (SUB).
type subPattern struct {
	xsub bool

	subs     *trie.Trie        // literal prefix subscriptions
	patterns *trie.PatternTrie // psubscribe glob subscriptions
	fq       *fq.FairQueue

	// midMessage is non-nil while a frame already accepted past the
	// filter is being delivered across multiple Recv calls: its
	// continuation frames bypass filtering entirely, since only a
	// message's first frame is ever a topic to match against.
	midMessage *pipe.Pipe

	// catchAll is true while at least one pattern subscription is
	// active. It drives an upstream empty-prefix subscribe requesting
	// the full feed, kept entirely separate from subs so it never
	// participates in accepts()'s literal match — only patterns.Check
	// narrows a pattern-only subscriber's feed back down.
	catchAll bool
}

func (x *subPattern) xAttachPipe(s *Socket, p *pipe.Pipe) {
	x.fq.Attach(p)
	// A newly (re)connected publisher has no memory of this socket's
	// subscriptions, so the full current set is replayed to it — this
	// also covers a hiccuped pipe transparently, since reconnection
	// surfaces here as a fresh Attach.
	x.subs.Apply(func(prefix []byte) {
		p.Write(wire.InitSubscribe(prefix))
	})
	if x.catchAll {
		p.Write(wire.InitSubscribe(nil))
	}
	p.Flush()
}

func (x *subPattern) xPipeTerminated(s *Socket, p *pipe.Pipe) {
	x.fq.PipeTerminated(p)
	if x.midMessage == p {
		x.midMessage = nil
	}
}

func (x *subPattern) xReadActivated(s *Socket, p *pipe.Pipe) {
	x.fq.ReadActivated(p)
}

func (x *subPattern) xWriteActivated(s *Socket, p *pipe.Pipe) {}

// xSend is unsupported on a plain SUB: subscription changes travel
// through SetOption, and a SUB has no data to publish. XSUB instead
// broadcasts msg to every attached publisher, the same path a raw
// subscribe/cancel frame would take if written directly.
func (x *subPattern) xSend(s *Socket, msg Message, flags Flag) error {
	if !x.xsub {
		return newError("send", KindInvalidArgument, nil)
	}
	for _, p := range x.fq.Pipes() {
		if p.Write(msg.Copy()) {
			p.Flush()
		}
	}
	msg.Close()
	return nil
}

// xRecv returns the next message frame that survives the subscription
// filter. Filtering applies only to a message's first frame: once
// accepted, its remaining frames pass through unconditionally; once
// rejected, the rest of that message is drained from its origin
// without ever reaching the caller. XSUB never filters at all — it
// exposes every frame a connected publisher sends, including raw
// subscribe/cancel commands, so a caller layering its own protocol on
// top of XSUB sees the unfiltered stream.
func (x *subPattern) xRecv(s *Socket) (Message, error) {
	for {
		origin, msg, ok := x.fq.Recv()
		if !ok {
			return Message{}, ErrWouldBlock
		}
		if x.midMessage == origin {
			if !msg.More() {
				x.midMessage = nil
			}
			return msg, nil
		}
		if x.xsub || x.accepts(s, msg.Data()) {
			if msg.More() {
				x.midMessage = origin
			}
			return msg, nil
		}
		msg.Close()
		x.drain(origin)
	}
}

// drain discards the remaining frames of the multipart message
// currently in flight from origin, reading directly from its pipe
// rather than through the fair queue — safe because the fair queue
// never buffers frames itself, it only ever reads the next one on
// demand from whichever pipe is current.
func (x *subPattern) drain(origin *pipe.Pipe) {
	for {
		msg, ok := origin.Read()
		if !ok {
			return
		}
		more := msg.More()
		msg.Close()
		if !more {
			return
		}
	}
}

func (x *subPattern) accepts(s *Socket, topic []byte) bool {
	match := x.subs.Check(topic) || x.patterns.Check(topic)
	if s.opts.invertMatching {
		return !match
	}
	return match
}

func (x *subPattern) xHasIn(s *Socket) bool {
	return x.fq.HasIn()
}

func (x *subPattern) xHasOut(s *Socket) bool {
	return x.xsub && len(x.fq.Pipes()) > 0
}

func (x *subPattern) xSetOption(s *Socket, opt SockOpt, value any) (bool, error) {
	switch opt {
	case OptSubscribe, OptUnsubscribe:
		topic, ok := value.([]byte)
		if !ok {
			return true, newError("setsockopt", KindInvalidArgument, nil)
		}
		x.applySubscribe(opt == OptSubscribe, topic)
		return true, nil
	case OptPSubscribe, OptPUnsubscribe:
		pattern, ok := value.(string)
		if !ok {
			if b, isBytes := value.([]byte); isBytes {
				pattern = string(b)
			} else {
				return true, newError("setsockopt", KindInvalidArgument, nil)
			}
		}
		// Pattern subscriptions are matched locally and never travel
		// over the wire as such, so a publisher has no way to know
		// which topics a glob might match. Instead, the first pattern
		// subscription requests the full upstream feed via an
		// empty-prefix subscribe sent directly (catchAll, deliberately
		// kept out of x.subs so accepts()'s literal branch can't be
		// short-circuited by it), and the last one withdraws it;
		// accepts() then narrows the feed down to whatever the glob
		// actually matches.
		if opt == OptPSubscribe {
			if x.patterns.Add(pattern) && x.patterns.NumPatterns() == 1 {
				x.catchAll = true
				x.broadcastSubscribe(true, nil)
			}
		} else {
			if x.patterns.Rm(pattern) && x.patterns.NumPatterns() == 0 {
				x.catchAll = false
				x.broadcastSubscribe(false, nil)
			}
		}
		return true, nil
	case OptInvertMatching:
		v, ok := value.(bool)
		if !ok {
			return true, newError("setsockopt", KindInvalidArgument, nil)
		}
		s.opts.invertMatching = v
		return true, nil
	}
	return false, nil
}

// applySubscribe updates the local literal-prefix trie and propagates
// the corresponding command frame to every currently attached
// publisher. Every subscribe is sent upstream (a duplicate is harmless,
// since the publisher side holds a set of peers per prefix), but an
// unsubscribe is sent only when it removes the last local holder, so a
// prefix subscribed twice stays active upstream after one unsubscribe.
func (x *subPattern) applySubscribe(subscribe bool, topic []byte) {
	topic = append([]byte(nil), topic...)
	if subscribe {
		x.subs.Add(topic)
	} else if !x.subs.Rm(topic) {
		return
	}
	x.broadcastSubscribe(subscribe, topic)
}

// broadcastSubscribe writes the corresponding subscribe/cancel command
// frame to every attached publisher. It never touches the local trie
// itself — applySubscribe updates x.subs before calling this; the
// pattern catch-all in xSetOption deliberately calls this alone.
func (x *subPattern) broadcastSubscribe(subscribe bool, topic []byte) {
	var frame wire.Message
	if subscribe {
		frame = wire.InitSubscribe(topic)
	} else {
		frame = wire.InitCancel(topic)
	}
	for _, p := range x.fq.Pipes() {
		if p.Write(frame.Copy()) {
			p.Flush()
		}
	}
	frame.Close()
}

func (x *subPattern) xGetOption(s *Socket, opt SockOpt) (any, bool, error) {
	if opt == OptTopicsCount {
		return x.subs.NumPrefixes() + x.patterns.NumPatterns(), true, nil
	}
	return nil, false, nil
}
