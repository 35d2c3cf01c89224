// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk

import (
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"github.com/ulala-x/serverlink/internal/mailbox"
	"github.com/ulala-x/serverlink/internal/pipe"
)

// Kind is a socket's pattern.
type Kind int

const (
	KindPair Kind = iota
	KindPub
	KindSub
	KindXPub
	KindXSub
	KindRouter
)

func (k Kind) String() string {
	switch k {
	case KindPair:
		return "PAIR"
	case KindPub:
		return "PUB"
	case KindSub:
		return "SUB"
	case KindXPub:
		return "XPUB"
	case KindXSub:
		return "XSUB"
	case KindRouter:
		return "ROUTER"
	default:
		return "unknown"
	}
}

// Flag bits for Send/Recv, mirroring the wire library's own DontWait
// convention: the caller, not the pattern, decides whether a full HWM
// blocks.
type Flag int

const (
	// DontWait makes Send/Recv fail with ErrWouldBlock instead of
	// blocking, regardless of sndtimeo/rcvtimeo.
	DontWait Flag = 1 << iota
	// SendMore marks this frame as non-final in a multi-part message.
	SendMore
)

// patternImpl is the socket_base contract every pattern implements:
// shared state (options, pipe list, mailbox) lives on Socket; each
// pattern implementation owns only its own trie/distributor/fair-queue
// state and is invoked with the owning Socket as its first argument
// (a dispatch table rather than a base class, since Go has no
// inheritance).
type patternImpl interface {
	xAttachPipe(s *Socket, p *pipe.Pipe)
	xPipeTerminated(s *Socket, p *pipe.Pipe)
	xReadActivated(s *Socket, p *pipe.Pipe)
	xWriteActivated(s *Socket, p *pipe.Pipe)
	xSend(s *Socket, msg Message, flags Flag) error
	xRecv(s *Socket) (Message, error)
	xHasIn(s *Socket) bool
	xHasOut(s *Socket) bool
	xSetOption(s *Socket, opt SockOpt, value any) (handled bool, err error)
	xGetOption(s *Socket, opt SockOpt) (value any, handled bool, err error)
}

type cmdKind int

const (
	cmdAttach cmdKind = iota
	cmdPipeTerminated
	cmdActivateRead
	cmdActivateWrite
)

type sockCommand struct {
	kind cmdKind
	pipe *pipe.Pipe
}

// Socket is one endpoint: a bag of options, a growable pipe list, one
// mailbox, and a pattern-specific state machine. Send, Recv, SetOption,
// GetOption, HasIn, HasOut, Monitor and Close take the owner spinlock
// first, so concurrent calls to them serialize rather than race. Bind,
// Unbind, Connect and Disconnect do not take it and are not safe to run
// concurrently with other calls on the same socket.
type Socket struct {
	ctx     *Context
	id      int
	kind    Kind
	pattern patternImpl

	// owner is a spinlock standing in for the engine's owner-thread-id
	// field: instead of merely recording which thread may touch the
	// socket, it enforces it, via compare-and-swap retry with a
	// bounded pause backoff between attempts.
	owner atomix.Uint64

	opts    socketOptions
	mailbox *mailbox.Mailbox[sockCommand]
	pipes   []*pipe.Pipe

	// binds and conns track this socket's endpoint attachments, so
	// Unbind/Disconnect know what to tear down by name.
	binds map[string]bool
	conns map[string]*pipe.Pipe

	monitor MonitorFunc

	closed bool
}

func newSocket(ctx *Context, kind Kind, impl patternImpl) (*Socket, error) {
	s := &Socket{
		ctx:     ctx,
		kind:    kind,
		pattern: impl,
		opts:    defaultSocketOptions(),
		mailbox: mailbox.New[sockCommand](),
		binds:   make(map[string]bool),
		conns:   make(map[string]*pipe.Pipe),
	}
	id, err := ctx.register(s)
	if err != nil {
		return nil, err
	}
	s.id = id
	return s, nil
}

func (s *Socket) lockOwner() {
	var backoff spin.Wait
	for !s.owner.CompareAndSwapAcqRel(0, 1) {
		backoff.Once()
	}
}

func (s *Socket) unlockOwner() {
	s.owner.StoreRelease(0)
}

// Kind reports the socket's pattern.
func (s *Socket) Kind() Kind { return s.kind }

func (s *Socket) drainCommands() {
	for {
		cmd, ok := s.mailbox.TryRecv()
		if !ok {
			return
		}
		switch cmd.kind {
		case cmdAttach:
			s.pipes = append(s.pipes, cmd.pipe)
			s.pattern.xAttachPipe(s, cmd.pipe)
		case cmdPipeTerminated:
			s.removePipe(cmd.pipe)
			s.pattern.xPipeTerminated(s, cmd.pipe)
		case cmdActivateRead:
			s.pattern.xReadActivated(s, cmd.pipe)
		case cmdActivateWrite:
			s.pattern.xWriteActivated(s, cmd.pipe)
		}
	}
}

func (s *Socket) removePipe(p *pipe.Pipe) {
	for i, q := range s.pipes {
		if q == p {
			s.pipes = append(s.pipes[:i], s.pipes[i+1:]...)
			return
		}
	}
}

// enqueueAttach is called by the transport (inproc.go) once a new pipe
// pair half belongs to this socket. Routed through the mailbox so the
// pattern's own Attach hook only ever runs on this socket's owner.
func (s *Socket) enqueueAttach(p *pipe.Pipe) {
	p.OnTerminated(func(p *pipe.Pipe) {
		s.mailbox.Send(sockCommand{kind: cmdPipeTerminated, pipe: p})
	})
	p.OnCreditGranted(func() {
		s.mailbox.Send(sockCommand{kind: cmdActivateWrite, pipe: p})
	})
	s.mailbox.Send(sockCommand{kind: cmdAttach, pipe: p})
}

func pipeWake(s *Socket, p *pipe.Pipe) func() {
	return func() {
		s.mailbox.Send(sockCommand{kind: cmdActivateRead, pipe: p})
	}
}

// waitForActivity blocks until the mailbox signals new activity or
// timeoutMS elapses (negative means wait forever), returning whether it
// woke due to activity. It never itself consumes a command — the
// caller re-drains and re-checks its condition, since Wake coalesces
// bursts into a single readiness notification.
func (s *Socket) waitForActivity(timeoutMS int) bool {
	sig := s.mailbox.Signaler()
	var wait <-chan time.Time
	if timeoutMS >= 0 {
		t := time.NewTimer(time.Duration(timeoutMS) * time.Millisecond)
		defer t.Stop()
		wait = t.C
	}
	select {
	case <-sig.C():
		return true
	case <-wait:
		return false
	}
}

// Send transmits msg. It blocks according to sndtimeo unless DontWait is
// set, in which case a full outbound HWM (and non-lossy policy)
// immediately returns ErrWouldBlock.
func (s *Socket) Send(msg Message, flags Flag) error {
	s.lockOwner()
	defer s.unlockOwner()

	msg.SetMore(flags&SendMore != 0)
	deadline := s.deadline(s.opts.sndTimeoMS, flags)
	for {
		s.drainCommands()
		if s.closed {
			return newError("send", KindLifecycle, ErrTerminated)
		}
		if s.ctx.Terminating() {
			return newError("send", KindLifecycle, ErrTerminated)
		}
		err := s.pattern.xSend(s, msg, flags)
		if err == nil {
			return nil
		}
		if !IsWouldBlock(err) {
			return err
		}
		if flags&DontWait != 0 {
			return err
		}
		remaining := remainingMS(deadline)
		if remaining == 0 {
			return err
		}
		if !s.waitForActivity(remaining) {
			return newError("send", KindBackpressure, ErrWouldBlock)
		}
	}
}

// Recv fetches the next message. It blocks according to rcvtimeo unless
// DontWait is set.
func (s *Socket) Recv(flags Flag) (Message, error) {
	s.lockOwner()
	defer s.unlockOwner()

	deadline := s.deadline(s.opts.rcvTimeoMS, flags)
	for {
		s.drainCommands()
		if s.closed {
			return Message{}, newError("recv", KindLifecycle, ErrTerminated)
		}
		if s.ctx.Terminating() {
			return Message{}, newError("recv", KindLifecycle, ErrTerminated)
		}
		msg, err := s.pattern.xRecv(s)
		if err == nil {
			return msg, nil
		}
		if !IsWouldBlock(err) {
			return Message{}, err
		}
		if flags&DontWait != 0 {
			return Message{}, err
		}
		remaining := remainingMS(deadline)
		if remaining == 0 {
			return Message{}, err
		}
		if !s.waitForActivity(remaining) {
			return Message{}, newError("recv", KindBackpressure, ErrWouldBlock)
		}
	}
}

// deadline returns a zero time.Time for "wait forever", or the instant
// by which the call must give up. dontWait/timeoutMS==0 both mean
// "never wait": represented by a deadline already in the past.
func (s *Socket) deadline(timeoutMS int, flags Flag) time.Time {
	if flags&DontWait != 0 || timeoutMS == 0 {
		return time.Now()
	}
	if timeoutMS < 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)
}

// remainingMS reports milliseconds left until deadline: -1 for "wait
// forever" (zero deadline), 0 if already expired.
func remainingMS(deadline time.Time) int {
	if deadline.IsZero() {
		return -1
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Millisecond) + 1
}

// SetOption applies value to opt. Base-level options are handled here;
// everything pattern-specific is delegated to the pattern implementation.
func (s *Socket) SetOption(opt SockOpt, value any) error {
	s.lockOwner()
	defer s.unlockOwner()
	s.drainCommands()

	switch opt {
	case OptRoutingID:
		id, ok := value.([]byte)
		if !ok || len(id) > 255 {
			return newError("setsockopt", KindInvalidArgument, nil)
		}
		s.opts.routingID = append([]byte(nil), id...)
		return nil
	case OptConnectRoutingID:
		id, ok := value.([]byte)
		if !ok {
			return newError("setsockopt", KindInvalidArgument, nil)
		}
		s.opts.connectRoutingID = append([]byte(nil), id...)
		return nil
	case OptLinger:
		ms, ok := value.(int)
		if !ok {
			return newError("setsockopt", KindInvalidArgument, nil)
		}
		s.opts.lingerMS = ms
		return nil
	case OptSndHWM:
		n, ok := value.(int)
		if !ok || n < 0 {
			return newError("setsockopt", KindInvalidArgument, nil)
		}
		s.opts.sndHWM = n
		return nil
	case OptRcvHWM:
		n, ok := value.(int)
		if !ok || n < 0 {
			return newError("setsockopt", KindInvalidArgument, nil)
		}
		s.opts.rcvHWM = n
		return nil
	case OptSndTimeo:
		ms, ok := value.(int)
		if !ok {
			return newError("setsockopt", KindInvalidArgument, nil)
		}
		s.opts.sndTimeoMS = ms
		return nil
	case OptRcvTimeo:
		ms, ok := value.(int)
		if !ok {
			return newError("setsockopt", KindInvalidArgument, nil)
		}
		s.opts.rcvTimeoMS = ms
		return nil
	}

	handled, err := s.pattern.xSetOption(s, opt, value)
	if err != nil {
		return err
	}
	if !handled {
		return newError("setsockopt", KindInvalidArgument, nil)
	}
	return nil
}

// GetOption reads opt's current value.
func (s *Socket) GetOption(opt SockOpt) (any, error) {
	s.lockOwner()
	defer s.unlockOwner()
	s.drainCommands()

	switch opt {
	case OptRoutingID:
		return s.opts.routingID, nil
	case OptLinger:
		return s.opts.lingerMS, nil
	case OptSndHWM:
		return s.opts.sndHWM, nil
	case OptRcvHWM:
		return s.opts.rcvHWM, nil
	case OptSndTimeo:
		return s.opts.sndTimeoMS, nil
	case OptRcvTimeo:
		return s.opts.rcvTimeoMS, nil
	}

	value, handled, err := s.pattern.xGetOption(s, opt)
	if err != nil {
		return nil, err
	}
	if !handled {
		return nil, newError("getsockopt", KindInvalidArgument, nil)
	}
	return value, nil
}

// HasIn reports whether Recv would currently return a message without
// blocking.
func (s *Socket) HasIn() bool {
	s.lockOwner()
	defer s.unlockOwner()
	s.drainCommands()
	return s.pattern.xHasIn(s)
}

// HasOut reports whether Send would currently succeed without
// blocking.
func (s *Socket) HasOut() bool {
	s.lockOwner()
	defer s.unlockOwner()
	s.drainCommands()
	return s.pattern.xHasOut(s)
}

// TopicsCount reports the number of distinct topic prefixes currently
// held in the socket's subscription trie (PUB/XPUB/SUB/XSUB only); on
// SUB/XSUB the count also includes distinct pattern subscriptions.
func (s *Socket) TopicsCount() (int, error) {
	v, err := s.GetOption(OptTopicsCount)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (s *Socket) anyPipesAlive() bool {
	return len(s.pipes) > 0
}

// Close initiates orderly shutdown per the configured linger: 0 discards
// undelivered outbound immediately, -1 waits forever for peers to drain,
// a positive value waits up to that many milliseconds.
func (s *Socket) Close() error {
	s.lockOwner()
	if s.closed {
		s.unlockOwner()
		return nil
	}
	s.closed = true
	linger := s.opts.lingerMS
	for _, p := range s.pipes {
		p.Terminate(linger != 0)
	}

	if linger != 0 {
		var deadline time.Time
		if linger > 0 {
			deadline = time.Now().Add(time.Duration(linger) * time.Millisecond)
		}
		for s.anyPipesAlive() && !s.ctx.Terminating() {
			remaining := -1
			if !deadline.IsZero() {
				remaining = remainingMS(deadline)
				if remaining == 0 {
					break
				}
			}
			s.unlockOwner()
			s.waitForActivity(remaining)
			s.lockOwner()
			s.drainCommands()
		}
	}
	s.unlockOwner()
	s.ctx.unregister(s.id)
	s.emit(Event{Type: EventClosed})
	return nil
}

// forceClose is Close with an effective linger of 0, used by
// Context.Destroy to guarantee no socket outlives its context.
func (s *Socket) forceClose() {
	s.lockOwner()
	defer s.unlockOwner()
	if s.closed {
		return
	}
	s.closed = true
	for _, p := range s.pipes {
		p.Terminate(false)
	}
	s.ctx.unregister(s.id)
}
