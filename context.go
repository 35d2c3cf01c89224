// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// CtxOpt names one of Context's configuration knobs.
type CtxOpt int

const (
	OptIOThreads CtxOpt = iota
	OptMaxSockets
	OptMaxMsgSize
	OptThreadNamePrefix
)

// ContextBuilder configures a Context with the teacher's fluent
// Options/Builder style, generalized from queue-algorithm selection to
// process-wide engine limits.
//
// Example:
//
//	ctx := slk.Configure().IOThreads(2).MaxSockets(1024).Build()
type ContextBuilder struct {
	ioThreads        int
	maxSockets       int
	maxMsgSize       int
	threadNamePrefix string
}

// Configure starts building a Context. Unset fields take the same
// defaults as [NewContext]: one IO thread, 1024 max sockets, unlimited
// max message size, prefix "slk".
func Configure() *ContextBuilder {
	return &ContextBuilder{ioThreads: 1, maxSockets: 1024, threadNamePrefix: "slk"}
}

func (b *ContextBuilder) IOThreads(n int) *ContextBuilder {
	b.ioThreads = n
	return b
}

func (b *ContextBuilder) MaxSockets(n int) *ContextBuilder {
	b.maxSockets = n
	return b
}

// MaxMsgSize caps a single frame's payload size; 0 means unlimited.
func (b *ContextBuilder) MaxMsgSize(n int) *ContextBuilder {
	b.maxMsgSize = n
	return b
}

func (b *ContextBuilder) ThreadNamePrefix(prefix string) *ContextBuilder {
	b.threadNamePrefix = prefix
	return b
}

// Build creates the Context.
func (b *ContextBuilder) Build() *Context {
	ctx := &Context{
		ioThreads:        b.ioThreads,
		maxSockets:       b.maxSockets,
		maxMsgSize:       b.maxMsgSize,
		threadNamePrefix: b.threadNamePrefix,
		sockets:          make(map[int]*Socket),
		logger:           noopLogger{},
		transport:        newInprocTransport(),
	}
	return ctx
}

// NewContext returns a Context configured with the default limits; a
// shortcut for Configure().Build() in the spirit of the teacher's direct
// constructors.
func NewContext() *Context {
	return Configure().Build()
}

// Context is the process-wide owner of the socket registry, the
// thread-id pool (represented here by socket ids, since Go goroutines
// rather than OS threads drive I/O), and the shared terminating flag.
type Context struct {
	ioThreads        int
	maxSockets       int
	maxMsgSize       int
	threadNamePrefix string
	logger           Logger

	mu          sync.Mutex
	sockets     map[int]*Socket
	nextID      int
	terminating atomix.Bool

	transport *inprocTransport
}

// SetLogger installs l as the context's logger. Passing nil restores
// the no-op logger.
func (ctx *Context) SetLogger(l Logger) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if l == nil {
		l = noopLogger{}
	}
	ctx.logger = l
}

// MaxMsgSize reports the configured per-frame payload ceiling, 0 meaning
// unlimited.
func (ctx *Context) MaxMsgSize() int {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.maxMsgSize
}

func (ctx *Context) register(s *Socket) (int, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.terminating.Load() {
		return 0, newError("new-socket", KindLifecycle, ErrTerminated)
	}
	if len(ctx.sockets) >= ctx.maxSockets {
		return 0, newError("new-socket", KindResourceExhaustion, nil)
	}
	id := ctx.nextID
	ctx.nextID++
	ctx.sockets[id] = s
	return id, nil
}

func (ctx *Context) unregister(id int) {
	ctx.mu.Lock()
	delete(ctx.sockets, id)
	ctx.mu.Unlock()
}

// Terminating reports whether Destroy has been called.
func (ctx *Context) Terminating() bool {
	return ctx.terminating.Load()
}

// Destroy marks the context terminating and closes every socket still
// registered with an effective linger of 0, so no blocked Send/Recv
// outlives context destruction — per the termination contract, a
// blocked call observes ErrTerminated rather than hanging forever.
// Destroy itself never blocks waiting for peers to drain; that is what
// per-socket linger is for.
func (ctx *Context) Destroy() {
	ctx.terminating.Store(true)

	ctx.mu.Lock()
	remaining := make([]*Socket, 0, len(ctx.sockets))
	for _, s := range ctx.sockets {
		remaining = append(remaining, s)
	}
	ctx.mu.Unlock()

	for _, s := range remaining {
		// Wake any call parked in waitForActivity so it re-checks
		// Terminating and releases the owner lock forceClose takes.
		s.mailbox.Signaler().Wake()
		s.forceClose()
	}
}
