// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mailbox

import (
	"sync"
	"time"

	"github.com/ulala-x/serverlink/internal/queue"
)

// commandGranularity is the command-pipe chunk size from the pipe
// queue contract (16 slots, versus 256 for message pipes).
const commandGranularity = 16

// Mailbox is a many-producer/single-consumer command queue. Sends are
// guarded by a mutex (commands are cold-path compared to message
// flow, so a lock is the right trade-off here); Recv is for the
// exclusive use of the owning goroutine.
type Mailbox[T any] struct {
	mu   sync.Mutex
	q    *queue.Queue[T]
	sig  *queue.Signaler
	term bool
}

// New creates an empty mailbox.
func New[T any]() *Mailbox[T] {
	m := &Mailbox[T]{sig: queue.NewSignaler()}
	m.q = queue.New[T](commandGranularity, m.sig.Wake)
	return m
}

// Send enqueues a command and wakes the owner if it was sleeping.
// Safe to call from any goroutine, including the owner itself.
func (m *Mailbox[T]) Send(cmd T) {
	m.mu.Lock()
	m.q.Write(cmd)
	m.q.Flush()
	m.mu.Unlock()
}

// TryRecv drains one pending command without blocking. ok is false if
// the mailbox is currently empty.
func (m *Mailbox[T]) TryRecv() (cmd T, ok bool) {
	return m.q.Read()
}

// Recv blocks until a command is available or the deadline (zero
// means wait forever) elapses, returning ok=false on timeout. The
// owner goroutine is expected to call this exclusively — Send from
// other goroutines is always safe concurrently with it.
func (m *Mailbox[T]) Recv(timeout time.Duration) (cmd T, ok bool) {
	if cmd, ok = m.q.Read(); ok {
		return cmd, true
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		var wait <-chan time.Time
		if timeout > 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return cmd, false
			}
			t := time.NewTimer(remaining)
			defer t.Stop()
			wait = t.C
		}
		select {
		case <-m.sig.C():
			if cmd, ok = m.q.Read(); ok {
				return cmd, true
			}
		case <-wait:
			return cmd, false
		}
	}
}

// Signaler exposes the mailbox's wake channel so a poller can multiplex
// readiness across several mailboxes alongside raw descriptors.
func (m *Mailbox[T]) Signaler() *queue.Signaler {
	return m.sig
}
