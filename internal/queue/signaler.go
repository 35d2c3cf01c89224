// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

// Signaler is the Go stand-in for the signalling descriptor (a pipe or
// eventfd in the original engine) a mailbox uses to wake a sleeping
// owner thread. A buffered channel of capacity one is the idiomatic Go
// doorbell: Wake never blocks and collapses any number of pending
// wakeups into a single readiness notification.
type Signaler struct {
	ch chan struct{}
}

// NewSignaler creates a Signaler ready to use.
func NewSignaler() *Signaler {
	return &Signaler{ch: make(chan struct{}, 1)}
}

// Wake notifies any goroutine waiting on C. Safe to call from any
// number of goroutines; never blocks.
func (s *Signaler) Wake() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// C returns the channel a waiter selects on. A single receive drains
// at most one pending wakeup — callers must re-check their condition
// in a loop, since Wake coalesces bursts.
func (s *Signaler) C() <-chan struct{} {
	return s.ch
}
