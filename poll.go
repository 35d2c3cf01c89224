// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk

import (
	"reflect"
	"time"
)

// PollEvent is a bitmask of readiness conditions a PollItem asks about
// and a Poll result reports back.
type PollEvent int

const (
	PollIn PollEvent = 1 << iota
	PollOut
)

// PollItem names one socket and the readiness conditions the caller
// cares about.
type PollItem struct {
	Socket *Socket
	Events PollEvent
}

// Poller is a tiny readiness multiplexer standing in for the engine's
// epoll/kqueue/IOCP reactor: enough to implement the public Poll
// operation over a handful of sockets' mailbox signallers, without
// pulling in a real OS-level event loop.
type Poller struct{}

// NewPoller returns a ready-to-use Poller. Pollers carry no state of
// their own — every call is a fresh scan — so one instance may be
// reused freely, or a new one created per call.
func NewPoller() *Poller {
	return &Poller{}
}

// Poll blocks until at least one item is ready or timeoutMS elapses
// (negative means wait forever, zero means a non-blocking check), and
// returns the readiness mask observed for each item, in the same
// order as items.
func (p *Poller) Poll(items []PollItem, timeoutMS int) ([]PollEvent, error) {
	results := make([]PollEvent, len(items))
	if readyAny(items, results) || timeoutMS == 0 {
		return results, nil
	}

	var deadline time.Time
	if timeoutMS > 0 {
		deadline = time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)
	}

	for {
		cases := make([]reflect.SelectCase, 0, len(items)+1)
		for _, it := range items {
			cases = append(cases, reflect.SelectCase{
				Dir:  reflect.SelectRecv,
				Chan: reflect.ValueOf(it.Socket.mailbox.Signaler().C()),
			})
		}
		var timeoutCh <-chan time.Time
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return results, nil
			}
			t := time.NewTimer(remaining)
			defer t.Stop()
			timeoutCh = t.C
		}
		cases = append(cases, reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(timeoutCh),
		})

		chosen, _, _ := reflect.Select(cases)
		if chosen == len(items) {
			return results, nil
		}
		if readyAny(items, results) {
			return results, nil
		}
	}
}

func readyAny(items []PollItem, results []PollEvent) bool {
	any := false
	for i, it := range items {
		var ev PollEvent
		if it.Events&PollIn != 0 && it.Socket.HasIn() {
			ev |= PollIn
		}
		if it.Events&PollOut != 0 && it.Socket.HasOut() {
			ev |= PollOut
		}
		results[i] = ev
		if ev != 0 {
			any = true
		}
	}
	return any
}
