// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fq

import (
	"github.com/ulala-x/serverlink/internal/pipe"
	"github.com/ulala-x/serverlink/internal/wire"
)

// FairQueue maintains an ordered list of attached inbound pipes,
// partitioned into an active region [0, active) and an inactive tail
// of pipes last observed with nothing to read.
type FairQueue struct {
	pipes   []*pipe.Pipe
	active  int
	current int
}

// New returns an empty fair queue.
func New() *FairQueue {
	return &FairQueue{}
}

// Attach adds p to the active region.
func (f *FairQueue) Attach(p *pipe.Pipe) {
	f.pipes = append(f.pipes, p)
	if f.active < len(f.pipes)-1 {
		// An inactive tail exists; keep the new pipe out of it by
		// swapping it into the active region's boundary.
		f.pipes[len(f.pipes)-1], f.pipes[f.active] = f.pipes[f.active], f.pipes[len(f.pipes)-1]
	}
	f.active++
}

func (f *FairQueue) indexOf(p *pipe.Pipe) int {
	for i, q := range f.pipes {
		if q == p {
			return i
		}
	}
	return -1
}

// PipeTerminated removes p entirely.
func (f *FairQueue) PipeTerminated(p *pipe.Pipe) {
	i := f.indexOf(p)
	if i < 0 {
		return
	}
	if i < f.active {
		f.active--
		f.pipes[i], f.pipes[f.active] = f.pipes[f.active], f.pipes[i]
		i = f.active
	}
	last := len(f.pipes) - 1
	f.pipes[i], f.pipes[last] = f.pipes[last], f.pipes[i]
	f.pipes = f.pipes[:last]
	if f.current > len(f.pipes) {
		f.current = 0
	}
}

// ReadActivated rotates p back into the active region after it was
// previously observed empty, in response to the pipe signalling new
// data arrived.
func (f *FairQueue) ReadActivated(p *pipe.Pipe) {
	i := f.indexOf(p)
	if i < 0 || i < f.active {
		return
	}
	f.pipes[i], f.pipes[f.active] = f.pipes[f.active], f.pipes[i]
	f.active++
}

// Recv returns one frame from the current pipe in round-robin order.
// It reports false if no active pipe currently has data. A pipe found
// empty is rotated to the back of the active region (demoted) and the
// scan continues; the current index only advances past a pipe once a
// full (non-more) frame has been read from it, so a multi-part message
// already in progress is never interrupted by rotation.
func (f *FairQueue) Recv() (origin *pipe.Pipe, msg wire.Message, ok bool) {
	for f.active > 0 {
		if f.current >= f.active {
			f.current = 0
		}
		p := f.pipes[f.current]
		m, readOK := p.Read()
		if !readOK {
			f.active--
			f.pipes[f.current], f.pipes[f.active] = f.pipes[f.active], f.pipes[f.current]
			if f.current >= f.active {
				f.current = 0
			}
			continue
		}
		if !m.More() {
			f.current = (f.current + 1) % f.active
		}
		return p, m, true
	}
	return nil, wire.Message{}, false
}

// HasIn reports whether the current pipe (or any active pipe) has a
// message ready, without consuming it.
func (f *FairQueue) HasIn() bool {
	for i := 0; i < f.active; i++ {
		if f.pipes[(f.current+i)%f.active].HasIn() {
			return true
		}
	}
	return false
}

// Pipes returns the pipes currently attached, active region first.
func (f *FairQueue) Pipes() []*pipe.Pipe {
	return f.pipes
}
