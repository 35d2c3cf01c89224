// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dist

import (
	"github.com/ulala-x/serverlink/internal/pipe"
	"github.com/ulala-x/serverlink/internal/wire"
)

// Distributor maintains an ordered list of outbound pipes partitioned
// by three indices: matching <= active <= eligible <= len(pipes).
//
//   - eligible pipes are attached and not terminated.
//   - active pipes are eligible and not currently blocked by HWM.
//   - matching pipes are the active pipes selected by the last Match
//     call; Send broadcasts only to these.
type Distributor struct {
	pipes    []*pipe.Pipe
	matching int
	active   int
	eligible int
	more     bool
}

// New returns an empty distributor.
func New() *Distributor {
	return &Distributor{}
}

// Attach appends p to the distributor. If a multi-part send is
// currently in progress, p does not become active until that message
// completes, so the peer never sees a message with missing initial
// frames.
func (d *Distributor) Attach(p *pipe.Pipe) {
	d.pipes = append(d.pipes, p)
	d.eligible++
	if !d.more {
		d.active = d.eligible
	}
}

// HasPipe reports whether p is currently attached.
func (d *Distributor) HasPipe(p *pipe.Pipe) bool {
	return d.indexOf(p) >= 0
}

func (d *Distributor) indexOf(p *pipe.Pipe) int {
	for i, q := range d.pipes {
		if q == p {
			return i
		}
	}
	return -1
}

// PipeTerminated removes p from the distributor, adjusting matching,
// active, and eligible counts by index position alone — it never
// re-promotes a pipe into active or matching, even mid-multipart.
func (d *Distributor) PipeTerminated(p *pipe.Pipe) {
	i := d.indexOf(p)
	if i < 0 {
		return
	}
	if i < d.matching {
		d.matching--
		d.pipes[i], d.pipes[d.matching] = d.pipes[d.matching], d.pipes[i]
		i = d.matching
	}
	if i < d.active {
		d.active--
		d.pipes[i], d.pipes[d.active] = d.pipes[d.active], d.pipes[i]
		i = d.active
	}
	d.eligible--
	d.pipes[i], d.pipes[d.eligible] = d.pipes[d.eligible], d.pipes[i]
	d.pipes = d.pipes[:d.eligible]
}

// Match promotes p into the matching set ([0, matching)), swapping it
// into place if it is currently active but unmatched.
func (d *Distributor) Match(p *pipe.Pipe) {
	i := d.indexOf(p)
	if i < 0 || i < d.matching || i >= d.active {
		return
	}
	d.pipes[i], d.pipes[d.matching] = d.pipes[d.matching], d.pipes[i]
	d.matching++
}

// Unmatch clears the matching set without touching active/eligible.
func (d *Distributor) Unmatch() {
	d.matching = 0
}

// ReverseMatch marks every currently-active pipe not already matching
// as matching, and vice versa.
func (d *Distributor) ReverseMatch() {
	unmatched := d.pipes[d.matching:d.active]
	matched := d.pipes[:d.matching]
	tail := d.pipes[d.active:]
	reordered := make([]*pipe.Pipe, 0, len(d.pipes))
	reordered = append(reordered, unmatched...)
	reordered = append(reordered, matched...)
	reordered = append(reordered, tail...)
	d.pipes = reordered
	d.matching = len(unmatched)
}

// CheckHWM reports whether every matching pipe currently has outbound
// room. Used by non-lossy sends to decide would-block before writing
// anything.
func (d *Distributor) CheckHWM() bool {
	for _, p := range d.pipes[:d.matching] {
		if !p.CheckWrite() {
			return false
		}
	}
	return true
}

// HasOut reports whether at least one pipe is currently active.
func (d *Distributor) HasOut() bool {
	return d.active > 0
}

// Sending reports whether a multi-part message is currently in
// progress (the most recent SendToMatching frame had More set), so a
// caller knows whether the next frame should re-run topic matching or
// continue the already-selected matching set.
func (d *Distributor) Sending() bool {
	return d.more
}

// SendToAll broadcasts msg to every active pipe: it sets the matching
// set to the full active range and defers to SendToMatching.
func (d *Distributor) SendToAll(msg wire.Message) {
	d.matching = d.active
	d.SendToMatching(msg)
}

// SendToMatching broadcasts msg to the first `matching` pipes. Every
// pipe but the last receives an independent Copy; the last pipe
// receives msg itself via Move semantics (the caller's msg is
// consumed). A pipe whose Write fails (HWM reached) is demoted out of
// both matching and active. On the final frame (!msg.More()), the
// matching set is cleared and active is reset to eligible.
func (d *Distributor) SendToMatching(msg wire.Message) {
	more := msg.More()
	d.distribute(msg)
	if !more {
		d.active = d.eligible
		d.matching = 0
	}
	d.more = more
}

func (d *Distributor) distribute(msg wire.Message) {
	if d.matching == 0 {
		msg.Close()
		return
	}
	for i := 0; i < d.matching; i++ {
		var out wire.Message
		if i < d.matching-1 {
			out = msg.Copy()
		} else {
			out = msg
		}
		if !d.pipes[i].Write(out) {
			out.Close()
			d.active--
			d.matching--
			d.pipes[i], d.pipes[d.matching] = d.pipes[d.matching], d.pipes[i]
			d.pipes[d.matching], d.pipes[d.active] = d.pipes[d.active], d.pipes[d.matching]
			i--
			continue
		}
		d.pipes[i].Flush()
	}
}

// Pipes returns the pipes currently known to the distributor, in
// their internal matching/active/eligible order. The returned slice
// must not be modified.
func (d *Distributor) Pipes() []*pipe.Pipe {
	return d.pipes
}
