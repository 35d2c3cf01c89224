// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk

import "github.com/ulala-x/serverlink/internal/pipe"

// NewPair creates an exclusive 1:1 socket: at most one pipe is attached
// at a time, enforced by rejecting a second Attach while one is held.
func NewPair(ctx *Context) (*Socket, error) {
	return newSocket(ctx, KindPair, &pairPattern{})
}

type pairPattern struct {
	p *pipe.Pipe
}

func (x *pairPattern) xAttachPipe(s *Socket, p *pipe.Pipe) {
	if x.p != nil {
		// A second peer tried to attach; terminate it immediately
		// rather than silently replacing the first, per the
		// exclusive-pair contract.
		p.Terminate(false)
		return
	}
	x.p = p
}

func (x *pairPattern) xPipeTerminated(s *Socket, p *pipe.Pipe) {
	if x.p == p {
		x.p = nil
	}
}

func (x *pairPattern) xReadActivated(s *Socket, p *pipe.Pipe)  {}
func (x *pairPattern) xWriteActivated(s *Socket, p *pipe.Pipe) {}

func (x *pairPattern) xSend(s *Socket, msg Message, flags Flag) error {
	if x.p == nil {
		return ErrWouldBlock
	}
	if !x.p.Write(msg) {
		return ErrWouldBlock
	}
	x.p.Flush()
	return nil
}

func (x *pairPattern) xRecv(s *Socket) (Message, error) {
	if x.p == nil {
		return Message{}, ErrWouldBlock
	}
	msg, ok := x.p.Read()
	if !ok {
		return Message{}, ErrWouldBlock
	}
	return msg, nil
}

func (x *pairPattern) xHasIn(s *Socket) bool {
	return x.p != nil && x.p.HasIn()
}

func (x *pairPattern) xHasOut(s *Socket) bool {
	return x.p != nil && x.p.HasOut()
}

func (x *pairPattern) xSetOption(s *Socket, opt SockOpt, value any) (bool, error) {
	return false, nil
}

func (x *pairPattern) xGetOption(s *Socket, opt SockOpt) (any, bool, error) {
	return nil, false, nil
}
