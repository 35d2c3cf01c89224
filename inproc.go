// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk

import (
	"sync"

	"github.com/ulala-x/serverlink/internal/pipe"
)

// Transport is the minimal interface a wire transport provides the
// engine: given an endpoint name and the local socket wanting to use
// it, wire up (or tear down) a connected pipe. Everything beyond this
// — framing, handshake, retries — belongs to the transport, not the
// core.
type Transport interface {
	Listen(endpoint string, s *Socket) error
	Unlisten(endpoint string, s *Socket) error
	Dial(endpoint string, s *Socket) (*pipe.Pipe, error)
}

// inprocTransport is a process-wide registry of named endpoints. Since
// both ends of an inproc connection live in the same process, Dial
// needs no handshake at all: it builds a connected pipe pair directly
// and attaches one half to each socket.
type inprocTransport struct {
	mu        sync.Mutex
	listeners map[string]*Socket
}

func newInprocTransport() *inprocTransport {
	return &inprocTransport{listeners: make(map[string]*Socket)}
}

func (t *inprocTransport) Listen(endpoint string, s *Socket) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.listeners[endpoint]; exists {
		return newError("bind", KindInvalidArgument, nil)
	}
	t.listeners[endpoint] = s
	return nil
}

func (t *inprocTransport) Unlisten(endpoint string, s *Socket) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listeners[endpoint] != s {
		return newError("unbind", KindInvalidArgument, nil)
	}
	delete(t.listeners, endpoint)
	return nil
}

// Dial connects s to whatever socket is currently listening on
// endpoint. The identity each side presents to the other follows the
// spec's handshake rule: a one-shot connect-routing-id if set,
// otherwise the socket's standing routing-id, otherwise a synthetic
// identity the ROUTER pattern assigns lazily on attach.
func (t *inprocTransport) Dial(endpoint string, s *Socket) (*pipe.Pipe, error) {
	t.mu.Lock()
	peer, ok := t.listeners[endpoint]
	t.mu.Unlock()
	if !ok {
		return nil, newError("connect", KindTransportFailure, nil)
	}

	announced := s.opts.connectRoutingID
	s.opts.connectRoutingID = nil // consumed once, per the one-shot contract
	if len(announced) == 0 {
		announced = s.opts.routingID
	}

	var dialerSide, listenerSide *pipe.Pipe
	dialerSide, listenerSide = pipe.NewPair(
		pipe.HWM{Send: s.opts.sndHWM, Recv: s.opts.rcvHWM},
		pipe.HWM{Send: peer.opts.sndHWM, Recv: peer.opts.rcvHWM},
		func() { s.mailbox.Send(sockCommand{kind: cmdActivateRead, pipe: dialerSide}) },
		func() { peer.mailbox.Send(sockCommand{kind: cmdActivateRead, pipe: listenerSide}) },
	)
	dialerSide.SetIdentity(peer.opts.routingID)
	listenerSide.SetIdentity(announced)

	s.enqueueAttach(dialerSide)
	peer.enqueueAttach(listenerSide)
	return dialerSide, nil
}

// Bind registers this socket as the listener for endpoint: later
// Connect calls naming the same endpoint will attach to it.
func (s *Socket) Bind(endpoint string) error {
	if err := s.ctx.transport.Listen(endpoint, s); err != nil {
		s.emit(Event{Type: EventBindFailed, Endpoint: endpoint, Err: err})
		return err
	}
	s.binds[endpoint] = true
	s.emit(Event{Type: EventListening, Endpoint: endpoint})
	return nil
}

// Unbind stops accepting new connections on endpoint. Connections
// already established through it are unaffected.
func (s *Socket) Unbind(endpoint string) error {
	if err := s.ctx.transport.Unlisten(endpoint, s); err != nil {
		return err
	}
	delete(s.binds, endpoint)
	return nil
}

// Connect attaches this socket to whatever is bound at endpoint.
func (s *Socket) Connect(endpoint string) error {
	p, err := s.ctx.transport.Dial(endpoint, s)
	if err != nil {
		s.emit(Event{Type: EventHandshakeFail, Endpoint: endpoint, Err: err})
		return err
	}
	s.conns[endpoint] = p
	s.emit(Event{Type: EventConnected, Endpoint: endpoint})
	return nil
}

// Disconnect tears down the connection previously established by
// Connect(endpoint).
func (s *Socket) Disconnect(endpoint string) error {
	p, ok := s.conns[endpoint]
	if !ok {
		return newError("disconnect", KindInvalidArgument, nil)
	}
	delete(s.conns, endpoint)
	p.Terminate(s.opts.lingerMS != 0)
	s.emit(Event{Type: EventDisconnected, Endpoint: endpoint})
	return nil
}
