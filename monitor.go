// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk

// EventType names one lifecycle event a monitor callback may observe.
type EventType int

const (
	EventConnected EventType = iota
	EventDisconnected
	EventAccepted
	EventBindFailed
	EventListening
	EventClosed
	EventHandshakeStart
	EventHandshakeOK
	EventHandshakeFail
	EventHeartbeatOK
	EventHeartbeatFail
)

func (e EventType) String() string {
	switch e {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventAccepted:
		return "accepted"
	case EventBindFailed:
		return "bind-failed"
	case EventListening:
		return "listening"
	case EventClosed:
		return "closed"
	case EventHandshakeStart:
		return "handshake-start"
	case EventHandshakeOK:
		return "handshake-ok"
	case EventHandshakeFail:
		return "handshake-fail"
	case EventHeartbeatOK:
		return "heartbeat-ok"
	case EventHeartbeatFail:
		return "heartbeat-fail"
	default:
		return "unknown"
	}
}

// Event is one observation a monitor callback receives: the kind of
// lifecycle transition, the endpoint it concerns (where applicable),
// and the error behind a failure event, if any.
type Event struct {
	Type     EventType
	Endpoint string
	Err      error
}

// MonitorFunc receives every event a monitored socket emits. It is
// invoked on whatever goroutine triggered the transition (handshake,
// attach, close) — a callback that blocks will stall that caller, so
// it should hand off any slow work itself.
type MonitorFunc func(Event)

// Monitor installs fn as the socket's event callback, replacing any
// previously installed one. Passing nil disables monitoring.
func (s *Socket) Monitor(fn MonitorFunc) {
	s.lockOwner()
	defer s.unlockOwner()
	s.monitor = fn
}

// emit invokes the installed monitor callback, if any, with evt. The
// owner lock is not required and must not already be held by the
// caller in a way that would deadlock re-entrant Socket calls from
// inside fn — its callers (Bind, Connect, Disconnect, and Close once it
// has released the lock) invoke it without holding it.
func (s *Socket) emit(evt Event) {
	if s.monitor != nil {
		s.monitor(evt)
	}
}
