// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates a non-blocking Send/Recv (or a blocking one whose
// timeout expired) could not complete immediately.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency with
// every other non-blocking boundary this module touches.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// ErrTerminated is returned by any blocked or subsequent call on a socket
// whose context has been destroyed.
var ErrTerminated = errors.New("slk: context terminated")

// ErrHostUnreachable is returned by ROUTER's Send when the destination
// routing identity has no attached pipe and router-mandatory is set.
var ErrHostUnreachable = errors.New("slk: host unreachable")

// ErrorKind classifies a *SocketError into the abstract taxonomy every
// fallible operation is judged against.
type ErrorKind int

const (
	// KindInvalidArgument covers a bad option value, a nil/closed socket,
	// or an option applied to the wrong socket type. Never recovered
	// internally.
	KindInvalidArgument ErrorKind = iota
	// KindResourceExhaustion covers allocation failure and the socket- or
	// thread-limit ceilings on Context. The context itself remains valid.
	KindResourceExhaustion
	// KindBackpressure covers an HWM-blocked non-lossy send, an expired
	// timeout, or a ROUTER send with no matched peer. Always recoverable.
	KindBackpressure
	// KindTransportFailure covers a lost connection; recovered locally by
	// the (external) transport's reconnect policy. The socket only
	// observes a hiccup event on the affected pipe.
	KindTransportFailure
	// KindLifecycle covers a close racing in-flight I/O, or a blocked
	// call outliving context destruction.
	KindLifecycle
)

// Fatal invariant violations (trie corruption, refcount underflow,
// use-after-close) are never surfaced as an ErrorKind: they represent
// internal bugs and abort the process via panic, same as the teacher's
// "Panics if ..." contracts on its Builder methods.

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid-argument"
	case KindResourceExhaustion:
		return "resource-exhaustion"
	case KindBackpressure:
		return "backpressure"
	case KindTransportFailure:
		return "transport-failure"
	case KindLifecycle:
		return "lifecycle"
	default:
		return "unknown"
	}
}

// SocketError wraps a programmer- or policy-level failure with its
// taxonomy kind, so callers that care can switch on Kind() while
// everyone else just treats it as an error.
type SocketError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *SocketError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("slk: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("slk: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *SocketError) Unwrap() error { return e.Err }

func newError(op string, kind ErrorKind, err error) *SocketError {
	return &SocketError{Op: op, Kind: kind, Err: err}
}
