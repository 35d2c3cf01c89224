// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package slk is a message-oriented concurrency library: asynchronous
// many-to-many communication between goroutines through a small set
// of socket patterns, each a concrete state machine built on a shared
// pipe/mailbox/distributor core.
//
// # Quick Start
//
// Every socket is created from a Context and attached to a peer
// through the bundled inproc transport:
//
//	ctx := slk.NewContext()
//	defer ctx.Destroy()
//
//	pub, _ := slk.NewPub(ctx)
//	defer pub.Close()
//	_ = pub.Bind("inproc://news")
//
//	sub, _ := slk.NewSub(ctx)
//	defer sub.Close()
//	_ = sub.Connect("inproc://news")
//	_ = sub.SetOption(slk.OptSubscribe, []byte("weather."))
//
// # Basic Usage
//
// Send and Recv operate on one frame at a time; SendMore marks a
// frame as non-final in a multi-part message:
//
//	_ = pub.Send(slk.NewMessageData([]byte("weather.us")), slk.SendMore)
//	_ = pub.Send(slk.NewMessageData([]byte("72F, clear")), 0)
//
//	topic, _ := sub.Recv(0)
//	body, _ := sub.Recv(0)
//
// DontWait makes either call fail immediately with
// [ErrWouldBlock] instead of blocking on sndtimeo/rcvtimeo:
//
//	if _, err := sub.Recv(slk.DontWait); slk.IsWouldBlock(err) {
//	    // nothing ready yet
//	}
//
// # Socket Patterns
//
//	PAIR   - exclusive 1:1, either side may send or receive
//	PUB    - broadcasts to every subscriber whose topic matches
//	SUB    - filters inbound messages by subscribed prefix/pattern
//	XPUB   - PUB that also surfaces subscribe/cancel events via Recv
//	XSUB   - SUB that also exposes subscribe/cancel/data on Send
//	ROUTER - identity-addressed: Recv prepends the sender's routing
//	         identity, Send's first frame names the destination
//
// # Common Patterns
//
// Request/reply between two ROUTER-style peers, addressed by
// routing-id:
//
//	master, _ := slk.NewRouter(ctx)
//	_ = master.SetOption(slk.OptRoutingID, []byte("MASTER"))
//	_ = master.Bind("inproc://rr")
//
//	worker, _ := slk.NewRouter(ctx)
//	_ = worker.SetOption(slk.OptRoutingID, []byte("W1"))
//	_ = worker.Connect("inproc://rr")
//
//	_ = worker.Send(slk.NewMessageData([]byte("MASTER")), slk.SendMore)
//	_ = worker.Send(slk.NewMessageData(nil), slk.SendMore)
//	_ = worker.Send(slk.NewMessageData([]byte("ping")), 0)
//
//	from, _ := master.Recv(0)  // "W1"
//	_, _ = master.Recv(0)      // ""
//	body, _ := master.Recv(0)  // "ping"
//
// Multiplexing several sockets without a goroutine per socket:
//
//	poller := slk.NewPoller()
//	items := []slk.PollItem{{Socket: sub, Events: slk.PollIn}}
//	ready, _ := poller.Poll(items, -1)
//
// # Backpressure and Linger
//
// Per-pipe high-water marks (OptSndHWM, OptRcvHWM) bound how many
// outstanding messages a peer may have in flight before Send starts
// blocking (or returns ErrWouldBlock with DontWait); OptLinger governs
// how long Close waits for a pipe to drain before discarding it.
//
// # Error Handling
//
// [ErrWouldBlock] is sourced from [code.hybscloud.com/iox] for
// ecosystem consistency with would-block semantics elsewhere in the
// stack; [IsWouldBlock] reports whether an error returned from Send,
// Recv, or Poll is recoverable by retrying rather than a genuine
// failure. Every other error is wrapped in a [*SocketError] carrying
// an [ErrorKind] so callers can distinguish invalid arguments from
// resource exhaustion, backpressure, transport failure, or lifecycle
// errors (operating on a closed socket or a terminating context)
// without string-matching.
//
// # Thread Safety
//
// A Socket may be called from any goroutine. Send, Recv, SetOption,
// GetOption, HasIn, HasOut, Monitor and Close take an internal owner
// lock, so concurrent calls to them serialize rather than race. Bind,
// Unbind, Connect and Disconnect do not take it and are not safe to
// run concurrently with other calls on the same socket. A Context's
// registry and terminating flag
// are safe for concurrent use by any number of goroutines.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for the socket-owner
// spinlock and lifecycle flags, [code.hybscloud.com/spin] for the
// backoff between compare-and-swap retries, and
// [code.hybscloud.com/iox] for the shared would-block sentinel.
package slk
