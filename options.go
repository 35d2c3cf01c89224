// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk

// SockOpt names one of the options recognised by SetOption/GetOption.
// Typed as an enum rather than a bare string, in keeping with this
// module's preference for compile-time-checked configuration over a
// map[string]any bag.
type SockOpt int

const (
	// OptRoutingID (bytes, <=255) is the identity this socket publishes
	// in its handshake; ROUTER also uses it to address inbound origin.
	OptRoutingID SockOpt = iota
	// OptConnectRoutingID (bytes) is announced on the next Connect only,
	// then consumed.
	OptConnectRoutingID
	// OptRouterMandatory (bool), ROUTER only: Send to an unknown peer
	// returns ErrHostUnreachable instead of silently dropping.
	OptRouterMandatory
	// OptRouterHandover (bool), ROUTER only: a new peer presenting a
	// duplicate identity replaces the existing mapping.
	OptRouterHandover
	// OptLinger (int ms, -1 = infinite) bounds how long Close waits for
	// outbound drain; 0 discards immediately.
	OptLinger
	// OptSndHWM, OptRcvHWM (int messages, 0 = unlimited) are per-pipe
	// high-water marks applied to pipes attached after the option is set.
	OptSndHWM
	OptRcvHWM
	// OptSndTimeo, OptRcvTimeo (int ms, -1 = infinite) bound blocking
	// Send/Recv.
	OptSndTimeo
	OptRcvTimeo
	// OptSubscribe, OptUnsubscribe (bytes): add/remove a topic prefix on
	// SUB/XSUB, propagated upstream to every connected publisher.
	OptSubscribe
	OptUnsubscribe
	// OptPSubscribe, OptPUnsubscribe (bytes): add/remove a glob pattern
	// on SUB's local pattern trie; never propagated over the wire.
	OptPSubscribe
	OptPUnsubscribe
	// OptXPubVerbose (bool), XPUB only: surface every subscribe frame,
	// not just first-holder ones.
	OptXPubVerbose
	// OptXPubVerboser (bool), XPUB only: same, for unsubscribe frames.
	OptXPubVerboser
	// OptXPubNoDrop (bool), XPUB only: non-lossy send — a blocked
	// matched pipe makes the whole send return would-block.
	OptXPubNoDrop
	// OptXPubManual (bool), XPUB only: defer sub/cancel frames to the
	// user instead of applying them to the trie automatically.
	OptXPubManual
	// OptXPubWelcomeMsg (bytes), XPUB only: payload written to every
	// newly attached peer.
	OptXPubWelcomeMsg
	// OptOnlyFirstSubscribe (bool): treat only a multipart message's
	// first frame as a possible subscribe/cancel command.
	OptOnlyFirstSubscribe
	// OptTopicsCount (int, get-only): distinct prefixes currently held
	// in the socket's subscription trie; SUB/XSUB also count their
	// distinct glob patterns.
	OptTopicsCount
	// OptInvertMatching (bool), SUB/XSUB only: negate the subscription
	// filter.
	OptInvertMatching
)

func (o SockOpt) String() string {
	switch o {
	case OptRoutingID:
		return "routing-id"
	case OptConnectRoutingID:
		return "connect-routing-id"
	case OptRouterMandatory:
		return "router-mandatory"
	case OptRouterHandover:
		return "router-handover"
	case OptLinger:
		return "linger"
	case OptSndHWM:
		return "sndhwm"
	case OptRcvHWM:
		return "rcvhwm"
	case OptSndTimeo:
		return "sndtimeo"
	case OptRcvTimeo:
		return "rcvtimeo"
	case OptSubscribe:
		return "subscribe"
	case OptUnsubscribe:
		return "unsubscribe"
	case OptPSubscribe:
		return "psubscribe"
	case OptPUnsubscribe:
		return "punsubscribe"
	case OptXPubVerbose:
		return "xpub-verbose"
	case OptXPubVerboser:
		return "xpub-verboser"
	case OptXPubNoDrop:
		return "xpub-nodrop"
	case OptXPubManual:
		return "xpub-manual"
	case OptXPubWelcomeMsg:
		return "xpub-welcome-msg"
	case OptOnlyFirstSubscribe:
		return "only-first-subscribe"
	case OptTopicsCount:
		return "topics-count"
	case OptInvertMatching:
		return "invert-matching"
	default:
		return "unknown"
	}
}

// socketOptions is the bag of per-socket configuration every pattern
// reads from; it lives on the shared base so option get/set never needs
// a pattern-specific switch except for the handful of pattern-only
// entries (router-*, xpub-*, *subscribe*).
type socketOptions struct {
	routingID        []byte
	connectRoutingID []byte
	routerMandatory  bool
	routerHandover   bool
	lingerMS         int
	sndHWM, rcvHWM   int
	sndTimeoMS       int
	rcvTimeoMS       int
	onlyFirstSub     bool
	invertMatching   bool

	xpubVerbose    bool
	xpubVerboser   bool
	xpubNoDrop     bool
	xpubManual     bool
	xpubWelcomeMsg []byte
}

func defaultSocketOptions() socketOptions {
	return socketOptions{lingerMS: -1, sndTimeoMS: -1, rcvTimeoMS: -1}
}
