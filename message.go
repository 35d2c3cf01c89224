// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk

import "github.com/ulala-x/serverlink/internal/wire"

// Message is a single frame: payload plus more/command/shared/credential
// flags, an optional routing-identity prefix, and optional metadata. It is
// an alias of the wire package's type so Send/Recv can hand messages
// straight from the pipe queues to callers with no copy or wrapping.
type Message = wire.Message

// NewMessage returns an empty zero-length message.
func NewMessage() Message { return wire.New() }

// NewMessageData returns a message carrying a copy of buf.
func NewMessageData(buf []byte) Message { return wire.NewData(buf) }

// NewMessageSize returns a zeroed message with n bytes of payload storage,
// for callers that want to fill Data() in place before sending.
func NewMessageSize(n int) Message { return wire.InitSize(n) }

// MoveMessage transfers src's storage into the returned message and
// empties src, per Message's move semantics.
func MoveMessage(src *Message) Message { return wire.Move(src) }
