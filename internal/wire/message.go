// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import "code.hybscloud.com/atomix"

// Flag bits carried alongside a frame's payload.
type Flag uint8

const (
	FlagMore Flag = 1 << iota
	FlagCommand
	FlagShared
	FlagCredential
)

// maxInline is the largest payload stored directly inside a Message
// rather than on a refcounted heap buffer.
const maxInline = 32

// largeBuf is the heap-allocated, reference-counted storage backing a
// Message whose payload exceeds maxInline. Copy increments refs; Close
// decrements and frees on the last reference.
type largeBuf struct {
	data []byte
	refs atomix.Int32
}

// metadataBag is a reference-counted key/value bag attached to a
// Message. Multiple Copy'd frames can share one bag.
type metadataBag struct {
	values map[string]string
	refs   atomix.Int32
}

// Message is a single wire frame: payload plus flags, an optional
// routing-identity prefix, and optional metadata. A multi-part logical
// message is a maximal run of Messages where every one but the last
// has FlagMore set.
type Message struct {
	flags     Flag
	small     [maxInline]byte
	smallLen  int
	large     *largeBuf
	routingID []byte
	meta      *metadataBag
}

// New returns an empty zero-length message.
func New() Message {
	return Message{}
}

// NewData returns a message carrying a copy of buf, choosing inline or
// heap storage by size.
func NewData(buf []byte) Message {
	var m Message
	m.setPayload(buf)
	return m
}

// InitSize returns a zeroed message with n bytes of payload storage.
func InitSize(n int) Message {
	var m Message
	if n <= maxInline {
		m.smallLen = n
		return m
	}
	m.large = &largeBuf{data: make([]byte, n)}
	m.large.refs.Store(1)
	return m
}

func (m *Message) setPayload(buf []byte) {
	if len(buf) <= maxInline {
		m.large = nil
		m.smallLen = copy(m.small[:], buf)
		return
	}
	lb := &largeBuf{data: append([]byte(nil), buf...)}
	lb.refs.Store(1)
	m.large = lb
	m.smallLen = 0
}

// Data returns the message payload. The returned slice must not be
// mutated when the message is Shared.
func (m *Message) Data() []byte {
	if m.large != nil {
		return m.large.data
	}
	return m.small[:m.smallLen]
}

// Size returns the payload length in bytes.
func (m *Message) Size() int {
	if m.large != nil {
		return len(m.large.data)
	}
	return m.smallLen
}

func (m *Message) More() bool       { return m.flags&FlagMore != 0 }
func (m *Message) Command() bool    { return m.flags&FlagCommand != 0 }
func (m *Message) Shared() bool     { return m.flags&FlagShared != 0 }
func (m *Message) Credential() bool { return m.flags&FlagCredential != 0 }

func (m *Message) SetMore(v bool)       { m.setFlag(FlagMore, v) }
func (m *Message) SetCommand(v bool)    { m.setFlag(FlagCommand, v) }
func (m *Message) SetCredential(v bool) { m.setFlag(FlagCredential, v) }

func (m *Message) setFlag(f Flag, v bool) {
	if v {
		m.flags |= f
	} else {
		m.flags &^= f
	}
}

// RoutingID returns the routing-identity prefix attached to this
// message, or nil if none was set.
func (m *Message) RoutingID() []byte { return m.routingID }

// SetRoutingID attaches a routing-identity prefix, copying id.
func (m *Message) SetRoutingID(id []byte) {
	m.routingID = append([]byte(nil), id...)
}

// Metadata looks up a key in the message's metadata bag. ok is false
// if the message carries no metadata or the key is absent.
func (m *Message) Metadata(key string) (value string, ok bool) {
	if m.meta == nil {
		return "", false
	}
	value, ok = m.meta.values[key]
	return value, ok
}

// SetMetadata attaches a fresh metadata bag (refcount 1) with the
// given key/value, replacing any bag this message already referenced.
func (m *Message) SetMetadata(key, value string) {
	m.meta = &metadataBag{values: map[string]string{key: value}}
	m.meta.refs.Store(1)
}

// Copy produces a logically independent handle sharing storage with m:
// zero-cost for inline payloads, a refcount bump for heap-allocated
// ones and for metadata. After Copy both m and the returned message
// may be sent and closed independently.
func (m *Message) Copy() Message {
	cp := *m
	if m.large != nil {
		m.large.refs.Add(1)
		cp.flags |= FlagShared
		m.flags |= FlagShared
	}
	if m.meta != nil {
		m.meta.refs.Add(1)
	}
	cp.routingID = append([]byte(nil), m.routingID...)
	return cp
}

// Move transfers m's storage into the returned message and empties m.
func Move(src *Message) Message {
	moved := *src
	*src = Message{}
	return moved
}

// Close releases storage held by m. It is safe to call on a
// zero-value or already-closed Message.
func (m *Message) Close() {
	if m.large != nil {
		if m.large.refs.Add(-1) == 0 {
			m.large.data = nil
		}
		m.large = nil
	}
	if m.meta != nil {
		if m.meta.refs.Add(-1) == 0 {
			m.meta.values = nil
		}
		m.meta = nil
	}
	m.smallLen = 0
	m.routingID = nil
}

const (
	subscribeTag = "SUBSCRIBE\x00"
	cancelTag    = "CANCEL\x00"
)

// InitSubscribe builds a command frame carrying a subscribe directive
// for topic, as written by SUB/XSUB onto the upstream pipe.
func InitSubscribe(topic []byte) Message {
	m := NewData(append([]byte(subscribeTag), topic...))
	m.SetCommand(true)
	return m
}

// InitCancel builds a command frame carrying an unsubscribe directive
// for topic.
func InitCancel(topic []byte) Message {
	m := NewData(append([]byte(cancelTag), topic...))
	m.SetCommand(true)
	return m
}

// InitDelimiter builds the reserved empty command frame pipes write to
// mark orderly end-of-stream.
func InitDelimiter() Message {
	m := New()
	m.SetCommand(true)
	return m
}

// IsDelimiter reports whether m is the reserved end-of-stream marker.
func IsDelimiter(m *Message) bool {
	return m.Command() && m.Size() == 0
}

// DecodeSubscribe reports whether m is a subscribe or cancel command
// frame (in either the tagged or legacy 0x01/0x00-prefixed form) and
// returns the topic and whether it is a subscribe (true) or cancel
// (false). ok is false if m is not a recognised subscription command.
func DecodeSubscribe(m *Message) (topic []byte, subscribe bool, ok bool) {
	data := m.Data()
	if m.Command() {
		if len(data) >= len(subscribeTag) && string(data[:len(subscribeTag)]) == subscribeTag {
			return data[len(subscribeTag):], true, true
		}
		if len(data) >= len(cancelTag) && string(data[:len(cancelTag)]) == cancelTag {
			return data[len(cancelTag):], false, true
		}
		return nil, false, false
	}
	if len(data) == 0 {
		return nil, false, false
	}
	switch data[0] {
	case 0x01:
		return data[1:], true, true
	case 0x00:
		return data[1:], false, true
	default:
		return nil, false, false
	}
}
