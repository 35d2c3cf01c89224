// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"fmt"
)

const (
	wireMore    byte = 1 << 0
	wireLong    byte = 1 << 1
	wireCommand byte = 1 << 2
)

// Encode appends the wire representation of m — [flags byte][length][payload]
// — to dst and returns the extended slice. Length is one byte for
// payloads under 256 bytes, otherwise eight bytes big-endian with the
// long bit set.
func Encode(dst []byte, m *Message) []byte {
	data := m.Data()
	flags := byte(0)
	if m.More() {
		flags |= wireMore
	}
	if m.Command() {
		flags |= wireCommand
	}
	long := len(data) >= 256
	if long {
		flags |= wireLong
	}
	dst = append(dst, flags)
	if long {
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(data)))
		dst = append(dst, lenBuf[:]...)
	} else {
		dst = append(dst, byte(len(data)))
	}
	dst = append(dst, data...)
	return dst
}

// Decode reads one frame from the front of src and returns the decoded
// message and the number of bytes consumed. It returns an error if src
// does not hold a complete frame.
func Decode(src []byte) (Message, int, error) {
	if len(src) < 2 {
		return Message{}, 0, fmt.Errorf("wire: short frame header: %d bytes", len(src))
	}
	flags := src[0]
	long := flags&wireLong != 0
	var length int
	var headerLen int
	if long {
		if len(src) < 9 {
			return Message{}, 0, fmt.Errorf("wire: short long-frame header: %d bytes", len(src))
		}
		length = int(binary.BigEndian.Uint64(src[1:9]))
		headerLen = 9
	} else {
		length = int(src[1])
		headerLen = 2
	}
	total := headerLen + length
	if len(src) < total {
		return Message{}, 0, fmt.Errorf("wire: frame truncated: want %d bytes, have %d", total, len(src))
	}
	m := NewData(src[headerLen:total])
	m.SetMore(flags&wireMore != 0)
	m.SetCommand(flags&wireCommand != 0)
	return m, total, nil
}
