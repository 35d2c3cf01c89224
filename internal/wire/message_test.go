// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire_test

import (
	"bytes"
	"testing"

	"github.com/ulala-x/serverlink/internal/wire"
)

func TestNewDataRoundTrips(t *testing.T) {
	for _, payload := range [][]byte{
		nil,
		[]byte("short"),
		bytes.Repeat([]byte("x"), 31),
		bytes.Repeat([]byte("y"), 32),
		bytes.Repeat([]byte("z"), 5000),
	} {
		m := wire.NewData(payload)
		if m.Size() != len(payload) {
			t.Fatalf("Size() = %d, want %d", m.Size(), len(payload))
		}
		if !bytes.Equal(m.Data(), payload) {
			t.Fatalf("Data() = %q, want %q", m.Data(), payload)
		}
	}
}

func TestCopySharesLargePayloadIndependently(t *testing.T) {
	m := wire.NewData(bytes.Repeat([]byte("a"), 1000))
	cp := m.Copy()

	if !bytes.Equal(m.Data(), cp.Data()) {
		t.Fatal("copy should observe the same payload")
	}
	cp.Close()
	if m.Size() != 1000 {
		t.Fatal("closing the copy must not affect the original while it still holds a reference")
	}
	m.Close()
}

func TestMoveEmptiesSource(t *testing.T) {
	src := wire.NewData([]byte("payload"))
	dst := wire.Move(&src)

	if src.Size() != 0 {
		t.Fatalf("source Size() after Move = %d, want 0", src.Size())
	}
	if !bytes.Equal(dst.Data(), []byte("payload")) {
		t.Fatalf("moved Data() = %q, want %q", dst.Data(), "payload")
	}
}

func TestInitSubscribeAndCancelRoundTrip(t *testing.T) {
	sub := wire.InitSubscribe([]byte("news."))
	topic, isSub, ok := wire.DecodeSubscribe(&sub)
	if !ok || !isSub || !bytes.Equal(topic, []byte("news.")) {
		t.Fatalf("DecodeSubscribe(subscribe) = (%q, %v, %v)", topic, isSub, ok)
	}

	cancel := wire.InitCancel([]byte("news."))
	topic, isSub, ok = wire.DecodeSubscribe(&cancel)
	if !ok || isSub || !bytes.Equal(topic, []byte("news.")) {
		t.Fatalf("DecodeSubscribe(cancel) = (%q, %v, %v)", topic, isSub, ok)
	}
}

func TestDecodeSubscribeLegacyForm(t *testing.T) {
	legacySub := wire.NewData(append([]byte{0x01}, "topic"...))
	topic, isSub, ok := wire.DecodeSubscribe(&legacySub)
	if !ok || !isSub || !bytes.Equal(topic, []byte("topic")) {
		t.Fatalf("legacy subscribe = (%q, %v, %v)", topic, isSub, ok)
	}

	legacyCancel := wire.NewData(append([]byte{0x00}, "topic"...))
	topic, isSub, ok = wire.DecodeSubscribe(&legacyCancel)
	if !ok || isSub || !bytes.Equal(topic, []byte("topic")) {
		t.Fatalf("legacy cancel = (%q, %v, %v)", topic, isSub, ok)
	}
}

func TestDecodeSubscribeRejectsOrdinaryData(t *testing.T) {
	m := wire.NewData([]byte("hello world"))
	if _, _, ok := wire.DecodeSubscribe(&m); ok {
		t.Fatal("ordinary payload should not be mistaken for a subscription command")
	}
}
