// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk_test

import (
	"testing"

	slk "github.com/ulala-x/serverlink"
)

func mustSocket(t *testing.T, s *slk.Socket, err error) *slk.Socket {
	t.Helper()
	if err != nil {
		t.Fatalf("socket creation: %v", err)
	}
	return s
}

func newPairLink(t *testing.T, ctx *slk.Context, endpoint string) (a, b *slk.Socket) {
	t.Helper()
	a = mustSocket(t, slk.NewPair(ctx))
	if err := a.Bind(endpoint); err != nil {
		t.Fatalf("bind: %v", err)
	}
	b = mustSocket(t, slk.NewPair(ctx))
	if err := b.Connect(endpoint); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return a, b
}

func TestPairRoundTrip(t *testing.T) {
	ctx := slk.NewContext()
	defer ctx.Destroy()

	a, b := newPairLink(t, ctx, "inproc://pair-roundtrip")
	defer a.Close()
	defer b.Close()

	if err := a.Send(slk.NewMessageData([]byte("hello")), 0); err != nil {
		t.Fatalf("send: %v", err)
	}
	msg, err := b.Recv(0)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if string(msg.Data()) != "hello" {
		t.Fatalf("Data() = %q", msg.Data())
	}
}

func TestPairRejectsSecondPeer(t *testing.T) {
	ctx := slk.NewContext()
	defer ctx.Destroy()

	a, b := newPairLink(t, ctx, "inproc://pair-exclusive")
	defer a.Close()
	defer b.Close()

	c := mustSocket(t, slk.NewPair(ctx))
	defer c.Close()
	if err := c.Connect("inproc://pair-exclusive"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	// a's own next call drains the mailbox, which is where the PAIR
	// pattern notices and rejects the intruding second pipe; b's
	// existing attachment must survive untouched.
	_, _ = a.GetOption(slk.OptLinger)

	if err := b.Send(slk.NewMessageData([]byte("still-there")), 0); err != nil {
		t.Fatalf("send from original peer: %v", err)
	}
	msg, err := a.Recv(0)
	if err != nil || string(msg.Data()) != "still-there" {
		t.Fatalf("a should still be paired with b: data=%q err=%v", msg.Data(), err)
	}
}

func TestRecvDontWaitWouldBlock(t *testing.T) {
	ctx := slk.NewContext()
	defer ctx.Destroy()

	a, b := newPairLink(t, ctx, "inproc://pair-wouldblock")
	defer a.Close()
	defer b.Close()

	if _, err := b.Recv(slk.DontWait); !slk.IsWouldBlock(err) {
		t.Fatalf("expected would-block, got %v", err)
	}
}

func TestMultipartMessageDeliveredInOrder(t *testing.T) {
	ctx := slk.NewContext()
	defer ctx.Destroy()

	a, b := newPairLink(t, ctx, "inproc://pair-multipart")
	defer a.Close()
	defer b.Close()

	if err := a.Send(slk.NewMessageData([]byte("part1")), slk.SendMore); err != nil {
		t.Fatalf("send part1: %v", err)
	}
	if err := a.Send(slk.NewMessageData([]byte("part2")), 0); err != nil {
		t.Fatalf("send part2: %v", err)
	}

	first, err := b.Recv(0)
	if err != nil || !first.More() {
		t.Fatalf("first frame: data=%q more=%v err=%v", first.Data(), first.More(), err)
	}
	second, err := b.Recv(0)
	if err != nil || second.More() {
		t.Fatalf("second frame: data=%q more=%v err=%v", second.Data(), second.More(), err)
	}
	if string(first.Data())+string(second.Data()) != "part1part2" {
		t.Fatalf("unexpected payload split: %q %q", first.Data(), second.Data())
	}
}

func TestSetOptionInvalidValueRejected(t *testing.T) {
	ctx := slk.NewContext()
	defer ctx.Destroy()

	s := mustSocket(t, slk.NewPair(ctx))
	defer s.Close()

	if err := s.SetOption(slk.OptSndHWM, "not-an-int"); err == nil {
		t.Fatal("expected error setting sndhwm to a non-int value")
	}
}

func TestCloseWithZeroLingerDiscardsImmediately(t *testing.T) {
	ctx := slk.NewContext()
	defer ctx.Destroy()

	a, b := newPairLink(t, ctx, "inproc://pair-linger0")
	defer b.Close()

	if err := a.SetOption(slk.OptLinger, 0); err != nil {
		t.Fatalf("setsockopt linger: %v", err)
	}
	if err := a.Send(slk.NewMessageData([]byte("queued")), 0); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestContextDestroyUnblocksSockets(t *testing.T) {
	ctx := slk.NewContext()
	a, b := newPairLink(t, ctx, "inproc://pair-ctxdestroy")

	ctx.Destroy()

	if _, err := a.Recv(slk.DontWait); err == nil {
		t.Fatal("expected an error after context destruction")
	}
	_ = b
}
