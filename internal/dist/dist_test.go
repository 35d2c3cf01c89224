// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dist_test

import (
	"testing"

	"github.com/ulala-x/serverlink/internal/dist"
	"github.com/ulala-x/serverlink/internal/pipe"
	"github.com/ulala-x/serverlink/internal/wire"
)

func newAttachedPipe(t *testing.T, d *dist.Distributor, hwm pipe.HWM) (mine, theirs *pipe.Pipe) {
	t.Helper()
	mine, theirs = pipe.NewPair(hwm, pipe.HWM{}, nil, nil)
	d.Attach(mine)
	return mine, theirs
}

func TestSendToAllReachesEveryActivePipe(t *testing.T) {
	d := dist.New()
	_, r1 := newAttachedPipe(t, d, pipe.HWM{})
	_, r2 := newAttachedPipe(t, d, pipe.HWM{})

	d.SendToAll(wire.NewData([]byte("hello")))

	for i, r := range []*pipe.Pipe{r1, r2} {
		msg, ok := r.Read()
		if !ok {
			t.Fatalf("pipe %d: expected a message", i)
		}
		if string(msg.Data()) != "hello" {
			t.Fatalf("pipe %d: Data() = %q", i, msg.Data())
		}
	}
}

func TestSendToMatchingOnlyReachesMatchedPipes(t *testing.T) {
	d := dist.New()
	p1, r1 := newAttachedPipe(t, d, pipe.HWM{})
	_, r2 := newAttachedPipe(t, d, pipe.HWM{})

	d.Match(p1)
	d.SendToMatching(wire.NewData([]byte("only-one")))

	if _, ok := r1.Read(); !ok {
		t.Fatal("matched pipe should have received the message")
	}
	if _, ok := r2.Read(); ok {
		t.Fatal("unmatched pipe should not have received the message")
	}
}

func TestMultipartMessageStaysContiguous(t *testing.T) {
	d := dist.New()
	_, r := newAttachedPipe(t, d, pipe.HWM{})

	first := wire.NewData([]byte("part1"))
	first.SetMore(true)
	second := wire.NewData([]byte("part2"))

	d.SendToAll(first)
	d.SendToAll(second)

	m1, ok := r.Read()
	if !ok || !m1.More() || string(m1.Data()) != "part1" {
		t.Fatalf("first frame wrong: ok=%v more=%v data=%q", ok, m1.More(), m1.Data())
	}
	m2, ok := r.Read()
	if !ok || m2.More() || string(m2.Data()) != "part2" {
		t.Fatalf("second frame wrong: ok=%v more=%v data=%q", ok, m2.More(), m2.Data())
	}
}

func TestAttachDuringMultipartDoesNotBecomeActiveUntilComplete(t *testing.T) {
	d := dist.New()
	_, r1 := newAttachedPipe(t, d, pipe.HWM{})

	first := wire.NewData([]byte("part1"))
	first.SetMore(true)
	d.SendToAll(first)

	// A second pipe attached mid-multipart must not receive the
	// in-progress message's later frames.
	_, r2 := newAttachedPipe(t, d, pipe.HWM{})

	second := wire.NewData([]byte("part2"))
	d.SendToAll(second) // still targets only the pipes active before this attach

	if _, ok := r1.Read(); !ok {
		t.Fatal("r1 should have drained part1")
	}
	if _, ok := r1.Read(); !ok {
		t.Fatal("r1 should also get part2")
	}
	if _, ok := r2.Read(); ok {
		t.Fatal("pipe attached mid-multipart should not see any frame of the in-progress message")
	}

	// Next full message (not mid-multipart) should reach both.
	d.SendToAll(wire.NewData([]byte("next")))
	if _, ok := r2.Read(); !ok {
		t.Fatal("r2 should become active for a subsequent, non-mid-multipart message")
	}
}

func TestBlockedPipeIsDemotedAndSurvivingPipesStillReceive(t *testing.T) {
	d := dist.New()
	p1, r1 := newAttachedPipe(t, d, pipe.HWM{Send: 1})
	_, r2 := newAttachedPipe(t, d, pipe.HWM{})

	d.SendToAll(wire.NewData([]byte("first")))
	r1.Read() // not credited back yet (unlimited Recv default batch), so p1 stays at HWM
	_ = p1

	d.SendToAll(wire.NewData([]byte("second")))

	if !d.HasOut() {
		t.Fatal("distributor should still have at least one active pipe (r2's)")
	}
	if _, ok := r2.Read(); !ok {
		t.Fatal("r2 should have received \"first\"")
	}
	if _, ok := r2.Read(); !ok {
		t.Fatal("r2 should have received \"second\" even though p1 was demoted")
	}
}

func TestPipeTerminatedRemovesFromAllSets(t *testing.T) {
	d := dist.New()
	p1, _ := newAttachedPipe(t, d, pipe.HWM{})
	_, r2 := newAttachedPipe(t, d, pipe.HWM{})

	d.Match(p1)
	d.PipeTerminated(p1)

	if d.HasPipe(p1) {
		t.Fatal("terminated pipe should no longer be attached")
	}
	d.SendToAll(wire.NewData([]byte("x")))
	if _, ok := r2.Read(); !ok {
		t.Fatal("remaining pipe should still receive sends")
	}
}
