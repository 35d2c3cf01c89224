// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slk_test

import (
	"testing"

	slk "github.com/ulala-x/serverlink"
)

func TestPollReportsReadiness(t *testing.T) {
	ctx := slk.NewContext()
	defer ctx.Destroy()

	a, b := newPairLink(t, ctx, "inproc://poll-basic")
	defer a.Close()
	defer b.Close()

	poller := slk.NewPoller()
	items := []slk.PollItem{
		{Socket: a, Events: slk.PollIn | slk.PollOut},
		{Socket: b, Events: slk.PollIn | slk.PollOut},
	}

	ready, err := poller.Poll(items, 0)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if ready[0]&slk.PollIn != 0 {
		t.Fatal("a should have no inbound data yet")
	}

	if err := a.Send(slk.NewMessageData([]byte("hi")), 0); err != nil {
		t.Fatalf("send: %v", err)
	}

	ready, err = poller.Poll(items, -1)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if ready[1]&slk.PollIn == 0 {
		t.Fatal("b should be readable after a's send")
	}
}

func TestPollTimeoutWithNoData(t *testing.T) {
	ctx := slk.NewContext()
	defer ctx.Destroy()

	a, b := newPairLink(t, ctx, "inproc://poll-timeout")
	defer a.Close()
	defer b.Close()

	poller := slk.NewPoller()
	items := []slk.PollItem{{Socket: b, Events: slk.PollIn}}

	ready, err := poller.Poll(items, 20)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if ready[0] != 0 {
		t.Fatalf("expected no readiness, got %v", ready[0])
	}
}
