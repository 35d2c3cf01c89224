// Copyright (c) serverlink authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trie_test

import (
	"testing"

	"github.com/ulala-x/serverlink/internal/trie"
)

func TestPatternStarMatchesAnyRun(t *testing.T) {
	p := trie.NewPattern()
	p.Add("news.*")

	cases := map[string]bool{
		"news.sports": true,
		"news.":       true,
		"news":        false,
		"weather":     false,
	}
	for topic, want := range cases {
		if got := p.Check([]byte(topic)); got != want {
			t.Errorf("Check(%q) = %v, want %v", topic, got, want)
		}
	}
}

func TestPatternBareStarMatchesEverythingIncludingEmpty(t *testing.T) {
	p := trie.NewPattern()
	p.Add("*")

	for _, topic := range []string{"", "x", "a.b.c"} {
		if !p.Check([]byte(topic)) {
			t.Errorf("bare '*' should match %q", topic)
		}
	}
}

func TestPatternClassDigit(t *testing.T) {
	p := trie.NewPattern()
	p.Add("alert.[0-9]")

	cases := map[string]bool{
		"alert.0":  true,
		"alert.9":  true,
		"alert.10": false,
		"alert.A":  false,
	}
	for topic, want := range cases {
		if got := p.Check([]byte(topic)); got != want {
			t.Errorf("Check(%q) = %v, want %v", topic, got, want)
		}
	}
}

func TestPatternWildOneFixedLength(t *testing.T) {
	p := trie.NewPattern()
	p.Add("user.?")

	cases := map[string]bool{
		"user.X":  true,
		"user.12": false,
		"user.":   false,
	}
	for topic, want := range cases {
		if got := p.Check([]byte(topic)); got != want {
			t.Errorf("Check(%q) = %v, want %v", topic, got, want)
		}
	}
}

func TestPatternEmptyPatternMatchesOnlyEmptyTopic(t *testing.T) {
	p := trie.NewPattern()
	p.Add("")

	if !p.Check(nil) {
		t.Fatal("empty pattern should match empty topic")
	}
	if p.Check([]byte("x")) {
		t.Fatal("empty pattern should not match non-empty topic")
	}
}

func TestPatternAddRmRefcounting(t *testing.T) {
	p := trie.NewPattern()
	if !p.Add("a*") {
		t.Fatal("first Add should report new")
	}
	if p.Add("a*") {
		t.Fatal("second Add should not report new")
	}
	if p.Rm("a*") {
		t.Fatal("Rm after two Adds should not yet report last-removed")
	}
	if !p.Check([]byte("abc")) {
		t.Fatal("one remaining holder should still match")
	}
	if !p.Rm("a*") {
		t.Fatal("final Rm should report last-removed")
	}
	if p.Check([]byte("abc")) {
		t.Fatal("pattern should no longer match after last Rm")
	}
}

func TestPatternMultipleStars(t *testing.T) {
	p := trie.NewPattern()
	p.Add("*.sports.*")

	cases := map[string]bool{
		"news.sports.score": true,
		"a.sports.b":        true,
		"sports.x":          false,
		"news.sport.score":  false,
	}
	for topic, want := range cases {
		if got := p.Check([]byte(topic)); got != want {
			t.Errorf("Check(%q) = %v, want %v", topic, got, want)
		}
	}
}
