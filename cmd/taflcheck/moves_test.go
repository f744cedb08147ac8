package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/park285/Cheese-Tafl/internal/tafl"
	"github.com/park285/Cheese-Tafl/internal/variant"
)

func TestParseMoves(t *testing.T) {
	got, err := parseMoves("5,3>5,1; 2,3>2,1\n 0,0 > 0,1")
	if err == nil {
		t.Fatalf("spaces inside a move split it, expected error, got %v", got)
	}

	got, err = parseMoves("5,3>5,1;2,3>2,1 6,4>6,5")
	if err != nil {
		t.Fatalf("parseMoves: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 moves, got %d", len(got))
	}
	if got[0].From != (tafl.Location{Row: 5, Col: 3}) || got[2].To != (tafl.Location{Row: 6, Col: 5}) {
		t.Fatalf("unexpected moves %+v", got)
	}

	for _, bad := range []string{"5,3", "5>5,1", "a,3>5,1", "5,3>5,x"} {
		if _, err := parseMoves(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	if got, err := parseMoves(""); err != nil || len(got) != 0 {
		t.Fatalf("empty input: %v %v", got, err)
	}
}

func TestPlayReportsRejectionsAndBoards(t *testing.T) {
	moves, err := parseMoves("5,3>4,3 6,4>6,1 5,3>5,1")
	if err != nil {
		t.Fatalf("parseMoves: %v", err)
	}
	var out, events bytes.Buffer
	if err := play(context.Background(), &out, &events, variant.Builtin(), "ardri", moves); err != nil {
		t.Fatalf("play: %v", err)
	}
	s := out.String()
	for _, want := range []string{
		"ardri 7x7",
		"move 1 5,3>4,3 by attacker rejected: " + tafl.ErrDestinationOccupied.Error(),
		"move 2 6,4>6,1 by attacker rejected: " + tafl.ErrPathBlocked.Error(),
		"move 3 5,3>5,1 by attacker\n",
		"result: in progress, defender to move",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("output missing %q:\n%s", want, s)
		}
	}
	if !strings.Contains(events.String(), "#1 GAME_STARTED") || !strings.Contains(events.String(), "PIECE_MOVED piece=3 from=5,3 to=5,1") {
		t.Fatalf("unexpected events:\n%s", events.String())
	}
}

func TestPlayUnknownVariantFallsBack(t *testing.T) {
	var out bytes.Buffer
	if err := play(context.Background(), &out, io.Discard, variant.Builtin(), "brandubh", nil); err != nil {
		t.Fatalf("play: %v", err)
	}
	if !strings.Contains(out.String(), `variant "brandubh" not found, using "ardri"`) {
		t.Fatalf("missing fallback notice:\n%s", out.String())
	}
}
