package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/park285/Cheese-Tafl/internal/session"
	"github.com/park285/Cheese-Tafl/internal/tafl"
	"github.com/park285/Cheese-Tafl/internal/variant"
)

func main() {
	name := flag.String("variant", "", "variant name (default: catalog default)")
	dir := flag.String("dir", os.Getenv("TAFL_VARIANT_DIR"), "extra variant YAML directory")
	quiet := flag.Bool("q", false, "do not print events")
	flag.Parse()

	moves, err := parseMoves(strings.Join(flag.Args(), " "))
	if err != nil {
		log.Fatal(err)
	}
	catalog, err := variant.New(*dir)
	if err != nil {
		log.Fatalf("variant catalog: %v", err)
	}
	var events io.Writer = os.Stdout
	if *quiet {
		events = io.Discard
	}
	if err := play(context.Background(), os.Stdout, events, catalog, *name, moves); err != nil {
		log.Fatal(err)
	}
}

// play runs moves on a fresh game and prints the board after each one. The attacker
// side is named "attacker" and the defender "defender".
func play(ctx context.Context, w, events io.Writer, catalog *variant.Catalog, name string, moves []plannedMove) error {
	if name == "" {
		name = catalog.Default()
	}
	cfg, res := catalog.Lookup(name)
	if res.FellBack {
		fmt.Fprintf(w, "variant %q not found, using %q\n", res.Requested, res.Resolved)
	}
	pub := session.PublisherFunc(func(_ context.Context, ev session.Event) error {
		fmt.Fprintln(events, describe(ev))
		return nil
	})
	s, err := session.New("check", cfg, [2]session.Player{{ID: "attacker"}, {ID: "defender"}}, true, pub)
	if err != nil {
		return err
	}
	if _, err := s.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %dx%d\n%s\n", res.Resolved, cfg.BoardSize, cfg.BoardSize, s.Snapshot().Board)

	for i, m := range moves {
		if s.Over() {
			fmt.Fprintf(w, "move %d ignored: game over\n", i+1)
			break
		}
		st := s.Snapshot()
		player := st.Players[st.Holder].ID
		id := -1
		for _, p := range st.Pieces {
			if p.Row == m.From.Row && p.Col == m.From.Col {
				id = p.ID
				break
			}
		}
		_, err := s.Submit(ctx, session.MoveRequest{PlayerID: player, PieceID: id, To: m.To})
		if err != nil {
			fmt.Fprintf(w, "move %d %d,%d>%d,%d by %s rejected: %v\n", i+1, m.From.Row, m.From.Col, m.To.Row, m.To.Col, player, err)
			continue
		}
		fmt.Fprintf(w, "move %d %d,%d>%d,%d by %s\n%s\n", i+1, m.From.Row, m.From.Col, m.To.Row, m.To.Col, player, s.Snapshot().Board)
	}

	if r := s.Snapshot().Result; r.Decided() {
		fmt.Fprintf(w, "result: %s (%s)\n", r.Winner, r.Reason)
	} else {
		fmt.Fprintf(w, "result: in progress, %s to move\n", s.Snapshot().HolderColour)
	}
	return nil
}

func describe(ev session.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", ev.Seq, ev.Kind)
	if ev.Piece != nil {
		fmt.Fprintf(&b, " piece=%d", ev.Piece.ID)
	}
	if ev.From != nil {
		fmt.Fprintf(&b, " from=%d,%d", ev.From.Row, ev.From.Col)
	}
	if ev.To != nil {
		fmt.Fprintf(&b, " to=%d,%d", ev.To.Row, ev.To.Col)
	}
	if ev.Kind == session.EventTurnChanged {
		fmt.Fprintf(&b, " player=%s colour=%s", ev.Player, ev.Colour)
	}
	if ev.Result != nil && ev.Result.Winner != tafl.NoWinner {
		fmt.Fprintf(&b, " winner=%s reason=%s", ev.Result.Winner, ev.Result.Reason)
	}
	return b.String()
}
