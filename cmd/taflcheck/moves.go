package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/park285/Cheese-Tafl/internal/tafl"
)

type plannedMove struct {
	From tafl.Location
	To   tafl.Location
}

// parseMoves reads "r,c>r,c" tokens separated by spaces or semicolons.
func parseMoves(s string) ([]plannedMove, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ';' || r == '\n' || r == '\t' })
	out := make([]plannedMove, 0, len(fields))
	for _, f := range fields {
		m, err := parseMove(f)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func parseMove(tok string) (plannedMove, error) {
	from, to, ok := strings.Cut(tok, ">")
	if !ok {
		return plannedMove{}, fmt.Errorf("move %q: want r,c>r,c", tok)
	}
	a, err := parseCell(from)
	if err != nil {
		return plannedMove{}, fmt.Errorf("move %q: %w", tok, err)
	}
	b, err := parseCell(to)
	if err != nil {
		return plannedMove{}, fmt.Errorf("move %q: %w", tok, err)
	}
	return plannedMove{From: a, To: b}, nil
}

func parseCell(s string) (tafl.Location, error) {
	r, c, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return tafl.Location{}, fmt.Errorf("cell %q: want r,c", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(r))
	if err != nil {
		return tafl.Location{}, fmt.Errorf("cell %q: %w", s, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(c))
	if err != nil {
		return tafl.Location{}, fmt.Errorf("cell %q: %w", s, err)
	}
	return tafl.Location{Row: row, Col: col}, nil
}
