package variant

import (
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Side names the owner of a placement in a layout file.
type Side string

const (
	SideAttacker Side = "attacker"
	SideDefender Side = "defender"
)

// ParseSide accepts the layout spellings, including the original black/white names.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attacker", "attackers", "black", "b":
		return SideAttacker, nil
	case "defender", "defenders", "white", "w":
		return SideDefender, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// Placement puts one piece on the starting board.
type Placement struct {
	Row  int
	Col  int
	Side Side
}

// UnmarshalYAML decodes the compact [row, col, side] form.
func (p *Placement) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode || len(n.Content) != 3 {
		return fmt.Errorf("line %d: placement must be [row, col, side]", n.Line)
	}
	if err := n.Content[0].Decode(&p.Row); err != nil {
		return fmt.Errorf("line %d: row: %w", n.Line, err)
	}
	if err := n.Content[1].Decode(&p.Col); err != nil {
		return fmt.Errorf("line %d: col: %w", n.Line, err)
	}
	var raw string
	if err := n.Content[2].Decode(&raw); err != nil {
		return fmt.Errorf("line %d: side: %w", n.Line, err)
	}
	side, err := ParseSide(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	p.Side = side
	return nil
}

// Configuration is a named starting layout. The last defender placement is the king.
type Configuration struct {
	Name       string      `yaml:"name"`
	BoardSize  int         `yaml:"size"`
	Placements []Placement `yaml:"placements"`
}

// KingIndex returns the index of the king placement, or -1 when the layout has no defender.
func (c Configuration) KingIndex() int {
	for i := len(c.Placements) - 1; i >= 0; i-- {
		if c.Placements[i].Side == SideDefender {
			return i
		}
	}
	return -1
}

// Validate checks the layout against the board geometry.
func (c Configuration) Validate() error {
	if c.BoardSize < 5 || c.BoardSize%2 == 0 {
		return fmt.Errorf("variant %q: board size %d must be odd and at least 5", c.Name, c.BoardSize)
	}
	seen := make(map[[2]int]int, len(c.Placements))
	for i, p := range c.Placements {
		if p.Row < 0 || p.Row >= c.BoardSize || p.Col < 0 || p.Col >= c.BoardSize {
			return fmt.Errorf("variant %q: placement %d at (%d,%d) is off the board", c.Name, i, p.Row, p.Col)
		}
		if p.Side != SideAttacker && p.Side != SideDefender {
			return fmt.Errorf("variant %q: placement %d has no side", c.Name, i)
		}
		key := [2]int{p.Row, p.Col}
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("variant %q: placements %d and %d share (%d,%d)", c.Name, prev, i, p.Row, p.Col)
		}
		seen[key] = i
	}
	if c.KingIndex() < 0 {
		return fmt.Errorf("variant %q: no defender to crown as king", c.Name)
	}
	return nil
}

func (c Configuration) clone() Configuration {
	out := c
	out.Placements = append([]Placement(nil), c.Placements...)
	return out
}

// Resolution reports how a lookup name was resolved.
type Resolution struct {
	Requested string
	Resolved  string
	FellBack  bool
}
