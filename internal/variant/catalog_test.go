package variant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinLayouts(t *testing.T) {
	c := Builtin()
	assert.Equal(t, []string{"ardri", "errk", "tablut"}, c.Names())
	assert.Equal(t, "ardri", c.Default())

	cases := []struct {
		name      string
		size      int
		attackers int
		defenders int
		king      Placement
	}{
		{name: "ardri", size: 7, attackers: 16, defenders: 9, king: Placement{3, 3, SideDefender}},
		{name: "tablut", size: 9, attackers: 16, defenders: 9, king: Placement{4, 4, SideDefender}},
		{name: "errk", size: 7, attackers: 8, defenders: 5, king: Placement{3, 3, SideDefender}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, res := c.Lookup(tc.name)
			assert.False(t, res.FellBack)
			assert.Equal(t, tc.size, cfg.BoardSize)
			var att, def int
			for _, p := range cfg.Placements {
				if p.Side == SideAttacker {
					att++
				} else {
					def++
				}
			}
			assert.Equal(t, tc.attackers, att)
			assert.Equal(t, tc.defenders, def)
			require.GreaterOrEqual(t, cfg.KingIndex(), 0)
			assert.Equal(t, tc.king, cfg.Placements[cfg.KingIndex()])
			assert.Equal(t, len(cfg.Placements)-1, cfg.KingIndex())
		})
	}
}

func TestArdRiOpeningPlacements(t *testing.T) {
	cfg, _ := Builtin().Lookup("ardri")
	want := []Placement{{6, 2, SideAttacker}, {6, 3, SideAttacker}, {6, 4, SideAttacker}, {5, 3, SideAttacker}}
	assert.Equal(t, want, cfg.Placements[:4])
}

func TestLookupUnknownFallsBack(t *testing.T) {
	cfg, res := Builtin().Lookup("hnefatafl-typo")
	assert.True(t, res.FellBack)
	assert.Equal(t, "hnefatafl-typo", res.Requested)
	assert.Equal(t, "ardri", res.Resolved)
	assert.Equal(t, "ardri", cfg.Name)

	// exact match only
	_, res = Builtin().Lookup("ArdRi")
	assert.True(t, res.FellBack)
}

func TestLookupReturnsCopies(t *testing.T) {
	a, _ := Builtin().Lookup("errk")
	a.Placements[0].Row = 99
	b, _ := Builtin().Lookup("errk")
	assert.Equal(t, 1, b.Placements[0].Row)
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	body := `default: mini
variants:
  - name: mini
    size: 5
    placements:
      - [0, 2, attacker]
      - [2, 2, white]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10-mini.yaml"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	c, err := New(dir)
	require.NoError(t, err)
	assert.True(t, c.Has("mini"))
	assert.True(t, c.Has("tablut"))
	cfg, res := c.Lookup("nope")
	assert.True(t, res.FellBack)
	assert.Equal(t, "mini", cfg.Name)
	assert.Equal(t, SideDefender, cfg.Placements[1].Side)
}

func TestOverrideDirDuplicate(t *testing.T) {
	dir := t.TempDir()
	body := "variants:\n  - name: twin\n    size: 5\n    placements:\n      - [2, 2, defender]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte(body), 0o644))
	_, err := New(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate variant")
}

func TestValidateRejectsBadLayouts(t *testing.T) {
	cases := map[string]Configuration{
		"even":      {Name: "even", BoardSize: 6, Placements: []Placement{{0, 0, SideDefender}}},
		"tiny":      {Name: "tiny", BoardSize: 3, Placements: []Placement{{0, 0, SideDefender}}},
		"offboard":  {Name: "off", BoardSize: 5, Placements: []Placement{{5, 0, SideDefender}}},
		"duplicate": {Name: "dup", BoardSize: 5, Placements: []Placement{{1, 1, SideAttacker}, {1, 1, SideDefender}}},
		"kingless":  {Name: "nk", BoardSize: 5, Placements: []Placement{{1, 1, SideAttacker}}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPlacementYAMLErrors(t *testing.T) {
	_, err := parseFile([]byte("variants:\n  - name: bad\n    size: 5\n    placements:\n      - [1, 2]\n"))
	assert.Error(t, err)
	_, err = parseFile([]byte("variants:\n  - name: bad\n    size: 5\n    placements:\n      - [1, 2, purple]\n"))
	assert.Error(t, err)
}
