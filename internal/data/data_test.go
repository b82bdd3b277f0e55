package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/doppelganger/rewind/internal/world"
)

const testLevel = `
name: t1
next: t2
bounds: { x: 0, y: 0, w: 20, h: 10 }
spawn: { x: 1, y: 7 }
solids:
  - { x: 0, y: 9, w: 20, h: 1 }
exits:
  - { x: 18, y: 6, w: 1, h: 3 }
entities:
  - kind: time_machine
    x: 4
    y: 6.6
    params: { countdown_steps: 30 }
  - kind: crate
    x: 8
    y: 8
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadLevel(t *testing.T) {
	p := writeFile(t, t.TempDir(), "t1.yaml", testLevel)
	lv, err := LoadLevel(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lv.Name != "t1" || lv.Next != "t2" {
		t.Fatalf("expected t1 -> t2, got %s -> %s", lv.Name, lv.Next)
	}
	if len(lv.Entities) != 2 || lv.Entities[0].Params["countdown_steps"] != 30 {
		t.Fatalf("unexpected entities %+v", lv.Entities)
	}
	if !lv.ExitZones()[0].Overlaps(world.Rect{X: 17.5, Y: 7, W: 1, H: 1}) {
		t.Fatalf("expected exit zone to convert to a world rect")
	}
	if got := lv.Spawn.Vec(); got.X() != 1 || got.Y() != 7 {
		t.Fatalf("expected spawn (1,7), got %v", got)
	}
}

func TestLoadLevelRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"unknown kind": "bounds: {w: 1, h: 1}\nexits: [{w: 1, h: 1}]\nentities: [{kind: dragon}]\n",
		"no exit":      "bounds: {w: 1, h: 1}\n",
		"no bounds":    "exits: [{w: 1, h: 1}]\n",
		"player":       "bounds: {w: 1, h: 1}\nexits: [{w: 1, h: 1}]\nentities: [{kind: player}]\n",
	}
	dir := t.TempDir()
	for name, body := range cases {
		p := writeFile(t, dir, "bad.yaml", body)
		if _, err := LoadLevel(p); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadLevelTableNamesFromFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "t1.yaml", testLevel)
	writeFile(t, dir, "untitled.yaml", "bounds: {w: 5, h: 5}\nexits: [{w: 1, h: 1}]\n")
	writeFile(t, dir, "notes.txt", "ignored")
	tbl, err := LoadLevelTable(dir)
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	if tbl.Count() != 2 || tbl.Get("untitled") == nil {
		t.Fatalf("expected t1 and untitled, got %v", tbl.Names())
	}
}

func TestInputScript(t *testing.T) {
	p := writeFile(t, t.TempDir(), "in.yaml", `
- { steps: 3, x: 1 }
- { steps: 2, grab: true, jump: true }
`)
	s, err := LoadInputScript(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 5 {
		t.Fatalf("expected 5 steps, got %d", s.Len())
	}
	if in := s.At(2); in.X != 1 || in.Jump {
		t.Fatalf("expected walking right at step 2, got %+v", in)
	}
	if in := s.At(3); !in.Grab || !in.Jump {
		t.Fatalf("expected grab press on segment start, got %+v", in)
	}
	if in := s.At(4); in.Grab || !in.Jump {
		t.Fatalf("expected grab released but jump held, got %+v", in)
	}
	if in := s.At(99); in != (world.Input{}) {
		t.Fatalf("expected idle past the end, got %+v", in)
	}
}

func TestInputScriptValidation(t *testing.T) {
	if _, err := NewInputScript([]InputSegment{{Steps: 0}}); err == nil {
		t.Fatalf("expected error for empty segment")
	}
	if _, err := NewInputScript([]InputSegment{{Steps: 1, X: 2}}); err == nil {
		t.Fatalf("expected error for out of range x")
	}
}

func TestShippedLevelsLoad(t *testing.T) {
	tbl, err := LoadLevelTable(filepath.Join("..", "..", "data", "levels"))
	if err != nil {
		t.Fatalf("load shipped levels: %v", err)
	}
	for _, name := range tbl.Names() {
		lv := tbl.Get(name)
		if lv.Next != "" && tbl.Get(lv.Next) == nil {
			t.Fatalf("level %s unlocks missing level %s", name, lv.Next)
		}
	}
}
