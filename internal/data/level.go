package data

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/doppelganger/rewind/internal/world"
)

// RectEntry is an axis-aligned box in world units, origin top-left.
type RectEntry struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

func (r RectEntry) Rect() world.Rect { return world.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H} }

// PointEntry is a position in world units.
type PointEntry struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p PointEntry) Vec() mgl64.Vec2 { return mgl64.Vec2{p.X, p.Y} }

// EntityEntry places one scene entity.
type EntityEntry struct {
	Kind   string             `yaml:"kind"`
	X      float64            `yaml:"x"`
	Y      float64            `yaml:"y"`
	Params map[string]float64 `yaml:"params"`
}

// Level is one level file.
type Level struct {
	Name     string        `yaml:"name"`
	Next     string        `yaml:"next"` // level unlocked on completion
	Bounds   RectEntry     `yaml:"bounds"`
	Spawn    PointEntry    `yaml:"spawn"`
	Solids   []RectEntry   `yaml:"solids"`
	Exits    []RectEntry   `yaml:"exits"`
	Entities []EntityEntry `yaml:"entities"`
}

// SolidRects returns the static solids as world rects.
func (l *Level) SolidRects() []world.Rect {
	out := make([]world.Rect, len(l.Solids))
	for i, s := range l.Solids {
		out[i] = s.Rect()
	}
	return out
}

// ExitZones returns the exits as the level-exit collaborator.
func (l *Level) ExitZones() world.ExitZones {
	out := make(world.ExitZones, len(l.Exits))
	for i, e := range l.Exits {
		out[i] = e.Rect()
	}
	return out
}

// LoadLevel loads and validates a single level yaml file.
func LoadLevel(path string) (*Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	var lv Level
	if err := yaml.Unmarshal(raw, &lv); err != nil {
		return nil, fmt.Errorf("parse level %s: %w", path, err)
	}
	if lv.Name == "" {
		lv.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := lv.validate(); err != nil {
		return nil, fmt.Errorf("level %s: %w", lv.Name, err)
	}
	return &lv, nil
}

func (l *Level) validate() error {
	if l.Bounds.W <= 0 || l.Bounds.H <= 0 {
		return fmt.Errorf("bounds must have positive size")
	}
	if len(l.Exits) == 0 {
		return fmt.Errorf("no exit zone")
	}
	for i, e := range l.Entities {
		k, err := world.ParseKind(e.Kind)
		if err != nil {
			return fmt.Errorf("entity %d: %w", i, err)
		}
		if k == world.KindPlayer || k == world.KindExplosion {
			return fmt.Errorf("entity %d: %s cannot be placed in a level", i, k)
		}
	}
	return nil
}

// LevelTable holds every level of a directory, keyed by name.
type LevelTable struct {
	levels map[string]*Level
}

// LoadLevelTable loads every .yaml file in dir.
func LoadLevelTable(dir string) (*LevelTable, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read level dir: %w", err)
	}
	t := &LevelTable{levels: make(map[string]*Level, len(entries))}
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		lv, err := LoadLevel(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := t.levels[lv.Name]; dup {
			return nil, fmt.Errorf("duplicate level %q", lv.Name)
		}
		t.levels[lv.Name] = lv
	}
	return t, nil
}

// Get returns the named level, or nil if none.
func (t *LevelTable) Get(name string) *Level {
	return t.levels[name]
}

// Names returns every level name, sorted.
func (t *LevelTable) Names() []string {
	names := make([]string, 0, len(t.levels))
	for n := range t.levels {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Count returns the total number of levels loaded.
func (t *LevelTable) Count() int {
	return len(t.levels)
}
