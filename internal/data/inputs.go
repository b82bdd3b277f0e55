package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/doppelganger/rewind/internal/world"
)

// InputSegment holds one input for a run of steps. Grab and Activate are
// presses: they fire on the first step of the segment only.
type InputSegment struct {
	Steps    int     `yaml:"steps"`
	X        float64 `yaml:"x"`
	Jump     bool    `yaml:"jump"`
	Grab     bool    `yaml:"grab"`
	Activate bool    `yaml:"activate"`
}

// InputScript drives the live player in headless runs.
type InputScript struct {
	segments []InputSegment
	starts   []int
	total    int
}

func NewInputScript(segments []InputSegment) (*InputScript, error) {
	s := &InputScript{
		segments: segments,
		starts:   make([]int, len(segments)),
	}
	for i, seg := range segments {
		if seg.Steps <= 0 {
			return nil, fmt.Errorf("segment %d: steps must be positive", i)
		}
		if seg.X < -1 || seg.X > 1 {
			return nil, fmt.Errorf("segment %d: x must be within [-1, 1]", i)
		}
		s.starts[i] = s.total
		s.total += seg.Steps
	}
	return s, nil
}

// LoadInputScript loads an input script yaml file.
func LoadInputScript(path string) (*InputScript, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input script: %w", err)
	}
	var segs []InputSegment
	if err := yaml.Unmarshal(raw, &segs); err != nil {
		return nil, fmt.Errorf("parse input script: %w", err)
	}
	s, err := NewInputScript(segs)
	if err != nil {
		return nil, fmt.Errorf("input script %s: %w", path, err)
	}
	return s, nil
}

// Len returns the number of steps the script covers.
func (s *InputScript) Len() int { return s.total }

// At returns the input for the n-th live step. Past the end it is idle.
func (s *InputScript) At(n int) world.Input {
	for i, seg := range s.segments {
		start := s.starts[i]
		if n < start || n >= start+seg.Steps {
			continue
		}
		first := n == start
		return world.Input{
			X:        seg.X,
			Jump:     seg.Jump,
			Grab:     seg.Grab && first,
			Activate: seg.Activate && first,
		}
	}
	return world.Input{}
}
