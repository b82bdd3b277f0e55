package system

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrHalt stops the remaining phases of a step without reporting a failure.
var ErrHalt = errors.New("halt step")

// Runner executes systems in phase order each step.
type Runner struct {
	systems []System
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every system once. The first error stops the step; ErrHalt is
// swallowed and reported through the halted return value.
func (r *Runner) Tick(dt time.Duration) (halted bool, err error) {
	r.ensureSorted()
	for _, s := range r.systems {
		if err := s.Update(dt); err != nil {
			if errors.Is(err, ErrHalt) {
				return true, nil
			}
			return false, fmt.Errorf("phase %s: %w", s.Phase(), err)
		}
	}
	return false, nil
}

// TickPhase runs only the systems registered for phase. Rewind frames and
// respawns use it to re-sync physics without running game logic.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) error {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			if err := s.Update(dt); err != nil {
				return fmt.Errorf("phase %s: %w", phase, err)
			}
		}
	}
	return nil
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
