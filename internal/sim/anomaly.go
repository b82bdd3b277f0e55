package sim

import (
	"fmt"

	"github.com/doppelganger/rewind/internal/core/ecs"
)

// Rule identifies which consistency check raised an anomaly.
type Rule uint8

const (
	RuleSymmetryBroken Rule = iota + 1
	RuleDiverged
	RuleReactivated
	RuleCountdownMismatch
	RulePresentSelfDestroyed
)

var ruleNames = map[Rule]string{
	RuleSymmetryBroken:       "symmetry_broken",
	RuleDiverged:             "diverged",
	RuleReactivated:          "reactivated",
	RuleCountdownMismatch:    "countdown_mismatch",
	RulePresentSelfDestroyed: "present_self_destroyed",
}

func (r Rule) String() string {
	if n, ok := ruleNames[r]; ok {
		return n
	}
	return "unknown"
}

// Anomaly is the single fault kind of the simulation: the live run
// contradicts what history says must happen. It pauses the controller.
type Anomaly struct {
	Rule     Rule
	Title    string
	Cause    string
	EntityID ecs.EntityID
	Step     int
}

func (a *Anomaly) Error() string {
	return fmt.Sprintf("time anomaly at step %d (entity %d): %s", a.Step, a.EntityID, a.Title)
}

func symmetryBroken(step int, id ecs.EntityID) *Anomaly {
	return &Anomaly{
		Rule:     RuleSymmetryBroken,
		Title:    "Symmetry broken",
		Cause:    "A doppelganger failed to be where history says it must be.",
		EntityID: id,
		Step:     step,
	}
}

func diverged(step int, id ecs.EntityID, dist float64) *Anomaly {
	return &Anomaly{
		Rule:     RuleDiverged,
		Title:    "Doppelganger diverged from its recorded path",
		Cause:    fmt.Sprintf("It drifted %.2f units from where it was.", dist),
		EntityID: id,
		Step:     step,
	}
}

func reactivated(step int, id ecs.EntityID) *Anomaly {
	return &Anomaly{
		Rule:     RuleReactivated,
		Title:    "Doppelganger re-activated an already-active machine",
		Cause:    "The machine was already counting down when it was activated.",
		EntityID: id,
		Step:     step,
	}
}

func countdownMismatch(step int, id ecs.EntityID, recorded, live int) *Anomaly {
	return &Anomaly{
		Rule:     RuleCountdownMismatch,
		Title:    "Doppelganger triggered countdown mismatch",
		Cause:    fmt.Sprintf("History shows %d steps left, the present shows %d.", recorded, live),
		EntityID: id,
		Step:     step,
	}
}

func presentSelfDestroyed(step int, id ecs.EntityID) *Anomaly {
	return &Anomaly{
		Rule:     RulePresentSelfDestroyed,
		Title:    "You were destroyed",
		Cause:    "The present self cannot be lost.",
		EntityID: id,
		Step:     step,
	}
}
