package system

import "time"

// Phase defines execution ordering within a single simulation step.
type Phase int

const (
	PhaseLoad           Phase = iota // 0: restore recorded state for this step
	PhasePhysics                     // 1: advance the physics collaborator
	PhaseMerge                       // 2: fold dual phases on return to the present
	PhaseExit                        // 3: level-exit check
	PhaseEvents                      // 4: execute events due this step
	PhaseUpdate                      // 5: entity logic
	PhaseInteract                    // 6: live activation intent
	PhaseValidateBefore              // 7: pre-save anomaly checks
	PhaseSave                        // 8: write time slices, release destroyed
	PhaseValidateAfter               // 9: post-save anomaly checks
	PhaseAdvance                     // 10: move the cursor
)

var phaseNames = [...]string{
	"load", "physics", "merge", "exit", "events", "update",
	"interact", "validate-before", "save", "validate-after", "advance",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// System is one phase of the step. A non-nil error aborts the step.
type System interface {
	Phase() Phase
	Update(dt time.Duration) error
}
