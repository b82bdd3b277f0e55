package event

import "github.com/doppelganger/rewind/internal/core/ecs"

// Type names a discrete, replayable action.
type Type uint8

const (
	TypeNone Type = iota
	TypeGrab
	TypeDrop
	TypeExplode
	TypeShoot
	TypeActivateMachine
	TypeTimeTravel
)

var typeNames = [...]string{
	TypeNone:            "none",
	TypeGrab:            "grab",
	TypeDrop:            "drop",
	TypeExplode:         "explode",
	TypeShoot:           "shoot",
	TypeActivateMachine: "activate-time-machine",
	TypeTimeTravel:      "time-travel",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// Event is one recorded action. Source performed it on Target; Aux carries
// type-specific data (e.g. the fuse length of an armed explosive).
type Event struct {
	Source ecs.EntityID
	Type   Type
	Target ecs.EntityID
	Aux    int
}

// Same reports whether two events describe the same action, ignoring Aux.
func (e Event) Same(o Event) bool {
	return e.Source == o.Source && e.Type == o.Type && e.Target == o.Target
}
