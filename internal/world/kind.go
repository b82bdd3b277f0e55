package world

import "fmt"

// Kind is the closed set of entity variants the simulation knows about.
type Kind uint8

const (
	KindPlayer Kind = iota + 1
	KindCrate
	KindExplosive
	KindExplosion
	KindGuard
	KindMachine
)

var kindNames = map[Kind]string{
	KindPlayer:    "player",
	KindCrate:     "crate",
	KindExplosive: "explosive",
	KindExplosion: "explosion",
	KindGuard:     "guard",
	KindMachine:   "time_machine",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindPlayer, KindCrate, KindExplosive, KindExplosion, KindGuard, KindMachine}
}

// ParseKind maps a level-file name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown entity kind %q", s)
}
