package perspective

import (
	"fmt"
	"strings"
)

// Side is which way a seat faces.
type Side string

const (
	NearSide Side = "near"
	FarSide  Side = "far"
)

// Seating maps identities to their side. Identities that are not listed
// sit on the near side.
type Seating map[string]Side

// IsFlipped reports whether identity sits on the far side.
func (s Seating) IsFlipped(identity string) bool {
	return s[strings.TrimSpace(identity)] == FarSide
}

// Validate rejects sides other than near and far.
func (s Seating) Validate() error {
	for identity, side := range s {
		if side != NearSide && side != FarSide {
			return fmt.Errorf("seating for %q: unknown side %q (want %q or %q)", identity, side, NearSide, FarSide)
		}
	}
	return nil
}

// FarSideSeating builds a seating map placing every listed identity on
// the far side.
func FarSideSeating(identities ...string) Seating {
	s := make(Seating, len(identities))
	for _, id := range identities {
		s[strings.TrimSpace(id)] = FarSide
	}
	return s
}
