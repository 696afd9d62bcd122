// Package perspective turns raw alert events into what a particular viewer
// should see: the side the boss is coming from in the viewer's own seat,
// and whether the alert may make noise.
//
// Each seat faces one of two ways. Boss 1 comes from the left of a
// near-side seat and from the right of a far-side seat; boss 2 is the
// opposite. Senders never put a side in the event. Every receiver derives
// it from the boss direction and both seating flags, so a single rule
// renders the same physical direction for everyone.
package perspective

import (
	"strings"

	"github.com/latestcomment/team-alert/internal/models"
)

// Direction is a side as seen from a seat.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
)

func (d Direction) Mirror() Direction {
	if d == Left {
		return Right
	}
	return Left
}

// Label is the upper-case form shown on the overlay, "LEFT" or "RIGHT".
func (d Direction) Label() string {
	return strings.ToUpper(string(d))
}

// Arrow points from the boss towards the seats.
func (d Direction) Arrow() string {
	if d == Left {
		return "→"
	}
	return "←"
}

// Naive is the side boss comes from for a viewer with the given seating.
func Naive(boss models.BossDirection, flipped bool) Direction {
	d := Left
	if boss == models.Boss2 {
		d = Right
	}
	if flipped {
		d = d.Mirror()
	}
	return d
}

// Resolve returns the side for the viewer. The sender's naive direction is
// mirrored when sender and viewer sit on different sides and kept as is
// when they share a side.
func Resolve(boss models.BossDirection, senderFlipped, viewerFlipped bool) Direction {
	d := Naive(boss, senderFlipped)
	if senderFlipped != viewerFlipped {
		d = d.Mirror()
	}
	return d
}
