// Package infer resolves partial entities into values. Inference is an
// ordered list of pure passes over one group at a time; each pass returns a
// new group and never modifies its input.
package infer

import (
	"strings"
	"time"

	terrors "github.com/hrygo/whenparse/internal/errors"
	"github.com/hrygo/whenparse/plugin/temporal/entity"
)

// Direction is the policy for choosing between past and future occurrences.
type Direction int

const (
	Next Direction = iota
	Previous
	Nearest
)

func (d Direction) String() string {
	switch d {
	case Previous:
		return "previous"
	case Nearest:
		return "nearest"
	default:
		return "next"
	}
}

// ParseDirection parses "next", "previous" or "nearest".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "next", "future":
		return Next, nil
	case "previous", "prev", "past":
		return Previous, nil
	case "nearest":
		return Nearest, nil
	default:
		return Next, terrors.InvalidConfig("direction must be next, previous or nearest").WithContext("direction", s)
	}
}

// Context is the per-call input shared by all passes.
type Context struct {
	// Now is the reference instant; its location is the reference zone.
	Now       time.Time
	Direction Direction
	// Infer enables defaulting from the reference instant.
	Infer bool
}

// today returns midnight of the reference date.
func (c Context) today() time.Time {
	y, m, d := c.Now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Now.Location())
}

// ExpandYear maps a two-digit year onto 1950-2049.
func ExpandYear(y int) int {
	switch {
	case y < 50:
		return 2000 + y
	case y < 100:
		return 1900 + y
	default:
		return y
	}
}

// clockOn places a partial time on the given day in day's location.
func clockOn(day time.Time, t entity.PartialTime) time.Time {
	h, _ := t.Hour24()
	return time.Date(day.Year(), day.Month(), day.Day(), h,
		t.Minute.Or(0), t.Second.Or(0), t.Millisecond.Or(0)*int(time.Millisecond), day.Location())
}

// setDate writes a concrete calendar date into a partial date.
func setDate(d *entity.PartialDate, t time.Time) {
	d.Year = entity.Some(t.Year())
	d.Month = entity.Some(int(t.Month()))
	d.Day = entity.Some(t.Day())
	d.TwoDigitYear = false
	d.Offset = entity.Opt[int]{}
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// nearest returns the closest index to i satisfying ok, searching in the
// order given by rightFirst, ignoring entities that carry an error.
func nearest(g entity.Group, i int, rightFirst bool, ok func(entity.Entity) bool) (int, bool) {
	match := func(j int) bool {
		return j != i && g.Entities[j].Err == nil && ok(g.Entities[j])
	}
	left := func() (int, bool) {
		for j := i - 1; j >= 0; j-- {
			if match(j) {
				return j, true
			}
		}
		return -1, false
	}
	right := func() (int, bool) {
		for j := i + 1; j < len(g.Entities); j++ {
			if match(j) {
				return j, true
			}
		}
		return -1, false
	}
	if rightFirst {
		if j, found := right(); found {
			return j, true
		}
		return left()
	}
	if j, found := left(); found {
		return j, true
	}
	return right()
}

// syncInherited copies the current date of each source onto the entities
// that inherited it, so a shared date resolves the same way everywhere.
func syncInherited(g *entity.Group) {
	for i := range g.Entities {
		e := &g.Entities[i]
		j, ok := e.DateFrom.Get()
		if !ok || j < 0 || j >= len(g.Entities) {
			continue
		}
		e.Date = g.Entities[j].Date
		e.Date.Source = entity.SourceInherited
	}
}
