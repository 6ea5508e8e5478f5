package edit

import (
	"fmt"
	"slices"
	"strings"
)

// Region selects tracks and a tick window. An empty track list means
// every track; a nil bound leaves that side of the window open.
type Region struct {
	Tracks []int
	Start  *uint64
	End    *uint64
}

// Tick returns a pointer to v, for filling Region bounds
func Tick(v uint64) *uint64 {
	return &v
}

// All selects every note in the file
func All() Region {
	return Region{}
}

// HasTrack reports whether a track is eligible
func (r Region) HasTrack(track int) bool {
	return len(r.Tracks) == 0 || slices.Contains(r.Tracks, track)
}

// Overlaps reports whether a span intersects the window. A span that only
// touches a bound (ends exactly at Start or starts exactly at End) does not.
func (r Region) Overlaps(s Span) bool {
	if r.Start != nil && !(s.End > *r.Start) {
		return false
	}
	if r.End != nil && !(s.Start < *r.End) {
		return false
	}
	return true
}

// Selects combines the track and window tests
func (r Region) Selects(s Span) bool {
	return r.HasTrack(s.Track) && r.Overlaps(s)
}

func (r Region) String() string {
	tracks := "all"
	if len(r.Tracks) > 0 {
		parts := make([]string, len(r.Tracks))
		for i, t := range r.Tracks {
			parts[i] = fmt.Sprint(t)
		}
		tracks = strings.Join(parts, ",")
	}
	start, end := "-", "-"
	if r.Start != nil {
		start = fmt.Sprint(*r.Start)
	}
	if r.End != nil {
		end = fmt.Sprint(*r.End)
	}
	return fmt.Sprintf("tracks=%s ticks=[%s,%s]", tracks, start, end)
}

// Select keeps the spans the region selects. Input spans are grouped by
// track in track order; the output keeps that grouping and order.
func Select(spans []Span, r Region) []Span {
	var out []Span
	for _, s := range spans {
		if !r.HasTrack(s.Track) {
			continue
		}
		if r.Overlaps(s) {
			out = append(out, s)
		}
	}
	return out
}
