package edit

import (
	"cmp"
	"slices"

	"midiedit/midi"
)

// Span is one sounding note, closed by its end event.
// Begin and Finish index the boundary events in the track.
type Span struct {
	Track          int
	Pitch          uint8
	Start          uint64
	StartIntensity uint8
	End            uint64
	EndIntensity   uint8
	Begin          int
	Finish         int
}

// OrphanReason says why a note event was left out of span construction
type OrphanReason uint8

const (
	DanglingEnd  OrphanReason = iota + 1 // end with no open begin of its pitch
	Unterminated                         // begin still open at end of track
)

func (r OrphanReason) String() string {
	switch r {
	case DanglingEnd:
		return "dangling end"
	case Unterminated:
		return "unterminated begin"
	default:
		return "unknown"
	}
}

// Orphan is a note event that could not be paired
type Orphan struct {
	Track  int
	Event  int
	Time   uint64
	Pitch  uint8
	Reason OrphanReason
}

// Pair reconciles note begins and ends of one track into closed spans,
// in the order their closing events occur. Each pitch has its own stack
// so a retriggered pitch closes its most recent begin first.
// The whole track is always scanned.
func Pair(t *midi.Track) ([]Span, []Orphan) {
	var open [128][]int
	var spans []Span
	var orphans []Orphan

	for i := range t.Events {
		e := &t.Events[i]
		if !e.IsNote() {
			continue
		}
		p := e.Pitch & 0x7F

		if !e.Closes() {
			open[p] = append(open[p], i)
			continue
		}

		stack := open[p]
		if len(stack) == 0 {
			orphans = append(orphans, Orphan{Track: t.Index, Event: i, Time: e.Time, Pitch: p, Reason: DanglingEnd})
			continue
		}
		b := stack[len(stack)-1]
		open[p] = stack[:len(stack)-1]

		begin := &t.Events[b]
		spans = append(spans, Span{
			Track:          t.Index,
			Pitch:          p,
			Start:          begin.Time,
			StartIntensity: begin.Intensity,
			End:            e.Time,
			EndIntensity:   e.Intensity,
			Begin:          b,
			Finish:         i,
		})
	}

	var left []Orphan
	for p := range open {
		for _, b := range open[p] {
			left = append(left, Orphan{Track: t.Index, Event: b, Time: t.Events[b].Time, Pitch: uint8(p), Reason: Unterminated})
		}
	}
	slices.SortFunc(left, func(a, b Orphan) int { return cmp.Compare(a.Event, b.Event) })
	return spans, append(orphans, left...)
}
