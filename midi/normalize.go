package midi

import (
	"fmt"
	"math"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Track is one track of a file with events in absolute time.
// The engine never adds, drops or reorders events.
type Track struct {
	Index  int
	Events []Event
}

// Normalize converts a delta-timed track into absolute ticks
func Normalize(index int, tr smf.Track) *Track {
	t := &Track{
		Index:  index,
		Events: make([]Event, len(tr)),
	}
	var now uint64
	for i, ev := range tr {
		now += uint64(ev.Delta)
		e := classify(ev.Message)
		e.Time = now
		t.Events[i] = e
	}
	return t
}

// Denormalize rebuilds the delta-timed track, writing any changed note
// fields back into their messages.
func (t *Track) Denormalize() (smf.Track, error) {
	out := make(smf.Track, len(t.Events))
	var prev uint64
	for i := range t.Events {
		e := &t.Events[i]
		if e.Time < prev {
			return nil, fmt.Errorf("track %d: event %d at tick %d precedes tick %d", t.Index, i, e.Time, prev)
		}
		delta := e.Time - prev
		if delta > math.MaxUint32 {
			return nil, fmt.Errorf("track %d: event %d delta %d overflows", t.Index, i, delta)
		}
		out[i] = smf.Event{Delta: uint32(delta), Message: e.encoded()}
		prev = e.Time
	}
	return out, nil
}

// Modified reports whether any note event changed since decoding
func (t *Track) Modified() bool {
	for i := range t.Events {
		if t.Events[i].Modified() {
			return true
		}
	}
	return false
}

// End returns the tick of the last event
func (t *Track) End() uint64 {
	if len(t.Events) == 0 {
		return 0
	}
	return t.Events[len(t.Events)-1].Time
}

// Name returns the first track name meta event, if any
func (t *Track) Name() string {
	var name string
	for i := range t.Events {
		if t.Events[i].Kind != KindOther {
			continue
		}
		if t.Events[i].Message.GetMetaTrackName(&name) {
			return name
		}
	}
	return ""
}
