package edit

import (
	"fmt"
	"math"

	"midiedit/midi"
)

// Op names a built-in transform
type Op uint8

const (
	OpTranspose Op = iota + 1
	OpRescale
)

func (o Op) String() string {
	switch o {
	case OpTranspose:
		return "transpose"
	case OpRescale:
		return "rescale"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Transform is one of the built-in note transforms. Only the fields of
// its Op are used.
type Transform struct {
	Op     Op
	Delta  int     // transpose: semitones
	Scale  float64 // rescale: factor around Center
	Center int     // rescale
	Offset int     // rescale: added after scaling
}

// TransposeBy shifts pitch by delta semitones, saturating at 0 and 127
func TransposeBy(delta int8) Transform {
	return Transform{Op: OpTranspose, Delta: int(delta)}
}

// RescaleBy maps intensity v to round((v-center)*scale)+offset, saturating.
// Rounding is half away from zero.
func RescaleBy(scale float64, center, offset int8) Transform {
	return Transform{Op: OpRescale, Scale: scale, Center: int(center), Offset: int(offset)}
}

func (t Transform) String() string {
	switch t.Op {
	case OpTranspose:
		return fmt.Sprintf("transpose %+d", t.Delta)
	case OpRescale:
		return fmt.Sprintf("rescale x%g center %d offset %+d", t.Scale, t.Center, t.Offset)
	default:
		return t.Op.String()
	}
}

// Validate rejects transforms that cannot produce a defined result
func (t Transform) Validate() error {
	switch t.Op {
	case OpTranspose:
		return nil
	case OpRescale:
		if math.IsNaN(t.Scale) || math.IsInf(t.Scale, 0) {
			return fmt.Errorf("scale must be finite, got %v", t.Scale)
		}
		return nil
	default:
		return fmt.Errorf("unknown transform %v", t.Op)
	}
}

// Apply maps one (pitch, intensity) pair
func (t Transform) Apply(pitch, intensity uint8) (uint8, uint8) {
	switch t.Op {
	case OpTranspose:
		return clamp7(int(pitch) + t.Delta), intensity
	case OpRescale:
		v := math.Round(float64(int(intensity)-t.Center)*t.Scale) + float64(t.Offset)
		return pitch, clampFloat7(v)
	}
	return pitch, intensity
}

// Mutation is any (pitch, intensity) mapping the engine can apply
type Mutation func(pitch, intensity uint8) (uint8, uint8)

// Mutation returns the transform as a plain function
func (t Transform) Mutation() Mutation {
	return t.Apply
}

func clamp7(v int) uint8 {
	return uint8(min(max(v, 0), int(midi.MaxValue)))
}

func clampFloat7(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v > float64(midi.MaxValue) {
		return midi.MaxValue
	}
	return uint8(v)
}

// Mutate applies f to both boundary events of every span and returns how
// many events actually changed. Tracks are indexed by Span.Track.
// A begin never drops to intensity 0 and an end written as a zero
// intensity note on stays at 0, so no event changes what it means.
func Mutate(tracks []*midi.Track, spans []Span, f Mutation) int {
	changed := 0
	for _, s := range spans {
		events := tracks[s.Track].Events
		for _, i := range [2]int{s.Begin, s.Finish} {
			if setNote(&events[i], f) {
				changed++
			}
		}
	}
	return changed
}

func setNote(e *midi.Event, f Mutation) bool {
	pitch, intensity := f(e.Pitch, e.Intensity)
	pitch = min(pitch, midi.MaxValue)
	intensity = min(intensity, midi.MaxValue)
	switch {
	case e.Kind == midi.KindNoteBegin && e.Intensity > 0:
		intensity = max(intensity, 1)
	case e.Kind == midi.KindNoteBegin || (e.BeginEncoded() && e.Intensity == 0):
		intensity = 0
	}
	if pitch == e.Pitch && intensity == e.Intensity {
		return false
	}
	e.Pitch, e.Intensity = pitch, intensity
	return true
}
