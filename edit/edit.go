package edit

import (
	"bytes"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/natefinch/atomic"
	"golang.org/x/sync/errgroup"

	"midiedit/midi"
)

// Report describes what an edit did
type Report struct {
	Transform Transform
	Region    Region
	Tracks    int      // tracks in the file
	Spans     int      // closed note spans found
	Selected  int      // spans the region selected
	Changed   int      // boundary events whose bytes changed
	Orphans   []Orphan // note events left unpaired
	Written   bool     // file replaced on disk
}

// Editor runs edits. The zero value is usable.
type Editor struct {
	// Logger receives orphan warnings and progress. Nil uses log.Default().
	Logger *log.Logger

	// Workers bounds how many tracks are paired at once; <= 1 is sequential
	Workers int

	// replace swaps the new contents in at path; nil uses atomic.WriteFile
	replace func(path string, r io.Reader) error
}

var std = &Editor{}

// Transpose shifts the pitch of every note the region selects
func Transpose(path string, delta int8, r Region) (Report, error) {
	return std.Transpose(path, delta, r)
}

// RescaleIntensity rescales the velocity of every note the region selects.
// On disk a note begin never drops below 1 and a zero-velocity note-on end
// stays 0, so written values can differ from the formula at those edges.
func RescaleIntensity(path string, scale float64, center, offset int8, r Region) (Report, error) {
	return std.RescaleIntensity(path, scale, center, offset, r)
}

// ApplyBytes runs an edit on an in-memory SMF buffer
func ApplyBytes(data []byte, t Transform, r Region) ([]byte, Report, error) {
	return std.ApplyBytes(data, t, r)
}

func (e *Editor) Transpose(path string, delta int8, r Region) (Report, error) {
	return e.Apply(path, TransposeBy(delta), r)
}

// RescaleIntensity is the Editor form of the package function, with the
// same begin >= 1 and zero-velocity end exceptions to the formula.
func (e *Editor) RescaleIntensity(path string, scale float64, center, offset int8, r Region) (Report, error) {
	return e.Apply(path, RescaleBy(scale, center, offset), r)
}

func (e *Editor) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

// Apply edits the file at path in place. The file is replaced atomically
// and only when some event changed; on any error it is left untouched.
func (e *Editor) Apply(path string, t Transform, r Region) (Report, error) {
	op := t.Op.String()
	if err := t.Validate(); err != nil {
		return Report{Transform: t, Region: r}, &EditError{Op: op, Path: path, Err: invalid(err)}
	}

	info, err := os.Stat(path)
	if err != nil {
		return Report{Transform: t, Region: r}, &EditError{Op: op, Path: path, Err: ioError("stat", path, err)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{Transform: t, Region: r}, &EditError{Op: op, Path: path, Err: ioError("read", path, err)}
	}

	out, rep, err := e.ApplyBytes(data, t, r)
	if err != nil {
		if ee, ok := err.(*EditError); ok {
			ee.Path = path
		}
		return rep, err
	}
	if rep.Changed == 0 {
		e.logger().Info("nothing to write", "path", path, "selected", rep.Selected)
		return rep, nil
	}

	replace := e.replace
	if replace == nil {
		replace = atomic.WriteFile
	}
	if err := replace(path, bytes.NewReader(out)); err != nil {
		return rep, &EditError{Op: op, Path: path, Err: ioError("write", path, err)}
	}
	// atomic.WriteFile keeps the mode of an existing file on most
	// platforms; make sure of it
	if err := os.Chmod(path, info.Mode().Perm()); err != nil {
		e.logger().Warn("could not restore file mode", "path", path, "err", err)
	}
	rep.Written = true
	e.logger().Info("wrote", "path", path, "transform", t, "changed", rep.Changed)
	return rep, nil
}

// ApplyBytes runs an edit on an in-memory SMF buffer and returns the
// re-encoded buffer. With nothing changed the output equals data.
func (e *Editor) ApplyBytes(data []byte, t Transform, r Region) ([]byte, Report, error) {
	rep := Report{Transform: t, Region: r}
	op := t.Op.String()
	if err := t.Validate(); err != nil {
		return nil, rep, &EditError{Op: op, Err: invalid(err)}
	}

	f, err := midi.Decode(data)
	if err != nil {
		return nil, rep, &EditError{Op: op, Err: err}
	}
	rep.Tracks = len(f.Tracks)
	for _, tr := range r.Tracks {
		if tr < 0 || tr >= len(f.Tracks) {
			e.logger().Warn("region names a track the file does not have", "track", tr, "tracks", len(f.Tracks))
		}
	}

	spans, orphans := e.PairFile(f)
	rep.Spans = len(spans)
	rep.Orphans = orphans
	e.warnOrphans(orphans)

	selected := Select(spans, r)
	rep.Selected = len(selected)
	rep.Changed = Mutate(f.Tracks, selected, t.Mutation())

	out, err := midi.Encode(f)
	if err != nil {
		return nil, rep, &EditError{Op: op, Err: err}
	}
	e.logger().Debug("edit", "transform", t, "region", r, "spans", rep.Spans, "selected", rep.Selected, "changed", rep.Changed)
	return out, rep, nil
}

// PairFile pairs every track of f. Spans come back grouped by track in
// track order whatever the worker count.
func (e *Editor) PairFile(f *midi.File) ([]Span, []Orphan) {
	spans := make([][]Span, len(f.Tracks))
	orphans := make([][]Orphan, len(f.Tracks))

	var g errgroup.Group
	g.SetLimit(max(e.Workers, 1))
	for i, t := range f.Tracks {
		g.Go(func() error {
			spans[i], orphans[i] = Pair(t)
			return nil
		})
	}
	g.Wait()

	var allSpans []Span
	var allOrphans []Orphan
	for i := range f.Tracks {
		allSpans = append(allSpans, spans[i]...)
		allOrphans = append(allOrphans, orphans[i]...)
	}
	return allSpans, allOrphans
}

func (e *Editor) warnOrphans(orphans []Orphan) {
	for _, o := range orphans {
		e.logger().Warn("unpaired note dropped", "track", o.Track, "pitch", o.Pitch, "tick", o.Time, "reason", o.Reason)
	}
}
