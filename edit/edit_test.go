package edit

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"
	"github.com/charmbracelet/log"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"midiedit/midi"
)

func quiet() *Editor {
	return &Editor{Logger: log.New(io.Discard)}
}

func fixture(t *testing.T) []byte {
	t.Helper()

	var lead smf.Track
	lead.Add(0, smf.MetaTrackSequenceName("lead"))
	lead.Add(0, gomidi.NoteOn(0, 60, 100)) // 0
	lead.Add(96, gomidi.NoteOff(0, 60))    // 96
	lead.Add(0, gomidi.NoteOn(0, 64, 90))  // 96
	lead.Add(96, gomidi.NoteOn(0, 64, 0))  // 192
	lead.Add(0, gomidi.NoteOn(0, 67, 80))  // 192
	lead.Add(192, gomidi.NoteOff(0, 67))   // 384
	lead.Add(0, gomidi.NoteOff(0, 71))     // dangling
	lead.Close(0)

	var bass smf.Track
	bass.Add(0, gomidi.NoteOn(1, 36, 110))
	bass.Add(0, gomidi.Pitchbend(1, 100))
	bass.Add(384, gomidi.NoteOff(1, 36))
	bass.Close(0)

	s := smf.NewSMF1()
	s.TimeFormat = smf.MetricTicks(96)
	s.Add(lead)
	s.Add(bass)
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return buf.Bytes()
}

func pitches(t *testing.T, data []byte, track int) []uint8 {
	t.Helper()
	f, err := midi.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var out []uint8
	for _, e := range f.Tracks[track].Events {
		if e.IsNote() {
			out = append(out, e.Pitch)
		}
	}
	return out
}

func trackBytes(t *testing.T, data []byte, track int) []byte {
	t.Helper()
	f, err := midi.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b, err := f.TrackBytes(track)
	if err != nil {
		t.Fatalf("track bytes: %v", err)
	}
	return b
}

func equalPitches(a, b []uint8) bool {
	return bytes.Equal(a, b)
}

func TestApplyBytesNoopIsIdentical(t *testing.T) {
	data := fixture(t)
	out, rep, err := quiet().ApplyBytes(data, TransposeBy(0), All())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("no-op transform changed the file")
	}
	if rep.Changed != 0 {
		t.Errorf("expected 0 changed events, got %d", rep.Changed)
	}
	if rep.Spans != 4 || rep.Selected != 4 {
		t.Errorf("expected 4 spans all selected, got %d/%d", rep.Selected, rep.Spans)
	}
}

func TestApplyBytesReportsOrphans(t *testing.T) {
	_, rep, err := quiet().ApplyBytes(fixture(t), TransposeBy(1), All())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(rep.Orphans) != 1 {
		t.Fatalf("expected 1 orphan, got %+v", rep.Orphans)
	}
	if o := rep.Orphans[0]; o.Reason != DanglingEnd || o.Pitch != 71 || o.Track != 0 {
		t.Errorf("unexpected orphan %+v", o)
	}
}

func TestApplyBytesTrackIsolation(t *testing.T) {
	data := fixture(t)
	out, rep, err := quiet().ApplyBytes(data, TransposeBy(12), Region{Tracks: []int{0}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if rep.Changed != 6 {
		t.Errorf("expected 6 changed events, got %d", rep.Changed)
	}
	if !bytes.Equal(trackBytes(t, out, 1), trackBytes(t, data, 1)) {
		t.Errorf("track 1 bytes changed")
	}
	got := pitches(t, out, 0)
	want := []uint8{72, 72, 76, 76, 79, 79, 71}
	if !equalPitches(got, want) {
		t.Errorf("expected pitches %v, got %v", want, got)
	}
}

func TestApplyBytesWindowSelectsOverlap(t *testing.T) {
	// window [100,150] overlaps only the 96..192 note
	out, rep, err := quiet().ApplyBytes(fixture(t), TransposeBy(-2), Region{Start: Tick(100), End: Tick(150)})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if rep.Selected != 2 {
		t.Errorf("expected the pitch 64 note and the bass note, got %d", rep.Selected)
	}
	if got, want := pitches(t, out, 0), []uint8{60, 60, 62, 62, 67, 67, 71}; !equalPitches(got, want) {
		t.Errorf("track 0: expected %v, got %v", want, got)
	}
	if got, want := pitches(t, out, 1), []uint8{34, 34}; !equalPitches(got, want) {
		t.Errorf("track 1: expected %v, got %v", want, got)
	}
}

func TestApplyBytesNoteClosingAfterWindow(t *testing.T) {
	// the 67 note starts at 192 and ends at 384; a window ending at 200
	// must still see its end to transform both sides
	out, _, err := quiet().ApplyBytes(fixture(t), TransposeBy(1), Region{Tracks: []int{0}, Start: Tick(193), End: Tick(200)})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got, want := pitches(t, out, 0), []uint8{60, 60, 64, 64, 68, 68, 71}; !equalPitches(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestApplyBytesRescale(t *testing.T) {
	out, _, err := quiet().ApplyBytes(fixture(t), RescaleBy(0.5, 64, 64), Region{Tracks: []int{1}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	f, err := midi.Decode(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 110 -> round(23) + 64 = 87; note off velocity 0 -> round(-32)+64 = 32
	if v := f.Tracks[1].Events[0].Intensity; v != 87 {
		t.Errorf("expected begin velocity 87, got %d", v)
	}
	last := f.Tracks[1].Events[2]
	if last.Kind != midi.KindNoteEnd || last.Intensity != 32 {
		t.Errorf("expected note off velocity 32, got %v %d", last.Kind, last.Intensity)
	}
}

func TestParallelPairingMatchesSequential(t *testing.T) {
	data := fixture(t)
	seq, _, err := quiet().ApplyBytes(data, TransposeBy(5), All())
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	par := quiet()
	par.Workers = 4
	got, _, err := par.ApplyBytes(data, TransposeBy(5), All())
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	if !bytes.Equal(seq, got) {
		t.Fatalf("parallel output differs")
	}
}

func writeFixture(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.mid")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestTransposeFile(t *testing.T) {
	data := fixture(t)
	path := writeFixture(t, data)

	rep, err := quiet().Transpose(path, 125, Region{Tracks: []int{0}})
	if err != nil {
		t.Fatalf("transpose: %v", err)
	}
	if !rep.Written {
		t.Fatalf("expected the file to be written")
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if p := pitches(t, got, 0); !equalPitches(p, []uint8{127, 127, 127, 127, 127, 127, 71}) {
		t.Errorf("expected saturated pitches, got %v", p)
	}
}

func TestRescaleIntensityFileNoop(t *testing.T) {
	data := fixture(t)
	path := writeFixture(t, data)

	rep, err := quiet().RescaleIntensity(path, 1, 64, 64, All())
	if err != nil {
		t.Fatalf("rescale: %v", err)
	}
	if rep.Written {
		t.Errorf("identity rescale should not rewrite the file")
	}
	got, _ := os.ReadFile(path)
	if !bytes.Equal(got, data) {
		t.Errorf("file changed")
	}
}

func TestMissingFileIsIOError(t *testing.T) {
	_, err := quiet().Transpose(filepath.Join(t.TempDir(), "nope.mid"), 1, All())
	if err == nil {
		t.Fatalf("expected error")
	}
	var ee *EditError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EditError, got %T", err)
	}
	if !IsIO(err) {
		t.Errorf("expected IOError in chain: %v", err)
	}
	if k := ftag.Get(err); k != ftag.NotFound {
		t.Errorf("expected kind %s, got %s", ftag.NotFound, k)
	}
}

func TestInvalidFileLeftUntouched(t *testing.T) {
	junk := []byte("MThd but not really a midi file at all")
	path := writeFixture(t, junk)

	_, err := quiet().Transpose(path, 3, All())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsFormat(err) {
		t.Errorf("expected FormatError in chain: %v", err)
	}
	var ee *EditError
	if !errors.As(err, &ee) || ee.Path != path {
		t.Errorf("expected EditError carrying the path, got %v", err)
	}
	got, _ := os.ReadFile(path)
	if !bytes.Equal(got, junk) {
		t.Errorf("file changed after failed edit")
	}
}

func TestFailedWriteLeavesOriginal(t *testing.T) {
	data := fixture(t)
	path := writeFixture(t, data)
	if err := os.Chmod(path, 0o640); err != nil {
		t.Fatal(err)
	}

	ed := quiet()
	ed.replace = func(string, io.Reader) error {
		return &os.PathError{Op: "rename", Path: path, Err: fs.ErrPermission}
	}
	rep, err := ed.Transpose(path, 3, All())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsIO(err) {
		t.Errorf("expected IOError in chain: %v", err)
	}
	if k := ftag.Get(err); k != ftag.PermissionDenied {
		t.Errorf("expected kind %s, got %s", ftag.PermissionDenied, k)
	}
	if rep.Written || rep.Changed == 0 {
		t.Errorf("expected a computed but unwritten edit, got %+v", rep)
	}

	got, _ := os.ReadFile(path)
	if !bytes.Equal(got, data) {
		t.Errorf("file changed after failed write")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode changed to %v", info.Mode().Perm())
	}
}

func TestReadOnlyDirLeavesOriginal(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	data := fixture(t)
	path := writeFixture(t, data)
	dir := filepath.Dir(path)
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	_, err := quiet().Transpose(path, 3, All())
	if err == nil {
		t.Fatalf("expected error writing into a read-only directory")
	}
	if !IsIO(err) {
		t.Errorf("expected IOError in chain: %v", err)
	}

	got, _ := os.ReadFile(path)
	if !bytes.Equal(got, data) {
		t.Errorf("file changed after failed write")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("mode changed to %v", info.Mode().Perm())
	}
}

func TestNonFiniteScaleRejected(t *testing.T) {
	data := fixture(t)
	path := writeFixture(t, data)

	_, err := quiet().RescaleIntensity(path, math.NaN(), 64, 0, All())
	if err == nil {
		t.Fatalf("expected error")
	}
	if k := ftag.Get(err); k != ftag.InvalidArgument {
		t.Errorf("expected kind %s, got %s", ftag.InvalidArgument, k)
	}
	got, _ := os.ReadFile(path)
	if !bytes.Equal(got, data) {
		t.Errorf("file changed after failed edit")
	}
}

func TestRescaleToZeroKeepsBeginsSounding(t *testing.T) {
	path := writeFixture(t, fixture(t))
	tr := RescaleBy(0, 0, 0)
	if _, v := tr.Apply(60, 100); v != 0 {
		t.Fatalf("formula should give 0, got %d", v)
	}

	if _, err := quiet().RescaleIntensity(path, 0, 0, 0, Region{Tracks: []int{0}}); err != nil {
		t.Fatalf("rescale: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := midi.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i, e := range f.Tracks[0].Events {
		if !e.IsNote() {
			continue
		}
		switch {
		case e.Kind == midi.KindNoteBegin && !e.Closes():
			if e.Intensity != 1 {
				t.Errorf("event %d: begin written as %d, want 1", i, e.Intensity)
			}
		case e.BeginEncoded():
			if e.Intensity != 0 {
				t.Errorf("event %d: zero velocity end written as %d, want 0", i, e.Intensity)
			}
		}
	}
}
