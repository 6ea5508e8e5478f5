package midi

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gitlab.com/gomidi/midi/v2/smf"
)

// KindFormat tags errors caused by a buffer that is not a valid SMF
const KindFormat ftag.Kind = "FORMAT"

// FormatError reports a buffer that is not a valid Standard MIDI File
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return "invalid midi file: " + e.Reason
	}
	return fmt.Sprintf("invalid midi file: %s: %v", e.Reason, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatError(reason string, err error) error {
	return fault.Wrap(&FormatError{Reason: reason, Err: err},
		fmsg.WithDesc(reason, "The file is not a valid Standard MIDI File."),
		ftag.With(KindFormat),
	)
}

// File is a decoded SMF with every track normalized to absolute time.
// The original chunks are kept so untouched tracks encode verbatim.
type File struct {
	Format     uint16
	TimeFormat smf.TimeFormat
	Tracks     []*Track

	smf    *smf.SMF
	raw    []byte
	chunks []chunk
	tail   []byte
}

// Decode parses an SMF buffer
func Decode(data []byte) (*File, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, formatError("decode", err)
	}

	raw := make([]byte, len(data))
	copy(raw, data)

	chunks, tail, err := splitChunks(raw)
	if err != nil {
		return nil, formatError("chunk framing", err)
	}
	if n := len(trackChunks(chunks)); n != len(s.Tracks) {
		return nil, formatError(fmt.Sprintf("%d track chunks but %d tracks decoded", n, len(s.Tracks)), nil)
	}

	f := &File{
		Format:     binary.BigEndian.Uint16(chunks[0].raw[chunkHeaderLen : chunkHeaderLen+2]),
		TimeFormat: s.TimeFormat,
		Tracks:     make([]*Track, len(s.Tracks)),
		smf:        s,
		raw:        raw,
		chunks:     chunks,
		tail:       tail,
	}
	for i, tr := range s.Tracks {
		f.Tracks[i] = Normalize(i, tr)
	}
	return f, nil
}

// Encode writes the file back out. Tracks without modified note events
// are emitted from their original bytes; modified tracks are re-encoded.
func Encode(f *File) ([]byte, error) {
	modified := make([]bool, len(f.Tracks))
	dirty := false
	for i, t := range f.Tracks {
		modified[i] = t.Modified()
		dirty = dirty || modified[i]
	}
	if !dirty {
		out := make([]byte, len(f.raw))
		copy(out, f.raw)
		return out, nil
	}

	tracks := make([]smf.Track, len(f.Tracks))
	for i, t := range f.Tracks {
		tr, err := t.Denormalize()
		if err != nil {
			return nil, formatError("denormalize", err)
		}
		tracks[i] = tr
	}
	f.smf.Tracks = tracks

	var buf bytes.Buffer
	if _, err := f.smf.WriteTo(&buf); err != nil {
		return nil, formatError("encode", err)
	}
	encoded, _, err := splitChunks(buf.Bytes())
	if err != nil {
		return nil, formatError("re-encoded chunk framing", err)
	}
	fresh := trackChunks(encoded)
	if len(fresh) != len(f.Tracks) {
		return nil, formatError(fmt.Sprintf("encoder wrote %d tracks, want %d", len(fresh), len(f.Tracks)), nil)
	}

	var out bytes.Buffer
	out.Grow(len(f.raw))
	idx := 0
	for _, c := range f.chunks {
		if c.typ != trackChunk {
			out.Write(c.raw)
			continue
		}
		if modified[idx] {
			out.Write(fresh[idx].raw)
		} else {
			out.Write(c.raw)
		}
		idx++
	}
	out.Write(f.tail)
	return out.Bytes(), nil
}

// TrackBytes returns the raw MTrk chunk of track i as it would be encoded
func (f *File) TrackBytes(i int) ([]byte, error) {
	data, err := Encode(f)
	if err != nil {
		return nil, err
	}
	chunks, _, err := splitChunks(data)
	if err != nil {
		return nil, formatError("chunk framing", err)
	}
	tracks := trackChunks(chunks)
	if i < 0 || i >= len(tracks) {
		return nil, fmt.Errorf("track %d out of range (%d tracks)", i, len(tracks))
	}
	return tracks[i].raw, nil
}

// Ticks returns the metric resolution, or 0 for SMPTE time codes
func (f *File) Ticks() uint16 {
	if mt, ok := f.TimeFormat.(smf.MetricTicks); ok {
		return uint16(mt)
	}
	return 0
}

// Tempo returns the earliest tempo in the file, 120 bpm if there is none
func (f *File) Tempo() (bpm float64, found bool) {
	bpm = 120
	var at uint64
	for _, t := range f.Tracks {
		for i := range t.Events {
			e := &t.Events[i]
			if found && e.Time >= at {
				break
			}
			var v float64
			if e.Kind == KindOther && e.Message.GetMetaTempo(&v) {
				bpm, at, found = v, e.Time, true
				break
			}
		}
	}
	return bpm, found
}

// Length returns the tick of the last event across all tracks
func (f *File) Length() uint64 {
	var end uint64
	for _, t := range f.Tracks {
		end = max(end, t.End())
	}
	return end
}
