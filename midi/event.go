package midi

import (
	"gitlab.com/gomidi/midi/v2/smf"
)

// NoteOn is the status nibble of a channel note on message
const NoteOn uint8 = 0x90

// MaxValue is the largest 7-bit data value (pitch, velocity)
const MaxValue uint8 = 127

// Kind tags what the engine may do with an event
type Kind uint8

const (
	KindOther     Kind = iota // controller, meta, sysex... never touched
	KindNoteBegin             // note on (intensity 0 means end)
	KindNoteEnd               // note off
)

func (k Kind) String() string {
	switch k {
	case KindNoteBegin:
		return "note-begin"
	case KindNoteEnd:
		return "note-end"
	default:
		return "other"
	}
}

// Event is a track event carrying an absolute tick time.
// Pitch and Intensity are only meaningful for note kinds; for those,
// writing them back into Message is done by Track.Denormalize.
type Event struct {
	Time      uint64
	Kind      Kind
	Channel   uint8
	Pitch     uint8
	Intensity uint8
	Message   smf.Message
}

// IsNote reports whether the event is a note begin or note end
func (e *Event) IsNote() bool {
	return e.Kind == KindNoteBegin || e.Kind == KindNoteEnd
}

// Closes reports whether the event ends a sounding note
func (e *Event) Closes() bool {
	return e.Kind == KindNoteEnd || (e.Kind == KindNoteBegin && e.Intensity == 0)
}

// BeginEncoded reports whether the stored message is a note on,
// whatever its velocity.
func (e *Event) BeginEncoded() bool {
	return len(e.Message) == 3 && e.Message[0]&0xF0 == NoteOn
}

// Modified reports whether Pitch or Intensity differ from the stored message
func (e *Event) Modified() bool {
	if !e.IsNote() || len(e.Message) != 3 {
		return false
	}
	return e.Message[1] != e.Pitch || e.Message[2] != e.Intensity
}

// classify extracts the note fields of a message
func classify(msg smf.Message) Event {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		return Event{Kind: KindNoteBegin, Channel: ch, Pitch: key, Intensity: vel, Message: msg}
	case msg.GetNoteOff(&ch, &key, &vel):
		return Event{Kind: KindNoteEnd, Channel: ch, Pitch: key, Intensity: vel, Message: msg}
	}
	return Event{Kind: KindOther, Message: msg}
}

// encoded returns the message with the note fields written back.
// Untouched events return the original slice.
func (e *Event) encoded() smf.Message {
	if !e.Modified() {
		return e.Message
	}
	msg := make(smf.Message, len(e.Message))
	copy(msg, e.Message)
	msg[1] = e.Pitch & 0x7F
	msg[2] = e.Intensity & 0x7F
	return msg
}
