package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"midiedit/edit"
	"midiedit/midi"
)

func main() {
	if len(os.Args) < 3 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "roundtrip":
		err = roundTrip(os.Args[2:])
	case "pairs":
		err = pairs(os.Args[2], len(os.Args) > 3 && os.Args[3] == "-dump")
	case "gen":
		err = generate(os.Args[2])
	default:
		usage()
		return
	}
	if err != nil {
		fmt.Println("FAIL:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI File Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  roundtrip FILE...  - Decode and re-encode, check bytes are identical")
	fmt.Println("  pairs FILE [-dump] - Show note pairs and unpaired events per track")
	fmt.Println("  gen FILE           - Write a small test file with edge cases")
}

func roundTrip(paths []string) error {
	failed := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		// an identity edit must not change a single byte
		out, rep, err := edit.ApplyBytes(data, edit.TransposeBy(0), edit.All())
		if err != nil {
			fmt.Printf("  %-40s error: %v\n", path, err)
			failed++
			continue
		}
		if !bytes.Equal(out, data) {
			fmt.Printf("  %-40s DIFFERS (%d -> %d bytes)\n", path, len(data), len(out))
			failed++
			continue
		}
		fmt.Printf("  %-40s ok  %d tracks, %d notes, %d bytes\n", path, rep.Tracks, rep.Spans, len(data))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

func pairs(path string, dump bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f, err := midi.Decode(data)
	if err != nil {
		return err
	}

	fmt.Printf("=== %s: %d tracks ===\n", path, len(f.Tracks))
	for _, t := range f.Tracks {
		spans, orphans := edit.Pair(t)
		fmt.Printf("  track %d %q: %d events, %d notes, %d unpaired\n", t.Index, t.Name(), len(t.Events), len(spans), len(orphans))
		for _, o := range orphans {
			fmt.Printf("    tick %-8d pitch %-3d %s\n", o.Time, o.Pitch, o.Reason)
		}
		if dump {
			spew.Dump(spans)
		}
	}
	return nil
}

// generate writes a two track file with a retriggered pitch, a note closed
// by a zero-velocity note-on, a dangling note-off and an unterminated note
func generate(path string) error {
	var lead smf.Track
	lead.Add(0, smf.MetaTrackSequenceName("lead"))
	lead.Add(0, smf.MetaTempo(100))
	lead.Add(0, gomidi.NoteOn(0, 60, 100))
	lead.Add(48, gomidi.NoteOn(0, 60, 80))
	lead.Add(48, gomidi.NoteOff(0, 60))
	lead.Add(48, gomidi.NoteOff(0, 60))
	lead.Add(0, gomidi.NoteOn(0, 64, 90))
	lead.Add(96, gomidi.NoteOn(0, 64, 0))
	lead.Add(0, gomidi.NoteOff(0, 71))
	lead.Add(0, gomidi.NoteOn(0, 67, 70))
	lead.Close(96)

	var bass smf.Track
	bass.Add(0, smf.MetaTrackSequenceName("bass"))
	bass.Add(0, gomidi.ProgramChange(1, 33))
	bass.Add(0, gomidi.NoteOn(1, 36, 110))
	bass.Add(0, gomidi.Pitchbend(1, 512))
	bass.Add(384, gomidi.NoteOff(1, 36))
	bass.Close(0)

	s := smf.NewSMF1()
	s.TimeFormat = smf.MetricTicks(96)
	if err := s.Add(lead); err != nil {
		return err
	}
	if err := s.Add(bass); err != nil {
		return err
	}
	if err := s.WriteFile(path); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
