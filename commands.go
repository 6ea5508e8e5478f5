package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"

	"midiedit/config"
	"midiedit/debug"
	"midiedit/edit"
	"midiedit/midi"
	"midiedit/theme"
	"midiedit/tui"
)

// regionFlags registers the track/start/end flags shared by every edit command
type regionFlags struct {
	tracks []int
	start  uint64
	end    uint64
}

func (rf *regionFlags) register(fs *pflag.FlagSet) {
	fs.IntSliceVarP(&rf.tracks, "track", "t", nil, "track index to edit (repeatable, default all)")
	fs.Uint64VarP(&rf.start, "start", "s", 0, "only notes still sounding after this tick")
	fs.Uint64VarP(&rf.end, "end", "e", 0, "only notes starting before this tick")
}

func (rf *regionFlags) region(fs *pflag.FlagSet) edit.Region {
	r := edit.Region{Tracks: rf.tracks}
	if fs.Changed("start") {
		r.Start = edit.Tick(rf.start)
	}
	if fs.Changed("end") {
		r.End = edit.Tick(rf.end)
	}
	return r
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

func parse(fs *pflag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(reorder(fs, args)); err != nil {
		return nil, usageError(err.Error())
	}
	return fs.Args(), nil
}

func usageError(msg string) error {
	return fault.New(msg,
		fmsg.WithDesc(msg, msg),
		ftag.With(ftag.InvalidArgument),
	)
}

func editor(cfg *config.Config, logger *log.Logger, workers int) *edit.Editor {
	if workers <= 0 {
		workers = cfg.Workers
	}
	return &edit.Editor{Logger: logger, Workers: workers}
}

func runTranspose(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := newFlagSet("transpose")
	var rf regionFlags
	rf.register(fs)
	workers := fs.IntP("workers", "w", 0, "tracks paired in parallel (default from config)")

	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 2 {
		return usageError("usage: transpose FILE AMOUNT [-t TRACK]... [-s START] [-e END]")
	}
	amount, err := strconv.ParseInt(pos[1], 10, 8)
	if err != nil {
		return usageError(fmt.Sprintf("AMOUNT must be a whole number of semitones in -128..127, got %q", pos[1]))
	}

	rep, err := editor(cfg, logger, *workers).Transpose(pos[0], int8(amount), rf.region(fs))
	if err != nil {
		return err
	}
	printReport(pos[0], rep)
	return nil
}

func runScale(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := newFlagSet("scale")
	var rf regionFlags
	rf.register(fs)
	workers := fs.IntP("workers", "w", 0, "tracks paired in parallel (default from config)")

	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) < 2 || len(pos) > 4 {
		return usageError("usage: scale FILE SCALE [CENTER] [OFFSET] [-t TRACK]... [-s START] [-e END]")
	}

	scale, err := strconv.ParseFloat(pos[1], 64)
	if err != nil {
		return usageError(fmt.Sprintf("SCALE must be a number, got %q", pos[1]))
	}
	center, offset := cfg.Rescale.Center, cfg.Rescale.Offset
	if len(pos) > 2 {
		if center, err = parseInt8("CENTER", pos[2]); err != nil {
			return err
		}
	}
	if len(pos) > 3 {
		if offset, err = parseInt8("OFFSET", pos[3]); err != nil {
			return err
		}
	}

	rep, err := editor(cfg, logger, *workers).RescaleIntensity(pos[0], scale, center, offset, rf.region(fs))
	if err != nil {
		return err
	}
	printReport(pos[0], rep)
	return nil
}

func parseInt8(name, s string) (int8, error) {
	v, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return 0, usageError(fmt.Sprintf("%s must be a whole number in -128..127, got %q", name, s))
	}
	return int8(v), nil
}

func printReport(path string, rep edit.Report) {
	fmt.Printf("%s: %s %s\n", path, rep.Transform, rep.Region)
	fmt.Printf("  %d tracks, %d notes, %d selected, %d events changed\n", rep.Tracks, rep.Spans, rep.Selected, rep.Changed)
	if len(rep.Orphans) > 0 {
		fmt.Printf("  %d unpaired note events left as is\n", len(rep.Orphans))
	}
	if rep.Written {
		fmt.Println("  written")
	} else {
		fmt.Println("  unchanged, nothing written")
	}
}

func runInfo(cfg *config.Config, logger *log.Logger, args []string) error {
	fs := newFlagSet("info")
	dump := fs.BoolP("dump", "d", false, "dump every note pair")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return usageError("usage: info FILE [--dump]")
	}
	path := pos[0]

	data, err := os.ReadFile(path)
	if err != nil {
		kind := ftag.Internal
		if os.IsNotExist(err) {
			kind = ftag.NotFound
		}
		return fault.Wrap(err,
			fmsg.WithDesc("read failed", fmt.Sprintf("Could not read %s.", path)),
			ftag.With(kind),
		)
	}
	f, err := midi.Decode(data)
	if err != nil {
		return err
	}

	ed := editor(cfg, logger, 0)
	spans, orphans := ed.PairFile(f)
	perTrack := make([]int, len(f.Tracks))
	for _, s := range spans {
		perTrack[s.Track]++
	}
	unpaired := make([]int, len(f.Tracks))
	for _, o := range orphans {
		unpaired[o.Track]++
	}

	bpm, found := f.Tempo()
	tempo := fmt.Sprintf("%.2f bpm", bpm)
	if !found {
		tempo += " (default)"
	}
	fmt.Printf("%s\n", path)
	fmt.Printf("  format %d, %d tracks, %d ticks per quarter, %s, %d ticks long\n",
		f.Format, len(f.Tracks), f.Ticks(), tempo, f.Length())
	for i, t := range f.Tracks {
		name := t.Name()
		if name == "" {
			name = "-"
		}
		fmt.Printf("  %2d %-20s %6d events %5d notes %3d unpaired\n", i, name, len(t.Events), perTrack[i], unpaired[i])
	}

	if *dump {
		cs := spew.ConfigState{Indent: "  ", SortKeys: true}
		cs.Fdump(os.Stdout, spans)
		if len(orphans) > 0 {
			cs.Fdump(os.Stdout, orphans)
		}
	}
	return nil
}

func runTUI(cfg *config.Config, args []string) error {
	fs := newFlagSet("tui")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	path := cfg.UI.LastFile
	if len(pos) > 0 {
		path = pos[0]
	}
	if path == "" {
		return usageError("usage: tui FILE")
	}

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		log.Warn("palette unavailable, using built-in", "path", cfg.UI.Palette, "err", err)
		palette = theme.Plasma
	}

	cfg.RememberFile(path)
	if err := cfg.Save(); err != nil {
		log.Warn("could not save config", "err", err)
	}

	// stderr belongs to the terminal UI; editor logs go to the debug file
	ed := &edit.Editor{Logger: debug.Logger(), Workers: cfg.Workers}
	m := tui.NewModel(path, ed, theme.New(palette), cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fault.Wrap(err, fmsg.With("terminal ui failed"))
	}
	debug.Log("main", "closed %s", path)
	return nil
}
