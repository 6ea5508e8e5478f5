package main

import (
	"fmt"
	"os"

	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/charmbracelet/log"

	"midiedit/config"
	"midiedit/debug"
	"midiedit/midi"
	"midiedit/widgets"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:  cfg.LogLevel(),
		Prefix: "midiedit",
	})
	log.SetDefault(logger)

	if cfg.Log.DebugFile {
		if err := debug.Enable(); err != nil {
			logger.Warn("debug log unavailable", "err", err)
		}
		defer debug.Disable()
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "transpose":
		err = runTranspose(cfg, logger, args)
	case "scale":
		err = runScale(cfg, logger, args)
	case "info":
		err = runInfo(cfg, logger, args)
	case "tui":
		err = runTUI(cfg, args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		debug.Log("main", "%s: %v", os.Args[1], err)
		logger.Debug("failed", "err", err)
		fmt.Fprintln(os.Stderr, "error:", issue(err))
		debug.Disable()
		os.Exit(exitCode(err))
	}
}

var usageSections = []widgets.HelpSection{
	{Title: "Commands:", Entries: []widgets.HelpEntry{
		{Name: "transpose FILE AMOUNT", Desc: "shift note pitches by AMOUNT semitones (-128..127)"},
		{Name: "scale FILE SCALE [CENTER] [OFFSET]", Desc: "rescale velocities to (v-CENTER)*SCALE+OFFSET"},
		{Name: "info FILE [--dump]", Desc: "show tracks, tempo and note pairs"},
		{Name: "tui [FILE]", Desc: "edit interactively"},
	}},
	{Title: "Region flags (transpose, scale):", Entries: []widgets.HelpEntry{
		{Name: "-t, --track N", Desc: "edit track N, repeatable; tracks count from 0 (default all)"},
		{Name: "-s, --start TICK", Desc: "only notes still sounding after TICK"},
		{Name: "-e, --end TICK", Desc: "only notes starting before TICK"},
		{Name: "-w, --workers N", Desc: "tracks paired in parallel (default from config)"},
	}},
}

func usage() {
	fmt.Println("midiedit - edit notes in Standard MIDI Files")
	fmt.Println("")
	fmt.Println(widgets.RenderHelp(usageSections))
}

// exitCode maps an error's kind to the process exit status
func exitCode(err error) int {
	switch ftag.Get(err) {
	case ftag.InvalidArgument:
		return 2
	case midi.KindFormat:
		return 3
	case ftag.NotFound, ftag.PermissionDenied:
		return 4
	default:
		return 1
	}
}

func issue(err error) string {
	if msg := fmsg.GetIssue(err); msg != "" {
		return fmt.Sprintf("%s (%v)", msg, err)
	}
	return err.Error()
}
