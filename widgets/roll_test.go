package widgets

import (
	"strings"
	"testing"
)

var plain = RollStyle{Empty: '.', Note: 'n', Selected: 'S', Window: '_'}

func TestColumn(t *testing.T) {
	tests := []struct {
		tick, length uint64
		width, want  int
	}{
		{0, 99, 10, 0},
		{99, 99, 10, 9},
		{50, 99, 10, 5},
		{500, 99, 10, 9},
		{5, 0, 10, 9},
		{5, 10, 0, 0},
	}
	for _, tt := range tests {
		if got := Column(tt.tick, tt.length, tt.width); got != tt.want {
			t.Errorf("Column(%d, %d, %d) = %d, want %d", tt.tick, tt.length, tt.width, got, tt.want)
		}
	}
}

func TestRenderLane(t *testing.T) {
	bars := []Bar{
		{Start: 0, End: 19, Intensity: 90},
		{Start: 50, End: 69, Intensity: 90, Selected: true},
	}
	start, end := uint64(40), uint64(79)
	got := RenderLane(bars, 99, 10, &start, &end, plain)
	if got != "nn.._SS_.." {
		t.Errorf("unexpected lane %q", got)
	}
}

func TestRenderLaneNoWindow(t *testing.T) {
	got := RenderLane([]Bar{{Start: 0, End: 99}}, 99, 5, nil, nil, plain)
	if got != "nnnnn" {
		t.Errorf("unexpected lane %q", got)
	}
}

func TestRenderRuler(t *testing.T) {
	r := RenderRuler(767, 16, 96)
	if len([]rune(r)) != 16 {
		t.Fatalf("ruler width %d, want 16", len([]rune(r)))
	}
	if !strings.HasPrefix(r, "|1") || !strings.Contains(r, "|2") {
		t.Errorf("unexpected ruler %q", r)
	}
}

func TestRenderHelpAlignsAcrossSections(t *testing.T) {
	got := RenderHelp([]HelpSection{
		{Title: "Commands:", Entries: []HelpEntry{{Name: "info FILE", Desc: "show"}}},
		{Entries: []HelpEntry{{Name: "-t N", Desc: "track"}}},
	})
	want := "Commands:\n  info FILE  show\n\n  -t N       track"
	if got != want {
		t.Errorf("RenderHelp =\n%q\nwant\n%q", got, want)
	}
}
