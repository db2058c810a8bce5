package display

import (
	"strings"
	"testing"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
)

func TestNewTable(t *testing.T) {
	tbl := NewTable([]string{"Name", "Value"})
	if tbl.highlightRow != -1 {
		t.Errorf("highlightRow = %d, want -1", tbl.highlightRow)
	}
	if tbl.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tbl.Len())
	}
}

func TestTable_EmptyHeaders(t *testing.T) {
	if got := NewTable([]string{}).Render(); got != "" {
		t.Errorf("Render() with empty headers = %q, want empty", got)
	}
}

func TestTable_BasicRender(t *testing.T) {
	SetEnabled(false)

	tbl := NewTable([]string{"Date", "Subuh", "Isya"})
	tbl.AddRow([]string{"Sen 11 Mar", "04:40", "19:17"})
	tbl.AddRow([]string{"Sel 12 Mar", "04:40", "19:16"})

	got := tbl.Render()
	for _, want := range []string{"Date", "Subuh", "Isya", "─", "Sen 11 Mar", "Sel 12 Mar", "04:40", "19:17"} {
		if !strings.Contains(got, want) {
			t.Errorf("Render() missing %q in:\n%s", want, got)
		}
	}

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Errorf("expected 4 lines (header, separator, 2 rows), got %d:\n%s", len(lines), got)
	}
}

func TestTable_RuneWidth(t *testing.T) {
	SetEnabled(false)

	tbl := NewTable([]string{"Bulan", "X"})
	tbl.AddRow([]string{"رَمَضَان", "1"})
	tbl.AddRow([]string{"Syawal", "2"})

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	// Both data rows pad the first column to the same rune width.
	a := strings.Index(lines[2], "1")
	b := strings.Index(lines[3], "2")
	if len([]rune(lines[2][:a])) != len([]rune(lines[3][:b])) {
		t.Errorf("columns misaligned:\n%s\n%s", lines[2], lines[3])
	}
}

func TestTable_HighlightAndDim(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	tbl := NewTable([]string{"Date", "Time"})
	tbl.AddRow([]string{"Sun", "05:00"})
	tbl.AddRow([]string{"Mon", "05:01"})
	tbl.AddRow([]string{"Tue", "05:02"})
	tbl.SetHighlightRow(1)
	tbl.DimBeforeHighlight(true)

	lines := strings.Split(tbl.Render(), "\n")
	// Line 0 is header, line 1 is separator.
	if !strings.Contains(lines[2], dim) {
		t.Error("row before the highlight should be dimmed")
	}
	if !strings.Contains(lines[3], cyan) {
		t.Error("highlighted row should use the accent color")
	}
	if strings.Contains(lines[4], "\033[") {
		t.Error("row after the highlight should be plain")
	}
}

func TestFormatRow(t *testing.T) {
	got := formatRow([]string{"abc", "de"}, []int{5, 4})
	want := "abc    de  "
	if got != want {
		t.Errorf("formatRow = %q, want %q", got, want)
	}
}

func TestFormatRow_MissingCells(t *testing.T) {
	got := formatRow([]string{"a"}, []int{3, 5})
	want := "a         "
	if got != want {
		t.Errorf("formatRow = %q, want %q", got, want)
	}
}

// --- RenderState ---

func TestRenderState_Loading(t *testing.T) {
	SetEnabled(false)

	got := RenderState(adzan.State{Countdown: "00:00:00", Volume: 80})
	if !strings.Contains(got, "loading prayer times") {
		t.Errorf("missing loading line:\n%s", got)
	}
	if !strings.Contains(got, "idle") || !strings.Contains(got, "80") {
		t.Errorf("missing audio/volume lines:\n%s", got)
	}
}

func TestRenderState_Playing(t *testing.T) {
	SetEnabled(false)

	kind := adzan.AudioAdzan
	cur := "subuh"
	caution := prayer.Imsak
	left := "00:00:42"
	st := adzan.State{
		IsPlaying:        true,
		CurrentPrayer:    &cur,
		CurrentAudioType: &kind,
		NextPrayer:       &adzan.NextPrayer{Name: prayer.Terbit, Label: "Terbit", Time: "05:58"},
		PrayerTimes:      &prayer.Times{Subuh: "04:40"},
		Countdown:        "01:18:00",
		IsCautionActive:  true,
		CautionFor:       &caution,
		CautionCountdown: &left,
		CurrentPeriod:    prayer.Subuh,
		Hijri:            "1 Ramadhan 1445 H",
		Volume:           55,
	}

	got := RenderState(st)
	for _, want := range []string{
		"1 Ramadhan 1445 H",
		"Terbit 05:58  -01:18:00",
		"adzan Subuh",
		"Imsak in 00:00:42",
		"55",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderState missing %q in:\n%s", want, got)
		}
	}
}
