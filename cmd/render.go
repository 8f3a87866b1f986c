package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jsphweid/harptab/melody"
	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/notemap"
	"github.com/jsphweid/harptab/pipeline"
	"github.com/jsphweid/harptab/pitch"
	"github.com/jsphweid/harptab/playability"
	"github.com/jsphweid/harptab/tab"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
	cellStyle  = lipgloss.NewStyle().Width(8)
)

func field(label, value string) string {
	return labelStyle.Render(label+":") + " " + value
}

func pitchList(ps []pitch.Pitch) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.String()
	}
	return strings.Join(names, " ")
}

func coverageText(r model.PlayabilityReport) string {
	text := fmt.Sprintf("%.0f%% (%d of %d notes)", r.Coverage*100, r.PlayableNotes, r.TotalNotes)
	if len(r.Missing) > 0 {
		text += " " + warnStyle.Render("missing "+pitchList(r.Missing))
	}
	return text
}

// renderResult lays the tablature out one measure per line.
func renderResult(res *pipeline.Result) string {
	style := res.Options.Style
	if style == "" {
		style = tab.Arrows
	}

	var lines []string
	title := res.Melody.Title
	if title == "" {
		title = "Untitled"
	}
	lines = append(lines, titleStyle.Render(title))
	if res.Melody.Composer != "" {
		lines = append(lines, dimStyle.Render(res.Melody.Composer))
	}
	lines = append(lines,
		field("Harmonica", res.NoteMap.Type()+" in "+res.NoteMap.Key()),
		field("Shift", fmt.Sprintf("%+d, %s", res.Shift, melody.Describe(res.Shift))),
		field("Key", res.Key),
		field("Playable", coverageText(res.Report)),
		"",
	)

	var measure []string
	current := -1
	flush := func() {
		if len(measure) > 0 {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("%3d |", current))+" "+strings.Join(measure, " "))
		}
		measure = measure[:0]
	}
	for _, entry := range res.Tablature.Entries {
		if entry.Event.Measure != current {
			flush()
			current = entry.Event.Measure
		}
		text := tab.EntryNotation(entry, style)
		if entry.Unmapped {
			text = warnStyle.Render(text)
		}
		measure = append(measure, text)
	}
	flush()
	return strings.Join(lines, "\n")
}

func renderAnalysis(a *pipeline.Analysis, harmonica string) string {
	lines := []string{titleStyle.Render(a.Melody.Title)}
	lines = append(lines,
		field("Part", a.Melody.PartID),
		field("Key", a.Melody.Key),
	)
	if a.Low.Valid() {
		lines = append(lines, field("Range", a.Low.String()+" to "+a.High.String()))
	}
	lines = append(lines, field(harmonica, coverageText(a.Report)))
	return strings.Join(lines, "\n")
}

func renderKeys(fits []playability.KeyFit) string {
	if len(fits) == 0 {
		return dimStyle.Render("no harmonica key reaches the coverage threshold")
	}
	lines := []string{labelStyle.Render("Harmonica keys:")}
	for _, fit := range fits {
		lines = append(lines, "  "+cellStyle.Render(fit.Key)+coverageText(fit.Report))
	}
	return strings.Join(lines, "\n")
}

// renderDiagram prints a hole chart: natural blow and draw notes in a grid,
// other techniques listed under it.
func renderDiagram(nm *notemap.NoteMap) string {
	diagram := nm.Diagram()
	row := func(label string, cell func(notemap.HoleDiagram) string) string {
		cells := []string{cellStyle.Render(labelStyle.Render(label))}
		for _, d := range diagram {
			cells = append(cells, cellStyle.Render(cell(d)))
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	}

	name := func(p pitch.Pitch) string {
		if !p.Valid() {
			return "-"
		}
		return p.String()
	}

	lines := []string{
		titleStyle.Render(nm.Type() + " harmonica in " + nm.Key()),
		row("hole", func(d notemap.HoleDiagram) string { return fmt.Sprint(d.Hole) }),
		row("blow", func(d notemap.HoleDiagram) string { return name(d.Blow) }),
		row("draw", func(d notemap.HoleDiagram) string { return name(d.Draw) }),
		"",
	}
	for _, d := range diagram {
		for _, pos := range d.Other {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("%-8s", tab.Notation(pos, tab.Arrows)))+" "+pos.Pitch.String()+" "+string(pos.Technique))
		}
	}
	return strings.Join(lines, "\n")
}
