package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/mattn/go-runewidth"

	"github.com/Sternrassler/artic-browser/pkg/catalog"
	"github.com/Sternrassler/artic-browser/pkg/pagination"
)

const (
	checkMark   = "✓"
	emptyValue  = "-"
	checkWidth  = 3
	datesWidth  = 11
	minColWidth = 8
)

// columnTitles are the data columns after the check column.
var columnTitles = []string{"Title", "Place of Origin", "Artist", "Inscriptions", "Dates"}

// columnShares split the flexible width between Title, Place, Artist and Inscriptions.
var columnShares = []int{30, 15, 30, 25}

// columnsFor lays the table out for a terminal width.
func columnsFor(width int) []table.Column {
	// cells carry one column of padding on each side
	flex := width - checkWidth - datesWidth - 2*(len(columnTitles)+1)
	if flex < len(columnShares)*minColWidth {
		flex = len(columnShares) * minColWidth
	}

	cols := []table.Column{{Title: checkMark, Width: checkWidth}}
	for i, share := range columnShares {
		w := flex * share / 100
		if hw := runewidth.StringWidth(columnTitles[i]); w < hw {
			w = hw
		}
		cols = append(cols, table.Column{Title: columnTitles[i], Width: w})
	}
	return append(cols, table.Column{Title: columnTitles[4], Width: datesWidth})
}

// recordRow renders a record as a table row.
func recordRow(rec catalog.Record, checked bool) table.Row {
	mark := ""
	if checked {
		mark = checkMark
	}
	return table.Row{
		mark,
		cell(rec.Title),
		cell(rec.PlaceOfOrigin),
		cell(rec.ArtistDisplay),
		cell(rec.Inscriptions),
		cell(rec.Dates()),
	}
}

// cell flattens a value to one line; empty values render as "-".
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return emptyValue
	}
	return s
}

// detailLines renders every field of rec on its own line, cut to width.
func detailLines(rec catalog.Record, width int) []string {
	fields := []struct{ label, value string }{
		{"Title", rec.Title},
		{"Artist", rec.ArtistDisplay},
		{"Origin", rec.PlaceOfOrigin},
		{"Dates", rec.Dates()},
		{"Inscriptions", rec.Inscriptions},
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		line := fmt.Sprintf("%-13s%s", f.label+":", cell(f.value))
		if width > 0 {
			line = runewidth.Truncate(line, width, "…")
		}
		lines = append(lines, line)
	}
	return lines
}

// WritePlain prints a snapshot as aligned plain text without selection columns.
func WritePlain(w io.Writer, snap pagination.Snapshot, width int) error {
	if width <= 0 {
		width = 120
	}
	cols := columnsFor(width)[1:]

	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(runewidth.FillRight(c.Title, c.Width))
	}
	b.WriteString("\n")

	for _, rec := range snap.Records {
		row := recordRow(rec, false)[1:]
		for i, c := range cols {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(runewidth.FillRight(runewidth.Truncate(row[i], c.Width, "…"), c.Width))
		}
		b.WriteString("\n")
	}

	b.WriteString(statusLine(snap, -1))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// statusLine renders "page X/Y · rows a–b of total · N selected". A negative
// selected count omits the selection part.
func statusLine(snap pagination.Snapshot, selected int) string {
	pages := snap.TotalPages
	if pages == 0 {
		pages = 1
	}
	parts := []string{
		fmt.Sprintf("page %d/%d", snap.PageNumber, pages),
		fmt.Sprintf("rows %d–%d of %d", snap.FirstRow(), snap.LastRow(), snap.TotalRecords),
	}
	if selected >= 0 {
		parts = append(parts, fmt.Sprintf("%d selected", selected))
	}
	return strings.Join(parts, " · ")
}
