package state

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/litescript/orbitlapse/internal/orbit"
)

// WriteStatusLine writes a one-line progress report for headless runs.
func WriteStatusLine(w io.Writer, snap Snapshot, launching, orbiting int) {
	date := "----------"
	if !snap.CurrentDate.IsZero() {
		date = snap.CurrentDate.Format("2006-01-02")
	}
	fmt.Fprintf(w, "[%s] %s record %d/%d (%5.1f%%) launched=%d skipped=%d failed=%d launching=%d orbiting=%d\n",
		snap.Elapsed().Round(time.Second),
		date,
		snap.Processed, snap.Total, snap.Progress()*100,
		snap.Result.Launched, snap.Result.Skipped, snap.Result.Failed,
		launching, orbiting,
	)
}

type ownerRow struct {
	owner    string
	count    int
	orbiting int
	radius   float64 // summed orbit radius of orbiting entities
	first    time.Time
	last     time.Time
}

// WriteSummary writes the end-of-run report: sequencer totals and a
// per-owner breakdown of the launched entities.
func WriteSummary(w io.Writer, snap Snapshot, entities []orbit.Entity) {
	fmt.Fprintf(w, "Launch replay @ %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(w, strings.Repeat("─", 78))
	fmt.Fprintf(w, "Records: %d  Launched: %d  Skipped: %d  Failed: %d  Elapsed: %s\n",
		snap.Total, snap.Result.Launched, snap.Result.Skipped, snap.Result.Failed,
		snap.Elapsed().Round(time.Millisecond))

	if len(entities) == 0 {
		fmt.Fprintln(w, "No launches")
		return
	}

	byOwner := make(map[string]*ownerRow)
	for _, e := range entities {
		owner := e.Spec.Owner
		if owner == "" {
			owner = "(unknown)"
		}
		row, ok := byOwner[owner]
		if !ok {
			row = &ownerRow{owner: owner}
			byOwner[owner] = row
		}
		row.count++
		if e.State == orbit.StateOrbiting {
			row.orbiting++
			row.radius += e.Orbit.Radius
		}
		if d := e.Spec.Date; !d.IsZero() {
			if row.first.IsZero() || d.Before(row.first) {
				row.first = d
			}
			if d.After(row.last) {
				row.last = d
			}
		}
	}

	rows := make([]*ownerRow, 0, len(byOwner))
	for _, r := range byOwner {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].owner < rows[j].owner
	})

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-24s %8s %8s %10s %-10s %-10s\n", "Owner", "Launched", "Orbiting", "Mean r", "First", "Last")
	fmt.Fprintln(w, strings.Repeat("─", 78))
	for _, r := range rows {
		mean := 0.0
		if r.orbiting > 0 {
			mean = r.radius / float64(r.orbiting)
		}
		fmt.Fprintf(w, "%-24s %8d %8d %10.3f %-10s %-10s\n",
			truncateStr(r.owner, 24), r.count, r.orbiting, mean, formatDate(r.first), formatDate(r.last))
	}

	fmt.Fprintf(w, "\nTotal: %d entities\n", len(entities))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func truncateStr(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-2]) + ".."
}
