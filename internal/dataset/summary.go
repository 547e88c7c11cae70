package dataset

import (
	"fmt"
	"io"
	"strings"
)

// WriteRecordTable writes records as a fixed-width text table.
func WriteRecordTable(w io.Writer, records []LaunchRecord) {
	fmt.Fprintf(w, "%-10s %-22s %-28s %-14s %-5s %8s %8s %6s\n",
		"Date", "Name", "Launch Site", "Owner", "Class", "Perigee", "Apogee", "Period")
	fmt.Fprintln(w, strings.Repeat("─", 108))

	for _, r := range records {
		fmt.Fprintf(w, "%-10s %-22s %-28s %-14s %-5s %8.0f %8.0f %6.1f\n",
			r.Date.Format("2006-01-02"),
			truncateStr(r.Name, 22),
			truncateStr(r.LaunchSite, 28),
			truncateStr(r.Owner, 14),
			truncateStr(r.OrbitClass, 5),
			r.Perigee,
			r.Apogee,
			r.Period,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d launch records\n", len(records))
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
