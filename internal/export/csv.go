// Package export serializes snapshot history for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mathieu-neron/channelpulse/internal/model"
)

// Header is the first row of every snapshot CSV.
var Header = []string{"Date", "Subscribers", "Total Views", "Total Videos"}

// WriteSnapshotsCSV writes a header row and one row per snapshot in ascending
// date order, whatever order snaps arrives in. snaps is not modified.
func WriteSnapshotsCSV(w io.Writer, snaps []model.Snapshot) error {
	sorted := make([]model.Snapshot, len(snaps))
	copy(sorted, snaps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range sorted {
		row := []string{
			s.Date.Format(model.DateLayout),
			strconv.FormatInt(s.Subscribers, 10),
			strconv.FormatInt(s.Views, 10),
			strconv.FormatInt(s.Videos, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", row[0], err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename builds the attachment name for a channel export,
// e.g. "Some_Channel_export_2024-01-03.csv".
func Filename(channelName string, today time.Time) string {
	name := strings.ReplaceAll(strings.TrimSpace(channelName), " ", "_")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ';', '\r', '\n':
			return -1
		}
		return r
	}, name)
	if name == "" {
		name = "channel"
	}
	return fmt.Sprintf("%s_export_%s.csv", name, today.Format(model.DateLayout))
}
