// Package report writes the suspicious-pairs workbook and prints the
// console summary.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/sells-group/shop-dedupe/internal/model"
)

const sheetName = "Suspicious Pairs"

// headers is the fixed report column order.
var headers = []interface{}{
	"Customer ID A", "Shop Name A", "Prospect Code A", "Latitude A", "Longitude A",
	"Customer ID B", "Shop Name B", "Prospect Code B", "Latitude B", "Longitude B",
	"Distance (km)", "Names Similar", "Suspicious Duplicate", "Comparison Type",
}

// DefaultFilename returns the conventional report name for a run:
// duplicate_analysis_<mode>_<DD-MM-YY>.xlsx.
func DefaultFilename(mode model.Mode, now time.Time) string {
	return fmt.Sprintf("duplicate_analysis_%s_%s.xlsx", mode, now.Format("02-01-06"))
}

// WriteXLSX writes the pairs to an XLSX workbook at path.
func WriteXLSX(path string, pairs []model.CandidatePair) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "report: create sheet")
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return eris.Wrap(err, "report: stream writer")
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return eris.Wrap(err, "report: write header")
	}

	for i, p := range pairs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			p.CustomerIDA, p.ShopNameA, p.ProspectCodeA, p.LatitudeA, p.LongitudeA,
			p.CustomerIDB, p.ShopNameB, p.ProspectCodeB, p.LatitudeB, p.LongitudeB,
			p.DistanceKm, p.NamesSimilar, p.Suspicious, string(p.ComparisonType),
		}
		if err := sw.SetRow(cell, row); err != nil {
			return eris.Wrapf(err, "report: write row %d", i+2)
		}
	}
	if err := sw.Flush(); err != nil {
		return eris.Wrap(err, "report: flush")
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

// Preview prints the top pairs to w, most suspicious (closest) first.
func Preview(w io.Writer, pairs []model.CandidatePair, limit int) {
	if len(pairs) == 0 {
		fmt.Fprintln(w, "No suspicious pairs found.")
		return
	}
	if limit <= 0 || limit > len(pairs) {
		limit = len(pairs)
	}

	fmt.Fprintf(w, "Top %d of %d suspicious pairs:\n", limit, len(pairs))
	for _, p := range pairs[:limit] {
		fmt.Fprintf(w, "  %-12s %-28s <-> %-12s %-28s %7.3f km  %s\n",
			p.CustomerIDA, truncate(p.ShopNameA, 28),
			p.CustomerIDB, truncate(p.ShopNameB, 28),
			p.DistanceKm, p.ComparisonType,
		)
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
