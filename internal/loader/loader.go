// Package loader turns raw workbook rows into validated ShopRecords.
// It resolves the identifying columns, extracts coordinates from either
// dedicated numeric columns or a combined free-text location column,
// and drops rows without resolvable coordinates. The engine's
// precondition is that every record it receives passed this gate.
package loader

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shop-dedupe/internal/model"
)

// Canonical column names in the master workbook.
const (
	ColCustomerID   = "Customer ID"
	ColShopName     = "New Shop Name"
	ColProspectCode = "Prospect Code"
	ColLatitude     = "Latitude"
	ColLongitude    = "Longitude"
)

// combinedCoordinateColumns are checked in order when no dedicated
// Latitude/Longitude columns exist.
var combinedCoordinateColumns = []string{"Mapping Coordinates", "GPS", "Location", "Coordinates"}

// coordPattern matches a signed decimal pair separated by a comma
// and/or whitespace, e.g. "11.5600, 104.9200".
var coordPattern = regexp.MustCompile(`([-+]?\d*\.\d+|\d+)[,\s]+([-+]?\d*\.\d+|\d+)`)

// ErrSchema marks a fatal input problem: the workbook lacks the
// identifying columns or any resolvable coordinate source. Detection
// never starts when Parse returns it.
var ErrSchema = eris.New("loader: unusable input schema")

// Stats accounts for what happened to the input rows.
type Stats struct {
	TotalRows          int `json:"total_rows"`
	Loaded             int `json:"loaded"`
	DroppedCoordinates int `json:"dropped_coordinates"`
}

// Options configures parsing. Aliases maps workbook headers onto the
// canonical column names, for sources with nonstandard headers.
type Options struct {
	Aliases map[string]string
}

// Parse converts rows (header row first) into ShopRecords. Rows whose
// coordinates cannot be resolved to finite values are dropped and
// counted, never surfaced as errors.
func Parse(rows [][]string, opts Options) ([]model.ShopRecord, *Stats, error) {
	if len(rows) == 0 {
		return nil, nil, eris.Wrap(ErrSchema, "empty input")
	}

	cols, err := resolveColumns(rows[0], opts.Aliases)
	if err != nil {
		return nil, nil, err
	}

	stats := &Stats{TotalRows: len(rows) - 1}
	var records []model.ShopRecord

	for _, row := range rows[1:] {
		lat, lon, ok := cols.coordinates(row)
		if !ok {
			stats.DroppedCoordinates++
			continue
		}
		records = append(records, model.ShopRecord{
			CustomerID:   strings.TrimSpace(cell(row, cols.customerID)),
			ShopName:     strings.TrimSpace(cell(row, cols.shopName)),
			ProspectCode: normalizeProspectCode(cell(row, cols.prospectCode)),
			Latitude:     lat,
			Longitude:    lon,
		})
	}
	stats.Loaded = len(records)

	zap.L().Debug("loader: rows parsed",
		zap.Int("total", stats.TotalRows),
		zap.Int("loaded", stats.Loaded),
		zap.Int("dropped_coordinates", stats.DroppedCoordinates),
	)
	return records, stats, nil
}

// columnLayout holds resolved column indices; -1 means absent.
type columnLayout struct {
	customerID   int
	shopName     int
	prospectCode int
	latitude     int
	longitude    int
	combined     int
}

func resolveColumns(header []string, aliases map[string]string) (*columnLayout, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	find := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	cols := &columnLayout{
		customerID:   find(ColCustomerID),
		shopName:     find(ColShopName),
		prospectCode: find(ColProspectCode),
		latitude:     find(ColLatitude),
		longitude:    find(ColLongitude),
		combined:     -1,
	}

	if cols.customerID < 0 || cols.shopName < 0 {
		return nil, eris.Wrapf(ErrSchema, "missing identifying columns %q and/or %q", ColCustomerID, ColShopName)
	}

	if cols.latitude >= 0 && cols.longitude >= 0 {
		return cols, nil
	}
	for _, name := range combinedCoordinateColumns {
		if i := find(name); i >= 0 {
			cols.combined = i
			return cols, nil
		}
	}
	return nil, eris.Wrap(ErrSchema, "could not detect GPS coordinate columns")
}

// coordinates extracts a finite lat/lon pair from the row, from the
// numeric columns or the combined text column.
func (c *columnLayout) coordinates(row []string) (lat, lon float64, ok bool) {
	var latStr, lonStr string
	if c.combined >= 0 {
		m := coordPattern.FindStringSubmatch(cell(row, c.combined))
		if m == nil {
			return 0, 0, false
		}
		latStr, lonStr = m[1], m[2]
	} else {
		latStr = strings.TrimSpace(cell(row, c.latitude))
		lonStr = strings.TrimSpace(cell(row, c.longitude))
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, false
	}
	if !finite(lat) || !finite(lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

// normalizeProspectCode trims the code and clears the textual null
// artifacts spreadsheets leave behind.
func normalizeProspectCode(s string) string {
	v := strings.TrimSpace(s)
	switch v {
	case "nan", "NaN", "None", "NULL", "null":
		return ""
	}
	return v
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
