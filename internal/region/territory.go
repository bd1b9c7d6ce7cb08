// Package region restricts a detection run to records inside a
// territory boundary loaded from a shapefile.
package region

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/sells-group/shop-dedupe/internal/model"
)

// Territory is a set of polygon rings in lon/lat order. Containment
// uses the even-odd rule, so holes are handled without tracking ring
// winding.
type Territory struct {
	rings [][]float64
}

// NewTerritory builds a Territory from flat lon/lat rings. Unclosed
// rings are closed. Mostly useful for tests; production callers load
// shapefiles via Load.
func NewTerritory(rings [][]float64) (*Territory, error) {
	if len(rings) == 0 {
		return nil, eris.New("region: no rings")
	}
	closed := make([][]float64, 0, len(rings))
	for i, ring := range rings {
		if len(ring) < 8 || len(ring)%2 != 0 {
			return nil, eris.Errorf("region: ring %d is not a valid polygon ring", i)
		}
		n := len(ring)
		if ring[0] != ring[n-2] || ring[1] != ring[n-1] {
			ring = append(append([]float64{}, ring...), ring[0], ring[1])
		}
		closed = append(closed, ring)
	}
	return &Territory{rings: closed}, nil
}

// Load reads all polygon shapes from a shapefile into a Territory.
func Load(path string) (*Territory, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "region: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	var rings [][]float64
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		for i := int32(0); i < poly.NumParts; i++ {
			start := poly.Parts[i]
			end := int32(len(poly.Points))
			if i+1 < poly.NumParts {
				end = poly.Parts[i+1]
			}
			if end-start < 4 {
				continue
			}
			ring := make([]float64, 0, 2*(end-start))
			for _, pt := range poly.Points[start:end] {
				ring = append(ring, pt.X, pt.Y)
			}
			rings = append(rings, ring)
		}
	}

	if skipped > 0 {
		zap.L().Debug("region: skipped non-polygon shapes",
			zap.String("shapefile", path),
			zap.Int("skipped", skipped),
		)
	}
	if len(rings) == 0 {
		return nil, eris.Errorf("region: no polygon rings in %s", path)
	}
	return &Territory{rings: rings}, nil
}

// Contains reports whether the point lies inside the territory under
// the even-odd rule.
func (t *Territory) Contains(lat, lon float64) bool {
	p := geom.Coord{lon, lat}
	inside := false
	for _, ring := range t.rings {
		if xy.IsPointInRing(geom.XY, p, ring) {
			inside = !inside
		}
	}
	return inside
}

// Filter returns the records inside the territory and the count of
// records dropped.
func Filter(records []model.ShopRecord, t *Territory) ([]model.ShopRecord, int) {
	if t == nil {
		return records, 0
	}
	kept := make([]model.ShopRecord, 0, len(records))
	for _, r := range records {
		if t.Contains(r.Latitude, r.Longitude) {
			kept = append(kept, r)
		}
	}
	return kept, len(records) - len(kept)
}
