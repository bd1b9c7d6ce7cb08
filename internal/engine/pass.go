package engine

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/shop-dedupe/internal/model"
	"github.com/sells-group/shop-dedupe/internal/spatial"
)

const (
	// kmPerDegreeLat approximates the kilometers spanned by one degree
	// of latitude; radiusSafetyFactor widens the broad-phase radius so
	// projection distortion cannot drop a true match near the boundary.
	kmPerDegreeLat     = 111.0
	radiusSafetyFactor = 1.5
)

// runPass compares every record of primary against the indexed records
// of secondary and returns the suspicious pairs found, deduplicated by
// canonical key within the pass. A self-comparison pass with fewer than
// two records, or a cross-comparison pass with an empty side, is
// skipped and yields no candidates. An index build failure is returned
// as an error; the caller degrades the pass to zero candidates.
func (e *Engine) runPass(ctx context.Context, primary, secondary []model.ShopRecord, label model.ComparisonType, self bool) ([]model.CandidatePair, error) {
	if self {
		if len(primary) < 2 {
			return nil, nil
		}
	} else if len(primary) == 0 || len(secondary) == 0 {
		return nil, nil
	}

	pts := make([]spatial.Point, len(secondary))
	for i, r := range secondary {
		pts[i] = spatial.Project(r.Latitude, r.Longitude)
	}
	index, err := spatial.NewIndex(pts)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: build %s index", label)
	}

	// In a self pass rank 0 is the record itself at distance 0, so two
	// neighbors are requested and rank 1 is the true candidate.
	k := 1
	if self {
		k = 2
	}
	maxDegrees := e.cfg.DistanceThresholdKm * kmPerDegreeLat * radiusSafetyFactor

	seen := make(map[string]struct{})
	var pairs []model.CandidatePair

	for i, rec := range primary {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrapf(err, "engine: %s pass cancelled", label)
		}
		if !rec.HasIdentity() {
			continue
		}

		neighbors := index.Nearest(spatial.Project(rec.Latitude, rec.Longitude), k, maxDegrees)
		nb := neighbors[k-1]
		if nb.Index == spatial.NoNeighbor || nb.Index >= len(secondary) {
			continue
		}
		if self && nb.Index == i {
			continue
		}

		other := secondary[nb.Index]
		if !other.HasIdentity() {
			continue
		}

		idA := strings.TrimSpace(rec.CustomerID)
		idB := strings.TrimSpace(other.CustomerID)
		if idA == idB {
			continue
		}

		dist := haversineKm(rec.Latitude, rec.Longitude, other.Latitude, other.Longitude)
		if dist > e.cfg.DistanceThresholdKm {
			continue
		}

		nameA := NormalizeName(rec.ShopName)
		nameB := NormalizeName(other.ShopName)
		if !namesSimilar(nameA, nameB, e.cfg.MinNameLength) {
			continue
		}

		// Both members of a pair may nominate each other as nearest
		// neighbor within one pass; keep the first discovery.
		key := model.CanonicalKey(idA, idB)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		pairs = append(pairs, model.CandidatePair{
			CustomerIDA:    idA,
			ShopNameA:      nameA,
			ProspectCodeA:  strings.TrimSpace(rec.ProspectCode),
			LatitudeA:      rec.Latitude,
			LongitudeA:     rec.Longitude,
			CustomerIDB:    idB,
			ShopNameB:      nameB,
			ProspectCodeB:  strings.TrimSpace(other.ProspectCode),
			LatitudeB:      other.Latitude,
			LongitudeB:     other.Longitude,
			DistanceKm:     roundKm(dist),
			NamesSimilar:   true,
			Suspicious:     true,
			ComparisonType: label,
		})
	}

	return pairs, nil
}
