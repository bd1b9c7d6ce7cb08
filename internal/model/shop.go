// Package model defines the record and result types shared by the
// detection engine, the loader and the stores.
package model

import (
	"math"
	"sort"
	"strings"
)

// ShopRecord is one business location from the master workbook.
// Latitude and Longitude must be finite; the loader never hands the
// engine a record without resolvable coordinates.
type ShopRecord struct {
	CustomerID   string  `json:"customer_id"`
	ShopName     string  `json:"shop_name"`
	ProspectCode string  `json:"prospect_code,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// IsSecured reports whether the record carries a non-blank prospect code.
func (r ShopRecord) IsSecured() bool {
	return strings.TrimSpace(r.ProspectCode) != ""
}

// HasIdentity reports whether the record has the fields required to
// participate in pairing. Records failing this are skipped, not errors.
func (r ShopRecord) HasIdentity() bool {
	return strings.TrimSpace(r.CustomerID) != "" && strings.TrimSpace(r.ShopName) != ""
}

// HasCoordinates reports whether both coordinates are finite.
func (r ShopRecord) HasCoordinates() bool {
	return !math.IsNaN(r.Latitude) && !math.IsInf(r.Latitude, 0) &&
		!math.IsNaN(r.Longitude) && !math.IsInf(r.Longitude, 0)
}

// CanonicalKey returns the order-independent identity of a customer ID
// pair: both IDs trimmed, sorted lexicographically, joined with "|".
// Two candidate pairs with equal keys are the same finding.
func CanonicalKey(idA, idB string) string {
	ids := []string{strings.TrimSpace(idA), strings.TrimSpace(idB)}
	sort.Strings(ids)
	return ids[0] + "|" + ids[1]
}
