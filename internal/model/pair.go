package model

// ComparisonType labels which pass produced a candidate pair. It is
// fixed at construction time and never re-derived from record contents.
type ComparisonType string

const (
	ComparisonSecuredSecured     ComparisonType = "Secured vs Secured"
	ComparisonUnsecuredSecured   ComparisonType = "Unsecured vs Secured"
	ComparisonUnsecuredUnsecured ComparisonType = "Unsecured vs Unsecured"
)

// CandidatePair is a suspicious duplicate finding: two distinct records
// within the distance threshold whose normalized names overlap. Shop
// names are stored normalized; prospect codes are trimmed ("" if absent).
type CandidatePair struct {
	CustomerIDA    string         `json:"customer_id_a"`
	ShopNameA      string         `json:"shop_name_a"`
	ProspectCodeA  string         `json:"prospect_code_a"`
	LatitudeA      float64        `json:"latitude_a"`
	LongitudeA     float64        `json:"longitude_a"`
	CustomerIDB    string         `json:"customer_id_b"`
	ShopNameB      string         `json:"shop_name_b"`
	ProspectCodeB  string         `json:"prospect_code_b"`
	LatitudeB      float64        `json:"latitude_b"`
	LongitudeB     float64        `json:"longitude_b"`
	DistanceKm     float64        `json:"distance_km"`
	NamesSimilar   bool           `json:"names_similar"`
	Suspicious     bool           `json:"suspicious_duplicate"`
	ComparisonType ComparisonType `json:"comparison_type"`
}

// Key returns the canonical pair key for dedup across and within passes.
func (p CandidatePair) Key() string {
	return CanonicalKey(p.CustomerIDA, p.CustomerIDB)
}
