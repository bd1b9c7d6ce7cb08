package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	// Spec'd reference pair: two shops in Phnom Penh ~65m apart.
	d := haversineKm(11.5600, 104.9200, 11.5605, 104.9203)
	assert.InDelta(t, 0.0645, d, 0.002)

	// Zero distance.
	assert.InDelta(t, 0.0, haversineKm(11.56, 104.92, 11.56, 104.92), 1e-12)

	// Symmetry.
	fwd := haversineKm(11.5600, 104.9200, 11.5605, 104.9203)
	rev := haversineKm(11.5605, 104.9203, 11.5600, 104.9200)
	assert.InDelta(t, fwd, rev, 1e-12)

	// One degree of latitude along a meridian is ~111.19 km.
	assert.InDelta(t, 111.19, haversineKm(0, 0, 1, 0), 0.05)
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 0.065, roundKm(0.06451))
	assert.Equal(t, 0.064, roundKm(0.06449))
	assert.Equal(t, 0.1, roundKm(0.10001))
	assert.Equal(t, 0.0, roundKm(0.0))
	assert.Equal(t, 1.235, roundKm(1.23456))
}
