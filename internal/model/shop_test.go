package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		name     string
		idA, idB string
		expected string
	}{
		{name: "already sorted", idA: "A1", idB: "B2", expected: "A1|B2"},
		{name: "reversed order sorts", idA: "B2", idB: "A1", expected: "A1|B2"},
		{name: "trims whitespace", idA: "  B2 ", idB: "A1  ", expected: "A1|B2"},
		{name: "equal ids", idA: "X1", idB: "X1", expected: "X1|X1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalKey(tt.idA, tt.idB))
		})
	}
}

func TestCanonicalKeySymmetry(t *testing.T) {
	assert.Equal(t, CanonicalKey("X1", "X2"), CanonicalKey("X2", "X1"))
}

func TestShopRecordIsSecured(t *testing.T) {
	assert.True(t, ShopRecord{ProspectCode: "P-001"}.IsSecured())
	assert.False(t, ShopRecord{ProspectCode: ""}.IsSecured())
	assert.False(t, ShopRecord{ProspectCode: "   "}.IsSecured())
}

func TestShopRecordHasIdentity(t *testing.T) {
	assert.True(t, ShopRecord{CustomerID: "X1", ShopName: "ABC Mart"}.HasIdentity())
	assert.False(t, ShopRecord{CustomerID: " ", ShopName: "ABC Mart"}.HasIdentity())
	assert.False(t, ShopRecord{CustomerID: "X1", ShopName: ""}.HasIdentity())
}

func TestShopRecordHasCoordinates(t *testing.T) {
	assert.True(t, ShopRecord{Latitude: 11.56, Longitude: 104.92}.HasCoordinates())
	assert.False(t, ShopRecord{Latitude: math.NaN(), Longitude: 104.92}.HasCoordinates())
	assert.False(t, ShopRecord{Latitude: 11.56, Longitude: math.Inf(1)}.HasCoordinates())
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in       string
		expected Mode
		wantErr  bool
	}{
		{in: "all", expected: ModeAll},
		{in: "secured", expected: ModeSecured},
		{in: "cross", expected: ModeCross},
		{in: "unsecured", expected: ModeUnsecured},
		{in: "unsecured_secured", expected: ModeCross}, // legacy alias
		{in: "bogus", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, m)
		})
	}
}

func TestModePassSelection(t *testing.T) {
	assert.True(t, ModeAll.RunsSecuredSelf())
	assert.True(t, ModeAll.RunsCross())
	assert.True(t, ModeAll.RunsUnsecuredSelf())

	assert.True(t, ModeSecured.RunsSecuredSelf())
	assert.False(t, ModeSecured.RunsCross())
	assert.False(t, ModeSecured.RunsUnsecuredSelf())

	assert.False(t, ModeCross.RunsSecuredSelf())
	assert.True(t, ModeCross.RunsCross())
	assert.False(t, ModeCross.RunsUnsecuredSelf())

	assert.False(t, ModeUnsecured.RunsSecuredSelf())
	assert.False(t, ModeUnsecured.RunsCross())
	assert.True(t, ModeUnsecured.RunsUnsecuredSelf())
}
