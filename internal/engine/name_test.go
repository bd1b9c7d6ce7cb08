package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "title cases latin", in: "abc mart", expected: "Abc Mart"},
		{name: "lowercases shouting", in: "ABC MART", expected: "Abc Mart"},
		{name: "trims whitespace", in: "  abc mart  ", expected: "Abc Mart"},
		{name: "keeps digits", in: "abc mart 2", expected: "Abc Mart 2"},
		{name: "empty", in: "", expected: ""},
		{name: "whitespace only", in: "   ", expected: ""},
		{name: "khmer untouched", in: " ហាងលក់ទំនិញ ", expected: "ហាងលក់ទំនិញ"},
		{name: "cjk untouched", in: "東京 mart", expected: "東京 mart"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.in))
		})
	}
}

func TestHasCaselessLetter(t *testing.T) {
	assert.False(t, hasCaselessLetter("ABC Mart"))
	assert.False(t, hasCaselessLetter("Café Zürich"))
	assert.True(t, hasCaselessLetter("ហាង"))
	assert.True(t, hasCaselessLetter("ร้านค้า"))
	assert.True(t, hasCaselessLetter("東京"))
	// Digits and punctuation are not letters.
	assert.False(t, hasCaselessLetter("123 #4"))
}

func TestNamesSimilar(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		minLen   int
		expected bool
	}{
		{name: "identical", a: "Abc Mart", b: "Abc Mart", minLen: 3, expected: true},
		{name: "containment forward", a: "Abc Mart", b: "Abc Mart 2", minLen: 3, expected: true},
		{name: "containment backward", a: "Abc Mart 2", b: "Abc Mart", minLen: 3, expected: true},
		{name: "case folded", a: "ABC MART", b: "abc mart 2", minLen: 3, expected: true},
		{name: "no overlap", a: "Lucky Mart", b: "Abc Mart", minLen: 3, expected: false},
		{name: "short name rejected", a: "Ab", b: "Ab", minLen: 3, expected: false},
		{name: "one side short rejected", a: "Ab", b: "Abc Mart", minLen: 3, expected: false},
		{name: "exactly min length", a: "Abc", b: "Abc Mart", minLen: 3, expected: true},
		{name: "khmer containment", a: "ហាងលក់", b: "ហាងលក់ទំនិញ", minLen: 3, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, namesSimilar(tt.a, tt.b, tt.minLen))
		})
	}
}
